// ABOUTME: View service assembling view models from storage through aggregation.
// ABOUTME: Constructed once with its repository; holds no per-request state.
package views

import (
	"context"
	"fmt"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
)

// Service builds dashboard, entry, analysis, PDCA and report view models.
type Service struct {
	repo storage.Repository
	eval aggregate.Evaluator
}

// NewService creates a view service over repo.
func NewService(repo storage.Repository, eval aggregate.Evaluator) *Service {
	return &Service{repo: repo, eval: eval}
}

// Repository returns the underlying store.
func (s *Service) Repository() storage.Repository {
	return s.repo
}

// snapshot is the raw data a view is computed from.
type snapshot struct {
	filter     Filter
	cluster    models.Cluster
	activities []*models.Activity
	monthly    []*models.Achievement
	annual     []*models.Achievement
}

func (s *Service) load(ctx context.Context, f Filter) (*snapshot, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	activities, err := s.repo.ListActivities(ctx, f.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	monthly, err := s.repo.ListAchievements(ctx, f.Month, f.Year, f.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	annual, err := s.repo.ListAnnualAchievements(ctx, f.Year, f.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("list annual achievements: %w", err)
	}

	return &snapshot{
		filter:     f,
		cluster:    f.Cluster(),
		activities: aggregate.UniqueActivities(activities),
		monthly:    monthly,
		annual:     annual,
	}, nil
}

func (sn *snapshot) score(eval aggregate.Evaluator, a *models.Activity) aggregate.Score {
	return eval.Evaluate(a, sn.filter.Month, sn.monthly, sn.annual)
}

// selectActivities keeps the activities whose id is in ids; empty ids keeps all.
func selectActivities(list []*models.Activity, ids []string) []*models.Activity {
	if len(ids) == 0 {
		return list
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.Activity
	for _, a := range list {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

// shortLabel truncates name to n runes for chart axes.
func shortLabel(name string, n int) string {
	r := []rune(name)
	if len(r) <= n {
		return name
	}
	return string(r[:n])
}
