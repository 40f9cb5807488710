// ABOUTME: Write operations behind the data entry and PDCA forms.
// ABOUTME: Validation failures are rejected before any record is persisted.
package views

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/observability"
)

// AddActivity creates one activity, or returns the existing one with the same name.
func (s *Service) AddActivity(ctx context.Context, in models.ActivityInput) (*models.Activity, error) {
	a, err := s.repo.CreateActivity(ctx, in)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("activity_id", a.ID).Str("cluster", a.ClusterID).Msg("activity added")
	return a, nil
}

// BulkInput is a newline-separated list of names sharing one target.
type BulkInput struct {
	ClusterID   string             `json:"clusterId"`
	Names       string             `json:"names"`
	TargetValue float64            `json:"targetValue"`
	TargetLogic models.TargetLogic `json:"targetLogic"`
}

// SplitNames returns the trimmed, non-blank lines of text.
func SplitNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// BulkResult lists the activity for every name of a bulk add, in input order.
// Names already present in the cluster resolve to the existing activity.
type BulkResult struct {
	Activities []*models.Activity `json:"activities"`
	Created    int                `json:"created"`
	Existing   int                `json:"existing"`
}

// BulkAddActivities creates one activity per line of in.Names. An empty list or
// missing target fails before anything is written.
func (s *Service) BulkAddActivities(ctx context.Context, in BulkInput) (*BulkResult, error) {
	names := SplitNames(in.Names)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no activity names given", models.ErrValidation)
	}
	inputs := make([]models.ActivityInput, 0, len(names))
	for _, name := range names {
		input := models.ActivityInput{
			ClusterID:   in.ClusterID,
			Name:        name,
			TargetValue: in.TargetValue,
			TargetLogic: in.TargetLogic,
		}
		if err := input.Validate(); err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}

	current, err := s.repo.ListActivities(ctx, in.ClusterID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(current))
	for _, a := range current {
		known[models.NameKey(a.Name)] = true
	}

	res := &BulkResult{Activities: make([]*models.Activity, 0, len(inputs))}
	for _, input := range inputs {
		a, err := s.repo.CreateActivity(ctx, input)
		if err != nil {
			return res, fmt.Errorf("create %q: %w", input.Name, err)
		}
		key := models.NameKey(input.Name)
		if known[key] {
			res.Existing++
		} else {
			res.Created++
			known[key] = true
		}
		res.Activities = append(res.Activities, a)
	}
	log.Info().Int("created", res.Created).Int("existing", res.Existing).Str("cluster", in.ClusterID).Msg("activities added in bulk")
	return res, nil
}

// EditActivity merges patch into an activity.
func (s *Service) EditActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error) {
	return s.repo.UpdateActivity(ctx, id, patch)
}

// RemoveActivity deletes an activity with its achievements and PDCA notes.
func (s *Service) RemoveActivity(ctx context.Context, id string) error {
	if err := s.repo.DeleteActivity(ctx, id); err != nil {
		return err
	}
	log.Info().Str("activity_id", id).Msg("activity removed")
	return nil
}

// ParseValue reads a form value. Blank, unparsable and negative input become 0.
func ParseValue(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// RecordAchievement saves the value typed for an activity in a period.
func (s *Service) RecordAchievement(ctx context.Context, activityID string, period models.Period, raw string) (*models.Achievement, error) {
	return s.SaveAchievement(ctx, models.NewAchievement(activityID, period.Month, period.Year, ParseValue(raw)))
}

// SaveAchievement upserts an already parsed achievement.
func (s *Service) SaveAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	activity, err := s.repo.GetActivity(ctx, a.ActivityID)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveAchievement(ctx, a)
	if err != nil {
		return nil, err
	}
	observability.RecordAchievementSaved(activity.ClusterID)
	return saved, nil
}

// SavePdca upserts the PDCA note for an activity and period.
func (s *Service) SavePdca(ctx context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error) {
	saved, err := s.repo.SavePdca(ctx, p)
	if err != nil {
		return nil, err
	}
	observability.RecordPdcaSaved()
	return saved, nil
}

// GetPdca returns the note for a period, or a "-" placeholder when none exists.
func (s *Service) GetPdca(ctx context.Context, activityID string, period models.Period) (*models.PdcaEntry, error) {
	if _, err := s.repo.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPdca(ctx, activityID, period.Month, period.Year)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.PlaceholderPdca(activityID, period), nil
	}
	return p, nil
}
