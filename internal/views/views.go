// ABOUTME: View models for the dashboard, data entry, analysis, and PDCA screens.
// ABOUTME: Each view reads one filter's snapshot and applies aggregation.
package views

import (
	"context"
	"fmt"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
)

// ActivityRow pairs an activity with its score for the period.
type ActivityRow struct {
	Activity *models.Activity `json:"activity"`
	aggregate.Score
}

// DashboardView summarizes a cluster's month.
type DashboardView struct {
	Filter  Filter           `json:"filter"`
	Cluster models.Cluster   `json:"cluster"`
	Period  string           `json:"period"`
	Rows    []ActivityRow    `json:"rows"`
	Totals  aggregate.Totals `json:"totals"`
}

// Dashboard builds the dashboard for f.
func (s *Service) Dashboard(ctx context.Context, f Filter) (*DashboardView, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	v := &DashboardView{
		Filter:  f,
		Cluster: sn.cluster,
		Period:  f.Period().String(),
		Rows:    make([]ActivityRow, 0, len(sn.activities)),
	}
	scores := make([]aggregate.Score, 0, len(sn.activities))
	for _, a := range sn.activities {
		sc := sn.score(s.eval, a)
		v.Rows = append(v.Rows, ActivityRow{Activity: a, Score: sc})
		scores = append(scores, sc)
	}
	v.Totals = aggregate.Count(scores)
	return v, nil
}

// EntryRow is one editable line on the data entry screen.
type EntryRow struct {
	Activity *models.Activity `json:"activity"`
	Value    float64          `json:"value"`
	Recorded bool             `json:"recorded"`
}

// DataEntryView lists a page of activities with their recorded value.
type DataEntryView struct {
	Filter  Filter         `json:"filter"`
	Cluster models.Cluster `json:"cluster"`
	Page    aggregate.Page `json:"page"`
	Rows    []EntryRow     `json:"rows"`
}

// DataEntry builds one page of the data entry screen.
func (s *Service) DataEntry(ctx context.Context, f Filter, req PageRequest) (*DataEntryView, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	page := aggregate.Paginate(len(sn.activities), req.Page, req.PerPage)
	v := &DataEntryView{Filter: f, Cluster: sn.cluster, Page: page, Rows: []EntryRow{}}
	for _, a := range aggregate.Window(sn.activities, page) {
		value, ok := aggregate.ValueFor(sn.monthly, a.ID)
		v.Rows = append(v.Rows, EntryRow{Activity: a, Value: value, Recorded: ok})
	}
	return v, nil
}

// BarPoint is one target/value pair on a bar chart.
type BarPoint struct {
	Label  string  `json:"label"`
	Target float64 `json:"target"`
	Value  float64 `json:"value"`
}

// RadarPoint is one capped percentage on a radar chart.
type RadarPoint struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// TrendPoint is one month of a trend line.
type TrendPoint struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// AnalysisView holds the chart series of the analysis screen.
type AnalysisView struct {
	Filter  Filter         `json:"filter"`
	Cluster models.Cluster `json:"cluster"`
	Page    aggregate.Page `json:"page"`
	Bar     []BarPoint     `json:"bar"`
	Radar   []RadarPoint   `json:"radar"`
	Trend   []TrendPoint   `json:"trend"`
}

// Analysis builds the chart series for one page of activities. The trend
// covers every activity of the cluster from January to the selected month.
func (s *Service) Analysis(ctx context.Context, f Filter, req PageRequest) (*AnalysisView, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}

	page := aggregate.Paginate(len(sn.activities), req.Page, req.PerPage)
	visible := aggregate.Window(sn.activities, page)
	v := &AnalysisView{
		Filter:  f,
		Cluster: sn.cluster,
		Page:    page,
		Bar:     barSeries(visible, sn.monthly, 15),
		Radar:   radarSeries(visible, sn.monthly, 10),
		Trend:   trendSeries(sn.activities, sn.annual, f.Month),
	}
	return v, nil
}

func barSeries(list []*models.Activity, monthly []*models.Achievement, labelLen int) []BarPoint {
	out := make([]BarPoint, 0, len(list))
	for _, a := range list {
		value, _ := aggregate.ValueFor(monthly, a.ID)
		out = append(out, BarPoint{Label: shortLabel(a.Name, labelLen), Target: a.TargetValue, Value: value})
	}
	return out
}

func radarSeries(list []*models.Activity, monthly []*models.Achievement, labelLen int) []RadarPoint {
	out := make([]RadarPoint, 0, len(list))
	for _, a := range list {
		value, _ := aggregate.ValueFor(monthly, a.ID)
		out = append(out, RadarPoint{Label: shortLabel(a.Name, labelLen), Percent: aggregate.CappedPercent(a.TargetValue, value)})
	}
	return out
}

func trendSeries(list []*models.Activity, annual []*models.Achievement, month int) []TrendPoint {
	avgs := aggregate.MonthlyAveragePercent(list, annual, month)
	out := make([]TrendPoint, 0, len(avgs))
	for m, p := range avgs {
		out = append(out, TrendPoint{Label: models.MonthName(m), Percent: p})
	}
	return out
}

// PdcaItem is a failing activity with the note written for the period, if any.
type PdcaItem struct {
	Activity *models.Activity  `json:"activity"`
	Score    aggregate.Score   `json:"score"`
	Entry    *models.PdcaEntry `json:"entry,omitempty"`
}

// PdcaView lists a page of failing activities.
type PdcaView struct {
	Filter  Filter         `json:"filter"`
	Cluster models.Cluster `json:"cluster"`
	Page    aggregate.Page `json:"page"`
	Items   []PdcaItem     `json:"items"`
}

// Pdca builds one page of the PDCA screen: activities below target, including
// those with nothing recorded.
func (s *Service) Pdca(ctx context.Context, f Filter, req PageRequest) (*PdcaView, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	entries, err := s.pdcaByActivity(ctx, f)
	if err != nil {
		return nil, err
	}

	failed := s.eval.FailedActivities(sn.activities, f.Month, sn.monthly, sn.annual)
	page := aggregate.Paginate(len(failed), req.Page, req.PerPage)
	v := &PdcaView{Filter: f, Cluster: sn.cluster, Page: page, Items: []PdcaItem{}}
	for _, a := range aggregate.Window(failed, page) {
		v.Items = append(v.Items, PdcaItem{Activity: a, Score: sn.score(s.eval, a), Entry: entries[a.ID]})
	}
	return v, nil
}

// FailedActivities lists the activities below target for f.
func (s *Service) FailedActivities(ctx context.Context, f Filter) ([]*models.Activity, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	failed := s.eval.FailedActivities(sn.activities, f.Month, sn.monthly, sn.annual)
	if failed == nil {
		failed = []*models.Activity{}
	}
	return failed, nil
}

func (s *Service) pdcaByActivity(ctx context.Context, f Filter) (map[string]*models.PdcaEntry, error) {
	list, err := s.repo.ListBulkPdca(ctx, f.Month, f.Year, f.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("list pdca: %w", err)
	}
	out := make(map[string]*models.PdcaEntry, len(list))
	for _, p := range list {
		if _, seen := out[p.ActivityID]; !seen {
			out[p.ActivityID] = p
		}
	}
	return out, nil
}
