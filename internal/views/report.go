// ABOUTME: Report and slide deck data for PDF export.
// ABOUTME: Honors an optional activity selection; empty selection means the whole cluster.
package views

import (
	"context"
	"regexp"
	"time"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
)

// AnnualRow is one line of the year-to-date table.
type AnnualRow struct {
	Activity *models.Activity `json:"activity"`
	aggregate.Rollup
}

// ReportData feeds the single-page report document.
type ReportData struct {
	Filter      Filter              `json:"filter"`
	Cluster     models.Cluster      `json:"cluster"`
	Period      string              `json:"period"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Monthly     []ActivityRow       `json:"monthly"`
	Annual      []AnnualRow         `json:"annual"`
	Pdca        []*models.PdcaEntry `json:"pdca"`
	Bar         []BarPoint          `json:"bar"`
	Radar       []RadarPoint        `json:"radar"`
}

// ShowRadar reports whether enough activities exist for a meaningful radar chart.
func (r *ReportData) ShowRadar() bool {
	return len(r.Radar) >= 3
}

// Report builds the report document data for f, limited to activityIDs when given.
func (s *Service) Report(ctx context.Context, f Filter, activityIDs []string) (*ReportData, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListBulkPdca(ctx, f.Month, f.Year, f.ClusterID)
	if err != nil {
		return nil, err
	}

	selected := selectActivities(sn.activities, activityIDs)
	r := &ReportData{
		Filter:      f,
		Cluster:     sn.cluster,
		Period:      f.Period().String(),
		GeneratedAt: time.Now(),
		Monthly:     make([]ActivityRow, 0, len(selected)),
		Annual:      make([]AnnualRow, 0, len(selected)),
		Pdca:        []*models.PdcaEntry{},
		Bar:         barSeries(selected, sn.monthly, 15),
		Radar:       radarSeries(selected, sn.monthly, 10),
	}

	inReport := make(map[string]bool, len(selected))
	for _, a := range selected {
		inReport[a.ID] = true
		r.Monthly = append(r.Monthly, ActivityRow{Activity: a, Score: sn.score(s.eval, a)})
		r.Annual = append(r.Annual, AnnualRow{Activity: a, Rollup: aggregate.AnnualRollup(a, sn.annual, f.Month)})
	}
	for _, p := range entries {
		if inReport[p.ActivityID] && !p.IsEmpty() {
			r.Pdca = append(r.Pdca, p)
		}
	}
	return r, nil
}

// HistoryLen is the number of months shown on a slide's history chart.
const HistoryLen = 5

// Slide is one activity's page of the slide deck.
type Slide struct {
	Activity *models.Activity  `json:"activity"`
	Score    aggregate.Score   `json:"score"`
	Pdca     *models.PdcaEntry `json:"pdca"`
	History  []TrendPoint      `json:"history"`
}

// SlideDeck feeds the landscape slide export.
type SlideDeck struct {
	Filter  Filter         `json:"filter"`
	Cluster models.Cluster `json:"cluster"`
	Period  string         `json:"period"`
	Slides  []Slide        `json:"slides"`
}

// Slides builds one slide per selected activity. Missing or blank PDCA notes become "-"
// placeholders; the history covers up to five months ending at the selected one.
func (s *Service) Slides(ctx context.Context, f Filter, activityIDs []string) (*SlideDeck, error) {
	sn, err := s.load(ctx, f)
	if err != nil {
		return nil, err
	}
	entries, err := s.pdcaByActivity(ctx, f)
	if err != nil {
		return nil, err
	}

	deck := &SlideDeck{Filter: f, Cluster: sn.cluster, Period: f.Period().String(), Slides: []Slide{}}
	for _, a := range selectActivities(sn.activities, activityIDs) {
		entry := entries[a.ID]
		if entry == nil || entry.IsEmpty() {
			entry = models.PlaceholderPdca(a.ID, f.Period())
		}
		deck.Slides = append(deck.Slides, Slide{
			Activity: a,
			Score:    sn.score(s.eval, a),
			Pdca:     entry,
			History:  history(a, sn.annual, f.Month),
		})
	}
	return deck, nil
}

func history(a *models.Activity, annual []*models.Achievement, month int) []TrendPoint {
	values := aggregate.MonthValues(a, annual)
	start := month - HistoryLen + 1
	if start < 0 {
		start = 0
	}
	out := make([]TrendPoint, 0, HistoryLen)
	for m := start; m <= month && m < len(values); m++ {
		out = append(out, TrendPoint{Label: models.MonthName(m), Percent: aggregate.Percent(a.TargetValue, values[m])})
	}
	return out
}

// ExportKind names one of the two PDF layouts.
type ExportKind string

const (
	// ExportDocument is the portrait single-document report.
	ExportDocument ExportKind = "document"
	// ExportSlides is the landscape one-slide-per-activity deck.
	ExportSlides ExportKind = "slides"
)

var whitespace = regexp.MustCompile(`\s+`)

// ExportFilename names the PDF for a cluster and activity selection.
func ExportFilename(kind ExportKind, cluster models.Cluster, activities []*models.Activity, selected []string) string {
	if kind == ExportDocument && len(selected) == 1 {
		for _, a := range activities {
			if a.ID == selected[0] {
				return "Laporan_" + whitespace.ReplaceAllString(a.Name, "_") + ".pdf"
			}
		}
	}

	scope := "Lengkap"
	if len(selected) > 0 {
		scope = "Fokus"
	}
	prefix := "Laporan_"
	if kind == ExportSlides {
		prefix = "Slide_"
	}
	return prefix + whitespace.ReplaceAllString(cluster.Name, "_") + "_" + scope + ".pdf"
}
