// ABOUTME: Tests for the view models, report data and mutations.
// ABOUTME: Runs against a temp-dir SQLite store with goleak checks.
package views

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreCurrent())
}

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "minilok.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, aggregate.Evaluator{})
}

func add(t *testing.T, s *Service, cluster, name string, target float64) *models.Activity {
	t.Helper()
	a, err := s.AddActivity(context.Background(), models.ActivityInput{ClusterID: cluster, Name: name, TargetValue: target})
	require.NoError(t, err)
	return a
}

func TestDashboardScenario(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k2", "Imunisasi", 100)
	_, err := s.RecordAchievement(ctx, a.ID, models.Period{Month: 0, Year: 2025}, "120")
	require.NoError(t, err)

	jan, err := s.Dashboard(ctx, Filter{ClusterID: "k2", Month: 0, Year: 2025})
	require.NoError(t, err)
	require.Len(t, jan.Rows, 1)
	assert.InDelta(t, 120.0, jan.Rows[0].Percent, 1e-9)
	assert.True(t, jan.Rows[0].Achieved)
	assert.Equal(t, aggregate.Totals{Total: 1, Achieved: 1}, jan.Totals)
	assert.Equal(t, "Januari 2025", jan.Period)

	feb, err := s.Dashboard(ctx, Filter{ClusterID: "k2", Month: 1, Year: 2025})
	require.NoError(t, err)
	assert.Zero(t, feb.Rows[0].Percent)
	assert.False(t, feb.Rows[0].Achieved)
	assert.Equal(t, 1, feb.Totals.NotAchieved)

	pdca, err := s.Pdca(ctx, Filter{ClusterID: "k2", Month: 1, Year: 2025}, FirstPage())
	require.NoError(t, err)
	require.Len(t, pdca.Items, 1)
	assert.Equal(t, a.ID, pdca.Items[0].Activity.ID)
	assert.Nil(t, pdca.Items[0].Entry)

	failed, err := s.FailedActivities(ctx, Filter{ClusterID: "k2", Month: 0, Year: 2025})
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{ClusterID: "k5", Month: 11, Year: 2031}.Validate())
	assert.ErrorIs(t, Filter{ClusterID: "k9", Month: 0, Year: 2025}.Validate(), models.ErrValidation)
	assert.ErrorIs(t, Filter{ClusterID: "k1", Month: -1, Year: 2025}.Validate(), models.ErrValidation)

	_, err := newService(t).Dashboard(context.Background(), Filter{ClusterID: "nope", Year: 2025})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestBulkAddActivities(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	res, err := s.BulkAddActivities(ctx, BulkInput{
		ClusterID:   "k3",
		Names:       "Posbindu\n\n  Skrining Hipertensi  \nSenam Lansia\n",
		TargetValue: 50,
		TargetLogic: models.TargetCumulative,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Existing)
	created := res.Activities
	require.Len(t, created, 3)
	for _, a := range created {
		assert.InDelta(t, 50, a.TargetValue, 1e-9)
		assert.Equal(t, models.TargetCumulative, a.TargetLogic)
	}
	assert.Equal(t, "Skrining Hipertensi", created[1].Name)

	list, err := s.Repository().ListActivities(ctx, "k3")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestBulkAddReportsExistingNames(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	existing := add(t, s, "k3", "Posbindu", 20)

	res, err := s.BulkAddActivities(ctx, BulkInput{
		ClusterID:   "k3",
		Names:       "POSBINDU\nSenam Lansia\nsenam lansia",
		TargetValue: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Existing)
	require.Len(t, res.Activities, 3)
	assert.Equal(t, existing.ID, res.Activities[0].ID)
	assert.InDelta(t, 20, res.Activities[0].TargetValue, 1e-9)
	assert.Equal(t, res.Activities[1].ID, res.Activities[2].ID)

	list, err := s.Repository().ListActivities(ctx, "k3")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBulkAddRejectsWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	_, err := s.BulkAddActivities(ctx, BulkInput{ClusterID: "k3", Names: " \n\n", TargetValue: 5})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.BulkAddActivities(ctx, BulkInput{ClusterID: "k3", Names: "A\nB"})
	assert.ErrorIs(t, err, models.ErrValidation)

	list, err := s.Repository().ListActivities(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestParseValue(t *testing.T) {
	tests := map[string]float64{
		"120":  120,
		" 7 ":  7,
		"12,5": 12.5,
		"":     0,
		"abc":  0,
		"-5":   0,
		"NaN":  0,
	}
	for raw, want := range tests {
		assert.InDelta(t, want, ParseValue(raw), 1e-9, "input %q", raw)
	}
}

func TestRecordAchievementUnknownActivity(t *testing.T) {
	_, err := newService(t).RecordAchievement(context.Background(), "act_missing", models.Period{Year: 2025}, "1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDataEntryPagination(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	names := []string{"A", "B", "C", "D", "E"}
	var ids []string
	for _, n := range names {
		ids = append(ids, add(t, s, "k1", n, 1).ID)
	}
	_, err := s.RecordAchievement(ctx, ids[3], models.Period{Month: 4, Year: 2025}, "2")
	require.NoError(t, err)

	f := Filter{ClusterID: "k1", Month: 4, Year: 2025}
	v, err := s.DataEntry(ctx, f, PageRequest{Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page.TotalPages)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "D", v.Rows[0].Activity.Name)
	assert.True(t, v.Rows[0].Recorded)
	assert.InDelta(t, 2, v.Rows[0].Value, 1e-9)
	assert.False(t, v.Rows[1].Recorded)

	all, err := s.DataEntry(ctx, f, PageRequest{Page: 1, PerPage: 0})
	require.NoError(t, err)
	assert.Len(t, all.Rows, 5)
}

func TestAnalysisSeries(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k4", "Penemuan Kasus TB Paru Aktif", 10)
	b := add(t, s, "k4", "Skrining", 20)
	_, err := s.RecordAchievement(ctx, a.ID, models.Period{Month: 0, Year: 2025}, "10")
	require.NoError(t, err)
	_, err = s.RecordAchievement(ctx, a.ID, models.Period{Month: 1, Year: 2025}, "25")
	require.NoError(t, err)
	_, err = s.RecordAchievement(ctx, b.ID, models.Period{Month: 1, Year: 2025}, "10")
	require.NoError(t, err)

	v, err := s.Analysis(ctx, Filter{ClusterID: "k4", Month: 1, Year: 2025}, FirstPage())
	require.NoError(t, err)
	require.Len(t, v.Bar, 2)
	assert.Equal(t, "Penemuan Kasus ", v.Bar[0].Label)
	assert.InDelta(t, 25, v.Bar[0].Value, 1e-9)
	assert.InDelta(t, 100, v.Radar[0].Percent, 1e-9)
	assert.InDelta(t, 50, v.Radar[1].Percent, 1e-9)
	require.Len(t, v.Trend, 2)
	assert.Equal(t, "Januari", v.Trend[0].Label)
	assert.InDelta(t, 50, v.Trend[0].Percent, 1e-9)
	assert.InDelta(t, 150, v.Trend[1].Percent, 1e-9)
}

func TestReportHonorsSelection(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k2", "Imunisasi", 100)
	b := add(t, s, "k2", "Posyandu", 10)
	for m, v := range []string{"90", "110", "100"} {
		_, err := s.RecordAchievement(ctx, a.ID, models.Period{Month: m, Year: 2025}, v)
		require.NoError(t, err)
	}
	_, err := s.SavePdca(ctx, &models.PdcaEntry{ActivityID: a.ID, Month: 1, Year: 2025, Plan: "p"})
	require.NoError(t, err)
	_, err = s.SavePdca(ctx, &models.PdcaEntry{ActivityID: b.ID, Month: 1, Year: 2025, Plan: "q"})
	require.NoError(t, err)

	f := Filter{ClusterID: "k2", Month: 1, Year: 2025}
	r, err := s.Report(ctx, f, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, r.Monthly, 1)
	assert.InDelta(t, 110, r.Monthly[0].Percent, 1e-9)
	require.Len(t, r.Annual, 1)
	assert.InDelta(t, 200, r.Annual[0].Total, 1e-9)
	assert.InDelta(t, 1200, r.Annual[0].AnnualTarget, 1e-9)
	assert.InDelta(t, 100, r.Annual[0].RollingPercent, 1e-9)
	require.Len(t, r.Pdca, 1)
	assert.Equal(t, "Imunisasi", r.Pdca[0].ActivityName)
	assert.False(t, r.ShowRadar())

	full, err := s.Report(ctx, f, nil)
	require.NoError(t, err)
	assert.Len(t, full.Monthly, 2)
	assert.Len(t, full.Pdca, 2)
}

func TestBlankPdcaIsTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k2", "Imunisasi", 100)
	b := add(t, s, "k2", "Posyandu", 10)
	_, err := s.SavePdca(ctx, &models.PdcaEntry{ActivityID: a.ID, Month: 1, Year: 2025, Plan: "  ", Check: ""})
	require.NoError(t, err)
	_, err = s.SavePdca(ctx, &models.PdcaEntry{ActivityID: b.ID, Month: 1, Year: 2025, Do: "Kunjungan"})
	require.NoError(t, err)

	f := Filter{ClusterID: "k2", Month: 1, Year: 2025}
	r, err := s.Report(ctx, f, nil)
	require.NoError(t, err)
	require.Len(t, r.Pdca, 1)
	assert.Equal(t, b.ID, r.Pdca[0].ActivityID)

	deck, err := s.Slides(ctx, f, []string{a.ID})
	require.NoError(t, err)
	require.Len(t, deck.Slides, 1)
	assert.Equal(t, "-", deck.Slides[0].Pdca.Plan)
	assert.Equal(t, "-", deck.Slides[0].Pdca.Do)
}

func TestSlidesPlaceholderAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k2", "Imunisasi", 100)
	for m := 0; m < 7; m++ {
		_, err := s.RecordAchievement(ctx, a.ID, models.Period{Month: m, Year: 2025}, "50")
		require.NoError(t, err)
	}

	deck, err := s.Slides(ctx, Filter{ClusterID: "k2", Month: 6, Year: 2025}, nil)
	require.NoError(t, err)
	require.Len(t, deck.Slides, 1)

	slide := deck.Slides[0]
	assert.Equal(t, "-", slide.Pdca.Plan)
	assert.Equal(t, "-", slide.Pdca.Action)
	require.Len(t, slide.History, HistoryLen)
	assert.Equal(t, "Maret", slide.History[0].Label)
	assert.Equal(t, "Juli", slide.History[4].Label)
	assert.InDelta(t, 50, slide.History[4].Percent, 1e-9)

	early, err := s.Slides(ctx, Filter{ClusterID: "k2", Month: 1, Year: 2025}, nil)
	require.NoError(t, err)
	assert.Len(t, early.Slides[0].History, 2)
}

func TestGetPdcaPlaceholder(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	a := add(t, s, "k1", "Rapat", 1)

	p, err := s.GetPdca(ctx, a.ID, models.Period{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "-", p.Do)

	_, err = s.GetPdca(ctx, "act_missing", models.Period{Month: 3, Year: 2025})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExportFilename(t *testing.T) {
	cluster, _ := models.ClusterByID("k2")
	activities := []*models.Activity{
		{ID: "a1", Name: "Imunisasi Dasar Lengkap"},
		{ID: "a2", Name: "Posyandu"},
	}

	assert.Equal(t, "Laporan_Imunisasi_Dasar_Lengkap.pdf", ExportFilename(ExportDocument, cluster, activities, []string{"a1"}))
	assert.Equal(t, "Laporan_Ibu_dan_Balita_Lengkap.pdf", ExportFilename(ExportDocument, cluster, activities, nil))
	assert.Equal(t, "Laporan_Ibu_dan_Balita_Fokus.pdf", ExportFilename(ExportDocument, cluster, activities, []string{"a1", "a2"}))
	assert.Equal(t, "Slide_Ibu_dan_Balita_Fokus.pdf", ExportFilename(ExportSlides, cluster, activities, []string{"a1"}))
	assert.Equal(t, "Slide_Ibu_dan_Balita_Lengkap.pdf", ExportFilename(ExportSlides, cluster, activities, nil))
}
