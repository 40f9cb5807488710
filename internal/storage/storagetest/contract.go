// ABOUTME: Shared behavioural contract for every storage.Repository backend.
// ABOUTME: Backend test files call Run with a factory that yields an empty store.
package storagetest

import (
	"context"
	"math"
	"testing"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository and registers its own cleanup on t.
type Factory func(t *testing.T) storage.Repository

// Run executes the contract against repositories produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo storage.Repository)
	}{
		{"CreateListOrder", testCreateListOrder},
		{"CreateDuplicateReturnsExisting", testCreateDuplicate},
		{"CreateRejectsInvalid", testCreateRejectsInvalid},
		{"RejectsNonFiniteTarget", testRejectsNonFiniteTarget},
		{"GetActivityNotFound", testGetActivityNotFound},
		{"UpdateMergesFields", testUpdateMerges},
		{"UpdateUnknownID", testUpdateUnknown},
		{"UpdateRenameConflict", testUpdateRenameConflict},
		{"AchievementUpsert", testAchievementUpsert},
		{"AchievementValidation", testAchievementValidation},
		{"AchievementFilters", testAchievementFilters},
		{"PdcaUpsertAndBulk", testPdca},
		{"DeleteCascades", testDeleteCascades},
		{"ExportImportRoundTrip", testRoundTrip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func mustCreate(t *testing.T, repo storage.Repository, cluster, name string, target float64) *models.Activity {
	t.Helper()
	a, err := repo.CreateActivity(context.Background(), models.ActivityInput{
		ClusterID:   cluster,
		Name:        name,
		TargetValue: target,
	})
	require.NoError(t, err)
	return a
}

func mustRecord(t *testing.T, repo storage.Repository, id string, month, year int, value float64) {
	t.Helper()
	_, err := repo.SaveAchievement(context.Background(), models.NewAchievement(id, month, year, value))
	require.NoError(t, err)
}

func testCreateListOrder(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)
	b := mustCreate(t, repo, "k1", "Rapat Lokmin", 1)
	c := mustCreate(t, repo, "k2", "Posyandu", 12)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, models.TargetStatic, a.TargetLogic)

	all, err := repo.ListActivities(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	k2, err := repo.ListActivities(ctx, "k2")
	require.NoError(t, err)
	require.Len(t, k2, 2)
	assert.Equal(t, a.ID, k2[0].ID)
	assert.Equal(t, c.ID, k2[1].ID)

	got, err := repo.GetActivity(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rapat Lokmin", got.Name)
	assert.Equal(t, "k1", got.ClusterID)
}

func testCreateDuplicate(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	first := mustCreate(t, repo, "k2", "Imunisasi", 100)
	again, err := repo.CreateActivity(ctx, models.ActivityInput{ClusterID: "k2", Name: "  imunisasi ", TargetValue: 5})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Imunisasi", again.Name)
	assert.InDelta(t, 100, again.TargetValue, 0.0001)

	other := mustCreate(t, repo, "k3", "Imunisasi", 10)
	assert.NotEqual(t, first.ID, other.ID)

	k2, err := repo.ListActivities(ctx, "k2")
	require.NoError(t, err)
	assert.Len(t, k2, 1)
}

func testCreateRejectsInvalid(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	_, err := repo.CreateActivity(ctx, models.ActivityInput{ClusterID: "k1", Name: "", TargetValue: 1})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = repo.CreateActivity(ctx, models.ActivityInput{ClusterID: "k1", Name: "Rapat"})
	require.ErrorIs(t, err, models.ErrValidation)

	all, err := repo.ListActivities(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testRejectsNonFiniteTarget(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, err := repo.CreateActivity(ctx, models.ActivityInput{ClusterID: "k2", Name: "Imunisasi", TargetValue: v})
		require.ErrorIs(t, err, models.ErrValidation, "target %v", v)
	}

	a := mustCreate(t, repo, "k2", "Imunisasi", 100)
	inf := math.Inf(1)
	_, err := repo.UpdateActivity(ctx, a.ID, models.ActivityPatch{TargetValue: &inf})
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = repo.SaveAchievement(ctx, models.NewAchievement(a.ID, 0, 2025, math.NaN()))
	require.ErrorIs(t, err, models.ErrValidation)

	got, err := repo.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got.TargetValue, 1e-9)
}

func testGetActivityNotFound(t *testing.T, repo storage.Repository) {
	_, err := repo.GetActivity(context.Background(), "act_missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdateMerges(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k4", "Skrining TB", 40)

	target := 55.0
	updated, err := repo.UpdateActivity(ctx, a.ID, models.ActivityPatch{TargetValue: &target})
	require.NoError(t, err)
	assert.Equal(t, "Skrining TB", updated.Name)
	assert.InDelta(t, 55, updated.TargetValue, 0.0001)

	name := "skrining tb"
	logic := models.TargetCumulative
	updated, err = repo.UpdateActivity(ctx, a.ID, models.ActivityPatch{Name: &name, TargetLogic: &logic})
	require.NoError(t, err)
	assert.Equal(t, "skrining tb", updated.Name)
	assert.Equal(t, models.TargetCumulative, updated.TargetLogic)

	got, err := repo.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Name, got.Name)
	assert.InDelta(t, 55, got.TargetValue, 0.0001)
	assert.Equal(t, models.TargetCumulative, got.TargetLogic)
}

func testUpdateUnknown(t *testing.T, repo storage.Repository) {
	name := "Baru"
	_, err := repo.UpdateActivity(context.Background(), "act_missing", models.ActivityPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdateRenameConflict(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	mustCreate(t, repo, "k1", "Rapat", 1)
	b := mustCreate(t, repo, "k1", "Supervisi", 2)

	name := "RAPAT"
	_, err := repo.UpdateActivity(ctx, b.ID, models.ActivityPatch{Name: &name})
	require.ErrorIs(t, err, storage.ErrConflict)

	got, err := repo.GetActivity(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Supervisi", got.Name)
}

func testAchievementUpsert(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)

	mustRecord(t, repo, a.ID, 0, 2025, 80)
	mustRecord(t, repo, a.ID, 0, 2025, 120)

	list, err := repo.ListAchievements(ctx, 0, 2025, "k2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 120, list[0].Value, 0.0001)

	_, err = repo.SaveAchievement(ctx, models.NewAchievement("act_missing", 0, 2025, 1))
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testAchievementValidation(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)

	_, err := repo.SaveAchievement(ctx, models.NewAchievement(a.ID, 0, 2025, -3))
	require.ErrorIs(t, err, models.ErrValidation)
	_, err = repo.SaveAchievement(ctx, models.NewAchievement(a.ID, 12, 2025, 3))
	require.ErrorIs(t, err, models.ErrValidation)

	list, err := repo.ListAnnualAchievements(ctx, 2025, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testAchievementFilters(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)
	b := mustCreate(t, repo, "k3", "Posbindu", 30)

	mustRecord(t, repo, a.ID, 0, 2025, 120)
	mustRecord(t, repo, a.ID, 1, 2025, 90)
	mustRecord(t, repo, a.ID, 0, 2024, 70)
	mustRecord(t, repo, b.ID, 0, 2025, 10)

	jan, err := repo.ListAchievements(ctx, 0, 2025, "")
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	janK2, err := repo.ListAchievements(ctx, 0, 2025, "k2")
	require.NoError(t, err)
	require.Len(t, janK2, 1)
	assert.Equal(t, a.ID, janK2[0].ActivityID)

	annual, err := repo.ListAnnualAchievements(ctx, 2025, "k2")
	require.NoError(t, err)
	assert.Len(t, annual, 2)

	none, err := repo.ListAchievements(ctx, 5, 2025, "k2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testPdca(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k3", "Posbindu", 30)
	b := mustCreate(t, repo, "k4", "Skrining TB", 40)

	got, err := repo.GetPdca(ctx, a.ID, 2, 2025)
	require.NoError(t, err)
	assert.Nil(t, got)

	entry := &models.PdcaEntry{ActivityID: a.ID, Month: 2, Year: 2025, Plan: "Jadwal ulang", Do: "Sweeping", Check: "Naik 10%", Action: "Lanjutkan"}
	_, err = repo.SavePdca(ctx, entry)
	require.NoError(t, err)

	entry.Plan = "Jadwal baru"
	_, err = repo.SavePdca(ctx, entry)
	require.NoError(t, err)

	_, err = repo.SavePdca(ctx, &models.PdcaEntry{ActivityID: b.ID, Month: 2, Year: 2025, Plan: "p"})
	require.NoError(t, err)

	got, err = repo.GetPdca(ctx, a.ID, 2, 2025)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jadwal baru", got.Plan)
	assert.Equal(t, "Sweeping", got.Do)

	bulk, err := repo.ListBulkPdca(ctx, 2, 2025, "k3")
	require.NoError(t, err)
	require.Len(t, bulk, 1)
	assert.Equal(t, "Posbindu", bulk[0].ActivityName)

	all, err := repo.ListBulkPdca(ctx, 2, 2025, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repo.SavePdca(ctx, &models.PdcaEntry{ActivityID: "act_missing", Month: 2, Year: 2025})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testDeleteCascades(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)
	keep := mustCreate(t, repo, "k2", "Posyandu", 12)

	mustRecord(t, repo, a.ID, 0, 2025, 120)
	mustRecord(t, repo, keep.ID, 0, 2025, 5)
	_, err := repo.SavePdca(ctx, &models.PdcaEntry{ActivityID: a.ID, Month: 0, Year: 2025, Plan: "x"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteActivity(ctx, a.ID))

	_, err = repo.GetActivity(ctx, a.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := repo.ListAchievements(ctx, 0, 2025, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ActivityID)

	entry, err := repo.GetPdca(ctx, a.ID, 0, 2025)
	require.NoError(t, err)
	assert.Nil(t, entry)

	data, err := repo.GetAllData(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Activities, 1)
	assert.Len(t, data.Achievements, 1)
	assert.Empty(t, data.Pdca)
}

func testRoundTrip(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	a := mustCreate(t, repo, "k2", "Imunisasi", 100)
	mustRecord(t, repo, a.ID, 3, 2025, 42)
	_, err := repo.SavePdca(ctx, &models.PdcaEntry{ActivityID: a.ID, Month: 3, Year: 2025, Plan: "p", Do: "d", Check: "c", Action: "a"})
	require.NoError(t, err)

	data, err := repo.GetAllData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "minilok", data.Tool)

	// Importing into the same store reuses the activity by name.
	require.NoError(t, repo.ImportData(ctx, data))

	after, err := repo.GetAllData(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Activities, 1)
	assert.Len(t, after.Achievements, 1)
	assert.Len(t, after.Pdca, 1)
	assert.InDelta(t, 42, after.Achievements[0].Value, 0.0001)
}
