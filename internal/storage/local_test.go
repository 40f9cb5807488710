// ABOUTME: Tests for the badger-backed local store.
// ABOUTME: Covers persistence across reopen, corrupt document recovery, and load-time de-duplication.
package storage

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/minilok/internal/models"
)

func writeRaw(t *testing.T, dir string, raw string) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer db.Close()
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(LocalKey), []byte(raw))
	}); err != nil {
		t.Fatalf("write raw document: %v", err)
	}
}

func TestLocalStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := OpenLocal(dir)
	if err != nil {
		t.Fatalf("OpenLocal failed: %v", err)
	}
	a, err := s.CreateActivity(ctx, models.ActivityInput{ClusterID: "k2", Name: "Imunisasi", TargetValue: 100})
	if err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	if _, err := s.SaveAchievement(ctx, models.NewAchievement(a.ID, 0, 2025, 120)); err != nil {
		t.Fatalf("SaveAchievement failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenLocal(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	list, err := s.ListAchievements(ctx, 0, 2025, "k2")
	if err != nil {
		t.Fatalf("ListAchievements failed: %v", err)
	}
	if len(list) != 1 || list[0].Value != 120 {
		t.Errorf("expected persisted achievement 120, got %+v", list)
	}
}

func TestLocalStoreRecoversFromCorruptDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeRaw(t, dir, "{not json")

	s, err := OpenLocal(dir)
	if err != nil {
		t.Fatalf("OpenLocal should recover, got %v", err)
	}
	defer s.Close()

	list, err := s.ListActivities(ctx, "")
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty dataset, got %d activities", len(list))
	}

	if _, err := s.CreateActivity(ctx, models.ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: 1}); err != nil {
		t.Fatalf("write after recovery failed: %v", err)
	}
}

func TestLocalStoreCollapsesDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeRaw(t, dir, `{
		"activities": [
			{"id": "act_1", "clusterId": "k2", "name": "Imunisasi", "targetValue": 100},
			{"id": "act_1", "clusterId": "k2", "name": "Imunisasi (copy)", "targetValue": 5},
			{"id": "act_2", "clusterId": "k2", "name": "Posyandu", "targetValue": 12, "targetLogic": "cumulative"}
		],
		"achievements": [
			{"activityId": "act_1", "month": 0, "year": 2025, "value": 120},
			{"activityId": "act_1", "month": 0, "year": 2025, "value": 1}
		]
	}`)

	s, err := OpenLocal(dir)
	if err != nil {
		t.Fatalf("OpenLocal failed: %v", err)
	}
	defer s.Close()

	list, err := s.ListActivities(ctx, "k2")
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(list))
	}
	if list[0].Name != "Imunisasi" {
		t.Errorf("expected first occurrence to win, got %q", list[0].Name)
	}
	if list[0].TargetLogic != models.TargetStatic {
		t.Errorf("expected missing logic to default to static, got %q", list[0].TargetLogic)
	}

	achievements, err := s.ListAchievements(ctx, 0, 2025, "")
	if err != nil {
		t.Fatalf("ListAchievements failed: %v", err)
	}
	if len(achievements) != 1 || achievements[0].Value != 120 {
		t.Errorf("expected single achievement of 120, got %+v", achievements)
	}

	pdca, err := s.ListBulkPdca(ctx, 0, 2025, "")
	if err != nil {
		t.Fatalf("ListBulkPdca failed: %v", err)
	}
	if len(pdca) != 0 {
		t.Errorf("expected missing pdca collection to load empty, got %d", len(pdca))
	}
}

func TestLocalStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, err := OpenLocalInMemory()
	if err != nil {
		t.Fatalf("OpenLocalInMemory failed: %v", err)
	}
	defer s.Close()

	a, err := s.CreateActivity(ctx, models.ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: 1})
	if err != nil {
		t.Fatalf("CreateActivity failed: %v", err)
	}
	a.Name = "mutated"

	got, err := s.GetActivity(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if got.Name != "Rapat" {
		t.Errorf("stored activity changed through returned pointer: %q", got.Name)
	}
}
