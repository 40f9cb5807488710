// ABOUTME: Local durable key-value backend built on badger.
// ABOUTME: Keeps the whole dataset as one JSON document under a fixed key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/minilok/internal/models"
	"github.com/rs/zerolog/log"
)

// LocalKey is the badger key holding the serialized dataset.
const LocalKey = "minilok_data"

// LocalStore implements Repository on a single badger document.
type LocalStore struct {
	db   *badger.DB
	mu   sync.RWMutex
	data *Dataset
}

var _ Repository = (*LocalStore)(nil)

// OpenLocal opens or creates a local store in dir.
func OpenLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}
	return openLocal(badger.DefaultOptions(dir).WithLogger(nil))
}

// OpenLocalInMemory opens a local store that lives only as long as the process.
func OpenLocalInMemory() (*LocalStore, error) {
	return openLocal(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func openLocal(opts badger.Options) (*LocalStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	s := &LocalStore{db: db}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// load reads the document. A malformed document is replaced by an empty dataset
// in memory; the next write overwrites it on disk.
func (s *LocalStore) load() error {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(LocalKey))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.data = emptyDataset()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read local dataset: %w", err)
	}

	data, err := decodeDataset(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", LocalKey).Int("bytes", len(raw)).
			Msg("local dataset is unreadable, starting from an empty dataset")
		s.data = emptyDataset()
		return nil
	}
	s.data = data
	return nil
}

// mutate applies fn to a copy of the dataset and swaps it in once persisted.
func (s *LocalStore) mutate(fn func(ds *Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(LocalKey), raw)
	}); err != nil {
		return fmt.Errorf("write local dataset: %w", err)
	}
	s.data = next
	return nil
}

// ListActivities returns activities in creation order.
func (s *LocalStore) ListActivities(_ context.Context, clusterID string) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Activity{}
	for _, a := range s.data.Activities {
		if clusterID != "" && a.ClusterID != clusterID {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

// GetActivity retrieves an activity by id.
func (s *LocalStore) GetActivity(_ context.Context, id string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.data.activityIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	c := *s.data.Activities[i]
	return &c, nil
}

// CreateActivity adds an activity, or returns the existing one with the same name in the cluster.
func (s *LocalStore) CreateActivity(_ context.Context, in models.ActivityInput) (*models.Activity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result models.Activity
	err := s.mutate(func(ds *Dataset) error {
		if existing := ds.findByName(in.ClusterID, in.Name); existing != nil {
			result = *existing
			return errUnchanged
		}
		a := models.NewActivity(in)
		ds.Activities = append(ds.Activities, a)
		result = *a
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return nil, err
	}
	return &result, nil
}

// UpdateActivity merges patch into the activity with id.
func (s *LocalStore) UpdateActivity(_ context.Context, id string, patch models.ActivityPatch) (*models.Activity, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var result models.Activity
	err := s.mutate(func(ds *Dataset) error {
		i := ds.activityIndex(id)
		if i < 0 {
			return fmt.Errorf("activity %s: %w", id, ErrNotFound)
		}
		a := ds.Activities[i]
		if patch.Name != nil {
			if other := ds.findByName(a.ClusterID, *patch.Name); other != nil && other.ID != a.ID {
				return fmt.Errorf("activity %q already exists in %s: %w", *patch.Name, a.ClusterID, ErrConflict)
			}
		}
		patch.Apply(a)
		result = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteActivity removes an activity together with its achievements and PDCA notes.
func (s *LocalStore) DeleteActivity(_ context.Context, id string) error {
	return s.mutate(func(ds *Dataset) error {
		activities := ds.Activities[:0]
		for _, a := range ds.Activities {
			if a.ID != id {
				activities = append(activities, a)
			}
		}
		ds.Activities = activities

		achievements := ds.Achievements[:0]
		for _, a := range ds.Achievements {
			if a.ActivityID != id {
				achievements = append(achievements, a)
			}
		}
		ds.Achievements = achievements

		pdca := ds.Pdca[:0]
		for _, p := range ds.Pdca {
			if p.ActivityID != id {
				pdca = append(pdca, p)
			}
		}
		ds.Pdca = pdca
		return nil
	})
}

// ListAchievements returns the achievements recorded for one period.
func (s *LocalStore) ListAchievements(_ context.Context, month, year int, clusterID string) ([]*models.Achievement, error) {
	return s.achievements(func(a *models.Achievement) bool {
		return a.Month == month && a.Year == year
	}, clusterID), nil
}

// ListAnnualAchievements returns every achievement recorded in year.
func (s *LocalStore) ListAnnualAchievements(_ context.Context, year int, clusterID string) ([]*models.Achievement, error) {
	return s.achievements(func(a *models.Achievement) bool {
		return a.Year == year
	}, clusterID), nil
}

func (s *LocalStore) achievements(match func(*models.Achievement) bool, clusterID string) []*models.Achievement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.data.clusterMembers(clusterID)
	out := []*models.Achievement{}
	for _, a := range s.data.Achievements {
		if !match(a) {
			continue
		}
		if members != nil && members[a.ActivityID] == nil {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	return out
}

// SaveAchievement inserts or replaces the value for (activityId, month, year).
func (s *LocalStore) SaveAchievement(_ context.Context, a *models.Achievement) (*models.Achievement, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	rec := *a
	err := s.mutate(func(ds *Dataset) error {
		if ds.activityIndex(rec.ActivityID) < 0 {
			return fmt.Errorf("activity %s: %w", rec.ActivityID, ErrNotFound)
		}
		if i := indexAchievement(ds.Achievements, &rec); i >= 0 {
			ds.Achievements[i].Value = rec.Value
			return nil
		}
		c := rec
		ds.Achievements = append(ds.Achievements, &c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetPdca returns the PDCA note for a period, or nil when none was written.
func (s *LocalStore) GetPdca(_ context.Context, activityID string, month, year int) (*models.PdcaEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := &models.PdcaEntry{ActivityID: activityID, Month: month, Year: year}
	if i := indexPdca(s.data.Pdca, key); i >= 0 {
		c := *s.data.Pdca[i]
		return &c, nil
	}
	return nil, nil
}

// ListBulkPdca returns the period's PDCA notes with activity names filled in.
func (s *LocalStore) ListBulkPdca(_ context.Context, month, year int, clusterID string) ([]*models.PdcaEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make(map[string]string, len(s.data.Activities))
	for _, a := range s.data.Activities {
		if clusterID == "" || a.ClusterID == clusterID {
			names[a.ID] = a.Name
		}
	}

	out := []*models.PdcaEntry{}
	for _, p := range s.data.Pdca {
		name, ok := names[p.ActivityID]
		if !ok || p.Month != month || p.Year != year {
			continue
		}
		c := *p
		c.ActivityName = name
		out = append(out, &c)
	}
	return out, nil
}

// SavePdca inserts or replaces the PDCA note for (activityId, month, year).
func (s *LocalStore) SavePdca(_ context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	entry := *p
	entry.ActivityName = ""
	err := s.mutate(func(ds *Dataset) error {
		if ds.activityIndex(entry.ActivityID) < 0 {
			return fmt.Errorf("activity %s: %w", entry.ActivityID, ErrNotFound)
		}
		if i := indexPdca(ds.Pdca, &entry); i >= 0 {
			c := entry
			ds.Pdca[i] = &c
			return nil
		}
		c := entry
		ds.Pdca = append(ds.Pdca, &c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetAllData returns a snapshot of the whole document.
func (s *LocalStore) GetAllData(_ context.Context) (*ExportData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewExportData(*s.data.clone()), nil
}

// ImportData replays an export into the store.
func (s *LocalStore) ImportData(ctx context.Context, data *ExportData) error {
	_, err := ReplayData(ctx, s, data)
	return err
}

// Close flushes and closes the badger database.
func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// errUnchanged aborts a mutation without writing.
var errUnchanged = errors.New("unchanged")
