// ABOUTME: Repository interface for minilok activity data storage.
// ABOUTME: Defines the contract every backend (local KV, SQLite, Postgres) satisfies.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/minilok/internal/models"
)

var (
	// ErrNotFound is returned when an activity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a rename collides with another activity in the cluster.
	ErrConflict = errors.New("conflict")
)

// BackendError wraps a failure reported by a remote store.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Repository defines the storage interface for activities, achievements and PDCA notes.
// An empty clusterID means every cluster. Every mutation is persisted before it returns.
type Repository interface {
	// Activity operations
	ListActivities(ctx context.Context, clusterID string) ([]*models.Activity, error)
	GetActivity(ctx context.Context, id string) (*models.Activity, error)
	CreateActivity(ctx context.Context, in models.ActivityInput) (*models.Activity, error)
	UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error)
	DeleteActivity(ctx context.Context, id string) error

	// Achievement operations
	ListAchievements(ctx context.Context, month, year int, clusterID string) ([]*models.Achievement, error)
	ListAnnualAchievements(ctx context.Context, year int, clusterID string) ([]*models.Achievement, error)
	SaveAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)

	// PDCA operations
	GetPdca(ctx context.Context, activityID string, month, year int) (*models.PdcaEntry, error)
	ListBulkPdca(ctx context.Context, month, year int, clusterID string) ([]*models.PdcaEntry, error)
	SavePdca(ctx context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error)

	// Export/Import
	GetAllData(ctx context.Context) (*ExportData, error)
	ImportData(ctx context.Context, data *ExportData) error

	// Lifecycle
	Close() error
}

// Writer is the subset of Repository needed to replay a dataset into a store.
type Writer interface {
	CreateActivity(ctx context.Context, in models.ActivityInput) (*models.Activity, error)
	SaveAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error)
	SavePdca(ctx context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error)
}
