// ABOUTME: Activity CRUD operations for the SQLite backend.
// ABOUTME: Names are unique per cluster on their case-folded key; deletes cascade.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/minilok/internal/models"
)

const activityColumns = `id, cluster_id, name, target_value, target_logic, created_at`

// ListActivities returns activities in creation order.
func (d *DB) ListActivities(ctx context.Context, clusterID string) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	var args []any
	if clusterID != "" {
		query += ` WHERE cluster_id = ?`
		args = append(args, clusterID)
	}
	query += ` ORDER BY rowid`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetActivity retrieves an activity by id.
func (d *DB) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	return scanActivity(row, id)
}

// CreateActivity inserts an activity unless one with the same name exists in the cluster,
// in which case the existing record is returned unchanged.
func (d *DB) CreateActivity(ctx context.Context, in models.ActivityInput) (*models.Activity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := models.NewActivity(in)

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO activities (id, cluster_id, name, name_key, target_value, target_logic, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (cluster_id, name_key) DO NOTHING`,
		a.ID, a.ClusterID, a.Name, models.NameKey(a.Name), a.TargetValue, string(a.TargetLogic),
		a.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}

	row := d.db.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE cluster_id = ? AND name_key = ?`,
		a.ClusterID, models.NameKey(a.Name))
	return scanActivity(row, a.Name)
}

// UpdateActivity merges patch into the activity with id.
func (d *DB) UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanActivity(tx.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id), id)
	if err != nil {
		return nil, err
	}
	patch.Apply(a)

	var other string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM activities WHERE cluster_id = ? AND name_key = ? AND id <> ?`,
		a.ClusterID, models.NameKey(a.Name), a.ID).Scan(&other)
	switch {
	case err == nil:
		return nil, fmt.Errorf("activity %q already exists in %s: %w", a.Name, a.ClusterID, ErrConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check activity name: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE activities SET name = ?, name_key = ?, target_value = ?, target_logic = ?
		WHERE id = ?`,
		a.Name, models.NameKey(a.Name), a.TargetValue, string(a.TargetLogic), a.ID)
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit activity update: %w", err)
	}
	return a, nil
}

// DeleteActivity removes an activity; achievements and PDCA notes go with it.
func (d *DB) DeleteActivity(ctx context.Context, id string) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// activityExists reports whether id names an activity, inside tx.
func activityExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM activities WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up activity: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivityFields(r rowScanner) (*models.Activity, error) {
	var a models.Activity
	var logic, createdAt string
	if err := r.Scan(&a.ID, &a.ClusterID, &a.Name, &a.TargetValue, &logic, &createdAt); err != nil {
		return nil, err
	}
	a.TargetLogic = models.TargetLogic(logic)
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}

// scanActivity scans a single row; ref names the lookup in the not-found error.
func scanActivity(row *sql.Row, ref string) (*models.Activity, error) {
	a, err := scanActivityFields(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	return a, nil
}

// scanActivities scans multiple rows into a slice of Activities.
func scanActivities(rows *sql.Rows) ([]*models.Activity, error) {
	activities := []*models.Activity{}
	for rows.Next() {
		a, err := scanActivityFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
