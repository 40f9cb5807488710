// ABOUTME: Achievement and PDCA operations for the SQLite backend.
// ABOUTME: Both collections are keyed on (activity_id, month, year) and saved by upsert.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/minilok/internal/models"
)

// ListAchievements returns the achievements recorded for one period.
func (d *DB) ListAchievements(ctx context.Context, month, year int, clusterID string) ([]*models.Achievement, error) {
	query := `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach
		JOIN activities act ON act.id = ach.activity_id
		WHERE ach.month = ? AND ach.year = ?`
	args := []any{month, year}
	if clusterID != "" {
		query += ` AND act.cluster_id = ?`
		args = append(args, clusterID)
	}
	query += ` ORDER BY act.rowid`
	return d.queryAchievements(ctx, query, args...)
}

// ListAnnualAchievements returns every achievement recorded in year.
func (d *DB) ListAnnualAchievements(ctx context.Context, year int, clusterID string) ([]*models.Achievement, error) {
	query := `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach
		JOIN activities act ON act.id = ach.activity_id
		WHERE ach.year = ?`
	args := []any{year}
	if clusterID != "" {
		query += ` AND act.cluster_id = ?`
		args = append(args, clusterID)
	}
	query += ` ORDER BY act.rowid, ach.month`
	return d.queryAchievements(ctx, query, args...)
}

func (d *DB) queryAchievements(ctx context.Context, query string, args ...any) ([]*models.Achievement, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer rows.Close()

	achievements := []*models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ActivityID, &a.Month, &a.Year, &a.Value); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievements = append(achievements, &a)
	}
	return achievements, rows.Err()
}

// SaveAchievement inserts or replaces the value for (activityId, month, year).
func (d *DB) SaveAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := activityExists(ctx, tx, a.ActivityID); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO achievements (activity_id, month, year, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (activity_id, month, year) DO UPDATE SET value = excluded.value`,
		a.ActivityID, a.Month, a.Year, a.Value)
	if err != nil {
		return nil, fmt.Errorf("upsert achievement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit achievement: %w", err)
	}

	saved := *a
	return &saved, nil
}

// GetPdca returns the PDCA note for a period, or nil when none was written.
func (d *DB) GetPdca(ctx context.Context, activityID string, month, year int) (*models.PdcaEntry, error) {
	var p models.PdcaEntry
	err := d.db.QueryRowContext(ctx, `
		SELECT activity_id, month, year, plan, "do", "check", action
		FROM pdca WHERE activity_id = ? AND month = ? AND year = ?`,
		activityID, month, year,
	).Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pdca: %w", err)
	}
	return &p, nil
}

// ListBulkPdca returns the period's PDCA notes with activity names filled in.
func (d *DB) ListBulkPdca(ctx context.Context, month, year int, clusterID string) ([]*models.PdcaEntry, error) {
	query := `
		SELECT p.activity_id, p.month, p.year, p.plan, p."do", p."check", p.action, act.name
		FROM pdca p
		JOIN activities act ON act.id = p.activity_id
		WHERE p.month = ? AND p.year = ?`
	args := []any{month, year}
	if clusterID != "" {
		query += ` AND act.cluster_id = ?`
		args = append(args, clusterID)
	}
	query += ` ORDER BY act.rowid`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pdca: %w", err)
	}
	defer rows.Close()

	entries := []*models.PdcaEntry{}
	for rows.Next() {
		var p models.PdcaEntry
		if err := rows.Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action, &p.ActivityName); err != nil {
			return nil, fmt.Errorf("scan pdca: %w", err)
		}
		entries = append(entries, &p)
	}
	return entries, rows.Err()
}

// SavePdca inserts or replaces the PDCA note for (activityId, month, year).
func (d *DB) SavePdca(ctx context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := activityExists(ctx, tx, p.ActivityID); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO pdca (activity_id, month, year, plan, "do", "check", action)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (activity_id, month, year) DO UPDATE SET
			plan = excluded.plan, "do" = excluded."do", "check" = excluded."check", action = excluded.action`,
		p.ActivityID, p.Month, p.Year, p.Plan, p.Do, p.Check, p.Action)
	if err != nil {
		return nil, fmt.Errorf("upsert pdca: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit pdca: %w", err)
	}

	saved := *p
	saved.ActivityName = ""
	return &saved, nil
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	activities, err := d.ListActivities(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	achievements, err := d.queryAchievements(ctx, `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach
		JOIN activities act ON act.id = ach.activity_id
		ORDER BY act.rowid, ach.year, ach.month`)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT p.activity_id, p.month, p.year, p.plan, p."do", p."check", p.action
		FROM pdca p
		JOIN activities act ON act.id = p.activity_id
		ORDER BY act.rowid, p.year, p.month`)
	if err != nil {
		return nil, fmt.Errorf("query pdca: %w", err)
	}
	defer rows.Close()

	pdca := []*models.PdcaEntry{}
	for rows.Next() {
		var p models.PdcaEntry
		if err := rows.Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action); err != nil {
			return nil, fmt.Errorf("scan pdca: %w", err)
		}
		pdca = append(pdca, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return NewExportData(Dataset{Activities: activities, Achievements: achievements, Pdca: pdca}), nil
}

// ImportData replays an export into the database.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	_, err := ReplayData(ctx, d, data)
	return err
}
