// ABOUTME: Remote relational backend on Postgres via a pgx connection pool.
// ABOUTME: Every driver failure is surfaced as a storage.BackendError carrying the server message.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
)

// Store implements storage.Repository on Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// Open connects to databaseURL and ensures the schema exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, backendErr("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, backendErr("ping", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, backendErr("apply schema", err)
	}
	return New(pool), nil
}

// New wraps an existing pool. The schema must already be applied.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func backendErr(op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("postgres backend failure")
	return &storage.BackendError{Op: op, Err: err}
}

const activityColumns = `id, cluster_id, name, target_value, target_logic, created_at`

// ListActivities returns activities in creation order.
func (s *Store) ListActivities(ctx context.Context, clusterID string) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	var args []any
	if clusterID != "" {
		query += ` WHERE cluster_id = $1`
		args = append(args, clusterID)
	}
	query += ` ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, backendErr("list activities", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, backendErr("scan activity", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErr("list activities", err)
	}
	return activities, nil
}

// GetActivity retrieves an activity by id.
func (s *Store) GetActivity(ctx context.Context, id string) (*models.Activity, error) {
	a, err := scanActivity(s.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, backendErr("get activity", err)
	}
	return a, nil
}

// CreateActivity inserts an activity unless one with the same name exists in the cluster.
func (s *Store) CreateActivity(ctx context.Context, in models.ActivityInput) (*models.Activity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	a := models.NewActivity(in)
	key := models.NameKey(a.Name)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, cluster_id, name, name_key, target_value, target_logic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cluster_id, name_key) DO NOTHING`,
		a.ID, a.ClusterID, a.Name, key, a.TargetValue, string(a.TargetLogic), a.CreatedAt)
	if err != nil {
		return nil, backendErr("insert activity", err)
	}

	stored, err := scanActivity(s.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE cluster_id = $1 AND name_key = $2`, a.ClusterID, key))
	if err != nil {
		return nil, backendErr("read activity", err)
	}
	return stored, nil
}

// UpdateActivity merges patch into the activity with id.
func (s *Store) UpdateActivity(ctx context.Context, id string, patch models.ActivityPatch) (*models.Activity, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, backendErr("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	a, err := scanActivity(tx.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, backendErr("get activity", err)
	}
	patch.Apply(a)
	key := models.NameKey(a.Name)

	var other string
	err = tx.QueryRow(ctx, `SELECT id FROM activities WHERE cluster_id = $1 AND name_key = $2 AND id <> $3`,
		a.ClusterID, key, a.ID).Scan(&other)
	switch {
	case err == nil:
		return nil, fmt.Errorf("activity %q already exists in %s: %w", a.Name, a.ClusterID, storage.ErrConflict)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, backendErr("check activity name", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE activities SET name = $1, name_key = $2, target_value = $3, target_logic = $4
		WHERE id = $5`,
		a.Name, key, a.TargetValue, string(a.TargetLogic), a.ID); err != nil {
		return nil, backendErr("update activity", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, backendErr("commit", err)
	}
	return a, nil
}

// DeleteActivity removes an activity; the foreign keys cascade to its records.
func (s *Store) DeleteActivity(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id); err != nil {
		return backendErr("delete activity", err)
	}
	return nil
}

// ListAchievements returns the achievements recorded for one period.
func (s *Store) ListAchievements(ctx context.Context, month, year int, clusterID string) ([]*models.Achievement, error) {
	query := `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach JOIN activities act ON act.id = ach.activity_id
		WHERE ach.month = $1 AND ach.year = $2`
	args := []any{month, year}
	if clusterID != "" {
		query += ` AND act.cluster_id = $3`
		args = append(args, clusterID)
	}
	return s.queryAchievements(ctx, query+` ORDER BY act.seq`, args...)
}

// ListAnnualAchievements returns every achievement recorded in year.
func (s *Store) ListAnnualAchievements(ctx context.Context, year int, clusterID string) ([]*models.Achievement, error) {
	query := `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach JOIN activities act ON act.id = ach.activity_id
		WHERE ach.year = $1`
	args := []any{year}
	if clusterID != "" {
		query += ` AND act.cluster_id = $2`
		args = append(args, clusterID)
	}
	return s.queryAchievements(ctx, query+` ORDER BY act.seq, ach.month`, args...)
}

func (s *Store) queryAchievements(ctx context.Context, query string, args ...any) ([]*models.Achievement, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, backendErr("list achievements", err)
	}
	defer rows.Close()

	achievements := []*models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ActivityID, &a.Month, &a.Year, &a.Value); err != nil {
			return nil, backendErr("scan achievement", err)
		}
		achievements = append(achievements, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErr("list achievements", err)
	}
	return achievements, nil
}

// SaveAchievement inserts or replaces the value for (activityId, month, year).
func (s *Store) SaveAchievement(ctx context.Context, a *models.Achievement) (*models.Achievement, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireActivity(ctx, a.ActivityID); err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO achievements (activity_id, month, year, value) VALUES ($1, $2, $3, $4)
		ON CONFLICT (activity_id, month, year) DO UPDATE SET value = EXCLUDED.value`,
		a.ActivityID, a.Month, a.Year, a.Value); err != nil {
		return nil, backendErr("save achievement", err)
	}
	saved := *a
	return &saved, nil
}

// GetPdca returns the PDCA note for a period, or nil when none was written.
func (s *Store) GetPdca(ctx context.Context, activityID string, month, year int) (*models.PdcaEntry, error) {
	var p models.PdcaEntry
	err := s.pool.QueryRow(ctx, `
		SELECT activity_id, month, year, plan, "do", "check", action
		FROM pdca WHERE activity_id = $1 AND month = $2 AND year = $3`,
		activityID, month, year,
	).Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, backendErr("get pdca", err)
	}
	return &p, nil
}

// ListBulkPdca returns the period's PDCA notes with activity names filled in.
func (s *Store) ListBulkPdca(ctx context.Context, month, year int, clusterID string) ([]*models.PdcaEntry, error) {
	query := `
		SELECT p.activity_id, p.month, p.year, p.plan, p."do", p."check", p.action, act.name
		FROM pdca p JOIN activities act ON act.id = p.activity_id
		WHERE p.month = $1 AND p.year = $2`
	args := []any{month, year}
	if clusterID != "" {
		query += ` AND act.cluster_id = $3`
		args = append(args, clusterID)
	}

	rows, err := s.pool.Query(ctx, query+` ORDER BY act.seq`, args...)
	if err != nil {
		return nil, backendErr("list pdca", err)
	}
	defer rows.Close()

	entries := []*models.PdcaEntry{}
	for rows.Next() {
		var p models.PdcaEntry
		if err := rows.Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action, &p.ActivityName); err != nil {
			return nil, backendErr("scan pdca", err)
		}
		entries = append(entries, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErr("list pdca", err)
	}
	return entries, nil
}

// SavePdca inserts or replaces the PDCA note for (activityId, month, year).
func (s *Store) SavePdca(ctx context.Context, p *models.PdcaEntry) (*models.PdcaEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireActivity(ctx, p.ActivityID); err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO pdca (activity_id, month, year, plan, "do", "check", action)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (activity_id, month, year) DO UPDATE SET
			plan = EXCLUDED.plan, "do" = EXCLUDED."do", "check" = EXCLUDED."check", action = EXCLUDED.action`,
		p.ActivityID, p.Month, p.Year, p.Plan, p.Do, p.Check, p.Action); err != nil {
		return nil, backendErr("save pdca", err)
	}
	saved := *p
	saved.ActivityName = ""
	return &saved, nil
}

// GetAllData retrieves all data for export.
func (s *Store) GetAllData(ctx context.Context) (*storage.ExportData, error) {
	activities, err := s.ListActivities(ctx, "")
	if err != nil {
		return nil, err
	}
	achievements, err := s.queryAchievements(ctx, `
		SELECT ach.activity_id, ach.month, ach.year, ach.value
		FROM achievements ach JOIN activities act ON act.id = ach.activity_id
		ORDER BY act.seq, ach.year, ach.month`)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT p.activity_id, p.month, p.year, p.plan, p."do", p."check", p.action
		FROM pdca p JOIN activities act ON act.id = p.activity_id
		ORDER BY act.seq, p.year, p.month`)
	if err != nil {
		return nil, backendErr("list pdca", err)
	}
	defer rows.Close()

	pdca := []*models.PdcaEntry{}
	for rows.Next() {
		var p models.PdcaEntry
		if err := rows.Scan(&p.ActivityID, &p.Month, &p.Year, &p.Plan, &p.Do, &p.Check, &p.Action); err != nil {
			return nil, backendErr("scan pdca", err)
		}
		pdca = append(pdca, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, backendErr("list pdca", err)
	}

	return storage.NewExportData(storage.Dataset{Activities: activities, Achievements: achievements, Pdca: pdca}), nil
}

// ImportData replays an export into the database.
func (s *Store) ImportData(ctx context.Context, data *storage.ExportData) error {
	_, err := storage.ReplayData(ctx, s, data)
	return err
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) requireActivity(ctx context.Context, id string) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM activities WHERE id = $1)`, id).Scan(&exists); err != nil {
		return backendErr("look up activity", err)
	}
	if !exists {
		return fmt.Errorf("activity %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var a models.Activity
	var logic string
	if err := row.Scan(&a.ID, &a.ClusterID, &a.Name, &a.TargetValue, &logic, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.TargetLogic = models.TargetLogic(logic)
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}
