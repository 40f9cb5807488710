// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for activities, achievements, and PDCA notes.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		cluster_id TEXT NOT NULL,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		target_value REAL NOT NULL,
		target_logic TEXT NOT NULL DEFAULT 'static',
		created_at TEXT NOT NULL,
		UNIQUE (cluster_id, name_key)
	);

	CREATE TABLE IF NOT EXISTS achievements (
		activity_id TEXT NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 0 AND 11),
		year INTEGER NOT NULL,
		value REAL NOT NULL CHECK (value >= 0),
		PRIMARY KEY (activity_id, month, year),
		FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS pdca (
		activity_id TEXT NOT NULL,
		month INTEGER NOT NULL CHECK (month BETWEEN 0 AND 11),
		year INTEGER NOT NULL,
		plan TEXT NOT NULL DEFAULT '',
		"do" TEXT NOT NULL DEFAULT '',
		"check" TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (activity_id, month, year),
		FOREIGN KEY (activity_id) REFERENCES activities(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_activities_cluster ON activities(cluster_id);
	CREATE INDEX IF NOT EXISTS idx_achievements_period ON achievements(year, month);
	CREATE INDEX IF NOT EXISTS idx_pdca_period ON pdca(year, month);
	`

	_, err := d.db.Exec(schema)
	return err
}
