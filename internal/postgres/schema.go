// ABOUTME: Postgres schema for the remote backend, applied on open.
// ABOUTME: Mirrors the SQLite layout with an identity column for creation order.
package postgres

const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id TEXT PRIMARY KEY,
	seq BIGINT GENERATED ALWAYS AS IDENTITY,
	cluster_id TEXT NOT NULL,
	name TEXT NOT NULL,
	name_key TEXT NOT NULL,
	target_value DOUBLE PRECISION NOT NULL,
	target_logic TEXT NOT NULL DEFAULT 'static',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (cluster_id, name_key)
);

CREATE TABLE IF NOT EXISTS achievements (
	activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	month INTEGER NOT NULL CHECK (month BETWEEN 0 AND 11),
	year INTEGER NOT NULL,
	value DOUBLE PRECISION NOT NULL CHECK (value >= 0),
	PRIMARY KEY (activity_id, month, year)
);

CREATE TABLE IF NOT EXISTS pdca (
	activity_id TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	month INTEGER NOT NULL CHECK (month BETWEEN 0 AND 11),
	year INTEGER NOT NULL,
	plan TEXT NOT NULL DEFAULT '',
	"do" TEXT NOT NULL DEFAULT '',
	"check" TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (activity_id, month, year)
);

CREATE INDEX IF NOT EXISTS idx_activities_cluster ON activities(cluster_id, seq);
CREATE INDEX IF NOT EXISTS idx_achievements_period ON achievements(year, month);
CREATE INDEX IF NOT EXISTS idx_pdca_period ON pdca(year, month);
`
