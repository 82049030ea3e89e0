package history

import (
	"database/sql"
	"fmt"
)

// schemaSteps[i] upgrades a database from user_version i to i+1.
var schemaSteps = []string{
	`CREATE TABLE IF NOT EXISTS analysis_snapshots (
  run_id          TEXT    NOT NULL,
  project         TEXT    NOT NULL DEFAULT 'default',
  path            TEXT    NOT NULL,
  ts_utc          TEXT    NOT NULL,
  loc             INTEGER NOT NULL,
  cyclomatic      INTEGER NOT NULL,
  maintainability REAL    NOT NULL,
  smell_score     REAL    NOT NULL,
  risk_score      REAL    NOT NULL,
  security_score  REAL    NOT NULL,
  critical_count  INTEGER NOT NULL DEFAULT 0,
  high_count      INTEGER NOT NULL DEFAULT 0,
  medium_count    INTEGER NOT NULL DEFAULT 0,
  low_count       INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_project_ts ON analysis_snapshots(project, ts_utc);`,

	`ALTER TABLE analysis_snapshots ADD COLUMN quality_score REAL NOT NULL DEFAULT 100;
CREATE INDEX IF NOT EXISTS idx_snapshots_project_path_ts ON analysis_snapshots(project, path, ts_utc);`,
}

// EnsureSchema brings the database up to SchemaVersion, tracked in SQLite's
// user_version pragma. Each step commits on its own, so an interrupted
// upgrade resumes where it stopped. A database from a newer build is left
// untouched.
func EnsureSchema(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("history schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	for ; version < SchemaVersion; version++ {
		if err := upgrade(db, version+1, schemaSteps[version]); err != nil {
			return err
		}
	}
	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read history schema version: %w", err)
	}
	return v, nil
}

func upgrade(db *sql.DB, to int, stmt string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema step %d: %w", to, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("apply schema step %d: %w", to, err)
	}
	// PRAGMA arguments cannot be bound parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", to)); err != nil {
		return fmt.Errorf("record schema step %d: %w", to, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema step %d: %w", to, err)
	}
	return nil
}
