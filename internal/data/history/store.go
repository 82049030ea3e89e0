// Package history persists per-file analysis snapshots in SQLite so scores
// can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName     = "sqlite"
	maxAttempts    = 5
	defaultProject = "default"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// NewRunID returns a fresh identifier for a group of snapshots.
func NewRunID() string {
	return uuid.NewString()
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const insertSnapshot = `
INSERT INTO analysis_snapshots (
  run_id, project, path, ts_utc, loc, cyclomatic, maintainability, smell_score,
  risk_score, security_score, quality_score, critical_count, high_count, medium_count, low_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, path) DO UPDATE SET
  ts_utc=excluded.ts_utc,
  loc=excluded.loc,
  cyclomatic=excluded.cyclomatic,
  maintainability=excluded.maintainability,
  smell_score=excluded.smell_score,
  risk_score=excluded.risk_score,
  security_score=excluded.security_score,
  quality_score=excluded.quality_score,
  critical_count=excluded.critical_count,
  high_count=excluded.high_count,
  medium_count=excluded.medium_count,
  low_count=excluded.low_count
`

func normalize(snapshot *Snapshot) error {
	snapshot.Project = strings.TrimSpace(snapshot.Project)
	if snapshot.Project == "" {
		snapshot.Project = defaultProject
	}
	snapshot.Path = strings.TrimSpace(snapshot.Path)
	if snapshot.Path == "" {
		return fmt.Errorf("snapshot path must not be empty")
	}
	if snapshot.RunID == "" {
		snapshot.RunID = NewRunID()
	} else if _, err := uuid.Parse(snapshot.RunID); err != nil {
		return fmt.Errorf("snapshot run id %q: %w", snapshot.RunID, err)
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	return nil
}

// SaveSnapshot upserts one snapshot, keyed by run and path. A missing run
// id or timestamp is filled in and returned.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot Snapshot) (Snapshot, error) {
	saved, err := s.SaveRun(ctx, []Snapshot{snapshot})
	if err != nil {
		return Snapshot{}, err
	}
	return saved[0], nil
}

// SaveRun writes snapshots in a single transaction.
func (s *Store) SaveRun(ctx context.Context, snapshots []Snapshot) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snapshot, len(snapshots))
	for i, snapshot := range snapshots {
		if err := normalize(&snapshot); err != nil {
			return nil, err
		}
		out[i] = snapshot
	}

	err := s.withRetry(ctx, "save snapshots", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, insertSnapshot)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, snap := range out {
			if _, err := stmt.ExecContext(ctx,
				snap.RunID,
				snap.Project,
				snap.Path,
				snap.Timestamp.UTC().Format(time.RFC3339Nano),
				snap.LinesOfCode,
				snap.Cyclomatic,
				snap.Maintainability,
				snap.SmellScore,
				snap.RiskScore,
				snap.SecurityScore,
				snap.QualityScore,
				snap.Critical,
				snap.High,
				snap.Medium,
				snap.Low,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const selectSnapshots = `
SELECT
  run_id, project, path, ts_utc, loc, cyclomatic, maintainability, smell_score,
  risk_score, security_score, quality_score, critical_count, high_count, medium_count, low_count
FROM analysis_snapshots
`

// LoadSnapshots returns a project's snapshots in time order. An empty path
// selects every file and a zero since selects every run.
func (s *Store) LoadSnapshots(ctx context.Context, project, path string, since time.Time) ([]Snapshot, error) {
	query := selectSnapshots + " WHERE project = ?"
	args := []any{projectOrDefault(project)}
	if path = strings.TrimSpace(path); path != "" {
		query += " AND path = ?"
		args = append(args, path)
	}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, path ASC"
	return s.query(ctx, "load snapshots", query, args...)
}

// LatestRun returns the most recent run of project. ok is false when the
// project has no history.
func (s *Store) LatestRun(ctx context.Context, project string) (run Run, ok bool, err error) {
	project = projectOrDefault(project)

	var runID, tsRaw string
	err = s.withRetry(ctx, "find latest run", func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.db.QueryRowContext(ctx,
			`SELECT run_id, MAX(ts_utc) FROM analysis_snapshots WHERE project = ? GROUP BY run_id ORDER BY MAX(ts_utc) DESC LIMIT 1`,
			project,
		).Scan(&runID, &tsRaw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}

	snapshots, err := s.query(ctx, "load run", selectSnapshots+" WHERE run_id = ? ORDER BY path ASC", runID)
	if err != nil {
		return Run{}, false, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return Run{}, false, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
	}
	return Run{ID: runID, Project: project, Timestamp: ts.UTC(), Snapshots: snapshots}, true, nil
}

// Trend loads every snapshot of path and summarises its movement.
func (s *Store) Trend(ctx context.Context, project, path string) (Trend, error) {
	snapshots, err := s.LoadSnapshots(ctx, project, path, time.Time{})
	if err != nil {
		return Trend{}, err
	}
	return BuildTrend(projectOrDefault(project), path, snapshots)
}

func (s *Store) query(ctx context.Context, op, query string, args ...any) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry(ctx, op, func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			snapshot Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.Project,
			&snapshot.Path,
			&tsRaw,
			&snapshot.LinesOfCode,
			&snapshot.Cyclomatic,
			&snapshot.Maintainability,
			&snapshot.SmellScore,
			&snapshot.RiskScore,
			&snapshot.SecurityScore,
			&snapshot.QualityScore,
			&snapshot.Critical,
			&snapshot.High,
			&snapshot.Medium,
			&snapshot.Low,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func projectOrDefault(project string) string {
	if project = strings.TrimSpace(project); project == "" {
		return defaultProject
	}
	return project
}
