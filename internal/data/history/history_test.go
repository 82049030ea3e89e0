package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runA := NewRunID()
	_, err := store.SaveRun(ctx, []Snapshot{
		{RunID: runA, Project: "billing", Path: "src/Account.java", Timestamp: base, LinesOfCode: 40, Maintainability: 80, SmellScore: 90, RiskScore: 85, QualityScore: 100, High: 1},
		{RunID: runA, Project: "billing", Path: "src/Ledger.java", Timestamp: base, LinesOfCode: 12, Maintainability: 95, SmellScore: 100, RiskScore: 100, QualityScore: 100},
	})
	require.NoError(t, err)

	second, err := store.SaveSnapshot(ctx, Snapshot{Project: "billing", Path: "src/Account.java", Timestamp: base.Add(2 * time.Hour), Maintainability: 70.5, SmellScore: 80, RiskScore: 60, High: 2, Critical: 1})
	require.NoError(t, err)
	_, err = uuid.Parse(second.RunID)
	require.NoError(t, err, "expected a generated run id")

	all, err := store.LoadSnapshots(ctx, "billing", "", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "src/Account.java", all[0].Path)
	assert.Equal(t, "src/Ledger.java", all[1].Path)
	assert.Equal(t, 70.5, all[2].Maintainability)
	assert.Equal(t, 3, all[2].Issues())

	recent, err := store.LoadSnapshots(ctx, "billing", "src/Account.java", base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.RunID, recent[0].RunID)
	assert.True(t, recent[0].Timestamp.Equal(base.Add(2*time.Hour)))
}

func TestStore_UpsertsWithinRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	run := NewRunID()
	_, err := store.SaveSnapshot(ctx, Snapshot{RunID: run, Path: "A.java", LinesOfCode: 1})
	require.NoError(t, err)
	_, err = store.SaveSnapshot(ctx, Snapshot{RunID: run, Path: "A.java", LinesOfCode: 9})
	require.NoError(t, err)

	rows, err := store.LoadSnapshots(ctx, "", "A.java", time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].LinesOfCode)
	assert.Equal(t, "default", rows[0].Project)
}

func TestStore_RejectsInvalidSnapshots(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.SaveSnapshot(ctx, Snapshot{Path: " "})
	assert.ErrorContains(t, err, "path must not be empty")

	_, err = store.SaveSnapshot(ctx, Snapshot{RunID: "run-1", Path: "A.java"})
	assert.ErrorContains(t, err, "run id")
}

func TestStore_LatestRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, ok, err := store.LatestRun(ctx, "billing")
	require.NoError(t, err)
	assert.False(t, ok)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	older, newer := NewRunID(), NewRunID()
	_, err = store.SaveRun(ctx, []Snapshot{
		{RunID: older, Project: "billing", Path: "A.java", Timestamp: base},
		{RunID: newer, Project: "billing", Path: "B.java", Timestamp: base.Add(time.Hour)},
		{RunID: newer, Project: "billing", Path: "A.java", Timestamp: base.Add(time.Hour)},
		{RunID: NewRunID(), Project: "other", Path: "A.java", Timestamp: base.Add(5 * time.Hour)},
	})
	require.NoError(t, err)

	run, ok, err := store.LatestRun(ctx, "billing")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer, run.ID)
	require.Len(t, run.Snapshots, 2)
	assert.Equal(t, "A.java", run.Snapshots[0].Path)
	assert.True(t, run.Timestamp.Equal(base.Add(time.Hour)))
}

func TestStore_Trend(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, s := range []Snapshot{
		{Maintainability: 80, SmellScore: 90, RiskScore: 100},
		{Maintainability: 75.25, SmellScore: 85, RiskScore: 85, High: 1},
		{Maintainability: 82, SmellScore: 95, RiskScore: 75, High: 1, Low: 1},
	} {
		s.Path = "A.java"
		s.Timestamp = base.Add(time.Duration(i) * time.Hour)
		_, err := store.SaveSnapshot(ctx, s)
		require.NoError(t, err)
	}

	trend, err := store.Trend(ctx, "", "A.java")
	require.NoError(t, err)
	assert.Equal(t, 3, trend.RunCount)
	assert.Equal(t, "default", trend.Project)
	assert.Equal(t, 2.0, trend.DeltaMaintainability)
	assert.Equal(t, 5.0, trend.DeltaSmellScore)
	assert.Equal(t, -25.0, trend.DeltaRiskScore)
	assert.Equal(t, 2, trend.DeltaIssues)
	assert.Equal(t, -4.75, trend.Points[1].DeltaMaintainability)
	assert.Equal(t, 1, trend.Points[2].DeltaIssues)

	_, err = store.Trend(ctx, "", "Missing.java")
	assert.ErrorContains(t, err, "no snapshots available")
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o644))

	_, err := Open(path, 0)
	require.Error(t, err)
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion+1))
	require.NoError(t, err)

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestEnsureSchema_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	var version int
	require.NoError(t, reopened.db.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, SchemaVersion, version)
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(errors.New("database disk image is malformed")))
	assert.False(t, IsCorruptError(nil))
}
