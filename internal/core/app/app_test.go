package app

import (
	"codeinspector/internal/core/config"
	domainerrors "codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"codeinspector/internal/data/queue"
	"codeinspector/internal/engine/metrics"
	"codeinspector/internal/engine/rules"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const daoSample = `public class Dao {
    public User find(Statement stmt, String userId) throws Exception {
        ResultSet rs = stmt.executeQuery("SELECT * FROM users WHERE id=" + userId);
        return map(rs);
    }
}
`

const cleanSample = `public class Point {
    private int x;
    public int getX() {
        return x;
    }
}
`

type historyStoreStub struct {
	mu        sync.Mutex
	snapshots []history.Snapshot
	saveErr   error
	pingErr   error
	closed    bool
}

func (s *historyStoreStub) SaveRun(_ context.Context, snapshots []history.Snapshot) ([]history.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.snapshots = append(s.snapshots, snapshots...)
	return snapshots, nil
}

func (s *historyStoreStub) LoadSnapshots(_ context.Context, _, _ string, _ time.Time) ([]history.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]history.Snapshot(nil), s.snapshots...), nil
}

func (s *historyStoreStub) LatestRun(context.Context, string) (history.Run, bool, error) {
	return history.Run{}, false, nil
}

func (s *historyStoreStub) Trend(context.Context, string, string) (history.Trend, error) {
	return history.Trend{}, nil
}

func (s *historyStoreStub) Ping(context.Context) error { return s.pingErr }

func (s *historyStoreStub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *historyStoreStub) saved() []history.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]history.Snapshot(nil), s.snapshots...)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DB.Enabled = false
	cfg.DB.Project = "billing"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, deps Dependencies) *App {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	app, err := NewWithDependencies(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewWithDependencies_RequiresConfig(t *testing.T) {
	_, err := NewWithDependencies(nil, Dependencies{})
	require.Error(t, err)
}

func TestNewAnalyzer_RejectsBadSecurityPattern(t *testing.T) {
	cfg := testConfig()
	cfg.Security.Patterns = []config.SecurityPattern{{Type: "CUSTOM", Regex: "(", Severity: "HIGH"}}
	_, err := NewAnalyzer(cfg)
	require.Error(t, err)
}

func TestRulesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Security.DisabledTypes = []string{"NULL_CHECK"}
	cfg.Security.Patterns = []config.SecurityPattern{{Type: "TODO_LEFT", Regex: `TODO`, Severity: "LOW", Description: "todo", Remediation: "finish it"}}

	got := RulesConfig(cfg)
	assert.Equal(t, []string{"NULL_CHECK"}, got.DisabledTypes)
	require.Len(t, got.Patterns, 1)
	assert.Equal(t, rules.PatternConfig{Type: "TODO_LEFT", Regex: `TODO`, Severity: "LOW", Description: "todo", Remediation: "finish it"}, got.Patterns[0])
	assert.Equal(t, rules.Config{}, RulesConfig(nil))
}

func TestAnalysisService_SingleEngines(t *testing.T) {
	svc := newTestApp(t, nil, Dependencies{}).AnalysisService()
	ctx := context.Background()

	m, err := svc.AnalyzeMetrics(ctx, cleanSample)
	require.NoError(t, err)
	assert.Equal(t, "6", m[metrics.KeyLinesOfCode])

	sec, err := svc.AnalyzeSecurity(ctx, daoSample)
	require.NoError(t, err)
	assert.Len(t, sec.Vulnerabilities[rules.TypeSQLInjection], 1)

	st, err := svc.AnalyzeStructure(ctx, cleanSample)
	require.NoError(t, err)
	require.NotNil(t, st.Root)

	sm, err := svc.AnalyzeSmells(ctx, cleanSample)
	require.NoError(t, err)
	assert.NotEmpty(t, sm.Scores)
}

func TestAnalysisService_RejectsOversizedSource(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.MaxSourceBytes = 16
	svc := newTestApp(t, cfg, Dependencies{}).AnalysisService()

	_, err := svc.AnalyzeMetrics(context.Background(), cleanSample)
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeTooLarge))

	_, err = svc.Compare(context.Background(), "a", cleanSample)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeTooLarge))
}

func TestAnalysisService_CanceledContext(t *testing.T) {
	svc := newTestApp(t, nil, Dependencies{}).AnalysisService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnalyzeSecurity(ctx, daoSample)
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = svc.Scan(ctx, ports.ScanRequest{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAnalysisService_AnalyzeAllRespectsEngineSelection(t *testing.T) {
	svc := newTestApp(t, nil, Dependencies{}).AnalysisService()

	engines, err := ports.ParseEngines("metrics,security")
	require.NoError(t, err)
	fr, err := svc.AnalyzeAll(context.Background(), "Dao.java", daoSample, engines)
	require.NoError(t, err)

	assert.Nil(t, fr.Structure)
	assert.Nil(t, fr.Smells)
	require.NotNil(t, fr.Security)
	require.NotNil(t, fr.Metrics)
	assert.Equal(t, "java", fr.Language)
	assert.Equal(t, 2, fr.Scores.Critical)
	assert.Equal(t, 50.0, fr.Scores.RiskScore)
	assert.Equal(t, 6, fr.Scores.LinesOfCode)
}

func TestAnalysisService_CompareAndSyntax(t *testing.T) {
	svc := newTestApp(t, nil, Dependencies{}).AnalysisService()
	ctx := context.Background()

	res, err := svc.Compare(ctx, cleanSample, cleanSample)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.DiffSimilarity)

	tree, err := svc.ParseSyntax(ctx, "", cleanSample)
	require.NoError(t, err)
	assert.Equal(t, "program", tree.RootType)

	_, err = svc.ParseSyntax(ctx, "cobol", cleanSample)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotSupported))
}

func TestScan_WalksFiltersAndSavesHistory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "Dao.java"), daoSample)
	writeFile(t, filepath.Join(root, "src", "Point.java"), cleanSample)
	writeFile(t, filepath.Join(root, "target", "Gen.java"), daoSample)
	writeFile(t, filepath.Join(root, "README.md"), "# readme")

	store := &historyStoreStub{}
	app := newTestApp(t, nil, Dependencies{History: store})

	report, err := app.AnalysisService().Scan(context.Background(), ports.ScanRequest{Paths: []string{root}, SaveHistory: true})
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.Equal(t, filepath.Join(root, "src", "Dao.java"), report.Files[0].Path)
	assert.Equal(t, "billing", report.Project)
	assert.Equal(t, []string{"structure", "metrics", "smells", "security"}, report.Engines)
	assert.Equal(t, 2, report.Summary.Files)
	assert.Equal(t, 2, report.Summary.Critical)
	assert.Equal(t, "CRITICAL", report.Summary.HighestSeverity)
	assert.NotEmpty(t, report.RunID)

	saved := store.saved()
	require.Len(t, saved, 2)
	for _, s := range saved {
		assert.Equal(t, report.RunID, s.RunID)
		assert.Equal(t, "billing", s.Project)
	}
	assert.Len(t, app.Results(), 2)

	sev, ok := HighestSeverity(report)
	assert.True(t, ok)
	assert.Equal(t, rules.Critical, sev)
}

func TestScan_ExplicitFileAndOversizedWarning(t *testing.T) {
	root := t.TempDir()
	small := filepath.Join(root, "notes.txt")
	big := filepath.Join(root, "Big.java")
	writeFile(t, small, cleanSample)
	writeFile(t, big, cleanSample+cleanSample)

	cfg := testConfig()
	cfg.Analysis.MaxSourceBytes = int64(len(cleanSample))
	app := newTestApp(t, cfg, Dependencies{})

	report, err := app.Scan(context.Background(), ports.ScanRequest{Paths: []string{small, big}})
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.Equal(t, small, report.Files[0].Path)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "exceeds limit")
	assert.Empty(t, report.RunID)
}

func TestScan_MissingPath(t *testing.T) {
	app := newTestApp(t, nil, Dependencies{})
	_, err := app.Scan(context.Background(), ports.ScanRequest{Paths: []string{filepath.Join(t.TempDir(), "missing")}})
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestScan_HistoryFailureBecomesWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Point.java"), cleanSample)
	store := &historyStoreStub{saveErr: errors.New("disk full")}
	app := newTestApp(t, nil, Dependencies{History: store})

	report, err := app.Scan(context.Background(), ports.ScanRequest{Paths: []string{root}, SaveHistory: true})
	require.NoError(t, err)
	assert.Empty(t, report.RunID)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "disk full")
}

func TestHandleChanges_UpdatesResultsAndHistory(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Dao.java")
	gone := filepath.Join(root, "Gone.java")
	writeFile(t, path, daoSample)

	store := &historyStoreStub{}
	app := newTestApp(t, nil, Dependencies{History: store})
	app.storeResult(ports.FileReport{Path: gone})

	var got Update
	app.SetUpdateHandler(func(u Update) { got = u })
	app.HandleChanges([]string{path, gone})

	assert.Equal(t, []string{path}, got.Changed)
	assert.Equal(t, []string{gone}, got.Removed)
	require.Len(t, got.Files, 1)
	assert.Equal(t, 2, got.Summary.Critical)

	saved := store.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, path, saved[0].Path)
	assert.Equal(t, 2, saved[0].Critical)
}

func TestWriteWorker_DrainsQueueOnClose(t *testing.T) {
	store := &historyStoreStub{}
	app, err := NewWithDependencies(testConfig(), Dependencies{History: store, WriteQueue: queue.NewRunQueue(8)})
	require.NoError(t, err)

	app.enqueueHistory([]history.Snapshot{{Path: "A.java"}, {Path: "B.java"}})
	app.enqueueHistory([]history.Snapshot{{Path: "C.java"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Close(ctx))

	assert.Len(t, store.saved(), 3)
	assert.True(t, store.closed)
}

func TestHealthService(t *testing.T) {
	app := newTestApp(t, nil, Dependencies{})
	status := NewHealthService(app).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "disabled", status.Components["history"])
	assert.Contains(t, status.Components["syntax"], "java")

	broken := newTestApp(t, nil, Dependencies{History: &historyStoreStub{pingErr: errors.New("locked")}})
	status = NewHealthService(broken).Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "error: locked", status.Components["history"])

	cfg := testConfig()
	cfg.DB.Enabled = true
	missing := newTestApp(t, cfg, Dependencies{})
	assert.Equal(t, "degraded", NewHealthService(missing).Check(context.Background()).Status)
}

func TestSummarizeAveragesOnlyEnginesThatRan(t *testing.T) {
	files := []ports.FileReport{
		{Metrics: map[string]string{}, Scores: ports.FileScores{Maintainability: 80, LinesOfCode: 10}},
		{Metrics: map[string]string{}, Scores: ports.FileScores{Maintainability: 61, LinesOfCode: 5, High: 1}},
		{Scores: ports.FileScores{LinesOfCode: 1}},
	}
	sum := Summarize(files)
	assert.Equal(t, 3, sum.Files)
	assert.Equal(t, 16, sum.LinesOfCode)
	assert.Equal(t, 70.5, sum.AvgMaintainability)
	assert.Equal(t, 0.0, sum.AvgSmellScore)
	assert.Equal(t, 1, sum.Issues())
	assert.Empty(t, sum.HighestSeverity)
}

func TestParseEngines(t *testing.T) {
	all, err := ports.ParseEngines("")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	some, err := ports.ParseEngines(" Smells , structure")
	require.NoError(t, err)
	assert.Equal(t, []string{"structure", "smells"}, some.Names())

	_, err = ports.ParseEngines("lint")
	assert.Error(t, err)
	_, err = ports.ParseEngines(",")
	assert.Error(t, err)
}

func TestReloadRulesSwapsEngines(t *testing.T) {
	a := newTestApp(t, config.Default(), Dependencies{})
	before := a.Analyzer()

	cfg := config.Default()
	cfg.Security.DisabledTypes = []string{rules.TypeSQLInjection}
	require.NoError(t, a.ReloadRules(cfg))
	require.NotSame(t, before, a.Analyzer())

	res, err := a.AnalysisService().AnalyzeSecurity(context.Background(), daoSample)
	require.NoError(t, err)
	assert.NotContains(t, res.Vulnerabilities, rules.TypeSQLInjection)
	assert.Contains(t, res.Vulnerabilities, rules.TypeInjection)

	assert.Error(t, a.ReloadRules(nil))
}

func TestReloadRulesUpdatesRunningWatcher(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig()
	cfg.Watch.Debounce = time.Hour
	cfg.Scan.Extensions = []string{"java"}
	app := newTestApp(t, cfg, Dependencies{})

	updates := make(chan Update, 4)
	app.SetUpdateHandler(func(u Update) { updates <- u })
	require.NoError(t, app.StartWatcher([]string{root}))

	next := testConfig()
	next.Watch.Debounce = 20 * time.Millisecond
	next.Scan.Extensions = []string{"kt"}
	require.NoError(t, app.ReloadRules(next))

	path := filepath.Join(root, "Dao.kt")
	writeFile(t, path, daoSample)

	select {
	case u := <-updates:
		assert.Equal(t, []string{path}, u.Changed)
	case <-time.After(3 * time.Second):
		t.Fatal("expected the reloaded watcher to report the .kt file")
	}
}
