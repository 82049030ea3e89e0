// Package app wires the analysis engines, history persistence and watch
// mode behind the driving ports used by the CLI, HTTP API and MCP tools.
package app

import (
	"codeinspector/internal/core/config"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/core/watcher"
	"codeinspector/internal/data/history"
	"codeinspector/internal/data/queue"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Update is emitted to subscribers after watch mode re-analyses files.
type Update struct {
	Changed []string
	Removed []string
	Files   []ports.FileReport
	Summary ports.ReportSummary
}

// Dependencies lets callers inject collaborators. Zero values fall back to
// what the configuration asks for.
type Dependencies struct {
	Analyzer   *Analyzer
	History    ports.HistoryStore
	WriteQueue ports.WriteQueuePort
	Now        func() time.Time
}

type App struct {
	Config   *config.Config
	analyzer atomic.Pointer[Analyzer]
	history  ports.HistoryStore
	now      func() time.Time

	resultsMu sync.RWMutex
	results   map[string]ports.FileReport

	updateMu sync.RWMutex
	onUpdate func(Update)

	activeWatcher *watcher.Watcher

	writeQueue   ports.WriteQueuePort
	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// New builds an App from configuration, opening the history database when
// db.enabled is set.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	deps := Dependencies{}
	if cfg.DB.Enabled {
		dbPath := cfg.DB.Path
		if cwd, err := os.Getwd(); err == nil {
			if resolved, err := config.ResolvePaths(cfg, cwd); err == nil {
				dbPath = resolved.DBPath
			}
		}
		store, err := history.Open(dbPath, cfg.DB.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		deps.History = store
		deps.WriteQueue = queue.NewRunQueue(defaultQueueCapacity)
	}
	return NewWithDependencies(cfg, deps)
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	analyzer := deps.Analyzer
	if analyzer == nil {
		var err error
		analyzer, err = NewAnalyzer(cfg)
		if err != nil {
			return nil, err
		}
	}
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	a := &App{
		Config:     cfg,
		history:    deps.History,
		now:        now,
		results:    make(map[string]ports.FileReport),
		writeQueue: deps.WriteQueue,
	}
	a.analyzer.Store(analyzer)
	if a.history != nil && a.writeQueue != nil {
		a.startWriteWorker()
	}
	return a, nil
}

func (a *App) Analyzer() *Analyzer {
	return a.analyzer.Load()
}

// ReloadRules rebuilds the engines from cfg and swaps them in. In-flight
// analyses finish with the engines they started with. A running watcher
// picks up the new debounce window and extension filter.
func (a *App) ReloadRules(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	analyzer, err := NewAnalyzer(cfg)
	if err != nil {
		return err
	}
	a.analyzer.Store(analyzer)
	if w := a.activeWatcher; w != nil {
		w.SetDebounce(cfg.Watch.Debounce)
		w.SetExtensions(cfg.Scan.Extensions)
	}
	slog.Info("analysis rules reloaded", "rule_types", len(analyzer.Registry.Types()))
	return nil
}

// History returns the configured history store, or nil.
func (a *App) History() ports.HistoryStore {
	return a.history
}

// Project is the key history rows are stored under.
func (a *App) Project() string {
	if a.Config == nil || a.Config.DB.Project == "" {
		return "default"
	}
	return a.Config.DB.Project
}

// SetUpdateHandler registers the watch-mode subscriber. Only one handler is
// kept; a later call replaces the earlier one.
func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emitUpdate(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

// Results returns the latest report per analysed file, ordered by path.
func (a *App) Results() []ports.FileReport {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()
	out := make([]ports.FileReport, 0, len(a.results))
	for _, r := range a.results {
		out = append(out, r)
	}
	report := ports.Report{Files: out}
	report.SortFiles()
	return report.Files
}

func (a *App) storeResult(r ports.FileReport) {
	a.resultsMu.Lock()
	a.results[r.Path] = r
	a.resultsMu.Unlock()
}

func (a *App) dropResult(path string) {
	a.resultsMu.Lock()
	delete(a.results, path)
	a.resultsMu.Unlock()
}

// Close stops the watcher and history writer, draining queued writes.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
		a.activeWatcher = nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := a.stopWriteWorker(ctx); err != nil {
		return err
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			return err
		}
		a.history = nil
	}
	return nil
}
