package app

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/core/watcher"
	"codeinspector/internal/data/history"
	"codeinspector/internal/shared/observability"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"
)

// StartWatcher watches scan.paths and re-analyses changed files.
func (a *App) StartWatcher(paths []string) error {
	if len(paths) == 0 {
		paths = a.Config.Scan.Paths
	}
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Scan.Exclude.Dirs,
		a.Config.Scan.Exclude.Files,
		a.Config.Scan.Extensions,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	if err := w.Watch(paths); err != nil {
		_ = w.Close()
		return err
	}
	a.activeWatcher = w
	return nil
}

// HandleChanges re-analyses the changed files, drops removed ones, queues
// history rows and notifies the update subscriber.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()
	ctx := context.Background()

	update := Update{}
	var changed []ports.FileReport
	limit := a.Config.Analysis.MaxSourceBytes
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			a.dropResult(path)
			update.Removed = append(update.Removed, path)
			continue
		}
		if err != nil {
			slog.Warn("failed to read changed file", "path", path, "error", err)
			continue
		}
		if limit > 0 && int64(len(content)) > limit {
			observability.RejectedSourcesTotal.WithLabelValues("too_large").Inc()
			slog.Warn("skipping oversized file", "path", path, "bytes", len(content), "limit", limit)
			continue
		}
		fr, err := a.analyze(ctx, path, string(content), nil)
		if err != nil {
			slog.Warn("failed to re-analyse file", "path", path, "error", err)
			continue
		}
		observability.FilesAnalyzedTotal.Inc()
		a.storeResult(fr)
		changed = append(changed, fr)
		update.Changed = append(update.Changed, path)
	}

	if len(changed) > 0 {
		a.enqueueHistory(Snapshots(a.Project(), history.NewRunID(), changed))
	}

	update.Files = a.Results()
	update.Summary = Summarize(update.Files)
	slog.Info("re-analysis complete",
		"changed", len(update.Changed),
		"removed", len(update.Removed),
		"duration", time.Since(start))
	a.emitUpdate(update)
}
