package app

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/data/history"
	"codeinspector/internal/shared/observability"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

const (
	defaultQueueCapacity = 256
	writeBatchSize       = 16
	writeFlushInterval   = 250 * time.Millisecond
)

func (a *App) startWriteWorker() {
	if a.writeQueue == nil || a.history == nil || a.workerCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runWriteWorker(ctx)
}

func (a *App) runWriteWorker(ctx context.Context) {
	defer close(a.workerDone)

	for {
		batch, err := a.writeQueue.DequeueBatch(ctx, writeBatchSize, writeFlushInterval)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Warn("history queue dequeue failed", "error", err)
			continue
		}
		if len(batch) > 0 {
			a.applyWriteBatch(ctx, batch)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

// enqueueHistory hands snapshots to the writer. Without a queue the rows
// are written synchronously.
func (a *App) enqueueHistory(snapshots []history.Snapshot) {
	if a.history == nil || len(snapshots) == 0 {
		return
	}
	if a.writeQueue == nil {
		a.applyWriteBatch(context.Background(), []ports.WriteRequest{{Snapshots: snapshots}})
		return
	}
	switch a.writeQueue.Enqueue(ports.WriteRequest{Snapshots: snapshots}) {
	case ports.EnqueueEvicted:
		observability.HistoryWritesTotal.WithLabelValues("evicted").Inc()
		slog.Warn("history queue full, discarded the oldest pending run")
	case ports.EnqueueDropped:
		observability.HistoryWritesTotal.WithLabelValues("dropped").Add(float64(len(snapshots)))
		slog.Warn("history queue closed, dropping snapshots", "count", len(snapshots))
	}
}

func (a *App) applyWriteBatch(ctx context.Context, batch []ports.WriteRequest) {
	for _, req := range batch {
		saved, err := a.history.SaveRun(ctx, req.Snapshots)
		if err != nil {
			observability.HistoryWritesTotal.WithLabelValues("error").Inc()
			slog.Warn("history write failed", "error", err, "snapshots", len(req.Snapshots))
			continue
		}
		observability.HistoryWritesTotal.WithLabelValues("ok").Add(float64(len(saved)))
	}
}

func (a *App) stopWriteWorker(ctx context.Context) error {
	if a.writeQueue == nil {
		return nil
	}
	// Closing the queue lets the worker drain what is left and exit on EOF.
	if err := a.writeQueue.Close(); err != nil {
		return err
	}
	if a.workerDone != nil {
		select {
		case <-a.workerDone:
		case <-ctx.Done():
			if a.workerCancel != nil {
				a.workerCancel()
			}
			return ctx.Err()
		}
	}
	if a.workerCancel != nil {
		a.workerCancel()
		a.workerCancel = nil
	}
	a.workerDone = nil
	a.writeQueue = nil
	return nil
}
