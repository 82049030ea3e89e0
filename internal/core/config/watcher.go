package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadSettle = 100 * time.Millisecond

// Watcher re-parses a config file after edits and hands each new, valid
// configuration to onChange. Saves that leave the bytes unchanged and files
// that fail to parse are ignored.
type Watcher struct {
	path     string
	onChange func(*Config)

	mu      sync.Mutex
	applied []byte

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(path string, onChange func(*Config)) *Watcher {
	return &Watcher{path: filepath.Clean(path), onChange: onChange}
}

// Start subscribes to the file's directory, since editors often save by
// renaming a temp file over the original.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return err
	}
	if data, err := os.ReadFile(w.path); err == nil {
		w.applied = data
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, fw)
	slog.Debug("watching configuration", "path", w.path)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.done)
	defer fw.Close()

	settle := time.NewTimer(reloadSettle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				settle.Reset(reloadSettle)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watch error", "path", w.path, "error", err)
		case <-settle.C:
			w.reload()
		}
	}
}

// Stop ends the watch and waits for the loop to exit. Calling it before
// Start or more than once is harmless.
func (w *Watcher) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Warn("config unreadable, keeping current settings", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	same := bytes.Equal(data, w.applied)
	w.mu.Unlock()
	if same {
		return
	}

	cfg, err := Parse(string(data))
	if err != nil {
		slog.Warn("config rejected, keeping current settings", "path", w.path, "error", err)
		return
	}
	ApplyEnvOverrides(cfg)

	w.mu.Lock()
	w.applied = data
	w.mu.Unlock()

	slog.Info("configuration reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
