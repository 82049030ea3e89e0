package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherReloadSkipsUnchangedAndInvalid(t *testing.T) {
	path := writeConfig(t, "[security]\nfail_on = \"high\"\n")

	var got []*Config
	w := NewWatcher(path, func(cfg *Config) { got = append(got, cfg) })
	w.applied, _ = os.ReadFile(path)

	w.reload()
	if len(got) != 0 {
		t.Fatalf("expected identical bytes to be ignored, got %d reloads", len(got))
	}

	if err := os.WriteFile(path, []byte("[security]\nfail_on = \"sometimes\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload()
	if len(got) != 0 {
		t.Fatal("expected an invalid file to be rejected")
	}

	if err := os.WriteFile(path, []byte("[security]\nfail_on = \"critical\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload()
	if len(got) != 1 || got[0].Security.FailOn != "CRITICAL" {
		t.Fatalf("expected one reload with fail_on CRITICAL, got %+v", got)
	}
}

func TestWatcherPicksUpEdits(t *testing.T) {
	path := writeConfig(t, "version = 1\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("version = 1\n[analysis]\nmax_depth = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Analysis.MaxDepth != 7 {
			t.Fatalf("expected max_depth 7, got %d", cfg.Analysis.MaxDepth)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	NewWatcher("codeinspector.toml", nil).Stop()
}
