package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"["}, nil, nil, func([]string) {}); err == nil {
		t.Fatal("expected invalid exclude pattern to fail")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change event on %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"*.exclude.java"}, []string{".java"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Account.java")
	if err := os.WriteFile(testFile, []byte("class Account {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	excluded := filepath.Join(tmpDir, "Gen.exclude.java")
	if err := os.WriteFile(excluded, []byte("class Gen {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if p == excluded {
				t.Error("excluded file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.java")
	if err := os.WriteFile(subFile, []byte("class Nested {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.java")
	newPath := filepath.Join(tmpDir, "New.java")
	if err := os.WriteFile(oldPath, []byte("class Old {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"target"}, []string{"*Test.java"}, []string{"java", ".KT"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := map[string]bool{
		filepath.Join("src", "Main.java"):           false,
		filepath.Join("src", "Main.kt"):             false,
		filepath.Join("src", "main.py"):             true,
		filepath.Join("src", "MainTest.java"):       true,
		filepath.Join("target", "gen", "Main.java"): true,
	}
	for path, want := range cases {
		if got := w.shouldExcludeFile(path); got != want {
			t.Fatalf("shouldExcludeFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "Same.java")
	if err := os.WriteFile(path, []byte("class Same {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(10*time.Millisecond, nil, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.remember(path)
	if w.changed(path) {
		t.Fatal("expected identical content to be reported unchanged")
	}
	if err := os.WriteFile(path, []byte("class Same { int x; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !w.changed(path) {
		t.Fatal("expected new content to be reported changed")
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !w.changed(path) {
		t.Fatal("expected removed file to be reported changed")
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, nil, nil, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWatcher_SetDebounceAppliesToNextBatch(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(time.Hour, nil, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetDebounce(20 * time.Millisecond)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Quick.java")
	if err := os.WriteFile(testFile, []byte("class Quick {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)
}
