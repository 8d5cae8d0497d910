package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherTriggersRescanOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls int32
	w, err := New(Config{Root: dir, Debounce: 50 * time.Millisecond}, func() {
		atomic.AddInt32(&calls, 1)
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if _, err := w.Start(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("package main\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&calls) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if atomic.LoadInt32(&calls) == 0 {
		t.Fatal("expected a rescan to fire after a debounced write")
	}
}

func TestWatcherSkipsIgnoredDirectory(t *testing.T) {
	dir := t.TempDir()
	ignored := filepath.Join(dir, "vendor")
	if err := os.Mkdir(ignored, 0o755); err != nil {
		t.Fatal(err)
	}

	var calls int32
	w, err := New(Config{
		Root:     dir,
		Debounce: 50 * time.Millisecond,
		SkipDir:  func(name string) bool { return name == "vendor" },
	}, func() { atomic.AddInt32(&calls, 1) })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	dirs, err := w.Start()
	if err != nil {
		t.Fatal(err)
	}
	// Only the root itself should be registered; vendor must be skipped.
	if dirs != 1 {
		t.Errorf("expected 1 watched directory (root only), got %d", dirs)
	}

	if err := os.WriteFile(filepath.Join(ignored, "dep.go"), []byte("package dep\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("expected no rescan for a change inside a skipped directory")
	}
}
