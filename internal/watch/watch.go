// Package watch rescans a source tree whenever it changes, debouncing
// bursts of filesystem events (an editor save, a branch checkout) into a
// single rescan trigger.
package watch

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var watchLog = log.New(os.Stderr, "[simtool:watch] ", log.Ltime)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Config controls a Watcher.
type Config struct {
	Root     string
	Debounce time.Duration
	// SkipDir reports whether a directory name should never be watched
	// (internal/discover.Matcher.ShouldIgnore, adapted by the caller).
	SkipDir func(name string) bool
}

// RescanFunc is invoked, at most once per debounce window, after one or
// more files under Config.Root have changed.
type RescanFunc func()

// Watcher drives fsnotify and calls a RescanFunc on a debounced schedule.
type Watcher struct {
	fs       *fsnotify.Watcher
	cfg      Config
	rescan   RescanFunc
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.Mutex
	dirty        bool
	debounceOnce sync.Once
}

// New creates a Watcher. Start must be called to begin watching.
func New(cfg Config, rescan RescanFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{fs: fsw, cfg: cfg, rescan: rescan, stop: make(chan struct{})}, nil
}

// Start walks Config.Root, registers every directory that is neither
// excluded by Config.SkipDir nor hidden (a name starting with "."), and
// begins processing fsnotify events in a background
// goroutine.
func (w *Watcher) Start() (int, error) {
	dirs := 0
	err := filepath.WalkDir(w.cfg.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != w.cfg.Root && (w.skip(name)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err == nil {
			dirs++
		}
		return nil
	})
	if err != nil {
		return dirs, err
	}

	w.wg.Add(1)
	go w.loop()
	watchLog.Printf("watching %d directories under %s (debounce: %v)", dirs, w.cfg.Root, w.cfg.Debounce)
	return dirs, nil
}

func (w *Watcher) skip(name string) bool {
	if w.cfg.SkipDir != nil && w.cfg.SkipDir(name) {
		return true
	}
	return len(name) > 1 && name[0] == '.'
}

// Stop halts event processing and releases fsnotify's resources.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			watchLog.Printf("error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skip(filepath.Base(event.Name)) {
				if err := w.fs.Add(event.Name); err == nil {
					watchLog.Printf("watching new directory: %s", event.Name)
				}
			}
			return
		}
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	w.queueRescan()
}

func (w *Watcher) queueRescan() {
	w.mu.Lock()
	w.dirty = true
	w.debounceOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			select {
			case <-time.After(w.cfg.Debounce):
				w.flush()
			case <-w.stop:
			}
		}()
	})
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.debounceOnce = sync.Once{}
	w.mu.Unlock()

	if !dirty {
		return
	}
	watchLog.Printf("rescanning %s", w.cfg.Root)
	w.rescan()
}
