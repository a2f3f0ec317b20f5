package checklist

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sweetpotato0/ai-lawdesk/pkg/logging"
)

// Watcher invalidates a Cache when sheet exports under a directory change.
// Bursts of events within the debounce window cause a single invalidation.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	cache    *Cache
	dir      string
	debounce time.Duration
	onReload func()
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	logger   *slog.Logger
}

// NewWatcher creates a watcher for dir. onReload, when non-nil, runs after
// each invalidation.
func NewWatcher(dir string, cache *Cache, debounce time.Duration, onReload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:  fw,
		cache:    cache,
		dir:      dir,
		debounce: debounce,
		onReload: onReload,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		logger:   logging.WithComponent("checklist"),
	}, nil
}

// Start watches dir and its immediate subdirectories. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	// fsnotify is not recursive; the exports live one level down.
	entries, _ := filepath.Glob(filepath.Join(w.dir, "*"))
	for _, path := range entries {
		if err := w.watcher.Add(path); err == nil {
			w.logger.Debug("watching checklist subdirectory", "path", path)
		}
	}
	w.logger.Info("watching checklist directory", "dir", w.dir)

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing checklist watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("checklist change", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("checklist watcher error", "error", err)
		case <-fire:
			fire = nil
			w.cache.Invalidate()
			w.logger.Info("checklist cache invalidated")
			if w.onReload != nil {
				w.onReload()
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	_, _, ok := classify(filepath.Base(event.Name))
	return ok
}
