package prompts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 500 * time.Millisecond

// Watcher reloads the store when template files change. Events within
// the debounce window coalesce into one reload.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onReload func()

	mu    sync.Mutex
	timer *time.Timer
	stop  chan struct{}
}

func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		store:   store,
		watcher: fsw,
		stop:    make(chan struct{}),
	}, nil
}

// SetReloadHandler registers a callback fired after each reload.
func (w *Watcher) SetReloadHandler(fn func()) {
	w.onReload = fn
}

func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.store.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.store.dir, err)
	}

	go w.processEvents(ctx)
	return nil
}

func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close() //nolint:errcheck

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	const ops = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	if event.Op&ops == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, w.reload)
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		return
	}
	if w.onReload != nil {
		w.onReload()
	}
}
