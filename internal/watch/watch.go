// Package watch re-runs an action when a spec document changes on disk.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wudi/specguard/internal/logging"
)

// Watcher watches one document path and invokes callbacks after changes,
// debounced. Editors often emit bursts of write events for one save.
type Watcher struct {
	watcher   *fsnotify.Watcher
	path      string
	callbacks []func()
	mu        sync.Mutex
	debounce  time.Duration
}

// New creates a watcher for the given document path.
func New(path string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsWatcher,
		path:     path,
		debounce: 500 * time.Millisecond,
	}, nil
}

// OnChange registers a callback to run after the document changes.
func (w *Watcher) OnChange(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// SetDebounce overrides the debounce interval.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching. The containing directory is watched rather than
// the file itself so rename-style saves keep working.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.watch()
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("document watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) fire() {
	w.mu.Lock()
	callbacks := make([]func(), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	logging.Info("document changed", zap.String("path", w.path))
	for _, cb := range callbacks {
		cb()
	}
}
