package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/housekeep/pkg/logging"
)

// ChangeEvent reports that the configuration file changed on disk.
type ChangeEvent struct {
	FilePath  string
	Removed   bool
	Timestamp time.Time
}

// Watcher observes a single configuration file with fsnotify.
//
// The parent directory is watched instead of the file itself so editors that
// replace the file through a rename are noticed too. Bursts of events are
// debounced into one ChangeEvent.
type Watcher struct {
	mu sync.Mutex

	// path is the cleaned absolute path of the watched file
	path string

	// watcher is the fsnotify watcher instance
	watcher *fsnotify.Watcher

	// debounceInterval is how long to wait for additional changes
	debounceInterval time.Duration

	// pending is the debounced event waiting to be emitted
	pending *ChangeEvent
	timer   *time.Timer

	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, debounceInterval time.Duration) (*Watcher, error) {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path:             filepath.Clean(abs),
		debounceInterval: debounceInterval,
		stopCh:           make(chan struct{}),
	}, nil
}

// Start begins watching and delivers events to changes until ctx is done or
// Stop is called. Events are dropped when changes is full.
func (w *Watcher) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx, watcher, changes)

	logging.Info("ConfigWatcher", "Watching %s for configuration changes", w.path)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-w.stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event, changes)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var removed bool
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		removed = false
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// A rename is usually followed by a create of the new file
		removed = true
	default:
		return
	}

	w.debounce(ChangeEvent{FilePath: w.path, Removed: removed, Timestamp: time.Now()}, changes)
}

// debounce keeps only the latest event of a burst.
func (w *Watcher) debounce(event ChangeEvent, changes chan<- ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = &event
	w.timer = time.AfterFunc(w.debounceInterval, func() {
		w.mu.Lock()
		pending := w.pending
		w.pending = nil
		w.mu.Unlock()

		if pending == nil {
			return
		}
		select {
		case changes <- *pending:
			logging.Debug("ConfigWatcher", "Emitted change event for %s (removed=%t)", pending.FilePath, pending.Removed)
		default:
			logging.Warn("ConfigWatcher", "Change event channel full, dropping event for %s", pending.FilePath)
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = nil
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			logging.Error("ConfigWatcher", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("ConfigWatcher", "Stopped watching %s", w.path)
	return nil
}
