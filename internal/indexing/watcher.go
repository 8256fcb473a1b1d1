package indexing

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conclave-ai/conclave/internal/logging"
)

// Watcher re-runs an IncrementalIndexer over its roots whenever the
// filesystem changes underneath them, debouncing bursts of events (a save
// in an editor is often a create plus several writes) into a single pass.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	indexer *IncrementalIndexer
	roots   []string
	debounce time.Duration
	log     *logging.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewWatcher constructs a Watcher over roots, backed by indexer. Call Start
// to begin watching; Stop blocks until the watch loop has exited.
func NewWatcher(indexer *IncrementalIndexer, roots []string, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fsw,
		indexer:  indexer,
		roots:    roots,
		debounce: 500 * time.Millisecond,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds every directory under the watcher's roots to the underlying
// fsnotify watch set and begins the debounced reindex loop. Start is
// non-blocking; it returns once the initial directories are registered.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			w.log.Warn("watching root failed", "root", root, "error", err)
		}
	}
	go w.run(ctx)
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				w.log.Warn("watching directory failed", "path", path, "error", addErr)
			}
		}
		return nil
	})
}

// Stop halts the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", err)
		case <-timerCh:
			w.reindex(ctx)
			timer = nil
			timerCh = nil
		}
	}
}

func (w *Watcher) reindex(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	results, err := w.indexer.Run(ctx, w.roots, nil)
	if err != nil {
		w.log.Warn("watcher-triggered reindex failed", "error", err)
		return
	}
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if len(results) > 0 {
		w.log.Info("watcher-triggered reindex", "changed", len(results), "failed", failed)
	}
}
