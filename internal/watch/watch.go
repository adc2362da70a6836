// Package watch re-runs a search whenever files under a directory
// change. Events are debounced so a burst of rapid saves triggers a
// single search.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"lumin/internal/search"
	"lumin/internal/walk"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	// Debounce is how long events must settle before a re-search fires.
	Debounce time.Duration

	// Search configures the search that runs on each change.
	Search search.Options

	Logger *zap.Logger
}

// Stats tracks watcher activity for debugging.
type Stats struct {
	EventsSeen    int
	SearchesRun   int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// Watcher monitors a directory tree and re-runs a search on change.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	pattern     string
	directory   string
	onResult    func(*search.Result)
	opts        Options
	logger      *zap.Logger
	debounceMap map[string]time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a Watcher that searches for pattern under directory and
// calls onResult with each fresh result. onResult must be safe to call
// from another goroutine.
func New(pattern, directory string, onResult func(*search.Result), opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		pattern:     pattern,
		directory:   directory,
		onResult:    onResult,
		opts:        opts,
		logger:      logger,
		debounceMap: make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers the directory tree with fsnotify and begins the event
// loop. Non-blocking; call Stop to shut down.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.directory); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		if cerr := w.watcher.Close(); cerr != nil {
			w.logger.Error("failed to close watcher", zap.Error(cerr))
		}
		return err
	}
	w.logger.Info("watching directory",
		zap.String("directory", w.directory),
		zap.String("pattern", w.pattern))

	// Run once up front so the caller sees the current state.
	w.runSearch(ctx)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
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
		w.logger.Error("failed to close watcher", zap.Error(err))
	}
	w.logger.Debug("watcher stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// addTree registers directory and every subdirectory with fsnotify.
// fsnotify watches are not recursive, so each directory is added
// individually.
func (w *Watcher) addTree(directory string) error {
	if err := w.watcher.Add(directory); err != nil {
		return err
	}
	entries, err := walk.Walk(directory, walk.Options{
		RespectGitignore: w.opts.Search.RespectGitignore,
		MaxDepth:         w.opts.Search.MaxDepth,
		Logger:           w.logger,
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		if err := w.watcher.Add(e.Path); err != nil {
			w.logger.Warn("failed to watch subdirectory",
				zap.String("path", e.Path), zap.Error(err))
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			if w.takeSettled() {
				w.runSearch(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if walk.IsHiddenPath(filepath.Base(event.Name)) {
		return
	}

	// New subdirectories need their own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new subdirectory",
					zap.String("path", event.Name), zap.Error(err))
			}
		}
	}

	w.logger.Debug("filesystem event",
		zap.String("op", event.Op.String()),
		zap.String("path", event.Name))

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// takeSettled drains debounced events older than the debounce window
// and reports whether any settled.
func (w *Watcher) takeSettled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	settled := false
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.opts.Debounce {
			delete(w.debounceMap, path)
			settled = true
		}
	}
	return settled
}

func (w *Watcher) runSearch(ctx context.Context) {
	result, err := search.Files(ctx, w.pattern, w.directory, w.opts.Search)
	if err != nil {
		w.logger.Error("search failed", zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.SearchesRun++
	w.mu.Unlock()

	if w.onResult != nil {
		w.onResult(result)
	}
}
