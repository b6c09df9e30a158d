// Package watch monitors data files and evicts stale record cache entries
// when they change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/interfaces"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher invalidates dataset cache entries when their backing files change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	datasets interfaces.DatasetService
	debounce time.Duration
	logger   arbor.ILogger

	mu   sync.Mutex
	dirs map[string]bool

	// OnInvalidate is called after a change evicted cache entries. Optional.
	OnInvalidate func(path string, entries int)
}

// NewWatcher creates a watcher that evicts cache entries through the dataset
// service. A debounce of 0 or less uses the 500ms default.
func NewWatcher(datasets interfaces.DatasetService, debounce time.Duration, logger arbor.ILogger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		watcher:  fsWatcher,
		datasets: datasets,
		debounce: debounce,
		logger:   logger,
		dirs:     make(map[string]bool),
	}, nil
}

// Add starts watching a file or directory. Files are watched through their
// parent directory; fsnotify keeps delivering events through editor
// replace-on-save that way.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	stat, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", absPath, err)
	}

	dir := absPath
	if !stat.IsDir() {
		dir = filepath.Dir(absPath)
	}

	w.mu.Lock()
	watched := w.dirs[dir]
	if !watched {
		w.dirs[dir] = true
	}
	w.mu.Unlock()

	if watched {
		return nil
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.logger.Debug().Str("dir", dir).Msg("Watching directory for data changes")
	return nil
}

// Run blocks processing events until the context is cancelled. Rapid
// successive events on one path collapse into a single invalidation.
func (w *Watcher) Run(ctx context.Context) error {
	debounceTimers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	defer func() {
		timerMu.Lock()
		for _, timer := range debounceTimers {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	w.logger.Info().
		Str("debounce", w.debounce.String()).
		Msg("Watch mode started")

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			timerMu.Lock()
			if timer, exists := debounceTimers[absPath]; exists {
				timer.Stop()
			}
			debounceTimers[absPath] = time.AfterFunc(w.debounce, func() {
				w.invalidate(absPath)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) invalidate(path string) {
	entries := w.datasets.InvalidatePath(path)
	if entries > 0 {
		w.logger.Info().
			Str("path", path).
			Int("entries", entries).
			Msg("Cache invalidated for changed file")
	} else {
		w.logger.Debug().Str("path", path).Msg("File changed; no cache entries to evict")
	}

	if w.OnInvalidate != nil {
		w.OnInvalidate(path, entries)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
