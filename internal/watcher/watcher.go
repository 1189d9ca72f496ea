// Package watcher keeps the knowledge base in sync with a directory
// tree. It maps filesystem events onto the indexing pipeline: changed
// files are reindexed, deleted files are removed, and bursts of events
// for the same path collapse into one action.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet after its last
// event before it is reindexed.
const DefaultDebounce = 500 * time.Millisecond

// FileIndexer is the part of the indexing pipeline the watcher drives.
type FileIndexer interface {
	IndexFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) (bool, error)
}

// Config holds watcher configuration.
type Config struct {
	Debounce   time.Duration // Default 500ms.
	Extensions []string      // Default .md and .markdown.
	Logger     *slog.Logger  // Default slog.Default().
}

// Watcher reindexes files as they change on disk. Create and write
// events schedule a reindex, remove and rename events schedule a
// removal, and chmod-only events are ignored. Events for the same path
// are coalesced until the file has been quiet for the debounce window.
type Watcher struct {
	indexer    FileIndexer
	fsw        *fsnotify.Watcher
	log        *slog.Logger
	debounce   time.Duration
	extensions map[string]bool

	// pending maps a path to the time its debounce window closes.
	// Touched only by the Watch loop goroutine.
	pending map[string]time.Time
}

// New creates a watcher that drives the given indexer.
func New(indexer FileIndexer, cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = []string{".md", ".markdown"}
	}
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		indexer:    indexer,
		fsw:        fsw,
		log:        log,
		debounce:   debounce,
		extensions: extSet,
		pending:    make(map[string]time.Time),
	}, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch blocks processing events under root until the context is
// cancelled. Subdirectories are watched recursively; hidden
// directories are skipped.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	if err := w.addRecursive(root); err != nil {
		return err
	}

	w.log.Info("watching for changes", "root", root, "debounce", w.debounce)

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timerC:
			timer = nil
			timerC = nil
			w.flush(ctx)
		}

		if next, ok := w.nextDeadline(); ok {
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(time.Until(next))
			timerC = timer.C
		}
	}
}

// handleEvent classifies one filesystem event. New directories are
// added to the watch set; relevant file events extend the path's
// debounce window.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if isHidden(filepath.Base(path)) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.log.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return
	}

	// Chmod alone carries no content change.
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	w.pending[path] = time.Now().Add(w.debounce)
}

// flush processes every path whose debounce window has closed. The
// current state on disk decides the action: existing files are
// reindexed, missing ones are removed from the knowledge base.
func (w *Watcher) flush(ctx context.Context) {
	now := time.Now()

	for path, deadline := range w.pending {
		if deadline.After(now) {
			continue
		}
		delete(w.pending, path)

		if _, err := os.Stat(path); err == nil {
			if err := w.indexer.IndexFile(ctx, path); err != nil {
				w.log.Warn("failed to reindex file", "path", path, "error", err)
				continue
			}
			w.log.Info("reindexed file", "path", path)
		} else if os.IsNotExist(err) {
			removed, err := w.indexer.RemoveFile(ctx, path)
			if err != nil {
				w.log.Warn("failed to remove file", "path", path, "error", err)
				continue
			}
			if removed {
				w.log.Info("removed file", "path", path)
			}
		} else {
			w.log.Warn("failed to stat changed file", "path", path, "error", err)
		}
	}
}

// nextDeadline returns the earliest pending debounce deadline.
func (w *Watcher) nextDeadline() (time.Time, bool) {
	var next time.Time
	for _, deadline := range w.pending {
		if next.IsZero() || deadline.Before(next) {
			next = deadline
		}
	}
	return next, !next.IsZero()
}

// addRecursive watches root and every non-hidden directory below it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether a path component is dot-prefixed. The
// current and parent directory entries do not count.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
