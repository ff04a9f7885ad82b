// Package watch drives index rebuilds from source-tree change
// notifications.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"facetfs/internal/logging"
	"facetfs/internal/state"

	"github.com/fsnotify/fsnotify"
)

var logger = logging.Named("watch")

// Watcher subscribes to recursive change notifications under the
// source root and triggers full index rebuilds when a marker file
// changes. All rebuilds run on a single goroutine, so they are
// serialized; events arriving during a rebuild queue up and bursts
// are coalesced into one rebuild.
type Watcher struct {
	manager *state.Manager
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher over the manager's source root. Call
// Start to begin watching.
func NewWatcher(manager *state.Manager) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		manager: manager,
		watcher: fsWatcher,
	}, nil
}

// Start registers the root directory tree and launches the event
// loop. The loop exits when ctx is canceled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.manager.Root()); err != nil {
		return err
	}
	go w.run(ctx)
	logger.Infof("Watching %q for changes to %q", w.manager.Root(), w.manager.MarkerName())
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// addRecursive adds dir and all subdirectories to the watch list.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warnf("Skipping unwatchable entry %q: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			// Coalesce: consume whatever else is already queued
			// before rebuilding once.
			w.drainEvents()
			w.rebuild()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Watcher error: %v", err)
		}
	}
}

// handleEvent registers newly created directories and reports whether
// the event should trigger a rebuild: the changed entry must carry
// the marker filename and must not be a directory.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	logger.Debugf("Received event: %v", event)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New subtree: watch it so later marker changes inside it
			// are seen. A marker file may have landed in it before the
			// watch did (its own event is then lost), so a subtree
			// that already holds markers forces a rebuild.
			if err := w.addRecursive(event.Name); err != nil {
				logger.Warnf("Failed to watch new directory %q: %v", event.Name, err)
			}
			return w.containsMarker(event.Name)
		}
	}

	return filepath.Base(event.Name) == w.manager.MarkerName()
}

// containsMarker reports whether dir already holds a marker file
// anywhere beneath it.
func (w *Watcher) containsMarker(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == w.manager.MarkerName() {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// drainEvents consumes queued events without blocking, keeping
// directory registration up to date.
func (w *Watcher) drainEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		default:
			return
		}
	}
}

func (w *Watcher) rebuild() {
	if err := w.manager.Rebuild(); err != nil {
		logger.Errorf("Refresh failed: %v", err)
		logger.Warn("Keeping previous snapshot; filesystem continues serving stale state")
		return
	}
	logger.Info("Filesystem refreshed successfully")
}
