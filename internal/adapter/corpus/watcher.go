package corpus

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the store when its corpus file is rewritten on disk.
// The batch job that produces the file runs out of process, so a write
// event is the only signal that a fresh corpus is available.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *Store
}

// NewWatcher creates a watcher bound to the store's corpus file.
func NewWatcher(store *Store) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w, store: store}, nil
}

// Watch monitors the corpus file's directory until ctx is cancelled.
// Watching the directory instead of the file survives atomic
// rename-into-place rewrites.
func (w *Watcher) Watch(ctx context.Context) error {
	dir := filepath.Dir(w.store.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.store.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := w.store.Reload(); err != nil {
					slog.Warn("corpus reload failed, keeping previous snapshot", "error", err)
					continue
				}
				slog.Info("corpus reloaded", "size", w.store.Size())
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("corpus watcher error", "error", err)
			}
		}
	}()

	return nil
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
