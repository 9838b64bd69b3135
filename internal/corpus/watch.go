package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the corpus whenever its directory is replaced or rewritten.
// Save swaps the whole directory, so the parent is watched and events are
// filtered to the corpus directory and its artifacts. Bursts of events are
// coalesced over debounce. Watch blocks until ctx is cancelled.
func (r *Reloader) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("corpus: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Clean(r.dir)
	if err := watcher.Add(filepath.Dir(dir)); err != nil {
		return fmt.Errorf("corpus: watch %s: %w", filepath.Dir(dir), err)
	}
	// The directory itself may not exist yet.
	_ = watcher.Add(dir)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !r.relevant(event.Name) {
				continue
			}
			if event.Name == dir && event.Has(fsnotify.Create) {
				// Re-arm on the new directory instance after a swap.
				_ = watcher.Add(dir)
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Corpus watcher error", "error", err)

		case <-timer.C:
			if _, err := r.Reload(ctx); err != nil {
				slog.WarnContext(ctx, "Corpus reload failed, keeping previous corpus", "error", err)
			}
		}
	}
}

// relevant reports whether an event path is the corpus directory or one of its artifacts.
func (r *Reloader) relevant(name string) bool {
	dir := filepath.Clean(r.dir)
	name = filepath.Clean(name)
	if name == dir {
		return true
	}
	if filepath.Dir(name) != dir {
		return false
	}
	base := filepath.Base(name)
	for _, a := range ArtifactNames {
		if base == a {
			return true
		}
	}
	return false
}
