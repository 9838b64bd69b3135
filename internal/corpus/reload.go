package corpus

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// ReloadObserver receives reload outcomes. *metrics.Metrics satisfies it.
type ReloadObserver interface {
	RecordCorpusReload(status string)
	SetCorpusSegments(n int)
}

// Reloader loads the artifacts in a directory and swaps them into a Holder.
// Concurrent reloads share one load.
type Reloader struct {
	dir      string
	holder   *Holder
	observer ReloadObserver
	group    singleflight.Group
}

// NewReloader creates a reloader. observer may be nil.
func NewReloader(dir string, holder *Holder, observer ReloadObserver) *Reloader {
	return &Reloader{dir: dir, holder: holder, observer: observer}
}

// Reload reads the artifacts from disk and installs them. On failure the
// previously loaded corpus stays in place. It returns the installed segment count.
func (r *Reloader) Reload(ctx context.Context) (int, error) {
	v, err, shared := r.group.Do("reload", func() (any, error) {
		c, err := Load(r.dir)
		if err != nil {
			r.record("error", 0)
			return 0, err
		}
		r.holder.Swap(c)
		r.record("success", c.Len())
		slog.InfoContext(ctx, "Corpus loaded", "dir", r.dir, "segments", c.Len())
		return c.Len(), nil
	})
	if shared {
		slog.DebugContext(ctx, "Corpus reload deduplicated")
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (r *Reloader) record(status string, segments int) {
	if r.observer == nil {
		return
	}
	r.observer.RecordCorpusReload(status)
	if status == "success" {
		r.observer.SetCorpusSegments(segments)
	}
}
