package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/segment"
)

// Extractor turns a source file into plain text.
// It returns an error wrapping domerrors.ErrUnsupportedFormat for file types it does not read.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Builder ingests a knowledge directory into a Corpus. It is single-threaded.
type Builder struct {
	extractor Extractor
	opts      segment.Options
}

// BuildStats summarises one build.
type BuildStats struct {
	Files    int
	Skipped  int
	Segments int
}

// NewBuilder creates a builder.
func NewBuilder(extractor Extractor, opts segment.Options) *Builder {
	return &Builder{extractor: extractor, opts: opts}
}

// Build reads every regular, non-hidden file in dir in lexical name order,
// segments its text under the file's tag, and fits the index over all segments.
// A file that fails to extract is logged and skipped.
func (b *Builder) Build(ctx context.Context, dir string) (*Corpus, BuildStats, error) {
	var stats BuildStats

	entries, err := os.ReadDir(dir) // sorted by file name
	if err != nil {
		return nil, stats, fmt.Errorf("corpus: read knowledge dir: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		stats.Files++

		text, err := b.extractor.Extract(ctx, path)
		if err != nil {
			stats.Skipped++
			if errors.Is(err, domerrors.ErrUnsupportedFormat) {
				slog.DebugContext(ctx, "Skipping unsupported file", "file", name)
			} else {
				slog.WarnContext(ctx, "Failed to extract file, skipping", "file", name, "error", err)
			}
			continue
		}

		tag := Tag(name)
		parts := segment.Split(text, tag, b.opts)
		slog.InfoContext(ctx, "Processed file", "file", name, "tag", tag, "segments", len(parts))
		segments = append(segments, parts...)
	}

	if len(segments) == 0 {
		return nil, stats, fmt.Errorf("corpus: no segments produced from %s: %w", dir, domerrors.ErrEmptyContent)
	}

	c, err := New(segments)
	if err != nil {
		return nil, stats, err
	}
	stats.Segments = len(segments)
	return c, stats, nil
}
