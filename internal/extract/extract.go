// Package extract reads plain text out of knowledge source files.
//
// Each file type has a Reader; a Registry dispatches on the lower-cased file
// extension. Failures are returned as *errors.ExtractionError so the corpus
// builder can log and skip the file.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
)

// Reader extracts text from one kind of file.
type Reader interface {
	// Kind names the reader in logs and errors (text, pdf, html, image).
	Kind() string
	Read(ctx context.Context, path string) (string, error)
}

// Registry maps file extensions to readers.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register binds reader to each extension (with leading dot, any case).
func (r *Registry) Register(reader Reader, exts ...string) {
	for _, ext := range exts {
		r.readers[strings.ToLower(ext)] = reader
	}
}

// Extract reads path with the matching reader. Unknown extensions wrap
// ErrUnsupportedFormat; blank output wraps ErrEmptyContent.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	reader, ok := r.readers[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), domerrors.ErrUnsupportedFormat)
	}
	text, err := reader.Read(ctx, path)
	if err != nil {
		return "", domerrors.NewExtractionError(path, reader.Kind(), err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domerrors.NewExtractionError(path, reader.Kind(), domerrors.ErrEmptyContent)
	}
	return text, nil
}

// NewDefaultRegistry registers the text, PDF and HTML readers, plus the image
// reader when images is non-nil.
func NewDefaultRegistry(images *ImageReader) *Registry {
	r := NewRegistry()
	r.Register(TextReader{}, ".txt", ".md")
	r.Register(PDFReader{}, ".pdf")
	r.Register(HTMLReader{}, ".html", ".htm")
	if images != nil {
		r.Register(images, ".png", ".jpg", ".jpeg")
	}
	return r
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeSpace collapses every whitespace run to one space.
func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
