package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFReader extracts the text layer page by page and collapses whitespace.
// Pages that fail to decode are skipped.
type PDFReader struct{}

// Kind implements Reader.
func (PDFReader) Kind() string { return "pdf" }

// Read implements Reader.
func (PDFReader) Read(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() { _ = f.Close() }()

	var b strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil || text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return normalizeSpace(b.String()), nil
}
