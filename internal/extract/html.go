package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLReader returns the visible text of an HTML page. Block elements are
// separated by newlines so headings and rules still act as segment boundaries.
type HTMLReader struct{}

// Kind implements Reader.
func (HTMLReader) Kind() string { return "html" }

// Read implements Reader.
func (HTMLReader) Read(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, hr").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "hr":
			lines = append(lines, "---")
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if t := normalizeSpace(s.Text()); t != "" {
				lines = append(lines, "## "+t)
			}
		default:
			// Nested matches (p inside td) repeat text; keep only leaves.
			if s.Find("p, li, td, th, pre").Length() > 0 {
				return
			}
			if t := normalizeSpace(s.Text()); t != "" {
				lines = append(lines, t)
			}
		}
	})
	if len(lines) == 0 {
		return normalizeSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}
