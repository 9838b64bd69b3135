// Package segment splits extracted document text into tagged, size-bounded segments.
//
// Text is first cut at structural boundaries (markdown "## " headings, "---" rules,
// "Unit N" and "Module N" markers), with each marker staying attached to the piece
// it introduces. Every piece is prefixed with "[<tag>] ". Pieces that would exceed
// the size limit are re-sliced into overlapping windows.
package segment

import (
	"log/slog"
	"regexp"
	"strings"
)

// Default sizing, measured in runes.
const (
	DefaultMaxSize = 4000
	DefaultOverlap = 200

	// MaxTagRunes caps a source tag.
	MaxTagRunes = 60
	// TagBudget is the room every segment reserves for its "[tag] " prefix.
	TagBudget = MaxTagRunes + 3
)

// boundary matches the start of a structural marker. Go's regexp has no lookahead,
// so Split cuts at match starts instead.
var boundary = regexp.MustCompile(`\n## |\n---|Unit \d|Module \d`)

// Options controls segment sizing.
type Options struct {
	MaxSize int // Upper bound on a tagged segment, in runes
	Overlap int // Runes shared by consecutive windows of an oversized piece
}

func (o Options) normalized() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	if o.Overlap < 0 || o.Overlap >= o.MaxSize {
		o.Overlap = 0
	}
	return o
}

// Prefix returns the tag prefix applied to every segment of a source.
func Prefix(tag string) string {
	return "[" + tag + "] "
}

// Split cuts text into tagged segments in document order.
// Empty or whitespace-only input yields no segments.
func Split(text, tag string, opts Options) []string {
	opts = opts.normalized()
	prefix := Prefix(tag)
	prefixLen := len([]rune(prefix))
	if width := opts.MaxSize - prefixLen; width <= opts.Overlap {
		slog.Warn("Segment size leaves no room for the tag and overlap, oversized windows will break the limit",
			"tag", tag,
			"max_size", opts.MaxSize,
			"overlap", opts.Overlap,
			"prefix_runes", prefixLen)
	}

	var out []string
	for _, piece := range structural(text) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		runes := []rune(piece)
		if prefixLen+len(runes) <= opts.MaxSize {
			out = append(out, prefix+piece)
			continue
		}
		for _, w := range windows(runes, opts.MaxSize-prefixLen, opts.Overlap) {
			out = append(out, prefix+w)
		}
	}
	return out
}

// structural splits text before every boundary marker.
func structural(text string) []string {
	matches := boundary.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}
	pieces := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		if m[0] > start {
			pieces = append(pieces, text[start:m[0]])
		}
		start = m[0]
	}
	return append(pieces, text[start:])
}

// windows slices runes into windows of width runes, each starting width-overlap
// after the previous one. The last window ends at the end of the input.
func windows(runes []rune, width, overlap int) []string {
	if width < 1 {
		width = 1
	}
	step := width - overlap
	if step <= 0 {
		step = width
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := min(i+width, len(runes))
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
