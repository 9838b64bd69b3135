// Package corpus holds the segmented knowledge base and its TF-IDF index.
//
// A Corpus is immutable once built. The server reads the current value through
// a Holder and replaces it wholesale when the artifacts on disk change.
package corpus

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrCorpusUnavailable is returned when the persisted artifacts are missing or unreadable.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// Corpus is an ordered list of segments with a fitted index over them.
// Row i of Matrix is the vector of Segments[i].
type Corpus struct {
	Segments   []string
	Vectorizer *Vectorizer
	Matrix     *Matrix
	BuiltAt    time.Time
}

// Hit is a ranked segment.
type Hit struct {
	Index   int
	Score   float64
	Segment string
}

// New fits an index over segments.
func New(segments []string) (*Corpus, error) {
	vec, err := Fit(segments)
	if err != nil {
		return nil, fmt.Errorf("corpus: fit index: %w", err)
	}
	return &Corpus{
		Segments:   segments,
		Vectorizer: vec,
		Matrix:     vec.TransformAll(segments),
		BuiltAt:    time.Now().UTC(),
	}, nil
}

// Len returns the number of segments.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Segments)
}

// Validate checks the segment/matrix alignment.
func (c *Corpus) Validate() error {
	if c.Vectorizer == nil || c.Matrix == nil {
		return errors.New("corpus: missing index")
	}
	if err := c.Vectorizer.validate(); err != nil {
		return err
	}
	if len(c.Matrix.Rows) != len(c.Segments) {
		return fmt.Errorf("corpus: %d matrix rows for %d segments", len(c.Matrix.Rows), len(c.Segments))
	}
	if c.Matrix.Cols != c.Vectorizer.Dim() {
		return fmt.Errorf("corpus: matrix has %d columns, vocabulary has %d terms", c.Matrix.Cols, c.Vectorizer.Dim())
	}
	return nil
}

// Containing returns, in corpus order, every segment that contains substr.
func (c *Corpus) Containing(substr string) []string {
	var out []string
	for _, s := range c.Segments {
		if strings.Contains(s, substr) {
			out = append(out, s)
		}
	}
	return out
}

// Rank scores every segment against query by cosine similarity and returns at
// most k hits with score strictly above minScore, best first. Ties keep corpus order.
func (c *Corpus) Rank(query string, k int, minScore float64) []Hit {
	if c.Len() == 0 || k <= 0 {
		return nil
	}
	q := c.Vectorizer.Transform(query)
	if q.IsZero() {
		return nil
	}

	hits := make([]Hit, 0, len(c.Segments))
	for i, row := range c.Matrix.Rows {
		// Rows and query are unit vectors, so the dot product is the cosine.
		score := q.Dot(row)
		if score > minScore {
			hits = append(hits, Hit{Index: i, Score: score, Segment: c.Segments[i]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
