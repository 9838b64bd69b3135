// Package retrieval selects the knowledge context handed to the language model.
//
// Two strategies exist. A rule override fires for room and location questions
// and returns the whole room inventory plus timetables. Everything else is
// answered by cosine similarity over the TF-IDF index.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/garyellow/campus-ai-go/internal/corpus"
)

// Retrieval constants.
const (
	TopK     = 8
	MinScore = 0.1

	NoDataSentinel = "No specific data found. Answer generally."
	Separator      = "\n---\n"

	RoomInventoryMarker = "[Campus Room Inventory]"
	TimetableMarker     = "Timetable"
)

// triggerWords route a query to the rule override.
var triggerWords = []string{"room", "vacant", "free", "empty", "where", "class"}

// Strategy produces context segments for a query against a loaded corpus.
type Strategy interface {
	Name() string
	Segments(ctx context.Context, c *corpus.Corpus, query string) []string
}

// Observer receives the chosen strategy and result count. *metrics.Metrics satisfies it.
type Observer interface {
	RecordRetrieval(strategy string, results int)
}

// RuleOverride returns every room inventory segment followed by every timetable segment.
type RuleOverride struct{}

// Name implements Strategy.
func (RuleOverride) Name() string { return "rule_override" }

// Segments implements Strategy.
func (RuleOverride) Segments(_ context.Context, c *corpus.Corpus, _ string) []string {
	rooms := c.Containing(RoomInventoryMarker)
	timetables := c.Containing(TimetableMarker)
	return append(rooms, timetables...)
}

// Similarity returns the top-scoring segments above a threshold.
type Similarity struct {
	K        int
	MinScore float64
}

// Name implements Strategy.
func (Similarity) Name() string { return "similarity" }

// Segments implements Strategy.
func (s Similarity) Segments(_ context.Context, c *corpus.Corpus, query string) []string {
	hits := c.Rank(query, s.K, s.MinScore)
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Segment
	}
	return out
}

// IsRuleQuery reports whether the lower-cased query mentions any trigger word.
// Matching is by substring, so "classroom" and "freedom" also qualify.
func IsRuleQuery(query string) bool {
	q := strings.ToLower(query)
	for _, w := range triggerWords {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// Retriever assembles context from the corpus currently held by a Holder.
type Retriever struct {
	holder     *corpus.Holder
	rule       Strategy
	similarity Strategy
	observer   Observer
}

// New creates a retriever with the standard strategies. observer may be nil.
func New(holder *corpus.Holder, observer Observer) *Retriever {
	return &Retriever{
		holder:     holder,
		rule:       RuleOverride{},
		similarity: Similarity{K: TopK, MinScore: MinScore},
		observer:   observer,
	}
}

// Choose returns the strategy a query is routed to.
func (r *Retriever) Choose(query string) Strategy {
	if IsRuleQuery(query) {
		return r.rule
	}
	return r.similarity
}

// Context returns the knowledge context for query. With no corpus loaded it
// returns "". When similarity ranking keeps nothing it returns NoDataSentinel.
func (r *Retriever) Context(ctx context.Context, query string) string {
	c := r.holder.Load()
	if c == nil || c.Len() == 0 {
		slog.DebugContext(ctx, "No corpus loaded; empty context")
		r.record("unavailable", 0)
		return ""
	}

	strategy := r.Choose(query)
	segments := strategy.Segments(ctx, c, query)
	r.record(strategy.Name(), len(segments))

	// The rule override concatenates whole tables, even when there are none.
	if strategy.Name() == r.rule.Name() {
		return strings.Join(segments, "\n")
	}
	if len(segments) == 0 {
		return NoDataSentinel
	}
	return strings.Join(segments, Separator)
}

func (r *Retriever) record(strategy string, n int) {
	if r.observer != nil {
		r.observer.RecordRetrieval(strategy, n)
	}
}
