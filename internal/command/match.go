package command

import (
	"strings"

	"github.com/garyellow/campus-ai-go/internal/sliceutil"
	"github.com/garyellow/campus-ai-go/internal/storage"
)

// MatchKind discriminates suffix-match outcomes.
type MatchKind int

const (
	NoMatch MatchKind = iota
	ExactlyOne
	Ambiguous
)

// SuffixMatch is the outcome of resolving one id token against the roster.
type SuffixMatch struct {
	Kind    MatchKind
	Student storage.Student // set when Kind == ExactlyOne
	Count   int
}

// MatchSuffix resolves token against every roster id by suffix. An empty
// token matches nothing.
func MatchSuffix(token string, roster []storage.Student) SuffixMatch {
	token = strings.TrimSpace(token)
	if token == "" {
		return SuffixMatch{Kind: NoMatch}
	}
	var (
		found storage.Student
		count int
	)
	for _, s := range roster {
		if strings.HasSuffix(s.StudentID, token) {
			found = s
			count++
		}
	}
	switch count {
	case 0:
		return SuffixMatch{Kind: NoMatch}
	case 1:
		return SuffixMatch{Kind: ExactlyOne, Student: found, Count: 1}
	default:
		return SuffixMatch{Kind: Ambiguous, Count: count}
	}
}

// ResolveIDs returns the students whose ids are unambiguously named by tokens,
// in token order without duplicates.
func ResolveIDs(tokens []string, roster []storage.Student) []storage.Student {
	var out []storage.Student
	for _, tok := range tokens {
		if m := MatchSuffix(tok, roster); m.Kind == ExactlyOne {
			out = append(out, m.Student)
		}
	}
	return sliceutil.UniqueBy(out, func(s storage.Student) string { return s.StudentID })
}

// MatchPattern returns every roster entry, in roster order, whose lower-cased
// field satisfies the pattern. Any field other than "name" compares the id.
func MatchPattern(p Pattern, roster []storage.Student) []storage.Student {
	value := strings.ToLower(string(p.Value))
	var pred func(s string) bool
	switch strings.ToLower(p.Type) {
	case MatchStartsWith:
		pred = func(s string) bool { return strings.HasPrefix(s, value) }
	case MatchEndsWith:
		pred = func(s string) bool { return strings.HasSuffix(s, value) }
	case MatchContains:
		pred = func(s string) bool { return strings.Contains(s, value) }
	default:
		return nil
	}

	var out []storage.Student
	for _, s := range roster {
		field := s.StudentID
		if strings.EqualFold(p.Field, FieldName) {
			field = s.Name
		}
		if pred(strings.ToLower(field)) {
			out = append(out, s)
		}
	}
	return out
}
