package command

import (
	"testing"

	"github.com/garyellow/campus-ai-go/internal/storage"
)

func roster(ids ...string) []storage.Student {
	names := map[string]string{
		"CSE101": "Asha", "ECE101": "Ravi", "CSE102": "Kai", "CSE177": "Karan", "ECE277": "Meera",
	}
	out := make([]storage.Student, len(ids))
	for i, id := range ids {
		out[i] = storage.Student{ClassID: "c1", StudentID: id, Name: names[id]}
	}
	return out
}

func TestMatchSuffix(t *testing.T) {
	t.Parallel()

	r := roster("CSE101", "ECE101", "CSE102")
	tests := []struct {
		token string
		kind  MatchKind
		id    string
	}{
		{"102", ExactlyOne, "CSE102"},
		{"CSE101", ExactlyOne, "CSE101"},
		{"101", Ambiguous, ""},
		{"999", NoMatch, ""},
		{"", NoMatch, ""},
		{"  ", NoMatch, ""},
	}
	for _, tt := range tests {
		m := MatchSuffix(tt.token, r)
		if m.Kind != tt.kind {
			t.Errorf("MatchSuffix(%q).Kind = %v, want %v", tt.token, m.Kind, tt.kind)
		}
		if tt.kind == ExactlyOne && m.Student.StudentID != tt.id {
			t.Errorf("MatchSuffix(%q) = %q, want %q", tt.token, m.Student.StudentID, tt.id)
		}
	}
}

func TestResolveIDs(t *testing.T) {
	t.Parallel()

	r := roster("CSE101", "ECE101", "CSE102")
	got := ResolveIDs([]string{"102", "101", "999", "CSE102", "ECE101"}, r)
	if len(got) != 2 || got[0].StudentID != "CSE102" || got[1].StudentID != "ECE101" {
		t.Errorf("ResolveIDs() = %+v", got)
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	r := roster("CSE101", "ECE101", "CSE102", "CSE177", "ECE277")
	tests := []struct {
		name    string
		pattern Pattern
		want    []string
	}{
		{"id endswith", Pattern{Field: "id", Type: "endswith", Value: "101"}, []string{"CSE101", "ECE101"}},
		{"id endswith 77", Pattern{Field: "id", Type: "endswith", Value: "77"}, []string{"CSE177", "ECE277"}},
		{"name startswith case-insensitive", Pattern{Field: "name", Type: "startswith", Value: "K"}, []string{"CSE102", "CSE177"}},
		{"id contains lower-cased", Pattern{Field: "id", Type: "contains", Value: "ece"}, []string{"ECE101", "ECE277"}},
		{"unknown type", Pattern{Field: "id", Type: "regex", Value: "1"}, nil},
		{"unknown field falls back to id", Pattern{Field: "roll", Type: "startswith", Value: "cse"}, []string{"CSE101", "CSE102", "CSE177"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MatchPattern(tt.pattern, r)
			if len(got) != len(tt.want) {
				t.Fatalf("MatchPattern() = %+v, want %v", got, tt.want)
			}
			for i, id := range tt.want {
				if got[i].StudentID != id {
					t.Errorf("target[%d] = %q, want %q", i, got[i].StudentID, id)
				}
			}
		})
	}
}
