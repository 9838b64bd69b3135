package sliceutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	id    string
	marks int
}

func TestUniqueBy(t *testing.T) {
	t.Parallel()
	byID := func(r row) string { return r.id }

	tests := []struct {
		name string
		in   []row
		want []row
	}{
		{name: "nil", in: nil, want: nil},
		{name: "single", in: []row{{"a", 1}}, want: []row{{"a", 1}}},
		{name: "no repeats", in: []row{{"a", 1}, {"b", 2}}, want: []row{{"a", 1}, {"b", 2}}},
		{
			name: "first occurrence wins",
			in:   []row{{"a", 1}, {"b", 2}, {"a", 3}, {"c", 4}, {"b", 5}},
			want: []row{{"a", 1}, {"b", 2}, {"c", 4}},
		},
		{name: "all the same", in: []row{{"a", 1}, {"a", 2}, {"a", 3}}, want: []row{{"a", 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, UniqueBy(tt.in, byID))
		})
	}
}

func TestUniqueBy_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := []row{{"a", 1}, {"a", 2}, {"b", 3}}
	_ = UniqueBy(in, func(r row) string { return r.id })
	assert.Equal(t, []row{{"a", 1}, {"a", 2}, {"b", 3}}, in)
}

func TestUniqueBy_DerivedKey(t *testing.T) {
	t.Parallel()
	got := UniqueBy([]string{"S001", "s001", "S002"}, strings.ToLower)
	assert.Equal(t, []string{"S001", "S002"}, got)
}
