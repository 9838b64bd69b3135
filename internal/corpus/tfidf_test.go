package corpus

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and drops stop words", "The Lab is IN Room 204", []string{"lab", "room", "204"}},
		{"single chars dropped", "a b c dd", []string{"dd"}},
		{"punctuation splits", "CSE101: data-structures", []string{"cse101", "data", "structures"}},
		{"underscore is a word char", "room_inventory", []string{"room_inventory"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFit_SmoothedIDF(t *testing.T) {
	t.Parallel()

	docs := []string{"apple banana", "banana cherry", "cherry date banana"}
	v, err := Fit(docs)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if v.Dim() != 4 {
		t.Fatalf("Dim() = %d, want 4", v.Dim())
	}

	// Vocabulary is sorted.
	if v.Vocabulary["apple"] != 0 || v.Vocabulary["date"] != 3 {
		t.Errorf("unexpected vocabulary ordering: %v", v.Vocabulary)
	}

	wantApple := math.Log(4.0/2.0) + 1
	if got := v.IDF[v.Vocabulary["apple"]]; math.Abs(got-wantApple) > 1e-12 {
		t.Errorf("idf(apple) = %v, want %v", got, wantApple)
	}
	wantBanana := math.Log(4.0/4.0) + 1
	if got := v.IDF[v.Vocabulary["banana"]]; math.Abs(got-wantBanana) > 1e-12 {
		t.Errorf("idf(banana) = %v, want %v", got, wantBanana)
	}
}

func TestFit_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Fit(nil); err == nil {
		t.Error("Fit(nil) should fail")
	}
	if _, err := Fit([]string{"the and of", "a"}); err == nil {
		t.Error("Fit() over stop words only should fail")
	}
}

func TestTransform_UnitNorm(t *testing.T) {
	t.Parallel()

	v, err := Fit([]string{"exam schedule week", "lab schedule", "exam exam results"})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	vec := v.Transform("exam exam schedule unknownterm")
	if vec.IsZero() {
		t.Fatal("Transform() returned zero vector")
	}
	if norm := vec.Norm(); math.Abs(norm-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", norm)
	}
	for i := 1; i < len(vec.Indices); i++ {
		if vec.Indices[i] <= vec.Indices[i-1] {
			t.Fatalf("indices not ascending: %v", vec.Indices)
		}
	}

	if got := v.Transform("nothing matches here"); !got.IsZero() {
		t.Errorf("out-of-vocabulary text should give zero vector, got %+v", got)
	}
}

func TestSparseVectorDot(t *testing.T) {
	t.Parallel()

	a := SparseVector{Indices: []int{0, 2, 5}, Values: []float64{1, 2, 3}}
	b := SparseVector{Indices: []int{2, 3, 5}, Values: []float64{4, 1, 2}}
	if got := a.Dot(b); got != 14 {
		t.Errorf("Dot() = %v, want 14", got)
	}
	if got := a.Dot(SparseVector{}); got != 0 {
		t.Errorf("Dot(empty) = %v, want 0", got)
	}
}
