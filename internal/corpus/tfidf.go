package corpus

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer is a fitted TF-IDF model: raw term counts weighted by smoothed
// inverse document frequency, L2-normalised.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	StopWords  string         `json:"stop_words"`
}

// SparseVector holds the non-zero entries of a vector, indices ascending.
type SparseVector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the L2 norm.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether the vector has no non-zero entries.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Matrix is a row-major sparse matrix, one row per segment.
type Matrix struct {
	Cols int            `json:"cols"`
	Rows []SparseVector `json:"rows"`
}

// Tokenize lower-cases text and returns its non-stop-word terms in order.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if isStopWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Fit learns the vocabulary and IDF weights from docs.
func Fit(docs []string) (*Vectorizer, error) {
	if len(docs) == 0 {
		return nil, errors.New("tfidf: empty document set")
	}
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, errors.New("tfidf: empty vocabulary; documents contain only stop words")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
		StopWords:  "english",
	}
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v, nil
}

// Dim returns the vocabulary size.
func (v *Vectorizer) Dim() int {
	return len(v.IDF)
}

// Transform maps text into the fitted space. Out-of-vocabulary terms are ignored.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]int)
	for _, tok := range Tokenize(text) {
		if idx, ok := v.Vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	vec := SparseVector{Indices: indices, Values: make([]float64, len(indices))}
	for i, idx := range indices {
		vec.Values[i] = float64(counts[idx]) * v.IDF[idx]
	}
	if norm := vec.Norm(); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// TransformAll builds the matrix for docs, one row each.
func (v *Vectorizer) TransformAll(docs []string) *Matrix {
	m := &Matrix{Cols: v.Dim(), Rows: make([]SparseVector, len(docs))}
	for i, doc := range docs {
		m.Rows[i] = v.Transform(doc)
	}
	return m
}

// validate checks that the vocabulary and IDF table agree.
func (v *Vectorizer) validate() error {
	if len(v.Vocabulary) != len(v.IDF) {
		return errors.New("tfidf: vocabulary and idf size mismatch")
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return errors.New("tfidf: vocabulary index out of range for " + term)
		}
	}
	return nil
}
