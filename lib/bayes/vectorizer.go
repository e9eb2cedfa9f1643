package bayes

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Vector is a fixed-length feature vector with Dim elements, only non-zero elements are stored.
// Indices are sorted and unique, Counts[i] is the value of element Indices[i].
type Vector struct {
	Dim     int
	Indices []int
	Counts  []float64
}

// IsZero returns true if all elements of the vector are zero
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Vectorizer maps normalized text to token counts over a vocabulary learned by FitVectorizer.
// The vocabulary never changes after fit.
type Vectorizer struct {
	terms      []string       // sorted vocabulary, position is the feature index
	vocabulary map[string]int // term -> feature index
}

// FitVectorizer learns vocabulary from the corpus of normalized texts
func FitVectorizer(corpus []string) (*Vectorizer, error) {
	uniq := make(map[string]struct{})
	for _, doc := range corpus {
		for _, token := range Tokens(doc) {
			uniq[token] = struct{}{}
		}
	}
	if len(uniq) == 0 {
		return nil, errors.New("empty vocabulary, corpus has no tokens")
	}
	terms := make([]string, 0, len(uniq))
	for term := range uniq {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return newVectorizer(terms), nil
}

func newVectorizer(terms []string) *Vectorizer {
	res := &Vectorizer{terms: terms, vocabulary: make(map[string]int, len(terms))}
	for i, term := range terms {
		res.vocabulary[term] = i
	}
	return res
}

// Len returns vocabulary size, the dimension of produced vectors
func (v *Vectorizer) Len() int {
	return len(v.terms)
}

// Transform converts normalized text to a vector of token counts.
// Tokens out of vocabulary are ignored, empty text results in zero vector.
func (v *Vectorizer) Transform(text string) Vector {
	res := Vector{Dim: len(v.terms)}
	counts := make(map[int]float64)
	for _, token := range Tokens(text) {
		if idx, ok := v.vocabulary[token]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return res
	}
	res.Indices = make([]int, 0, len(counts))
	for idx := range counts {
		res.Indices = append(res.Indices, idx)
	}
	sort.Ints(res.Indices)
	res.Counts = make([]float64, len(res.Indices))
	for i, idx := range res.Indices {
		res.Counts[i] = counts[idx]
	}
	return res
}

// Tokens splits text to lowercase word tokens of two or more characters
func Tokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})
	res := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < 2 {
			continue
		}
		res = append(res, strings.ToLower(f))
	}
	return res
}
