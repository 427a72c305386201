// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"math"
	"regexp"
	"slices"
	"strings"
)

// termPattern matches tokens of two or more word characters.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Entry is one non-zero cell of a TF-IDF row.
type Entry struct {
	Term   int
	Weight float64
}

// Vectorizer computes unigram TF-IDF weights: raw term counts, smoothed
// inverse document frequency ln((1+n)/(1+df))+1 and L2-normalized rows.
// The vocabulary is sorted ascending so term indexes follow term order.
type Vectorizer struct {
	vocab []string
	index map[string]int
	idf   []float64
}

// Tokenize lowercases doc and returns its terms in order.
func Tokenize(doc string) []string {
	return termPattern.FindAllString(strings.ToLower(doc), -1)
}

// Fit learns the vocabulary and document frequencies of docs.
func Fit(docs []string) *Vectorizer {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool)
		for _, t := range Tokenize(d) {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	v := &Vectorizer{index: make(map[string]int, len(df))}
	v.vocab = make([]string, 0, len(df))
	for t := range df {
		v.vocab = append(v.vocab, t)
	}
	slices.Sort(v.vocab)

	n := float64(len(docs))
	v.idf = make([]float64, len(v.vocab))
	for i, t := range v.vocab {
		v.index[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

// Vocabulary returns the learned terms in index order.
func (v *Vectorizer) Vocabulary() []string {
	return slices.Clone(v.vocab)
}

// IDF returns the inverse document frequency of term, or 0 when the term
// is not in the vocabulary.
func (v *Vectorizer) IDF(term string) float64 {
	i, ok := v.index[term]
	if !ok {
		return 0
	}
	return v.idf[i]
}

// Transform returns the normalized TF-IDF row of doc sorted by term index.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) []Entry {
	counts := make(map[int]int)
	for _, t := range Tokenize(doc) {
		if i, ok := v.index[t]; ok {
			counts[i]++
		}
	}
	row := make([]Entry, 0, len(counts))
	var norm float64
	for i, c := range counts {
		w := float64(c) * v.idf[i]
		norm += w * w
		row = append(row, Entry{Term: i, Weight: w})
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i].Weight /= norm
		}
	}
	slices.SortFunc(row, func(a, b Entry) int { return a.Term - b.Term })
	return row
}
