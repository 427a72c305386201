// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords picks the most distinctive terms of each document by
// TF-IDF weight over phrase-merged text.
package keywords

import (
	"slices"
	"strings"

	"github.com/pdiddy/cord-engine/internal/phrases"
	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// Defaults for Extractor.
const (
	DefaultNumKeywords = 20
	DefaultChunkSize   = 1000
)

// Preprocess builds the text a document contributes to the TF-IDF fit:
// title, abstract and text joined by spaces with hyphens turned into
// underscores, tokenized per sentence, lowercased and phrase-merged.
func Preprocess(tok textproc.Tokenizer, model *phrases.Model, doc types.Document) string {
	text := doc.Title + " " + doc.Abstract + " " + doc.Text
	text = strings.ReplaceAll(text, "-", "_")

	var out []string
	for _, s := range tok.Sentences(text) {
		words := textproc.LowerWords(tok, s)
		if model != nil {
			words = model.Apply(words)
		}
		out = append(out, words...)
	}
	return strings.Join(out, " ")
}

// Extractor ranks keywords for a batch of documents.
type Extractor struct {
	Tokenizer   textproc.Tokenizer
	Model       *phrases.Model
	NumKeywords int
	ChunkSize   int
}

// Extract fits TF-IDF on the whole batch and returns the top keywords of
// every document keyed by document ID. Rows are materialized ChunkSize at
// a time. Only terms with a positive score that pass Keep are returned,
// by score descending and then term ascending, with underscores rendered
// as spaces.
func (e *Extractor) Extract(docs []types.Document) map[string][]string {
	num := e.NumKeywords
	if num <= 0 {
		num = DefaultNumKeywords
	}
	chunk := e.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = Preprocess(e.Tokenizer, e.Model, d)
	}
	vec := Fit(texts)

	vocab := vec.Vocabulary()
	keep := make([]bool, len(vocab))
	for i, t := range vocab {
		keep[i] = Keep(t)
	}

	out := make(map[string][]string, len(docs))
	for start := 0; start < len(texts); start += chunk {
		end := min(start+chunk, len(texts))
		for i := start; i < end; i++ {
			out[docs[i].ID] = rank(vec.Transform(texts[i]), vocab, keep, num)
		}
	}
	return out
}

func rank(row []Entry, vocab []string, keep []bool, n int) []string {
	cands := make([]Entry, 0, len(row))
	for _, e := range row {
		if e.Weight > 0 && keep[e.Term] {
			cands = append(cands, e)
		}
	}
	slices.SortStableFunc(cands, func(a, b Entry) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		default:
			return a.Term - b.Term
		}
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	words := make([]string, len(cands))
	for i, e := range cands {
		words[i] = strings.ReplaceAll(vocab[e.Term], "_", " ")
	}
	return words
}

// Assign returns copies of docs with Keywords taken from kw. Documents
// without an entry get an empty list.
func Assign(docs []types.Document, kw map[string][]string) []types.Document {
	out := make([]types.Document, len(docs))
	for i, d := range docs {
		c := d.Clone()
		c.Keywords = slices.Clone(kw[d.ID])
		if c.Keywords == nil {
			c.Keywords = []string{}
		}
		out[i] = c
	}
	return out
}
