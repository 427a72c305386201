// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package phrases learns multi-word phrases from co-occurrence counts and
// merges them into single tokens joined by a delimiter. Common terms (the
// English stopwords) never start or end a phrase but may sit inside one,
// so "rate of infection" can become "rate_of_infection".
package phrases

import (
	"maps"
	"slices"
	"strings"

	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// DefaultDelimiter joins the words of a merged phrase.
const DefaultDelimiter = "_"

// Options controls training.
type Options struct {
	// MinCount is subtracted from the chain count before scoring.
	MinCount int

	// Threshold is the score a chain must strictly exceed to merge.
	Threshold float64

	// CommonTerms may appear inside a phrase but never anchor one.
	CommonTerms map[string]bool

	// Delimiter joins merged words.
	Delimiter string
}

// DefaultOptions returns MinCount 5, Threshold 10, the English stopwords
// as common terms and "_" as delimiter.
func DefaultOptions() Options {
	return Options{
		MinCount:    5,
		Threshold:   10,
		CommonTerms: textproc.Stopwords(),
		Delimiter:   DefaultDelimiter,
	}
}

// Model holds the vocabulary counts learned from a corpus. A Model is
// read-only after Train or Load and safe for concurrent use.
type Model struct {
	opts  Options
	vocab map[string]int
}

// Corpus turns documents into training sentences: every non-empty title,
// abstract and text is split into sentences, each sentence into lowercase
// word tokens, with punctuation-only tokens dropped.
func Corpus(tok textproc.Tokenizer, docs []types.Document) [][]string {
	var out [][]string
	for _, d := range docs {
		for _, field := range []string{d.Title, d.Abstract, d.Text} {
			if field == "" {
				continue
			}
			for _, s := range tok.Sentences(field) {
				var words []string
				for _, w := range tok.Words(s) {
					if textproc.IsPunct(w) {
						continue
					}
					words = append(words, strings.ToLower(w))
				}
				if len(words) > 0 {
					out = append(out, words)
				}
			}
		}
	}
	return out
}

// Train counts unigrams and chains over sentences. Each uncommon word is
// counted, and so is the chain from the previous uncommon word through any
// common words in between to this one.
func Train(sentences [][]string, opts Options) *Model {
	if opts.Delimiter == "" {
		opts.Delimiter = DefaultDelimiter
	}
	m := &Model{opts: opts, vocab: make(map[string]int)}
	for _, s := range sentences {
		var (
			last    string
			hasLast bool
			between []string
		)
		for _, w := range s {
			if opts.CommonTerms[w] {
				if hasLast {
					between = append(between, w)
				}
				continue
			}
			m.vocab[w]++
			if hasLast {
				m.vocab[m.join(last, between, w)]++
			}
			last, hasLast, between = w, true, nil
		}
	}
	return m
}

func (m *Model) join(a string, between []string, b string) string {
	parts := make([]string, 0, len(between)+2)
	parts = append(parts, a)
	parts = append(parts, between...)
	parts = append(parts, b)
	return strings.Join(parts, m.opts.Delimiter)
}

// Count returns the learned count of a word or delimited chain.
func (m *Model) Count(key string) int {
	return m.vocab[key]
}

// VocabSize returns the number of distinct words and chains.
func (m *Model) VocabSize() int {
	return len(m.vocab)
}

// Options returns the options the model was trained with.
func (m *Model) Options() Options {
	return m.opts
}

// score rates merging a and b through the given common words. It returns
// -1 when any component is unknown.
func (m *Model) score(a string, between []string, b string) float64 {
	ca, okA := m.vocab[a]
	cb, okB := m.vocab[b]
	if !okA || !okB {
		return -1
	}
	chain, ok := m.vocab[m.join(a, between, b)]
	if !ok {
		return -1
	}
	return float64(chain-m.opts.MinCount) / float64(ca) / float64(cb) * float64(len(m.vocab))
}

// Apply merges phrases in one tokenized sentence and returns a new slice.
// The pass is greedy left to right: once a chain merges, the next phrase
// can only start after it.
func (m *Model) Apply(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	var (
		last    string
		hasLast bool
		between []string
	)
	for _, w := range tokens {
		common := m.opts.CommonTerms[w]
		switch {
		case !common && hasLast:
			if m.score(last, between, w) > m.opts.Threshold {
				out = append(out, m.join(last, between, w))
				hasLast, between = false, nil
				continue
			}
			out = append(out, last)
			out = append(out, between...)
			last, between = w, nil
		case !common:
			last, hasLast = w, true
		case hasLast:
			between = append(between, w)
		default:
			out = append(out, w)
		}
	}
	if hasLast {
		out = append(out, last)
		out = append(out, between...)
	}
	return out
}

type modelFile struct {
	MinCount    int            `json:"min_count"`
	Threshold   float64        `json:"threshold"`
	Delimiter   string         `json:"delimiter"`
	CommonTerms []string       `json:"common_terms"`
	Vocab       map[string]int `json:"vocab"`
}

func (m *Model) toFile() modelFile {
	return modelFile{
		MinCount:    m.opts.MinCount,
		Threshold:   m.opts.Threshold,
		Delimiter:   m.opts.Delimiter,
		CommonTerms: slices.Sorted(maps.Keys(m.opts.CommonTerms)),
		Vocab:       m.vocab,
	}
}

func fromFile(f modelFile) *Model {
	common := make(map[string]bool, len(f.CommonTerms))
	for _, w := range f.CommonTerms {
		common[w] = true
	}
	vocab := f.Vocab
	if vocab == nil {
		vocab = make(map[string]int)
	}
	delim := f.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}
	return &Model{
		opts: Options{
			MinCount:    f.MinCount,
			Threshold:   f.Threshold,
			CommonTerms: common,
			Delimiter:   delim,
		},
		vocab: vocab,
	}
}
