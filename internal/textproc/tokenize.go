// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textproc provides sentence and word tokenization plus the
// English stopword lists shared by the enrichment stages.
package textproc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Tokenizer splits text into sentences and sentences into word tokens.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Sentences(text string) []string
	Words(sentence string) []string
}

// Kind names a Tokenizer implementation.
type Kind string

const (
	KindProse  Kind = "prose"
	KindSimple Kind = "simple"
)

// New returns the tokenizer named by kind.
func New(kind Kind) (Tokenizer, error) {
	switch kind {
	case KindProse, "":
		return Prose{}, nil
	case KindSimple:
		return Simple{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q: use prose or simple", kind)
	}
}

// Prose tokenizes with the prose punkt segmenter and its word tokenizer.
type Prose struct{}

// Sentences segments text into sentences. Blank input yields no sentences.
func (Prose) Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false))
	if err != nil {
		return []string{text}
	}
	sents := doc.Sentences()
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s.Text)
		}
	}
	return out
}

// Words splits one sentence into word and punctuation tokens.
func (Prose) Words(sentence string) []string {
	if strings.TrimSpace(sentence) == "" {
		return nil
	}
	doc, err := prose.NewDocument(sentence,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return strings.Fields(sentence)
	}
	toks := doc.Tokens()
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

var (
	sentenceEnd = regexp.MustCompile(`([.!?]+)\s+`)
	wordToken   = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['-][\p{L}\p{N}_]+)*|[^\p{L}\p{N}_\s]`)
)

// Simple is a fast rule-based tokenizer: sentences end at terminal
// punctuation followed by whitespace, words are runs of letters, digits,
// underscores and inner hyphens or apostrophes, and every other
// non-space character is its own token.
type Simple struct{}

// Sentences splits text at terminal punctuation.
func (Simple) Sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[3]])
		if s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Words splits a sentence into tokens.
func (Simple) Words(sentence string) []string {
	return wordToken.FindAllString(sentence, -1)
}

// IsPunct reports whether tok consists only of punctuation or symbols.
func IsPunct(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// LowerWords tokenizes a sentence and lowercases each token.
func LowerWords(t Tokenizer, sentence string) []string {
	words := t.Words(sentence)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}
