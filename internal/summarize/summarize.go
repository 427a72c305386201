// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize produces short extractive summaries of full texts and
// cleans them of citation noise for display.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/surgebase/porter2"

	"github.com/pdiddy/cord-engine/internal/textproc"
)

// NoSummary is stored for documents that cannot be summarized.
const NoSummary = "No summary available."

const (
	// minTextLen marks shorter texts as mis-parses not worth summarizing.
	minTextLen = 1000

	// targetLen is the approximate summary length in characters.
	targetLen = 500
)

// ErrNoSentences is returned by a Summarizer when text has no sentences
// to pick from.
var ErrNoSentences = errors.New("no sentences to summarize")

// Summarizer extracts a summary holding about ratio of the text's
// sentences.
type Summarizer interface {
	Summarize(ctx context.Context, text string, ratio float64) (string, error)
}

// Summarize applies the summary policy: texts under 1000 characters, texts
// without sentences and empty results all yield NoSummary. Other
// summarizer errors are returned.
func Summarize(ctx context.Context, s Summarizer, text string) (string, error) {
	n := utf8.RuneCountInString(text)
	if n < minTextLen {
		return NoSummary, nil
	}
	out, err := s.Summarize(ctx, text, float64(targetLen)/float64(n))
	if errors.Is(err, ErrNoSentences) {
		return NoSummary, nil
	}
	if err != nil {
		return "", fmt.Errorf("summarizing: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return NoSummary, nil
	}
	return out, nil
}

// FrequencySummarizer scores sentences by the average corpus frequency of
// their stemmed content words. The first sentence is always kept and the
// chosen sentences are returned in document order.
type FrequencySummarizer struct {
	Tokenizer textproc.Tokenizer
}

// Summarize implements Summarizer.
func (f FrequencySummarizer) Summarize(ctx context.Context, text string, ratio float64) (string, error) {
	sents := f.Tokenizer.Sentences(text)
	if len(sents) == 0 {
		return "", ErrNoSentences
	}

	stems := make([][]string, len(sents))
	freq := make(map[string]int)
	for i, s := range sents {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, w := range textproc.LowerWords(f.Tokenizer, s) {
			if textproc.IsPunct(w) || textproc.IsStopword(w) {
				continue
			}
			st := porter2.Stem(w)
			stems[i] = append(stems[i], st)
			freq[st]++
		}
	}

	want := int(math.Round(ratio * float64(len(sents))))
	want = max(1, min(want, len(sents)))

	type scored struct {
		idx   int
		score float64
	}
	rest := make([]scored, 0, len(sents)-1)
	for i := 1; i < len(sents); i++ {
		var sum float64
		for _, st := range stems[i] {
			sum += float64(freq[st])
		}
		var avg float64
		if len(stems[i]) > 0 {
			avg = sum / float64(len(stems[i]))
		}
		rest = append(rest, scored{idx: i, score: avg})
	}
	slices.SortStableFunc(rest, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	picked := []int{0}
	for _, r := range rest[:want-1] {
		picked = append(picked, r.idx)
	}
	slices.Sort(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = strings.TrimSpace(sents[idx])
	}
	return strings.Join(out, " "), nil
}
