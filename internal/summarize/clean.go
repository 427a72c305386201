// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"regexp"
	"strings"

	"github.com/pdiddy/cord-engine/internal/textproc"
)

// boilerplateTokens mark preprint license and manuscript notices.
var boilerplateTokens = map[string]bool{
	"license":     true,
	"CC-BY-NC-ND": true,
	"medRxiv":     true,
	"manuscript":  true,
}

type substitution struct {
	re   *regexp.Regexp
	with string
}

// cleaners run in order; "et al.," becomes a period before the general
// "et al" form is removed.
var cleaners = []substitution{
	{regexp.MustCompile(`\[[0-9, ]+\]`), ""},
	{regexp.MustCompile(`\(?[a-zA-Z ]+ et al\.,`), "."},
	{regexp.MustCompile(`\(?[a-zA-Z ]+ et al\.?\)?`), ""},
	{regexp.MustCompile(`\([A-Za-z]+, [0-9]+(\)|;)`), ""},
	{regexp.MustCompile(`\([A-Za-z]+ and [A-Za-z]+, [0-9]+(\)|;)`), ""},
	{regexp.MustCompile(`\([Ff]igure [0-9A-Za-z]+\)`), ""},
	{regexp.MustCompile(`\([Tt]able [0-9A-Za-z]+\)`), ""},
	{regexp.MustCompile(`\s+\.`), "."},
	{regexp.MustCompile(`\s+`), " "},
}

// CleanText strips citation markers and figure or table references from
// one sentence and collapses whitespace.
func CleanText(text string) string {
	for _, c := range cleaners {
		text = c.re.ReplaceAllString(text, c.with)
	}
	return strings.TrimSpace(text)
}

// isBoilerplate reports whether a sentence contains a boilerplate token.
func isBoilerplate(tok textproc.Tokenizer, sentence string) bool {
	for _, w := range tok.Words(sentence) {
		if boilerplateTokens[w] {
			return true
		}
	}
	return false
}

// Clean drops boilerplate sentences from a summary and cleans the rest.
// The sentinel NoSummary passes through unchanged.
func Clean(tok textproc.Tokenizer, summary string) string {
	if summary == NoSummary {
		return summary
	}
	var out []string
	for _, s := range tok.Sentences(summary) {
		if isBoilerplate(tok, s) {
			continue
		}
		if c := CleanText(s); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
