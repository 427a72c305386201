// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gedex/inflector"

	"github.com/pdiddy/cord-engine/internal/textproc"
)

// noiseWords are corpus boilerplate and domain-generic terms that never
// make useful keywords.
var noiseWords = []string{
	"covid", "cov", "sars", "mers", "coronavirus", "et_al", "table", "authors", "author",
	"appendix", "data", "june", "posted", "license", "version", "preprint", "medrxiv", "review",
	"science", "health", "study", "studies", "right", "reserved", "permission", "cc", "certified", "reuse",
	"copyright", "tool", "model", "agent", "trial", "quarter", "factor", "sample", "level",
	"january", "february", "march", "april", "may", "july", "august", "september", "october",
	"november", "december", "case", "patient", "document", "usepackage", "state", "room", "people", "virus",
	"viruses",
}

var stoplist = buildStoplist(noiseWords)

// buildStoplist matches any noise word or its plural when it starts at a
// word boundary or underscore and ends at a boundary, an "s" or an
// underscore.
func buildStoplist(words []string) *regexp.Regexp {
	seen := make(map[string]bool)
	var alts []string
	add := func(w string) {
		if w != "" && !seen[w] {
			seen[w] = true
			alts = append(alts, regexp.QuoteMeta(w))
		}
	}
	for _, w := range words {
		add(w)
		add(strings.ToLower(inflector.Pluralize(w)))
	}
	slices.Sort(alts)
	return regexp.MustCompile(`(?i)(?:\b|_)(?:` + strings.Join(alts, "|") + `)(?:\b|s|_)`)
}

// MatchesStoplist reports whether term contains a noise word.
func MatchesStoplist(term string) bool {
	return stoplist.MatchString(term)
}

// Keep reports whether a vocabulary term may be used as a keyword.
func Keep(term string) bool {
	n := utf8.RuneCountInString(term)
	if n <= 3 {
		return false
	}
	if strings.HasPrefix(term, "_") || strings.HasSuffix(term, "_") {
		return false
	}
	if isDecimal(term) || float64(countDigits(term))/float64(n) >= 0.5 {
		return false
	}
	if textproc.IsExtendedStopword(term) {
		return false
	}
	return !MatchesStoplist(term)
}

func isDecimal(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
