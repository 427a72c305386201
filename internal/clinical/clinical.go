// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clinical flags papers that a treatment registry links to as
// published clinical-trial results. Registry result URLs are reduced to
// distinctive path fragments, and a paper is clinical when one of its own
// URL paths contains such a fragment.
package clinical

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// minFragmentLen is the length a fragment must exceed to be distinctive.
const minFragmentLen = 8

// maxHyphenSegments bounds hyphen-delimited segments in a research path;
// longer paths are news articles and landing pages.
const maxHyphenSegments = 5

var (
	urlPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.|[a-z0-9.\-]+\.(?:com|net|org|edu|gov|int|info|io|uk|de|fr|cn|ca|au|jp|nl|ch|eu|it|es|in|br)/)(?:[^\s()<>{}\[\]"']+|\([^\s()]*\))+`)

	letterSegment = regexp.MustCompile(`^[a-z.]+$`)
	doiSegment    = regexp.MustCompile(`^[0-9]{2}\.[0-9]{4}$`)

	stripChars = strings.NewReplacer(".", "", "(", "", ")", "", "-", "")
)

// ExtractURLs finds URL-like strings in free text. Trailing sentence
// punctuation is not part of the URL.
func ExtractURLs(text string) []string {
	var out []string
	for _, m := range urlPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:!?")
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// urlPath returns the lowercase path of raw, adding a scheme when missing.
func urlPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return strings.ToLower(u.Path), true
}

func cleanPath(p string) string {
	return stripChars.Replace(p)
}

// ReferencePaths derives the clinical path fragments from registry
// published-result fields. Paths with five or more hyphen-delimited parts
// are ignored. Purely alphabetic segments and DOI-prefix segments are
// removed, punctuation stripped, and a leading "/", "2020" and "pii" are
// trimmed in that order. Fragments of eight characters or fewer are
// dropped. The result is sorted and de-duplicated.
func ReferencePaths(publishedResults []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, field := range publishedResults {
		for _, raw := range ExtractURLs(field) {
			p, ok := urlPath(raw)
			if !ok || len(strings.Split(p, "-")) >= maxHyphenSegments {
				continue
			}
			var kept []string
			for _, seg := range strings.Split(p, "/") {
				if letterSegment.MatchString(seg) || doiSegment.MatchString(seg) {
					continue
				}
				kept = append(kept, seg)
			}
			frag := cleanPath(strings.Join(kept, "/"))
			frag = strings.TrimPrefix(frag, "/")
			frag = strings.TrimPrefix(frag, "2020")
			frag = strings.TrimPrefix(frag, "pii")
			if len(frag) <= minFragmentLen || seen[frag] {
				continue
			}
			seen[frag] = true
			out = append(out, frag)
		}
	}
	slices.Sort(out)
	return out
}

// Classifier tests document URLs against reference fragments.
type Classifier struct {
	fragments []string
}

// NewClassifier returns a classifier for the given fragments.
func NewClassifier(fragments []string) *Classifier {
	c := &Classifier{}
	fold := cases.Fold()
	for _, f := range fragments {
		if f = fold.String(f); f != "" {
			c.fragments = append(c.fragments, f)
		}
	}
	return c
}

// Fragments returns the number of reference fragments.
func (c *Classifier) Fragments() int {
	return len(c.fragments)
}

// IsClinical reports whether any semicolon-separated URL in urlField has a
// cleaned path containing a reference fragment. It is safe for concurrent
// use.
func (c *Classifier) IsClinical(urlField string) bool {
	if len(c.fragments) == 0 {
		return false
	}
	for _, raw := range strings.Split(urlField, ";") {
		p, ok := urlPath(raw)
		if !ok {
			continue
		}
		// A Caser must not be shared between goroutines.
		folded := cases.Fold().String(cleanPath(p))
		for _, f := range c.fragments {
			if strings.Contains(folded, f) {
				return true
			}
		}
	}
	return false
}

// Apply returns a copy of doc with IsClinical set.
func (c *Classifier) Apply(doc types.Document) types.Document {
	out := doc.Clone()
	out.IsClinical = c.IsClinical(doc.URL)
	return out
}
