// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// covidTerms are matched as lowercase substrings of title or abstract.
var covidTerms = []string{"covid", "coronavirus", "sars-cov-2", "corona", "wuhan"}

// WindowStart is the exclusive lower bound on publish dates.
var WindowStart = time.Date(2019, time.December, 1, 0, 0, 0, 0, time.UTC)

var (
	peerReviewedSources = []string{"pmc", "medline", "elsevier"}
	preprintSources     = []string{"arxiv", "biorxiv", "medrxiv"}
)

// IsCovidRelevant reports whether the title or abstract mentions any
// COVID-19 term.
func IsCovidRelevant(doc types.Document) bool {
	return containsAny(strings.ToLower(doc.Title), covidTerms) ||
		containsAny(strings.ToLower(doc.Abstract), covidTerms)
}

// InWindow reports whether date falls strictly after WindowStart and
// strictly before now.
func InWindow(date, now time.Time) bool {
	return date.After(WindowStart) && date.Before(now)
}

// IsPeerReviewed reports whether a catalog source tag names a peer-reviewed
// outlet and no preprint server.
func IsPeerReviewed(source string) bool {
	s := strings.ToLower(source)
	return containsAny(s, peerReviewedSources) && !containsAny(s, preprintSources)
}

// Filter keeps titled COVID-19 documents published inside the window and
// returns copies sorted by publish date, newest first. Ties keep catalog
// order. Filter is idempotent.
func Filter(docs []types.Document, now time.Time) []types.Document {
	var out []types.Document
	for _, d := range docs {
		if !d.HasTitle() || !InWindow(d.PublishDate, now) || !IsCovidRelevant(d) {
			continue
		}
		out = append(out, d.Clone())
	}
	slices.SortStableFunc(out, func(a, b types.Document) int {
		return b.PublishDate.Compare(a.PublishDate)
	})
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
