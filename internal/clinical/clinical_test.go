// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clinical

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/cord-engine/pkg/types"
)

func TestExtractURLs(t *testing.T) {
	text := "Results: https://x.org/abc123456789. More at www.y.com/p(1)q, and nejm.org/doi/full/x1"
	assert.Equal(t, []string{
		"https://x.org/abc123456789",
		"www.y.com/p(1)q",
		"nejm.org/doi/full/x1",
	}, ExtractURLs(text))
	assert.Empty(t, ExtractURLs("no links here"))
}

func TestReferencePaths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"trial registry", "https://clinicaltrials.gov/ct2/show/results/NCT04280705", []string{"ct2/nct04280705"}},
		{"lancet pii", "https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(20)31022-9/fulltext", []string{"s0140673620310229"}},
		{"nejm doi", "https://www.nejm.org/doi/full/10.1056/NEJMoa2007764", []string{"nejmoa2007764"}},
		{"preprint without scheme", "medrxiv.org/content/10.1101/2020.04.10.20060558v1", []string{"041020060558v1"}},
		{"news slug", "https://www.example.com/news/drug-shows-promise-in-early-trial", nil},
		{"too short", "https://www.example.com/a1", nil},
		{"no url", "results pending", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReferencePaths([]string{tt.in}))
		})
	}
}

func TestReferencePathsDedupesAndSorts(t *testing.T) {
	got := ReferencePaths([]string{
		"https://www.nejm.org/doi/full/10.1056/NEJMoa2007764, https://clinicaltrials.gov/ct2/show/results/NCT04280705",
		"https://www.nejm.org/doi/full/10.1056/NEJMoa2007764",
	})
	assert.Equal(t, []string{"ct2/nct04280705", "nejmoa2007764"}, got)
}

func TestIsClinical(t *testing.T) {
	c := NewClassifier([]string{"NCT04280705Results"})

	assert.True(t, c.IsClinical("https://clinicaltrials.gov/ct2/show/NCT04280705results?term=x"))
	assert.True(t, c.IsClinical("https://a.org/x; https://example.org/nct04280705-results"))
	assert.False(t, c.IsClinical("https://clinicaltrials.gov/ct2/show/NCT04280706"))
	assert.False(t, c.IsClinical(""))
	assert.Equal(t, 1, c.Fragments())
}

func TestIsClinicalEndToEnd(t *testing.T) {
	frags := ReferencePaths([]string{"https://www.thelancet.com/journals/lancet/article/PIIS0140-6736(20)31022-9/fulltext"})
	c := NewClassifier(frags)

	assert.True(t, c.IsClinical("https://doi.org/10.1016/S0140-6736(20)31022-9; https://www.ncbi.nlm.nih.gov/pubmed/32423584/"))
	assert.False(t, c.IsClinical("https://doi.org/10.1016/S0140-6736(20)30183-5"))
}

func TestNoFragments(t *testing.T) {
	c := NewClassifier(nil)
	assert.False(t, c.IsClinical("https://clinicaltrials.gov/ct2/show/NCT04280705"))
}

func TestApply(t *testing.T) {
	c := NewClassifier([]string{"nejmoa2007764"})
	in := types.Document{ID: "a", URL: "https://www.nejm.org/doi/full/10.1056/NEJMoa2007764"}
	out := c.Apply(in)
	assert.True(t, out.IsClinical)
	assert.False(t, in.IsClinical)
}
