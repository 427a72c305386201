// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-engine/internal/phrases"
	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"cd", "e_f", "22"}, Tokenize("A b-cd e_f 1 22"))
}

func TestVectorizer(t *testing.T) {
	vec := Fit([]string{"alpha alpha beta", "beta gamma"})
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, vec.Vocabulary())

	idfRare := math.Log(3.0/2.0) + 1
	assert.InDelta(t, idfRare, vec.IDF("alpha"), 1e-9)
	assert.InDelta(t, 1.0, vec.IDF("beta"), 1e-9)
	assert.Zero(t, vec.IDF("delta"))

	row := vec.Transform("alpha alpha beta")
	require.Len(t, row, 2)
	norm := math.Sqrt(4*idfRare*idfRare + 1)
	assert.Equal(t, 0, row[0].Term)
	assert.InDelta(t, 2*idfRare/norm, row[0].Weight, 1e-9)
	assert.Equal(t, 1, row[1].Term)
	assert.InDelta(t, 1/norm, row[1].Weight, 1e-9)

	assert.Empty(t, vec.Transform("delta epsilon"))
}

func TestKeep(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"remdesivir", true},
		{"viral_shedding", true},
		{"mayor", true},
		{"abc1", true},
		{"ace", false},
		{"1234", false},
		{"ab12", false},
		{"_abc", false},
		{"abcd_", false},
		{"however", false},
		{"covid_patients", false},
		{"tables", false},
		{"Copyright", false},
		{"studies", false},
		{"novel_coronavirus", false},
		{"march", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, Keep(tt.term))
		})
	}
}

func TestPreprocess(t *testing.T) {
	doc := types.Document{Title: "SARS-CoV-2 spread", Abstract: "Fast.", Text: ""}
	got := Preprocess(textproc.Simple{}, nil, doc)
	assert.Equal(t, "sars_cov_2 spread fast .", got)
}

func phraseModel(t *testing.T) *phrases.Model {
	t.Helper()
	var sentences [][]string
	for i := 0; i < 10; i++ {
		sentences = append(sentences, []string{"viral", "load", "rose"})
	}
	for i := 0; i < 100; i++ {
		sentences = append(sentences, []string{fmt.Sprintf("filler%d", i)})
	}
	return phrases.Train(sentences, phrases.Options{MinCount: 1, Threshold: 1, Delimiter: "_"})
}

func TestPreprocessAppliesPhrases(t *testing.T) {
	got := Preprocess(textproc.Simple{}, phraseModel(t), types.Document{Title: "Viral load rose"})
	assert.Equal(t, "viral_load rose", got)
}

func testDocs() []types.Document {
	return []types.Document{
		{ID: "d1", Title: "Remdesivir shortens recovery", Text: "remdesivir remdesivir antiviral."},
		{ID: "d2", Title: "Masks reduce transmission", Text: "masks masks"},
		{ID: "d3", Title: "The covid and the", Text: "covid"},
	}
}

func TestExtract(t *testing.T) {
	ex := &Extractor{Tokenizer: textproc.Simple{}}
	got := ex.Extract(testDocs())

	assert.Equal(t, []string{"remdesivir", "antiviral", "recovery", "shortens"}, got["d1"])
	assert.Equal(t, []string{"masks", "reduce", "transmission"}, got["d2"])
	assert.Empty(t, got["d3"], "zero-score and filtered terms are never padded in")
	assert.Contains(t, got, "d3")
}

func TestExtractLimitAndChunking(t *testing.T) {
	whole := (&Extractor{Tokenizer: textproc.Simple{}, NumKeywords: 2}).Extract(testDocs())
	chunked := (&Extractor{Tokenizer: textproc.Simple{}, NumKeywords: 2, ChunkSize: 1}).Extract(testDocs())

	assert.Equal(t, []string{"remdesivir", "antiviral"}, whole["d1"])
	assert.Equal(t, whole, chunked)
}

func TestExtractRendersPhrases(t *testing.T) {
	ex := &Extractor{Tokenizer: textproc.Simple{}, Model: phraseModel(t)}
	got := ex.Extract([]types.Document{
		{ID: "a", Title: "Viral load rose sharply"},
		{ID: "b", Title: "Masks work"},
	})
	assert.Contains(t, got["a"], "viral load")
}

func TestExtractInvariants(t *testing.T) {
	var docs []types.Document
	for i := 0; i < 30; i++ {
		var b strings.Builder
		for j := 0; j < 60; j++ {
			fmt.Fprintf(&b, "term%dx%d word%d 12345 covid patients a1b2 ", i, j, j%7)
		}
		docs = append(docs, types.Document{ID: fmt.Sprintf("doc%d", i), Title: "Study", Text: b.String()})
	}
	got := (&Extractor{Tokenizer: textproc.Simple{}, ChunkSize: 7}).Extract(docs)
	require.Len(t, got, 30)
	for id, kws := range got {
		assert.LessOrEqual(t, len(kws), DefaultNumKeywords, id)
		for _, k := range kws {
			assert.Greater(t, utf8.RuneCountInString(k), 3, k)
			digits := 0
			for _, r := range k {
				if unicode.IsDigit(r) {
					digits++
				}
			}
			assert.Less(t, float64(digits)/float64(utf8.RuneCountInString(k)), 0.5, k)
			assert.False(t, MatchesStoplist(strings.ReplaceAll(k, " ", "_")), k)
		}
	}
}

func TestAssign(t *testing.T) {
	docs := []types.Document{{ID: "a"}, {ID: "b"}}
	kw := map[string][]string{"a": {"remdesivir"}}
	out := Assign(docs, kw)

	assert.Equal(t, []string{"remdesivir"}, out[0].Keywords)
	assert.Equal(t, []string{}, out[1].Keywords)
	assert.Nil(t, docs[0].Keywords)

	out[0].Keywords[0] = "changed"
	assert.Equal(t, "remdesivir", kw["a"][0])
}
