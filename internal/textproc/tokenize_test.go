// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single", "One sentence", []string{"One sentence"}},
		{"two", "First one. Second one!", []string{"First one.", "Second one!"}},
		{"ellipsis", "Wait... then go.", []string{"Wait...", "then go."}},
		{"no trailing space", "Ends here.", []string{"Ends here."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Simple{}.Sentences(tt.text))
		})
	}
}

func TestSimpleWords(t *testing.T) {
	got := Simple{}.Words("SARS-CoV-2 spread (rapidly), isn't it?")
	assert.Equal(t, []string{"SARS-CoV-2", "spread", "(", "rapidly", ")", ",", "isn't", "it", "?"}, got)
}

func TestSimpleWordsUnderscore(t *testing.T) {
	got := Simple{}.Words("sars_cov_2 infection")
	assert.Equal(t, []string{"sars_cov_2", "infection"}, got)
}

func TestProseTokenizer(t *testing.T) {
	var tok Prose

	sents := tok.Sentences("The virus spread quickly. Patients received remdesivir.")
	require.Len(t, sents, 2)

	words := tok.Words(sents[1])
	assert.Contains(t, words, "remdesivir")
	assert.Contains(t, words, "Patients")

	assert.Nil(t, tok.Sentences("   "))
	assert.Nil(t, tok.Words(""))
}

func TestNew(t *testing.T) {
	tok, err := New(KindSimple)
	require.NoError(t, err)
	assert.IsType(t, Simple{}, tok)

	tok, err = New("")
	require.NoError(t, err)
	assert.IsType(t, Prose{}, tok)

	_, err = New("nltk")
	assert.Error(t, err)
}

func TestIsPunct(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{".", true},
		{"...", true},
		{"(", true},
		{"+", true},
		{"", false},
		{"a.", false},
		{"19", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPunct(tt.tok), "IsPunct(%q)", tt.tok)
	}
}

func TestLowerWords(t *testing.T) {
	assert.Equal(t, []string{"covid", "cases", "rose"}, LowerWords(Simple{}, "COVID Cases rose"))
}

func TestStopwords(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("of"))
	assert.False(t, IsStopword("virus"))

	assert.True(t, IsExtendedStopword("however"))
	assert.True(t, IsExtendedStopword("using"))
	assert.False(t, IsExtendedStopword("vaccine"))

	sw := Stopwords()
	sw["virus"] = true
	assert.False(t, IsStopword("virus"), "Stopwords must return a copy")
}
