// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-engine/internal/textproc"
)

type fakeSummarizer struct {
	out   string
	err   error
	ratio float64
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, ratio float64) (string, error) {
	f.calls++
	f.ratio = ratio
	return f.out, f.err
}

func TestSummarizePolicy(t *testing.T) {
	long := strings.Repeat("a", 2000)

	tests := []struct {
		name    string
		text    string
		fake    *fakeSummarizer
		want    string
		wantErr bool
		calls   int
	}{
		{"short text", strings.Repeat("a", 999), &fakeSummarizer{out: "x"}, NoSummary, false, 0},
		{"summary returned", long, &fakeSummarizer{out: "First. Second."}, "First. Second.", false, 1},
		{"no sentences", long, &fakeSummarizer{err: ErrNoSentences}, NoSummary, false, 1},
		{"wrapped no sentences", long, &fakeSummarizer{err: errors.Join(errors.New("x"), ErrNoSentences)}, NoSummary, false, 1},
		{"empty result", long, &fakeSummarizer{out: "  "}, NoSummary, false, 1},
		{"other failure", long, &fakeSummarizer{err: errors.New("boom")}, "", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Summarize(context.Background(), tt.fake, tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "boom")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.calls, tt.fake.calls)
		})
	}
}

func TestSummarizeRatio(t *testing.T) {
	fake := &fakeSummarizer{out: "ok."}
	_, err := Summarize(context.Background(), fake, strings.Repeat("b", 2000))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fake.ratio, 1e-9)
}

func TestFrequencySummarizer(t *testing.T) {
	text := "Intro sentence here. " +
		"Virus virus virus spreads. " +
		"Unrelated cooking recipe. " +
		"The virus spreads quickly."

	f := FrequencySummarizer{Tokenizer: textproc.Simple{}}

	got, err := f.Summarize(context.Background(), text, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "Intro sentence here. Virus virus virus spreads.", got)

	got, err = f.Summarize(context.Background(), text, 0.75)
	require.NoError(t, err)
	assert.Equal(t, "Intro sentence here. Virus virus virus spreads. The virus spreads quickly.", got)
}

func TestFrequencySummarizerKeepsFirstSentence(t *testing.T) {
	f := FrequencySummarizer{Tokenizer: textproc.Simple{}}
	got, err := f.Summarize(context.Background(), "Alpha. Beta beta. Gamma.", 0)
	require.NoError(t, err)
	assert.Equal(t, "Alpha.", got)
}

func TestFrequencySummarizerNoSentences(t *testing.T) {
	f := FrequencySummarizer{Tokenizer: textproc.Simple{}}
	_, err := f.Summarize(context.Background(), "   ", 0.5)
	assert.ErrorIs(t, err, ErrNoSentences)
}

func TestFrequencySummarizerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := FrequencySummarizer{Tokenizer: textproc.Simple{}}
	_, err := f.Summarize(ctx, "One. Two.", 0.5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bracket citation", "Cases rose [1, 2] sharply.", "Cases rose sharply."},
		{"et al comma", "Reported in 2020 by Smith et al., the rate fell.", "Reported in 2020. the rate fell."},
		{"et al paren", "Rates fell (Smith et al.) overall.", "Rates fell overall."},
		{"author year", "Rates fell (Smith, 2020) overall.", "Rates fell overall."},
		{"two authors", "Rates fell (Smith and Jones, 2020; Lee) overall.", "Rates fell Lee) overall."},
		{"figure", "See the curve (Figure 2A).", "See the curve."},
		{"table", "Listed below (table S1).", "Listed below."},
		{"whitespace", "  too   many\tspaces .  ", "too many spaces."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestClean(t *testing.T) {
	tok := textproc.Simple{}
	summary := "Cases rose [3] in March. This preprint is under a CC-BY-NC-ND license. " +
		"Treatment helped (Figure 1)."
	assert.Equal(t, "Cases rose in March. Treatment helped.", Clean(tok, summary))
	assert.Equal(t, NoSummary, Clean(tok, NoSummary))
	assert.Empty(t, Clean(tok, "The medRxiv manuscript."))
}
