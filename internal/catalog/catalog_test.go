// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-engine/internal/langdetect"
	"github.com/pdiddy/cord-engine/pkg/types"
)

var now = time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)

type mapLoader map[string]string

func (m mapLoader) Load(path string) (string, error) {
	text, ok := m[path]
	if !ok {
		return "", errors.New("no such file")
	}
	return text, nil
}

type fixedDetector struct{ result langdetect.Result }

func (f fixedDetector) Detect(string) langdetect.Result { return f.result }

var unreliable = fixedDetector{}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2020-03-01", date(2020, time.March, 1), false},
		{"2020", date(2020, time.January, 1), false},
		{"", time.Time{}, true},
		{"not a date", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestIsCovidRelevant(t *testing.T) {
	tests := []struct {
		name string
		doc  types.Document
		want bool
	}{
		{"title", types.Document{Title: "COVID-19 outcomes"}, true},
		{"abstract", types.Document{Title: "Outcomes", Abstract: "in Wuhan province"}, true},
		{"sars-cov-2", types.Document{Title: "SARS-CoV-2 entry"}, true},
		{"corona substring", types.Document{Title: "Coronal mass ejections"}, true},
		{"none", types.Document{Title: "Influenza outcomes", Abstract: "seasonal"}, false},
		{"empty", types.Document{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCovidRelevant(tt.doc))
		})
	}
}

func TestInWindow(t *testing.T) {
	assert.False(t, InWindow(WindowStart, now), "window start is exclusive")
	assert.True(t, InWindow(WindowStart.Add(time.Second), now))
	assert.False(t, InWindow(now, now), "now is exclusive")
	assert.False(t, InWindow(date(2019, time.June, 1), now))
	assert.True(t, InWindow(date(2020, time.March, 1), now))
}

func TestIsPeerReviewed(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"PMC", true},
		{"Medline; PMC", true},
		{"Elsevier; Medline", true},
		{"MedRxiv", false},
		{"BioRxiv; Medline", false},
		{"ArXiv", false},
		{"WHO", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPeerReviewed(tt.source), "IsPeerReviewed(%q)", tt.source)
	}
}

func TestFilterSortsAndIsIdempotent(t *testing.T) {
	docs := []types.Document{
		{ID: "a", Title: "COVID early", PublishDate: date(2020, time.January, 5)},
		{ID: "b", Title: "COVID late", PublishDate: date(2020, time.April, 1)},
		{ID: "c", Title: "", Abstract: "covid", PublishDate: date(2020, time.April, 2)},
		{ID: "d", Title: "Influenza", PublishDate: date(2020, time.April, 3)},
		{ID: "e", Title: "COVID same day", PublishDate: date(2020, time.January, 5)},
		{ID: "f", Title: "COVID old", PublishDate: date(2019, time.November, 30)},
	}

	once := Filter(docs, now)
	ids := make([]string, len(once))
	for i, d := range once {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"b", "a", "e"}, ids)

	twice := Filter(once, now)
	assert.Equal(t, once, twice)
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	docs := []types.Document{{ID: "a", Title: "covid", PublishDate: date(2020, time.March, 1), TextPaths: []string{"x.json"}}}
	out := Filter(docs, now)
	require.Len(t, out, 1)
	out[0].TextPaths[0] = "changed"
	assert.Equal(t, "x.json", docs[0].TextPaths[0])
}

func TestLongestTextFirstLongestWins(t *testing.T) {
	loader := mapLoader{
		"a": strings.Repeat("a", 120),
		"b": strings.Repeat("b", 340),
		"c": strings.Repeat("c", 340),
	}
	got, errs := LongestText(loader, []string{"a", "b", "c"})
	assert.Empty(t, errs)
	assert.Equal(t, strings.Repeat("b", 340), got)
}

func TestLongestTextCountsCharacters(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"multi-byte shorter loses", []string{"accents", "ascii"}, "abcdef"},
		{"multi-byte longer wins", []string{"ascii", "cyrillic"}, "лечение пациентов"},
		{"equal characters keep first", []string{"accents", "four"}, "éééé"},
	}
	loader := mapLoader{
		"accents":  "éééé",
		"ascii":    "abcdef",
		"cyrillic": "лечение пациентов",
		"four":     "abcd",
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := LongestText(loader, tt.paths)
			assert.Empty(t, errs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLongestTextSkipsFailures(t *testing.T) {
	loader := mapLoader{"ok": "some text"}
	got, errs := LongestText(loader, []string{" ", "missing", "ok"})
	assert.Equal(t, "some text", got)
	assert.Len(t, errs, 1)

	got, errs = LongestText(loader, nil)
	assert.Empty(t, got)
	assert.Empty(t, errs)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"a.json", "b.json"}, SplitPaths(" a.json; ;b.json;"))
	assert.Nil(t, SplitPaths(";"))
}

func writeParsed(t *testing.T, dir, name, body string, compress bool) {
	t.Helper()
	payload := `{"paper_id":"x","body_text":[{"text":"` + body + `"},{"text":"second paragraph"}]}`
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	if !compress {
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
		return
	}
	var buf bytes.Buffer
	gz := pgzip.NewWriter(&buf)
	_, err := gz.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	writeParsed(t, dir, "pdf_json/a.json", "first paragraph", false)
	writeParsed(t, dir, "pmc_json/b.json.gz", "compressed", true)

	loader := FileLoader{Dir: dir}
	text, err := loader.Load("pdf_json/a.json")
	require.NoError(t, err)
	assert.Equal(t, "first paragraph\nsecond paragraph", text)

	text, err = loader.Load("pmc_json/b.json.gz")
	require.NoError(t, err)
	assert.Equal(t, "compressed\nsecond paragraph", text)

	_, err = loader.Load("missing.json")
	assert.Error(t, err)
}

const catalogCSV = `cord_uid,sha,source_x,title,doi,pmcid,pubmed_id,license,abstract,publish_time,authors,journal,url,pdf_json_files,pmc_json_files
aaa,h1,PMC,COVID-19 in children,10.1/x,,,cc-by,We study children.,2020-03-01,"Doe, J.",Lancet,https://example.org/a,pdf_json/a.json,
bbb,h2,Medline,Influenza in adults,,,,,Seasonal flu.,2020-03-02,,,,pdf_json/b.json,
ccc,h3,MedRxiv,SARS-CoV-2 origin,,,,,Bats.,2019-06-01,,,,pdf_json/c.json,
,h4,PMC,COVID no id,,,,,,2020-03-01,,,,,
ddd,,PMC,COVID bad date,,,,,,someday,,,,,
`

func TestLoadMetadata(t *testing.T) {
	docs, summary, err := LoadMetadata(strings.NewReader(catalogCSV))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 3, summary.Loaded)
	assert.Equal(t, 1, summary.Excluded[ReasonMissingID])
	assert.Equal(t, 1, summary.Excluded[ReasonInvalidDate])
	assert.Equal(t, 5, summary.Total())

	a := docs[0]
	assert.Equal(t, "aaa", a.ID)
	assert.Equal(t, "COVID-19 in children", a.Title)
	assert.Equal(t, "Doe, J.", a.Authors)
	assert.Equal(t, "PMC", a.Source)
	assert.True(t, a.IsPeerReviewed)
	assert.Equal(t, []string{"pdf_json/a.json"}, a.TextPaths)
	assert.True(t, date(2020, time.March, 1).Equal(a.PublishDate))
}

func TestLoadMetadataMissingIDColumn(t *testing.T) {
	_, _, err := LoadMetadata(strings.NewReader("title,abstract\nx,y\n"))
	assert.Error(t, err)

	docs, _, err := LoadMetadata(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestBuildEndToEnd(t *testing.T) {
	rows, _, err := LoadMetadata(strings.NewReader(catalogCSV))
	require.NoError(t, err)

	loader := mapLoader{
		"pdf_json/a.json": "Children were infected with the virus.",
		"pdf_json/b.json": "Flu text.",
		"pdf_json/c.json": "Bat text.",
	}
	var progress bytes.Buffer
	corpus, summary, err := Build(context.Background(), rows, loader, unreliable, now, &progress)
	require.NoError(t, err)

	require.Len(t, corpus.All, 1)
	require.Len(t, corpus.WithText, 1)
	got := corpus.WithText[0]
	assert.Equal(t, "aaa", got.ID)
	assert.Equal(t, "Children were infected with the virus.", got.Text)
	assert.Equal(t, langdetect.English, got.Language)
	assert.Empty(t, corpus.All[0].Text, "All must not be mutated by text resolution")
	assert.Equal(t, 1, summary.WithText)
}

func TestBuildDropsNonEnglishAndEmpty(t *testing.T) {
	rows := []types.Document{
		{ID: "fr", Title: "covid", PublishDate: date(2020, time.May, 1), TextPaths: []string{"fr"}},
		{ID: "empty", Title: "covid", PublishDate: date(2020, time.May, 2), TextPaths: []string{"empty"}},
		{ID: "missing", Title: "covid", PublishDate: date(2020, time.May, 3), TextPaths: []string{"gone"}},
		{ID: "nopath", Title: "covid", PublishDate: date(2020, time.May, 4)},
	}
	loader := mapLoader{"fr": "Le texte.", "empty": ""}
	det := fixedDetector{langdetect.Result{Reliable: true, Languages: []langdetect.Guess{{Name: "French", Confidence: 99}}}}

	var progress bytes.Buffer
	corpus, summary, err := Build(context.Background(), rows, loader, det, now, &progress)
	require.NoError(t, err)
	assert.Len(t, corpus.All, 4)
	assert.Empty(t, corpus.WithText)
	assert.Equal(t, 1, summary.NonEnglish)
	assert.Equal(t, 2, summary.EmptyText)
	assert.Equal(t, 1, summary.NoPaths)
	assert.Equal(t, 1, summary.ReadErrors)
	assert.Contains(t, progress.String(), "failed  missing")
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rows := []types.Document{{ID: "a", Title: "covid", PublishDate: date(2020, time.May, 1)}}
	_, _, err := Build(ctx, rows, mapLoader{}, unreliable, now, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorpusRoundTrip(t *testing.T) {
	dir := t.TempDir()
	docs := []types.Document{
		{ID: "a", Title: "COVID", PublishDate: date(2020, time.March, 1), Topics: []string{"vaccine"}},
		{ID: "b", Title: "SARS-CoV-2", Keywords: []string{"viral load"}},
	}
	for _, name := range []string{"corpus.jsonl.gz", "corpus.jsonl"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "out", name)
			require.NoError(t, WriteCorpus(path, docs))

			got, err := ReadCorpus(path)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "a", got[0].ID)
			assert.True(t, docs[0].PublishDate.Equal(got[0].PublishDate))
			assert.Equal(t, []string{"viral load"}, got[1].Keywords)
		})
	}

	_, err := ReadCorpus(filepath.Join(dir, "missing.jsonl.gz"))
	assert.Error(t, err)
}

func TestFilterThreeRowScenario(t *testing.T) {
	csv := `cord_uid,title,abstract,publish_time
one,COVID-19 outbreak in Wuhan,,2020-02-01
two,Seasonal Flu Review,,2019-06-01
three,,COVID-19 everywhere,2020-03-01
`
	rows, _, err := LoadMetadata(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	got := Filter(rows, now)
	require.Len(t, got, 1)
	assert.Equal(t, "one", got[0].ID)
	assert.Equal(t, "Feb 01, 2020", got[0].PublishDateForWeb())
}
