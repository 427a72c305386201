// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mentions

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	dict := map[string]string{
		"GS-5734":            "remdesivir",
		"Veklury":            "remdesivir",
		"plaquenil":          "hydroxychloroquine",
		"convalescent serum": "convalescent plasma",
	}
	return NewRegistry(dict, []string{"remdesivir", "hydroxychloroquine", "Favipiravir"}, zerolog.Nop())
}

func TestRegistry(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"veklury", "remdesivir", true},
		{"VEKLURY", "remdesivir", true},
		{"gs-5734", "remdesivir", true},
		{"Remdesivir", "remdesivir", true},
		{"favipiravir", "Favipiravir", true},
		{"plaquenil", "hydroxychloroquine", true},
		{"aspirin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := reg.Lookup(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, []string{"gs-5734", "remdesivir", "veklury"}, reg.Aliases("remdesivir"))
}

func TestRegistryConflictKeepsFirst(t *testing.T) {
	tests := []struct {
		name string
		dict map[string]string
		key  string
		want string
	}{
		{"case folded duplicate", map[string]string{"HCQ": "hydroxychloroquine", "hcq": "chloroquine"}, "hcq", "hydroxychloroquine"},
		{"padded duplicate", map[string]string{" cq": "chloroquine", "cq": "hydroxychloroquine"}, "cq", "chloroquine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reg := NewRegistry(tt.dict, []string{"remdesivir"}, zerolog.New(&buf))

			name, ok := reg.Lookup(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, name)
			_, ok = reg.Lookup("remdesivir")
			assert.True(t, ok)

			assert.Contains(t, buf.String(), `"level":"warn"`)
			assert.Contains(t, buf.String(), "ignoring conflicting drug alias")
			assert.Contains(t, buf.String(), ErrAliasConflict.Error())
		})
	}
}

func TestRegistryNoConflictNoWarning(t *testing.T) {
	var buf bytes.Buffer
	NewRegistry(map[string]string{"Veklury": "remdesivir", "veklury": "remdesivir"}, nil, zerolog.New(&buf))
	assert.Empty(t, buf.String())
}

func TestRegistryCanonicalCoveredByDictionary(t *testing.T) {
	reg := NewRegistry(map[string]string{"tocilizumab": "Actemra"}, []string{"tocilizumab"}, zerolog.Nop())
	name, ok := reg.Lookup("tocilizumab")
	require.True(t, ok)
	assert.Equal(t, "Actemra", name)
}

func TestCount(t *testing.T) {
	reg := testRegistry(t)
	docs := []types.Document{
		{ID: "a", Text: "Remdesivir (GS-5734) was given. Veklury is remdesivir."},
		{ID: "b", Text: "Plaquenil failed. Remdesivir helped."},
		{ID: "c", Text: "Convalescent serum was used."},
		{ID: "d"},
	}
	c := Count(textproc.Simple{}, reg, docs)

	assert.Equal(t, 5, c.Total("remdesivir"))
	assert.Equal(t, 1, c.Total("hydroxychloroquine"))
	assert.Zero(t, c.Total("convalescent plasma"), "multi-word aliases never match")
	assert.Zero(t, c.Total("Favipiravir"))

	assert.Equal(t, map[string]int{"a": 4, "b": 1}, c.PerDocument("remdesivir"))
	assert.Equal(t, 2, c.PaperCount("remdesivir"))
	assert.Equal(t, map[string]int{"remdesivir": 1, "hydroxychloroquine": 1}, c.ForDocument("b"))
	assert.Empty(t, c.ForDocument("d"))
}

func TestPerDocumentSumsToTotal(t *testing.T) {
	reg := testRegistry(t)
	docs := []types.Document{
		{ID: "a", Text: "remdesivir remdesivir plaquenil"},
		{ID: "b", Text: "veklury. hydroxychloroquine!"},
		{ID: "c", Text: "nothing here"},
	}
	c := Count(textproc.Simple{}, reg, docs)
	for _, name := range c.Drugs() {
		sum := 0
		for _, n := range c.PerDocument(name) {
			sum += n
		}
		assert.Equal(t, c.Total(name), sum, name)
	}
}

func TestTopAndPapers(t *testing.T) {
	c := NewCounts()
	for range 7 {
		c.add("remdesivir", "a")
	}
	for range 3 {
		c.add("remdesivir", "b")
	}
	for range 6 {
		c.add("favipiravir", "c")
	}
	for range 6 {
		c.add("baricitinib", "a")
	}
	c.add("hydroxychloroquine", "d")

	assert.Equal(t, []DrugCount{{"remdesivir", 10}, {"baricitinib", 6}, {"favipiravir", 6}}, c.Top(3))
	assert.Len(t, c.Top(0), 4)

	assert.Equal(t, []DrugCount{{"a", 7}}, c.Papers("remdesivir", 5))
	assert.Equal(t, []DrugCount{{"a", 7}, {"b", 3}}, c.Papers("remdesivir", 0))
	assert.Empty(t, c.Papers("unknown", 0))
}

func TestMerge(t *testing.T) {
	a := NewCounts()
	a.add("remdesivir", "x")
	b := NewCounts()
	b.add("remdesivir", "x")
	b.add("remdesivir", "y")

	a.Merge(b)
	assert.Equal(t, 3, a.Total("remdesivir"))
	assert.Equal(t, map[string]int{"x": 2, "y": 1}, a.PerDocument("remdesivir"))
}

func TestAssign(t *testing.T) {
	c := NewCounts()
	c.add("remdesivir", "a")
	docs := []types.Document{{ID: "a"}, {ID: "b"}}
	out := Assign(docs, c)
	assert.Equal(t, map[string]int{"remdesivir": 1}, out[0].DrugMentions)
	assert.Empty(t, out[1].DrugMentions)
	assert.Nil(t, docs[0].DrugMentions)
}

func TestFromDocuments(t *testing.T) {
	docs := []types.Document{
		{ID: "a", DrugMentions: map[string]int{"remdesivir": 3, "favipiravir": 1}},
		{ID: "b", DrugMentions: map[string]int{"remdesivir": 2, "ribavirin": 0}},
		{ID: "c"},
	}
	c := FromDocuments(docs)
	assert.Equal(t, []string{"favipiravir", "remdesivir"}, c.Drugs())
	assert.Equal(t, 5, c.Total("remdesivir"))
	assert.Equal(t, []DrugCount{{Name: "a", Count: 3}}, c.Papers("remdesivir", 2))
	assert.Equal(t, docs[0].DrugMentions, c.ForDocument("a"))
}
