// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mentions counts how often known drugs are named in full texts.
package mentions

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// ErrAliasConflict reports an alias that would map to two canonical drug
// names.
var ErrAliasConflict = errors.New("alias maps to more than one drug")

// Registry maps lowercased aliases to canonical drug names.
type Registry struct {
	aliases map[string]string
}

// NewRegistry builds a registry from an alias dictionary (alias to
// canonical name) and the list of canonical names. Every canonical name
// that the dictionary does not already cover is added as its own alias.
// Lookups are case-insensitive; only single-token aliases can ever match
// a text.
//
// Aliases are added in sorted order. When two aliases fold to the same
// key with different names, the first mapping is kept and the conflict is
// logged as a warning.
func NewRegistry(dict map[string]string, canonical []string, log zerolog.Logger) *Registry {
	r := &Registry{aliases: make(map[string]string, len(dict)+len(canonical))}
	for _, alias := range slices.Sorted(maps.Keys(dict)) {
		if err := r.add(alias, dict[alias]); err != nil {
			log.Warn().Err(err).Str("alias", alias).Msg("ignoring conflicting drug alias")
		}
	}
	for _, name := range canonical {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := r.aliases[key]; ok {
			continue
		}
		r.add(name, name)
	}
	return r
}

func (r *Registry) add(alias, name string) error {
	key := strings.ToLower(strings.TrimSpace(alias))
	name = strings.TrimSpace(name)
	if key == "" || name == "" {
		return nil
	}
	if prev, ok := r.aliases[key]; ok && prev != name {
		return fmt.Errorf("%w: %q -> %q and %q", ErrAliasConflict, key, prev, name)
	}
	r.aliases[key] = name
	return nil
}

// Lookup returns the canonical name for a token.
func (r *Registry) Lookup(token string) (string, bool) {
	name, ok := r.aliases[strings.ToLower(token)]
	return name, ok
}

// Len returns the number of aliases.
func (r *Registry) Len() int {
	return len(r.aliases)
}

// Aliases returns the aliases of a canonical name, sorted.
func (r *Registry) Aliases(name string) []string {
	var out []string
	for a, n := range r.aliases {
		if n == name {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// Counts holds drug mention totals and their per-document breakdown. For
// every drug, the per-document counts sum to the total.
type Counts struct {
	total  map[string]int
	perDoc map[string]map[string]int
}

// NewCounts returns empty counts.
func NewCounts() *Counts {
	return &Counts{
		total:  make(map[string]int),
		perDoc: make(map[string]map[string]int),
	}
}

func (c *Counts) add(name, docID string) {
	c.total[name]++
	m, ok := c.perDoc[name]
	if !ok {
		m = make(map[string]int)
		c.perDoc[name] = m
	}
	m[docID]++
}

// Merge adds the counts of o into c.
func (c *Counts) Merge(o *Counts) {
	for name, docs := range o.perDoc {
		for id, n := range docs {
			c.total[name] += n
			m, ok := c.perDoc[name]
			if !ok {
				m = make(map[string]int)
				c.perDoc[name] = m
			}
			m[id] += n
		}
	}
}

// Total returns the number of mentions of a canonical name, 0 when it was
// never mentioned.
func (c *Counts) Total(name string) int {
	return c.total[name]
}

// PerDocument returns the mention count of name in each document.
func (c *Counts) PerDocument(name string) map[string]int {
	return maps.Clone(c.perDoc[name])
}

// PaperCount returns the number of documents mentioning name.
func (c *Counts) PaperCount(name string) int {
	return len(c.perDoc[name])
}

// Drugs returns every mentioned canonical name, sorted.
func (c *Counts) Drugs() []string {
	return slices.Sorted(maps.Keys(c.total))
}

// DrugCount is a drug with a count.
type DrugCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Top returns the n most mentioned drugs by count descending, then name.
// n <= 0 returns all.
func (c *Counts) Top(n int) []DrugCount {
	out := make([]DrugCount, 0, len(c.total))
	for name, cnt := range c.total {
		out = append(out, DrugCount{Name: name, Count: cnt})
	}
	sortCounts(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Papers returns the documents mentioning name more than minCount times,
// by count descending, then document ID.
func (c *Counts) Papers(name string, minCount int) []DrugCount {
	var out []DrugCount
	for id, cnt := range c.perDoc[name] {
		if cnt > minCount {
			out = append(out, DrugCount{Name: id, Count: cnt})
		}
	}
	sortCounts(out)
	return out
}

// ForDocument returns the mention counts of every drug in one document.
func (c *Counts) ForDocument(id string) map[string]int {
	out := make(map[string]int)
	for name, docs := range c.perDoc {
		if n := docs[id]; n > 0 {
			out[name] = n
		}
	}
	return out
}

func sortCounts(s []DrugCount) {
	slices.SortFunc(s, func(a, b DrugCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
}

// Count tokenizes the full text of each document and counts tokens that
// are drug aliases.
func Count(tok textproc.Tokenizer, reg *Registry, docs []types.Document) *Counts {
	c := NewCounts()
	for _, d := range docs {
		for _, s := range tok.Sentences(d.Text) {
			for _, w := range tok.Words(s) {
				if name, ok := reg.Lookup(w); ok {
					c.add(name, d.ID)
				}
			}
		}
	}
	return c
}

// Assign returns copies of docs with their DrugMentions filled from c.
func Assign(docs []types.Document, c *Counts) []types.Document {
	out := make([]types.Document, len(docs))
	for i, d := range docs {
		cp := d.Clone()
		cp.DrugMentions = c.ForDocument(d.ID)
		out[i] = cp
	}
	return out
}

// FromDocuments rebuilds counts from the DrugMentions of already enriched
// documents.
func FromDocuments(docs []types.Document) *Counts {
	c := NewCounts()
	for _, d := range docs {
		for name, n := range d.DrugMentions {
			if n <= 0 {
				continue
			}
			c.total[name] += n
			m, ok := c.perDoc[name]
			if !ok {
				m = make(map[string]int)
				c.perDoc[name] = m
			}
			m[d.ID] += n
		}
	}
	return c
}
