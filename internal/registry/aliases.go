// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// LoadAliases reads an alias → canonical name dictionary. Files ending in
// .json are parsed as JSON; everything else as YAML. A missing file yields
// an empty dictionary.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading alias file: %w", err)
	}

	dict := map[string]string{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &dict)
	} else {
		err = yaml.Unmarshal(data, &dict)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}
	return dict, nil
}

// DrugNames returns the sorted, de-duplicated drug names across all
// treatments. Combined names are split on ", " and the "unnamed"
// placeholder is dropped.
func DrugNames(treatments []types.Treatment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range treatments {
		for _, n := range t.Names() {
			if n == types.UnnamedTreatment || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}

// AttachAliases returns copies of treatments with Aliases filled in. A
// treatment whose name is a single registry drug gets every alias that
// shares its canonical name in dict, or just its own name when dict does
// not know it. Unnamed and combined-name treatments get no aliases.
func AttachAliases(treatments []types.Treatment, dict map[string]string) []types.Treatment {
	byCanonical := make(map[string][]string)
	for alias, name := range dict {
		byCanonical[name] = append(byCanonical[name], alias)
	}
	for _, aliases := range byCanonical {
		slices.Sort(aliases)
	}

	names := make(map[string]bool)
	for _, n := range DrugNames(treatments) {
		names[n] = true
	}

	out := make([]types.Treatment, len(treatments))
	for i, t := range treatments {
		out[i] = t
		out[i].Aliases = []string{}
		if !names[t.Name] {
			continue
		}
		if canonical, ok := dict[t.Name]; ok {
			out[i].Aliases = slices.Clone(byCanonical[canonical])
		} else {
			out[i].Aliases = []string{t.Name}
		}
	}
	return out
}

// PublishedResults returns the non-empty published-results fields, the
// input for clinical.ReferencePaths.
func PublishedResults(treatments []types.Treatment) []string {
	var out []string
	for _, t := range treatments {
		if strings.TrimSpace(t.PublishedResults) != "" {
			out = append(out, t.PublishedResults)
		}
	}
	return out
}

// MentionQuery returns the terms used to count papers mentioning t: its
// aliases when it has any, otherwise its name. Unnamed treatments have no
// query.
func MentionQuery(t types.Treatment) []string {
	if t.Name == types.UnnamedTreatment || t.Name == "" {
		return nil
	}
	if len(t.Aliases) > 0 {
		return t.Aliases
	}
	return []string{t.Name}
}
