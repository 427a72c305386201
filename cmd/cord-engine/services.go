// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cord-engine/internal/index"
	"github.com/pdiddy/cord-engine/internal/registry"
	"github.com/pdiddy/cord-engine/internal/secrets"
	"github.com/pdiddy/cord-engine/internal/topics"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// loadTreatments reads the registry from the configured file, or fetches
// it from the registry API.
func loadTreatments(ctx context.Context) ([]types.Treatment, error) {
	if cfg.Registry.File != "" {
		return registry.LoadFile(dataPath(cfg.Registry.File))
	}
	client := registry.NewClient(cfg.Registry, loadedSecrets.Get(secrets.RegistryToken))
	return client.Fetch(ctx)
}

// loadAliases reads the alias dictionary named in the configuration.
func loadAliases() (map[string]string, error) {
	if cfg.Registry.AliasFile == "" {
		return map[string]string{}, nil
	}
	return registry.LoadAliases(dataPath(cfg.Registry.AliasFile))
}

// loadTopics returns the topic table from path, or the built-in table when
// path is empty.
func loadTopics(path string) ([]topics.Definition, error) {
	if path == "" {
		return topics.DefaultTopics(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics: %w", err)
	}
	var defs []topics.Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing topics %s: %w", path, err)
	}
	if err := topics.Validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// openSQLiteIndex opens the configured local index.
func openSQLiteIndex() (*index.SQLiteIndex, error) {
	return index.OpenSQLite(dataPath(cfg.Index.File), cfg.Index.MaxResults)
}

// mentionCounter resolves how many documents mention any of a set of
// terms.
type mentionCounter func(ctx context.Context, terms []string) (int, error)

// openPublisher returns the configured index backend, a mention counter
// for the published corpus and a close function.
func openPublisher(docs []types.Document) (index.Publisher, mentionCounter, func() error, error) {
	switch cfg.Index.Backend {
	case types.IndexElastic:
		key := loadedSecrets.Get(secrets.ElasticsearchAPIKey)
		if key == "" {
			log.Warn().Msg("no elasticsearch api key in secrets; sending unauthenticated requests")
		}
		pub, err := index.NewElasticPublisher(cfg.Index, key, log)
		if err != nil {
			return nil, nil, nil, err
		}
		count := func(_ context.Context, terms []string) (int, error) {
			return index.MentionCount(docs, terms), nil
		}
		return pub, count, func() error { return nil }, nil
	default:
		ix, err := openSQLiteIndex()
		if err != nil {
			return nil, nil, nil, err
		}
		return ix, ix.CountMentions, ix.Close, nil
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errNoDocuments is returned when a stage receives an empty corpus.
var errNoDocuments = errors.New("corpus is empty")

// truncate shortens s to at most width characters, marking the cut with an
// ellipsis.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}
