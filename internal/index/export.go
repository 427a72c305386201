// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 1000000

// Export is a snapshot of the index in its search-record form.
type Export struct {
	Documents  []map[string]any `json:"documents" yaml:"documents"`
	Treatments []map[string]any `json:"treatments" yaml:"treatments"`
}

func (ix *SQLiteIndex) export(ctx context.Context, q Query) (Export, error) {
	q.Limit = exportLimit
	results, err := ix.Search(ctx, q)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	treatments, err := ix.Treatments(ctx)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}

	e := Export{
		Documents:  make([]map[string]any, len(results)),
		Treatments: make([]map[string]any, len(treatments)),
	}
	for i, r := range results {
		e.Documents[i] = DocumentRecord(r.Document)
	}
	for i, t := range treatments {
		e.Treatments[i] = TreatmentRecord(t)
	}
	return e, nil
}

// ExportJSON writes documents matching q and all treatments to path.
func (ix *SQLiteIndex) ExportJSON(ctx context.Context, q Query, path string) error {
	e, err := ix.export(ctx, q)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeFile(path, data)
}

// ExportYAML writes documents matching q and all treatments to path.
func (ix *SQLiteIndex) ExportYAML(ctx context.Context, q Query, path string) error {
	e, err := ix.export(ctx, q)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
