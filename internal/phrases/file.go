// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phrases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/pgzip"
)

// Save writes the model to path as gzipped JSON, replacing any previous
// model atomically.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".phraser-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	gz := pgzip.NewWriter(tmp)
	encErr := json.NewEncoder(gz).Encode(m.toFile())
	gzErr := gz.Close()
	closeErr := tmp.Close()
	for _, err := range []error{encErr, gzErr, closeErr} {
		if err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("writing phrase model: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening phrase model: %w", err)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing phrase model: %w", err)
	}
	defer gz.Close()

	var mf modelFile
	if err := json.NewDecoder(gz).Decode(&mf); err != nil {
		return nil, fmt.Errorf("parsing phrase model: %w", err)
	}
	return fromFile(mf), nil
}
