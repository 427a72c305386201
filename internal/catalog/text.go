// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/pgzip"
)

// TextLoader reads the full text stored at a catalog path.
type TextLoader interface {
	Load(path string) (string, error)
}

// FileLoader reads parsed-paper JSON files relative to Dir. Paths ending
// in .gz are decompressed.
type FileLoader struct {
	Dir string
}

type parsedPaper struct {
	BodyText []struct {
		Text string `json:"text"`
	} `json:"body_text"`
}

// Load returns the body paragraphs of a parsed paper joined by newlines.
func (l FileLoader) Load(path string) (string, error) {
	f, err := os.Open(filepath.Join(l.Dir, path))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var paper parsedPaper
	if err := json.NewDecoder(r).Decode(&paper); err != nil {
		return "", fmt.Errorf("parsing %s: %w", path, err)
	}
	paras := make([]string, len(paper.BodyText))
	for i, b := range paper.BodyText {
		paras[i] = b.Text
	}
	return strings.Join(paras, "\n"), nil
}

// LongestText loads every candidate path and returns the longest text,
// measured in characters. The first candidate with the strictly greatest
// length wins. A candidate
// that cannot be read is skipped and its error returned alongside the
// result; the remaining candidates are still considered.
func LongestText(loader TextLoader, paths []string) (string, []error) {
	var (
		best    string
		bestLen int
		errs    []error
	)
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		text, err := loader.Load(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n := utf8.RuneCountInString(text); n > bestLen {
			best, bestLen = text, n
		}
	}
	return best, errs
}
