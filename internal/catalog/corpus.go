// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/pgzip"

	"github.com/pdiddy/cord-engine/internal/langdetect"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// Corpus is the filtered catalog. WithText is the subset whose full text
// resolved to a non-empty English document.
type Corpus struct {
	All      []types.Document
	WithText []types.Document
}

// BuildSummary counts how documents left the text subset.
type BuildSummary struct {
	Filtered   int
	WithText   int
	NoPaths    int
	EmptyText  int
	NonEnglish int
	ReadErrors int
}

// Build filters rows and resolves full text for the text subset. Unreadable
// text candidates are reported to w and skipped. Build only fails when ctx
// is cancelled.
func Build(ctx context.Context, rows []types.Document, loader TextLoader, det langdetect.Detector, now time.Time, w io.Writer) (Corpus, BuildSummary, error) {
	var (
		corpus  Corpus
		summary BuildSummary
	)
	corpus.All = Filter(rows, now)
	summary.Filtered = len(corpus.All)

	for _, d := range corpus.All {
		if err := ctx.Err(); err != nil {
			return Corpus{}, summary, err
		}
		if len(d.TextPaths) == 0 {
			summary.NoPaths++
			continue
		}
		text, errs := LongestText(loader, d.TextPaths)
		for _, err := range errs {
			fmt.Fprintf(w, "failed  %s: %v\n", d.ID, err)
		}
		summary.ReadErrors += len(errs)
		if text == "" {
			summary.EmptyText++
			continue
		}
		lang := langdetect.Language(det, text)
		if lang != langdetect.English {
			summary.NonEnglish++
			continue
		}
		doc := d.Clone()
		doc.Text = text
		doc.Language = lang
		corpus.WithText = append(corpus.WithText, doc)
	}
	summary.WithText = len(corpus.WithText)
	return corpus, summary, nil
}

// WriteCorpus writes docs as JSON lines to path, gzip-compressed when the
// path ends in .gz. The file is written to a temporary name and renamed
// into place.
func WriteCorpus(path string, docs []types.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpus-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writeErr := writeLines(tmp, docs, strings.HasSuffix(path, ".gz"))
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func writeLines(f io.Writer, docs []types.Document, compress bool) error {
	bw := bufio.NewWriter(f)
	var out io.Writer = bw
	var gz *pgzip.Writer
	if compress {
		gz = pgzip.NewWriter(bw)
		out = gz
	}
	enc := json.NewEncoder(out)
	for i := range docs {
		if err := enc.Encode(&docs[i]); err != nil {
			return fmt.Errorf("encoding %s: %w", docs[i].ID, err)
		}
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCorpus reads a corpus written by WriteCorpus.
func ReadCorpus(path string) ([]types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var docs []types.Document
	dec := json.NewDecoder(r)
	for {
		var d types.Document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
