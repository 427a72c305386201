// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads the paper catalog, filters it down to COVID-19
// research, and resolves each paper's full text.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// Catalog column names, matched by header.
const (
	colID          = "cord_uid"
	colTitle       = "title"
	colAbstract    = "abstract"
	colSource      = "source_x"
	colPublishTime = "publish_time"
	colAuthors     = "authors"
	colJournal     = "journal"
	colDOI         = "doi"
	colURL         = "url"
	colSHA         = "sha"
	colPDFJSON     = "pdf_json_files"
	colPMCJSON     = "pmc_json_files"
)

// Exclusion reasons reported by LoadMetadata.
const (
	ReasonMissingID   = "missing_id"
	ReasonInvalidDate = "invalid_date"
)

// fallbackLayouts covers catalog dates dateparse does not recognize.
var fallbackLayouts = []string{"2006 Jan 2", "2006 Jan", "2006"}

// LoadSummary counts the rows read from a catalog.
type LoadSummary struct {
	Loaded   int
	Excluded map[string]int
}

// Total returns the number of data rows read.
func (s LoadSummary) Total() int {
	n := s.Loaded
	for _, c := range s.Excluded {
		n += c
	}
	return n
}

// LoadMetadata parses a CSV catalog. Columns are located by header name;
// missing optional columns read as empty. Rows without an identifier or
// with an unparseable publish time are excluded and counted by reason.
// Text paths are only recorded for rows that carry a parse hash.
func LoadMetadata(r io.Reader) ([]types.Document, LoadSummary, error) {
	summary := LoadSummary{Excluded: make(map[string]int)}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, summary, nil
		}
		return nil, summary, fmt.Errorf("reading catalog header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := cols[colID]; !ok {
		return nil, summary, fmt.Errorf("catalog header has no %s column", colID)
	}

	var docs []types.Document
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, summary, fmt.Errorf("reading catalog row: %w", err)
		}
		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id := field(colID)
		if id == "" {
			summary.Excluded[ReasonMissingID]++
			continue
		}
		date, err := ParseDate(field(colPublishTime))
		if err != nil {
			summary.Excluded[ReasonInvalidDate]++
			continue
		}

		doc := types.Document{
			ID:             id,
			Title:          field(colTitle),
			Abstract:       field(colAbstract),
			URL:            field(colURL),
			Authors:        field(colAuthors),
			Journal:        field(colJournal),
			DOI:            field(colDOI),
			Source:         field(colSource),
			PublishDate:    date,
			IsPeerReviewed: IsPeerReviewed(field(colSource)),
		}
		if field(colSHA) != "" {
			doc.TextPaths = SplitPaths(field(colPDFJSON) + ";" + field(colPMCJSON))
		}
		docs = append(docs, doc)
		summary.Loaded++
	}
	return docs, summary, nil
}

// ParseDate parses a catalog publish time in any of the mixed formats the
// catalog uses. Dates are interpreted in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, nil
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// SplitPaths splits a semicolon-delimited path list, trimming entries and
// dropping blanks.
func SplitPaths(field string) []string {
	var paths []string
	for _, p := range strings.Split(field, ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
