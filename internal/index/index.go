// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index publishes the enriched corpus and the treatment registry to
// a full-text search index and answers read-only queries over it. Two
// backends exist: a local SQLite FTS5 index and an Elasticsearch cluster.
package index

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/cord-engine/pkg/types"
)

// ErrMissingTitle is returned when a document without a title is
// published. Untitled documents never enter the index.
var ErrMissingTitle = errors.New("document has no title")

// Publisher writes records to a search index. Publishing a record whose
// key already exists replaces it.
type Publisher interface {
	PublishDocuments(ctx context.Context, docs []types.Document) (int, error)
	PublishTreatments(ctx context.Context, treatments []types.Treatment) (int, error)
}

// elsevierAPIHost marks URLs that only resolve with an Elsevier API key.
const elsevierAPIHost = "api.elsevier.com"

// PublicURLs returns the document's URLs without Elsevier API links.
func PublicURLs(doc types.Document) []string {
	var out []string
	for _, u := range doc.URLs() {
		if !strings.Contains(u, elsevierAPIHost) {
			out = append(out, u)
		}
	}
	return out
}

// splitSemicolons splits a semicolon-delimited catalog field.
func splitSemicolons(field string) []string {
	var out []string
	for _, v := range strings.Split(field, ";") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// DocumentRecord is the search-index form of a document. Topic flags are
// flattened to topic_<name> fields.
func DocumentRecord(doc types.Document) map[string]any {
	rec := map[string]any{
		"cord_uid":             doc.ID,
		"title":                doc.Title,
		"abstract":             doc.Abstract,
		"text":                 doc.Text,
		"authors":              orEmpty(splitSemicolons(doc.Authors)),
		"journal":              orEmpty(splitSemicolons(doc.Journal)),
		"url":                  orEmpty(PublicURLs(doc)),
		"publish_date_for_web": doc.PublishDateForWeb(),
		"language":             doc.Language,
		"topics":               orEmpty(doc.Topics),
		"top_keywords":         orEmpty(doc.Keywords),
		"is_peer_reviewed":     doc.IsPeerReviewed,
		"is_clinical_paper":    doc.IsClinical,
		"summary":              doc.Summary,
		"summary_cleaned":      doc.SummaryCleaned,
		"summary_length":       len(doc.SummaryCleaned),
	}
	if !doc.PublishDate.IsZero() {
		rec["publish_date"] = doc.PublishDate.Format("2006-01-02")
	}
	for topic, on := range doc.TopicFlags {
		rec["topic_"+topic] = on
	}
	return rec
}

// TreatmentRecord is the search-index form of a treatment. List-valued
// registry fields are split on ", ".
func TreatmentRecord(t types.Treatment) map[string]any {
	return map[string]any{
		"name":                t.Name,
		"aliases":             orEmpty(t.Aliases),
		"clinical_trial_id":   orEmpty(types.SplitList(t.ClinicalTrialID)),
		"developer":           orEmpty(types.SplitList(t.Developer)),
		"published_results":   orEmpty(types.SplitList(t.PublishedResults)),
		"date_last_updated":   t.DateLastUpdated,
		"fda_approval":        t.FDAApproval,
		"funder":              t.Funder,
		"has_emerg_use_auth":  t.HasEmergencyUseAuth,
		"next_steps":          t.NextSteps,
		"phase":               t.Phase,
		"product_category":    t.ProductCategory,
		"product_description": t.ProductDescription,
		"stage":               t.Stage,
		"num_paper_mentions":  t.NumPaperMentions,
	}
}

// checkTitles rejects a batch containing an untitled document.
func checkTitles(docs []types.Document) error {
	for _, d := range docs {
		if !d.HasTitle() {
			return fmt.Errorf("document %s: %w", d.ID, ErrMissingTitle)
		}
	}
	return nil
}

// MentionCount counts documents whose title, abstract or text contains
// any of terms as a whole-word, case-insensitive phrase. It is the
// in-memory counterpart of SQLiteIndex.CountMentions for backends that
// cannot answer the count themselves.
func MentionCount(docs []types.Document, terms []string) int {
	var alts []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	if len(alts) == 0 {
		return 0
	}
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)

	n := 0
	for _, d := range docs {
		if re.MatchString(d.Title) || re.MatchString(d.Abstract) || re.MatchString(d.Text) {
			n++
		}
	}
	return n
}
