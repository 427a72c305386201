// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// WebDateLayout is the display format for publish dates in the index.
const WebDateLayout = "Jan 02, 2006"

// Document is one research paper in the corpus. Empty strings stand for
// missing catalog fields. Enrichment stages never mutate a Document they
// receive; they return a Clone with their fields filled in.
type Document struct {
	// ID is the catalog identifier (CORD-19 cord_uid).
	ID string `json:"cord_uid" yaml:"cord_uid"`

	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`

	// Text is the longest resolved full text, or empty.
	Text string `json:"text" yaml:"text"`

	// URL holds one or more source URLs separated by semicolons.
	URL string `json:"url" yaml:"url"`

	Authors string `json:"authors" yaml:"authors"`
	Journal string `json:"journal" yaml:"journal"`
	DOI     string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Source is the catalog source tag (e.g. "PMC", "Medline", "MedRxiv").
	Source string `json:"source_x" yaml:"source_x"`

	// TextPaths lists candidate parsed-text files, in catalog order.
	TextPaths []string `json:"text_paths,omitempty" yaml:"text_paths,omitempty"`

	PublishDate time.Time `json:"publish_date" yaml:"publish_date"`
	Language    string    `json:"language" yaml:"language"`

	IsPeerReviewed bool `json:"is_peer_reviewed" yaml:"is_peer_reviewed"`

	// TopicFlags holds one entry per configured topic once scoring has run.
	TopicFlags map[string]bool `json:"topic_flags,omitempty" yaml:"topic_flags,omitempty"`

	// Topics lists matched topic names in topic-table order.
	Topics []string `json:"topics" yaml:"topics"`

	Keywords   []string `json:"top_keywords" yaml:"top_keywords"`
	IsClinical bool     `json:"is_clinical_paper" yaml:"is_clinical_paper"`

	// DrugMentions maps canonical drug name to its mention count in Text.
	DrugMentions map[string]int `json:"drug_mentions,omitempty" yaml:"drug_mentions,omitempty"`

	Summary        string `json:"summary,omitempty" yaml:"summary,omitempty"`
	SummaryCleaned string `json:"summary_cleaned,omitempty" yaml:"summary_cleaned,omitempty"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	c := d
	c.TextPaths = slices.Clone(d.TextPaths)
	c.Topics = slices.Clone(d.Topics)
	c.Keywords = slices.Clone(d.Keywords)
	c.TopicFlags = maps.Clone(d.TopicFlags)
	c.DrugMentions = maps.Clone(d.DrugMentions)
	return c
}

// HasTitle reports whether the document carries a non-empty title.
func (d Document) HasTitle() bool {
	return strings.TrimSpace(d.Title) != ""
}

// URLs splits the URL field on semicolons, dropping blanks.
func (d Document) URLs() []string {
	var urls []string
	for _, u := range strings.Split(d.URL, ";") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// PublishDateForWeb renders the publish date for display.
func (d Document) PublishDateForWeb() string {
	if d.PublishDate.IsZero() {
		return ""
	}
	return d.PublishDate.Format(WebDateLayout)
}

// HasTopic reports whether topic was matched.
func (d Document) HasTopic(topic string) bool {
	return d.TopicFlags[topic]
}

// CloneAll deep-copies a batch.
func CloneAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
