// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// UnnamedTreatment is the registry placeholder for treatments without a name.
const UnnamedTreatment = "unnamed"

// Treatment is one record from the COVID-19 treatment registry.
type Treatment struct {
	Name                string `json:"name" yaml:"name"`
	Developer           string `json:"developer" yaml:"developer"`
	ClinicalTrialID     string `json:"clinical_trial_id" yaml:"clinical_trial_id"`
	DateLastUpdated     string `json:"date_last_updated" yaml:"date_last_updated"`
	FDAApproval         string `json:"fda_approval" yaml:"fda_approval"`
	Funder              string `json:"funder" yaml:"funder"`
	HasEmergencyUseAuth string `json:"has_emerg_use_auth" yaml:"has_emerg_use_auth"`
	NextSteps           string `json:"next_steps" yaml:"next_steps"`
	Phase               string `json:"phase" yaml:"phase"`
	ProductCategory     string `json:"product_category" yaml:"product_category"`
	ProductDescription  string `json:"product_description" yaml:"product_description"`
	Stage               string `json:"stage" yaml:"stage"`

	// PublishedResults is free text holding links to published trial results.
	PublishedResults string `json:"published_results" yaml:"published_results"`

	// Aliases lists every alias of the treatment's canonical drug name.
	Aliases []string `json:"aliases" yaml:"aliases"`

	// NumPaperMentions is the number of corpus documents mentioning the drug.
	NumPaperMentions int `json:"num_paper_mentions" yaml:"num_paper_mentions"`
}

// Names splits a combined registry name ("a, b") into its drug names.
func (t Treatment) Names() []string {
	var names []string
	for _, n := range strings.Split(t.Name, ", ") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// Key is a stable identifier for the treatment in the search index.
func (t Treatment) Key() string {
	sum := md5.Sum([]byte(t.Developer + t.Name + t.ProductDescription))
	return hex.EncodeToString(sum[:])
}

// SplitList splits a comma-delimited registry field.
func SplitList(field string) []string {
	var out []string
	for _, v := range strings.Split(field, ", ") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
