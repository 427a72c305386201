// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors, registered on a
// private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// DocumentsLoaded counts catalog rows read.
	DocumentsLoaded prometheus.Counter

	// DocumentsExcluded counts rows dropped, labeled by reason.
	DocumentsExcluded *prometheus.CounterVec

	// DocumentsEnriched counts documents through the enrichment pipeline.
	DocumentsEnriched prometheus.Counter

	// TopicAssignments counts documents assigned to each topic.
	TopicAssignments *prometheus.CounterVec

	// KeywordsExtracted counts keywords assigned across all documents.
	KeywordsExtracted prometheus.Counter

	// DrugMentions counts mentions per canonical drug name.
	DrugMentions *prometheus.CounterVec

	// ClinicalPapers counts documents classified as clinical.
	ClinicalPapers prometheus.Counter

	// SummariesComputed counts summaries computed rather than read from
	// the store.
	SummariesComputed prometheus.Counter

	// DocumentsIndexed counts records published, labeled by index.
	DocumentsIndexed *prometheus.CounterVec

	// StageDuration observes stage wall time in seconds, labeled by stage.
	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors with namespace as the metric prefix.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		DocumentsLoaded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Total number of catalog rows loaded",
		}),
		DocumentsExcluded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_excluded_total",
			Help:      "Total number of documents excluded, by reason",
		}, []string{"reason"}),
		DocumentsEnriched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_enriched_total",
			Help:      "Total number of documents enriched",
		}),
		TopicAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topic_assignments_total",
			Help:      "Total number of documents assigned to each topic",
		}, []string{"topic"}),
		KeywordsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keywords_extracted_total",
			Help:      "Total number of keywords assigned to documents",
		}),
		DrugMentions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drug_mentions_total",
			Help:      "Total number of drug mentions in full texts",
		}, []string{"drug"}),
		ClinicalPapers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clinical_papers_total",
			Help:      "Total number of documents classified as clinical papers",
		}),
		SummariesComputed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_computed_total",
			Help:      "Total number of summaries computed",
		}),
		DocumentsIndexed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_indexed_total",
			Help:      "Total number of records published to the search index",
		}, []string{"index"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),
	}
}

// RecordExcluded adds n exclusions under reason.
func (m *Metrics) RecordExcluded(reason string, n int) {
	if n > 0 {
		m.DocumentsExcluded.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordTopics counts one assignment per topic name.
func (m *Metrics) RecordTopics(topics []string) {
	for _, t := range topics {
		m.TopicAssignments.WithLabelValues(t).Inc()
	}
}

// RecordDrugMentions adds per-drug mention totals.
func (m *Metrics) RecordDrugMentions(totals map[string]int) {
	for drug, n := range totals {
		if n > 0 {
			m.DrugMentions.WithLabelValues(drug).Add(float64(n))
		}
	}
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
