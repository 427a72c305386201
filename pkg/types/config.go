package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on 429/503 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`
}

// CatalogConfig holds settings for the corpus filter stage.
type CatalogConfig struct {
	// DataDir is the base directory for catalog inputs and corpus outputs.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir" validate:"required"`

	// MetadataFile is the CSV catalog, relative to DataDir.
	MetadataFile string `json:"metadata_file" yaml:"metadata_file" mapstructure:"metadata_file" validate:"required"`

	// CorpusFile receives the covid-only corpus (gzipped JSON lines).
	CorpusFile string `json:"corpus_file" yaml:"corpus_file" mapstructure:"corpus_file" validate:"required"`

	// TextCorpusFile receives the covid-only corpus with full text.
	TextCorpusFile string `json:"text_corpus_file" yaml:"text_corpus_file" mapstructure:"text_corpus_file" validate:"required"`

	// EnrichedFile receives the enriched text corpus.
	EnrichedFile string `json:"enriched_file" yaml:"enriched_file" mapstructure:"enriched_file" validate:"required"`
}

// EnrichConfig holds settings for the enrichment pipeline.
type EnrichConfig struct {
	// Workers is the size of the per-document worker pool (default 16).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=256"`

	// PhraseMinCount is the minimum chain count for phrase merging (default 5).
	PhraseMinCount int `json:"phrase_min_count" yaml:"phrase_min_count" mapstructure:"phrase_min_count" validate:"gte=1"`

	// PhraseThreshold is the merge score threshold (default 10).
	PhraseThreshold float64 `json:"phrase_threshold" yaml:"phrase_threshold" mapstructure:"phrase_threshold" validate:"gt=0"`

	// PhraseModelFile is where the trained phrase model is persisted.
	PhraseModelFile string `json:"phrase_model_file" yaml:"phrase_model_file" mapstructure:"phrase_model_file"`

	// ReusePhraseModel loads PhraseModelFile instead of retraining when it
	// exists.
	ReusePhraseModel bool `json:"reuse_phrase_model" yaml:"reuse_phrase_model" mapstructure:"reuse_phrase_model"`

	// NumKeywords is the keyword list length per document (default 20).
	NumKeywords int `json:"num_keywords" yaml:"num_keywords" mapstructure:"num_keywords" validate:"gte=1"`

	// KeywordChunkSize bounds rows ranked at once (default 1000).
	KeywordChunkSize int `json:"keyword_chunk_size" yaml:"keyword_chunk_size" mapstructure:"keyword_chunk_size" validate:"gte=1"`

	// Tokenizer selects sentence/word tokenization: prose or simple.
	Tokenizer string `json:"tokenizer" yaml:"tokenizer" mapstructure:"tokenizer" validate:"omitempty,oneof=prose simple"`

	// TopicsFile optionally replaces the built-in topic table (YAML list of
	// name, pattern, min_count).
	TopicsFile string `json:"topics_file" yaml:"topics_file" mapstructure:"topics_file"`

	// Summaries enables the summarization step.
	Summaries bool `json:"summaries" yaml:"summaries" mapstructure:"summaries"`

	// StoreFile is the SQLite file holding keywords and summaries.
	StoreFile string `json:"store_file" yaml:"store_file" mapstructure:"store_file" validate:"required"`
}

// RegistryConfig holds settings for the treatment registry.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the registry API endpoint. Ignored when File is set.
	URL string `json:"url" yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	// File is a local copy of the registry response.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// AliasFile maps drug aliases to canonical names (YAML or JSON).
	AliasFile string `json:"alias_file" yaml:"alias_file" mapstructure:"alias_file"`
}

// IndexBackend selects the search index implementation.
type IndexBackend string

const (
	IndexSQLite  IndexBackend = "sqlite"
	IndexElastic IndexBackend = "elasticsearch"
)

// IndexConfig holds settings for the search index publisher.
type IndexConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Backend IndexBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=sqlite elasticsearch"`

	// File is the SQLite index path (sqlite backend).
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// URL is the cluster URL (elasticsearch backend).
	URL string `json:"url" yaml:"url" mapstructure:"url" validate:"omitempty,url"`

	DocumentIndex  string `json:"document_index" yaml:"document_index" mapstructure:"document_index" validate:"required"`
	TreatmentIndex string `json:"treatment_index" yaml:"treatment_index" mapstructure:"treatment_index" validate:"required"`

	// BatchSize is the number of documents per bulk request (default 200).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`

	// RequestsPerSecond throttles bulk submissions. Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`

	// MaxResults is the default query result limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=1"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console pretty"`

	// Output is stdout or stderr.
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`

	// Textfile, when set, receives the metrics in Prometheus text format
	// after each command for the node exporter textfile collector.
	Textfile string `json:"textfile" yaml:"textfile" mapstructure:"textfile"`
}

// Config groups all stage configurations.
type Config struct {
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Enrich   EnrichConfig   `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
	Index    IndexConfig    `json:"index" yaml:"index" mapstructure:"index"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// DefaultConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			DataDir:        "data",
			MetadataFile:   "metadata.csv",
			CorpusFile:     "covid.jsonl.gz",
			TextCorpusFile: "covid_with_text.jsonl.gz",
			EnrichedFile:   "covid_enriched.jsonl.gz",
		},
		Enrich: EnrichConfig{
			Workers:          16,
			PhraseMinCount:   5,
			PhraseThreshold:  10,
			PhraseModelFile:  "phraser.json.gz",
			NumKeywords:      20,
			KeywordChunkSize: 1000,
			Tokenizer:        "prose",
			Summaries:        true,
			StoreFile:        "enrichment.db",
		},
		Registry: RegistryConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    60 * time.Second,
				UserAgent:  "cord-engine/0.1",
				MaxRetries: 5,
			},
			AliasFile: "drug_names.yaml",
		},
		Index: IndexConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    60 * time.Second,
				UserAgent:  "cord-engine/0.1",
				MaxRetries: 5,
			},
			Backend:           IndexSQLite,
			File:              "index.db",
			DocumentIndex:     "cord19-docs",
			TreatmentIndex:    "cord19-treatments",
			BatchSize:         200,
			RequestsPerSecond: 2,
			MaxResults:        20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Namespace: "cord_engine",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints declared in struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Index.Backend == IndexElastic && c.Index.URL == "" {
		return fmt.Errorf("invalid configuration: index.url is required for the %s backend", IndexElastic)
	}
	return nil
}
