// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/cord-engine/internal/catalog"
	"github.com/pdiddy/cord-engine/internal/clinical"
	"github.com/pdiddy/cord-engine/internal/enrich"
	"github.com/pdiddy/cord-engine/internal/mentions"
	"github.com/pdiddy/cord-engine/internal/observability"
	"github.com/pdiddy/cord-engine/internal/phrases"
	"github.com/pdiddy/cord-engine/internal/registry"
	"github.com/pdiddy/cord-engine/internal/store"
	"github.com/pdiddy/cord-engine/internal/summarize"
	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/internal/topics"
	"github.com/pdiddy/cord-engine/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Add topics, summaries, keywords, drug mentions and clinical flags",
	Long: `Enrich reads the full-text corpus written by filter and runs the enrichment
pipeline: topic scoring, clinical paper classification and extractive
summaries per document, then phrase training, keyword extraction and drug
mention counting over the whole corpus. Drug names and clinical trial links
come from the treatment registry.

Keywords and summaries are cached in the enrichment store, so later runs only
compute them for new papers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		applyEnrichFlags(cmd)

		docs, err := catalog.ReadCorpus(dataPath(cfg.Catalog.TextCorpusFile))
		if err != nil {
			return err
		}
		treatments, err := loadTreatments(ctx)
		if err != nil {
			return err
		}
		_, err = enrichStage(ctx, docs, treatments, os.Stdout)
		return err
	},
}

// applyEnrichFlags copies explicitly set flags over the configuration.
func applyEnrichFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("workers") {
		cfg.Enrich.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("no-summaries") {
		off, _ := cmd.Flags().GetBool("no-summaries")
		cfg.Enrich.Summaries = !off
	}
	if cmd.Flags().Changed("reuse-phrases") {
		cfg.Enrich.ReusePhraseModel, _ = cmd.Flags().GetBool("reuse-phrases")
	}
}

// newPipeline wires the enrichment services from the configuration and
// the treatment registry.
func newPipeline(treatments []types.Treatment, st *store.Store, w io.Writer) (*enrich.Pipeline, error) {
	tok, err := textproc.New(textproc.Kind(cfg.Enrich.Tokenizer))
	if err != nil {
		return nil, err
	}

	dict, err := loadAliases()
	if err != nil {
		return nil, err
	}
	names := registry.DrugNames(treatments)
	drugs := mentions.NewRegistry(dict, names, log)

	defs, err := loadTopics(cfg.Enrich.TopicsFile)
	if err != nil {
		return nil, err
	}
	scorer, err := topics.NewScorer(defs, names)
	if err != nil {
		return nil, err
	}

	classifier := clinical.NewClassifier(clinical.ReferencePaths(registry.PublishedResults(treatments)))
	log.Info().
		Int("drugs", len(names)).
		Int("aliases", drugs.Len()).
		Int("clinical_fragments", classifier.Fragments()).
		Msg("registry loaded")

	opts := phrases.DefaultOptions()
	opts.MinCount = cfg.Enrich.PhraseMinCount
	opts.Threshold = cfg.Enrich.PhraseThreshold

	p := &enrich.Pipeline{
		Tokenizer:        tok,
		Scorer:           scorer,
		Classifier:       classifier,
		Drugs:            drugs,
		Store:            st,
		Phrases:          opts,
		PhraseModelFile:  dataPath(cfg.Enrich.PhraseModelFile),
		ReusePhraseModel: cfg.Enrich.ReusePhraseModel,
		NumKeywords:      cfg.Enrich.NumKeywords,
		ChunkSize:        cfg.Enrich.KeywordChunkSize,
		Workers:          cfg.Enrich.Workers,
		Log:              observability.WithStage(log, "enrich"),
		Metrics:          metrics,
		Progress:         w,
	}
	if cfg.Enrich.Summaries {
		p.Summarizer = summarize.FrequencySummarizer{Tokenizer: tok}
	}
	return p, nil
}

// enrichStage enriches docs and writes the enriched corpus.
func enrichStage(ctx context.Context, docs []types.Document, treatments []types.Treatment, w io.Writer) (enrich.Result, error) {
	if len(docs) == 0 {
		return enrich.Result{}, errNoDocuments
	}
	start := time.Now()

	st, err := store.Open(dataPath(cfg.Enrich.StoreFile))
	if err != nil {
		return enrich.Result{}, err
	}
	defer st.Close()

	p, err := newPipeline(treatments, st, w)
	if err != nil {
		return enrich.Result{}, err
	}
	res, err := p.Run(ctx, docs)
	if err != nil {
		return enrich.Result{}, err
	}

	out := dataPath(cfg.Catalog.EnrichedFile)
	if err := catalog.WriteCorpus(out, res.Documents); err != nil {
		return enrich.Result{}, err
	}
	metrics.ObserveStage("enrich", start)

	clinicalCount := 0
	for _, d := range res.Documents {
		if d.IsClinical {
			clinicalCount++
		}
	}
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d documents (%d clinical) -> %s\n", green("enriched"), len(res.Documents), clinicalCount, out)
	return res, nil
}

func init() {
	enrichCmd.Flags().Int("workers", enrich.DefaultWorkers, "size of the per-document worker pool")
	enrichCmd.Flags().Bool("no-summaries", false, "skip extractive summaries")
	enrichCmd.Flags().Bool("reuse-phrases", false, "load the saved phrase model instead of retraining")

	rootCmd.AddCommand(enrichCmd)
}
