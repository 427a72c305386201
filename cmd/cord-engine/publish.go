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
	"github.com/pdiddy/cord-engine/internal/observability"
	"github.com/pdiddy/cord-engine/internal/registry"
	"github.com/pdiddy/cord-engine/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the enriched corpus and treatment registry to the search index",
	Long: `Publish writes every enriched document to the document index and every
registry treatment, with its aliases and the number of papers mentioning it,
to the treatment index.

The backend is chosen by index.backend: sqlite writes a local full-text index
that the search command reads; elasticsearch sends bulk requests to
index.url using the API key in the secrets directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		if cmd.Flags().Changed("backend") {
			b, _ := cmd.Flags().GetString("backend")
			cfg.Index.Backend = types.IndexBackend(b)
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		docs, err := catalog.ReadCorpus(dataPath(cfg.Catalog.EnrichedFile))
		if err != nil {
			return err
		}
		treatments, err := loadTreatments(ctx)
		if err != nil {
			return err
		}
		return publishStage(ctx, docs, treatments, os.Stdout)
	},
}

// publishStage publishes docs and the treatments annotated with aliases
// and mention counts.
func publishStage(ctx context.Context, docs []types.Document, treatments []types.Treatment, w io.Writer) error {
	if len(docs) == 0 {
		return errNoDocuments
	}
	start := time.Now()
	stageLog := observability.WithStage(log, "publish")

	pub, countMentions, closeFn, err := openPublisher(docs)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := pub.PublishDocuments(ctx, docs)
	if err != nil {
		return fmt.Errorf("publishing documents: %w", err)
	}
	metrics.DocumentsIndexed.WithLabelValues(cfg.Index.DocumentIndex).Add(float64(n))
	stageLog.Info().Int("documents", n).Str("backend", string(cfg.Index.Backend)).Msg("documents published")

	dict, err := loadAliases()
	if err != nil {
		return err
	}
	annotated := registry.AttachAliases(treatments, dict)
	for i, t := range annotated {
		terms := registry.MentionQuery(t)
		if len(terms) == 0 {
			continue
		}
		c, err := countMentions(ctx, terms)
		if err != nil {
			return fmt.Errorf("counting mentions of %s: %w", t.Name, err)
		}
		annotated[i].NumPaperMentions = c
	}

	m, err := pub.PublishTreatments(ctx, annotated)
	if err != nil {
		return fmt.Errorf("publishing treatments: %w", err)
	}
	metrics.DocumentsIndexed.WithLabelValues(cfg.Index.TreatmentIndex).Add(float64(m))
	metrics.ObserveStage("publish", start)
	stageLog.Info().Int("treatments", m).Dur("elapsed", time.Since(start)).Msg("publish complete")

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %d documents to %s, %d treatments to %s (%s)\n",
		green("published"), n, cfg.Index.DocumentIndex, m, cfg.Index.TreatmentIndex, cfg.Index.Backend)
	return nil
}

func init() {
	publishCmd.Flags().String("backend", "", "override index.backend: sqlite or elasticsearch")

	rootCmd.AddCommand(publishCmd)
}
