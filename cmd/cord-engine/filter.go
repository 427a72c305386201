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
	"github.com/pdiddy/cord-engine/internal/langdetect"
	"github.com/pdiddy/cord-engine/internal/observability"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Select COVID-19 papers from the catalog and resolve their full text",
	Long: `Filter reads the CSV metadata catalog, keeps papers that mention COVID-19 or
SARS-CoV-2 in their title or abstract and were published since December 2019,
and writes two corpora: every matching paper, and the subset whose parsed full
text is available and English.

Text paths in the catalog are resolved relative to the data directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := filterStage(commandContext(cmd), os.Stdout)
		return err
	},
}

// filterStage runs the filter and writes both corpora.
func filterStage(ctx context.Context, w io.Writer) (catalog.Corpus, error) {
	start := time.Now()
	stageLog := observability.WithStage(log, "filter")

	path := dataPath(cfg.Catalog.MetadataFile)
	f, err := os.Open(path)
	if err != nil {
		return catalog.Corpus{}, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	rows, loaded, err := catalog.LoadMetadata(f)
	if err != nil {
		return catalog.Corpus{}, fmt.Errorf("loading %s: %w", path, err)
	}
	metrics.DocumentsLoaded.Add(float64(loaded.Loaded))
	for reason, n := range loaded.Excluded {
		metrics.RecordExcluded(reason, n)
	}
	stageLog.Info().Int("rows", loaded.Total()).Int("loaded", loaded.Loaded).Msg("catalog loaded")

	loader := catalog.FileLoader{Dir: cfg.Catalog.DataDir}
	corpus, built, err := catalog.Build(ctx, rows, loader, langdetect.NewLinguaDetector(), time.Now(), w)
	if err != nil {
		return catalog.Corpus{}, err
	}
	metrics.RecordExcluded("no_text_paths", built.NoPaths)
	metrics.RecordExcluded("empty_text", built.EmptyText)
	metrics.RecordExcluded("non_english", built.NonEnglish)

	if err := catalog.WriteCorpus(dataPath(cfg.Catalog.CorpusFile), corpus.All); err != nil {
		return catalog.Corpus{}, err
	}
	if err := catalog.WriteCorpus(dataPath(cfg.Catalog.TextCorpusFile), corpus.WithText); err != nil {
		return catalog.Corpus{}, err
	}
	metrics.ObserveStage("filter", start)

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(w, "%s %d of %d catalog rows are COVID-19 papers\n",
		green("filtered"), built.Filtered, loaded.Total())
	fmt.Fprintf(w, "%s %d papers with English full text\n", green("text"), built.WithText)
	if skipped := built.NoPaths + built.EmptyText + built.NonEnglish; skipped > 0 {
		fmt.Fprintf(w, "%s %d without text paths, %d empty, %d non-English, %d read errors\n",
			yellow("skipped"), built.NoPaths, built.EmptyText, built.NonEnglish, built.ReadErrors)
	}

	stageLog.Info().
		Int("filtered", built.Filtered).
		Int("with_text", built.WithText).
		Dur("elapsed", time.Since(start)).
		Msg("filter complete")
	return corpus, nil
}

func init() {
	rootCmd.AddCommand(filterCmd)
}
