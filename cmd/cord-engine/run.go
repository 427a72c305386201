// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cord-engine/internal/enrich"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run filter, enrich and publish in order",
	Long: `Run executes the whole pipeline: the filtered corpus is passed to enrichment
in memory and the enriched corpus to publishing. Each stage still writes its
output file, so a failed run can be resumed with the individual commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		applyEnrichFlags(cmd)
		skipPublish, _ := cmd.Flags().GetBool("skip-publish")
		start := time.Now()

		corpus, err := filterStage(ctx, os.Stdout)
		if err != nil {
			return err
		}
		treatments, err := loadTreatments(ctx)
		if err != nil {
			return err
		}
		res, err := enrichStage(ctx, corpus.WithText, treatments, os.Stdout)
		if err != nil {
			return err
		}
		if !skipPublish {
			if err := publishStage(ctx, res.Documents, treatments, os.Stdout); err != nil {
				return err
			}
		}

		log.Info().Dur("elapsed", time.Since(start)).Msg("pipeline complete")
		return nil
	},
}

func init() {
	runCmd.Flags().Int("workers", enrich.DefaultWorkers, "size of the per-document worker pool")
	runCmd.Flags().Bool("no-summaries", false, "skip extractive summaries")
	runCmd.Flags().Bool("reuse-phrases", false, "load the saved phrase model instead of retraining")
	runCmd.Flags().Bool("skip-publish", false, "stop after enrichment")

	rootCmd.AddCommand(runCmd)
}
