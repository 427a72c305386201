// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cord-engine/internal/catalog"
	"github.com/pdiddy/cord-engine/internal/mentions"
)

var drugsCmd = &cobra.Command{
	Use:   "drugs",
	Short: "Report drug mention counts from the enriched corpus",
	Long: `Drugs lists the most mentioned treatments in the enriched corpus with their
total mention count and the number of papers mentioning them.

Use --drug to list the papers that mention one drug more than --min-count
times.`,
	RunE: runDrugs,
}

func runDrugs(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	drug, _ := cmd.Flags().GetString("drug")
	minCount, _ := cmd.Flags().GetInt("min-count")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	docs, err := catalog.ReadCorpus(dataPath(cfg.Catalog.EnrichedFile))
	if err != nil {
		return err
	}
	counts := mentions.FromDocuments(docs)

	if drug != "" {
		papers := counts.Papers(canonicalName(counts, drug), minCount)
		if jsonOutput {
			return writeJSON(os.Stdout, papers)
		}
		return formatDrugTable(os.Stdout, "Paper", papers, nil)
	}

	ranked := counts.Top(top)
	if jsonOutput {
		return writeJSON(os.Stdout, ranked)
	}
	return formatDrugTable(os.Stdout, "Drug", ranked, counts)
}

// canonicalName returns the mentioned drug whose name equals name ignoring
// case, or name itself.
func canonicalName(counts *mentions.Counts, name string) string {
	for _, d := range counts.Drugs() {
		if strings.EqualFold(d, name) {
			return d
		}
	}
	return name
}

// formatDrugTable prints counts as a table. When counts is non-nil a
// paper count column is added.
func formatDrugTable(w io.Writer, label string, rows []mentions.DrugCount, counts *mentions.Counts) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No mentions found.")
		return nil
	}

	if counts != nil {
		fmt.Fprintf(w, "%-4s  %-40s  %8s  %6s\n", "Rank", label, "Mentions", "Papers")
		fmt.Fprintln(w, strings.Repeat("-", 64))
	} else {
		fmt.Fprintf(w, "%-4s  %-40s  %8s\n", "Rank", label, "Mentions")
		fmt.Fprintln(w, strings.Repeat("-", 56))
	}
	for i, r := range rows {
		name := truncate(r.Name, 40)
		if counts != nil {
			fmt.Fprintf(w, "%-4d  %-40s  %8d  %6d\n", i+1, name, r.Count, counts.PaperCount(r.Name))
		} else {
			fmt.Fprintf(w, "%-4d  %-40s  %8d\n", i+1, name, r.Count)
		}
	}
	return nil
}

func init() {
	drugsCmd.Flags().Int("top", 20, "number of drugs to list (0 = all)")
	drugsCmd.Flags().String("drug", "", "list papers mentioning this canonical drug name")
	drugsCmd.Flags().Int("min-count", 0, "with --drug, only papers with more mentions than this")
	drugsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(drugsCmd)
}
