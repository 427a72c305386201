// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cord-engine/internal/index"
	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/internal/topics"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// maxSamples bounds the topic sentences shown per result.
const maxSamples = 3

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query the local search index",
	Long: `Search queries the SQLite index written by publish. Every query term must
appear in the title, abstract, full text or keywords of a result. Results are
ranked by relevance, or by publish date (newest first) when no query is given.

Use --topic and --clinical to filter, --id to show one document, --treatments
to list the registry ordered by paper mentions, and --export to write the
matching documents and all treatments to a JSON or YAML file.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	id, _ := cmd.Flags().GetString("id")
	showTreatments, _ := cmd.Flags().GetBool("treatments")
	exportFormat, _ := cmd.Flags().GetString("export")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ix, err := openSQLiteIndex()
	if err != nil {
		return err
	}
	defer ix.Close()

	if id != "" {
		doc, err := ix.Get(ctx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, doc)
		}
		printDocument(os.Stdout, doc)
		return nil
	}

	if showTreatments {
		ts, err := ix.Treatments(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(os.Stdout, ts)
		}
		return formatTreatments(os.Stdout, ts)
	}

	q := queryFromFlags(cmd, args)

	if exportFormat != "" {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = dataPath("export." + exportFormat)
		}
		switch exportFormat {
		case "json":
			err = ix.ExportJSON(ctx, q, out)
		case "yaml":
			err = ix.ExportYAML(ctx, q, out)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", exportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", out)
		return nil
	}

	results, err := ix.Search(ctx, q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(os.Stdout, results)
	}

	samples, _ := cmd.Flags().GetBool("samples")
	var sampler func(types.Document) []string
	if samples && q.Topic != "" {
		if sampler, err = topicSampler(q.Topic); err != nil {
			return err
		}
	}
	return formatResults(os.Stdout, results, sampler)
}

func queryFromFlags(cmd *cobra.Command, args []string) index.Query {
	topic, _ := cmd.Flags().GetString("topic")
	clinicalOnly, _ := cmd.Flags().GetBool("clinical")
	limit, _ := cmd.Flags().GetInt("limit")
	return index.Query{
		Text:         strings.Join(args, " "),
		Topic:        topic,
		ClinicalOnly: clinicalOnly,
		Limit:        limit,
	}
}

// topicSampler returns a function extracting the sentences of a document
// that match the named topic.
func topicSampler(name string) (func(types.Document) []string, error) {
	defs, err := loadTopics(cfg.Enrich.TopicsFile)
	if err != nil {
		return nil, err
	}
	var pattern string
	for _, d := range defs {
		if d.Name == name {
			pattern = d.Pattern
		}
	}
	if pattern == "" {
		return nil, fmt.Errorf("unknown topic %q", name)
	}
	tok, err := textproc.New(textproc.Kind(cfg.Enrich.Tokenizer))
	if err != nil {
		return nil, err
	}
	return func(doc types.Document) []string {
		s, err := topics.SampleSentences(tok, doc.Text, pattern)
		if err != nil {
			log.Warn().Err(err).Str("topic", name).Msg("sampling sentences")
			return nil
		}
		return s[:min(len(s), maxSamples)]
	}, nil
}

func formatResults(w io.Writer, results []index.Result, sampler func(types.Document) []string) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-10s  %-60s  %-12s  %s\n", "Rank", "ID", "Title", "Published", "Topics")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range results {
		title := truncate(r.Title, 60)
		published := ""
		if !r.PublishDate.IsZero() {
			published = r.PublishDate.Format(types.WebDateLayout)
		}
		fmt.Fprintf(w, "%-4d  %-10s  %-60s  %-12s  %s\n",
			i+1, r.ID, title, published, strings.Join(r.Topics, ", "))
		if sampler != nil {
			for _, s := range sampler(r.Document) {
				fmt.Fprintf(w, "      > %s\n", s)
			}
		}
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func printDocument(w io.Writer, doc types.Document) {
	fmt.Fprintf(w, "%s\n%s\n\n", doc.ID, doc.Title)
	if !doc.PublishDate.IsZero() {
		fmt.Fprintf(w, "Published:  %s\n", doc.PublishDate.Format(types.WebDateLayout))
	}
	fmt.Fprintf(w, "Journal:    %s\n", doc.Journal)
	fmt.Fprintf(w, "Topics:     %s\n", strings.Join(doc.Topics, ", "))
	fmt.Fprintf(w, "Keywords:   %s\n", strings.Join(doc.Keywords, ", "))
	fmt.Fprintf(w, "Clinical:   %t\n", doc.IsClinical)
	if doc.SummaryCleaned != "" {
		fmt.Fprintf(w, "\n%s\n", doc.SummaryCleaned)
	}
}

func formatTreatments(w io.Writer, ts []types.Treatment) error {
	if len(ts) == 0 {
		fmt.Fprintln(w, "No treatments indexed.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %-30s  %-12s  %s\n", "Name", "Developer", "Stage", "Papers")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, t := range ts {
		fmt.Fprintf(w, "%-40s  %-30s  %-12s  %d\n",
			truncate(t.Name, 40), truncate(t.Developer, 30), truncate(t.Stage, 12), t.NumPaperMentions)
	}
	return nil
}

func init() {
	searchCmd.Flags().String("topic", "", "only documents assigned this topic")
	searchCmd.Flags().Bool("clinical", false, "only clinical papers")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = index.max_results)")
	searchCmd.Flags().Bool("samples", false, "with --topic, show matching sentences from each result")
	searchCmd.Flags().String("id", "", "show one document by cord_uid")
	searchCmd.Flags().Bool("treatments", false, "list indexed treatments by paper mentions")
	searchCmd.Flags().String("export", "", "export matches and treatments: json or yaml")
	searchCmd.Flags().String("out", "", "export path (default <data-dir>/export.<format>)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
