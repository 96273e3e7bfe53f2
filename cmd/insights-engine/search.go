// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insights-engine/internal/pubmed"
	"github.com/pdiddy/insights-engine/internal/trials"
	"github.com/pdiddy/insights-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search PubMed or ClinicalTrials.gov",
	Long: `Search queries one evidence source with a free-text query and prints
the normalized documents. Use --source to pick the source, or the filter
flags for structured ClinicalTrials.gov searches.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("source", "pubmed", "evidence source: pubmed or clinicaltrials")
	searchCmd.Flags().Int("max-results", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	// Structured ClinicalTrials.gov filters; using any of them switches
	// the search to filter mode.
	searchCmd.Flags().String("condition", "", "filter trials by condition")
	searchCmd.Flags().String("intervention", "", "filter trials by intervention")
	searchCmd.Flags().String("phase", "", "filter trials by phase (e.g. PHASE3)")
	searchCmd.Flags().String("status", "", "filter trials by overall status (e.g. RECRUITING)")
	searchCmd.Flags().String("sponsor", "", "filter trials by sponsor")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	filters := trials.Filters{
		MaxResults: maxResults,
	}
	filters.Condition, _ = cmd.Flags().GetString("condition")
	filters.Intervention, _ = cmd.Flags().GetString("intervention")
	filters.Phase, _ = cmd.Flags().GetString("phase")
	filters.Status, _ = cmd.Flags().GetString("status")
	filters.Sponsor, _ = cmd.Flags().GetString("sponsor")
	hasFilters := filters.Condition != "" || filters.Intervention != "" ||
		filters.Phase != "" || filters.Status != "" || filters.Sponsor != ""

	ctx := context.Background()

	var results []types.Document
	switch source {
	case "pubmed":
		if hasFilters {
			return fmt.Errorf("filter flags only apply to --source clinicaltrials")
		}
		if len(args) == 0 {
			return fmt.Errorf("provide a search query")
		}
		results = pubmed.New(pubmedConfig(), log).Search(ctx, strings.Join(args, " "), maxResults)
	case "clinicaltrials":
		adapter := trials.New(trialsConfig(), log)
		if hasFilters {
			results = adapter.SearchWithFilters(ctx, filters)
		} else {
			if len(args) == 0 {
				return fmt.Errorf("provide a search query or filter flags")
			}
			results = adapter.Search(ctx, strings.Join(args, " "), maxResults)
		}
	default:
		return fmt.Errorf("unknown source %q: use pubmed or clinicaltrials", source)
	}

	return formatDocuments(results, jsonOutput)
}

// formatDocuments prints documents as a table, or JSON with --json.
func formatDocuments(docs []types.Document, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-16s  %-12s  %-60s  %s\n", "ID", "Source", "Title", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for _, doc := range docs {
		title := doc.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-16s  %-12s  %-60s  %s\n", doc.ID, doc.Source, title, doc.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d result(s)\n", len(docs))
	return nil
}
