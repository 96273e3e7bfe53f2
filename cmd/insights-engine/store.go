// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insights-engine/internal/docstore"
	"github.com/pdiddy/insights-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local document cache (search, stats, export)",
	Long: `Store manages the local SQLite document cache. Use subcommands to
search cached documents with full-text queries and filters, inspect cache
statistics, or export the cache to YAML or JSON.`,
}

// --- search subcommand ---

var storeSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the document cache",
	RunE:  runStoreSearch,
}

func runStoreSearch(cmd *cobra.Command, args []string) error {
	opts := storeQueryOpts(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --source, --status, or --topic")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := docstore.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}
	return formatDocuments(results, jsonOutput)
}

// --- stats subcommand ---

var storeStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := docstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(context.Background())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the document cache to YAML or JSON",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	opts := storeQueryOpts(cmd, nil)

	store, err := docstore.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	switch format {
	case "yaml":
		err = store.ExportYAML(ctx, opts)
	case "json":
		err = store.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported cache to %s\n", storeConfig().DataDir)
	return nil
}

func storeQueryOpts(cmd *cobra.Command, args []string) docstore.QueryOptions {
	var opts docstore.QueryOptions
	if len(args) > 0 {
		opts.Query = strings.Join(args, " ")
	}
	source, _ := cmd.Flags().GetString("source")
	opts.Source = types.DocumentSource(source)
	opts.Status, _ = cmd.Flags().GetString("status")
	opts.Topic, _ = cmd.Flags().GetString("topic")
	opts.MaxResults, _ = cmd.Flags().GetInt("max-results")
	return opts
}

func init() {
	for _, c := range []*cobra.Command{storeSearchCmd, storeExportCmd} {
		c.Flags().String("source", "", "filter by source: pubmed or clinicaltrials")
		c.Flags().String("status", "", "filter trials by overall status")
		c.Flags().String("topic", "", "filter by collection topic")
		c.Flags().Int("max-results", 0, "maximum number of results")
	}
	storeSearchCmd.Flags().Bool("json", false, "output results as JSON")
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	storeCmd.AddCommand(storeSearchCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
