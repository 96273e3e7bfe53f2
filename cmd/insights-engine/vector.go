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
	"github.com/pdiddy/insights-engine/internal/vector"
	"github.com/pdiddy/insights-engine/pkg/types"
)

var vectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Manage the semantic vector index (index, search, stats)",
	Long: `Vector manages the Pinecone-backed semantic index. Use subcommands to
index cached documents, run similarity searches, or inspect index
statistics. Without embedding and index credentials the commands report
degraded mode instead of failing.`,
}

// --- index subcommand ---

var vectorIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index cached documents into the vector store",
	Long: `Index reads documents from the local cache (optionally filtered by
topic or source), chunks and embeds them, and upserts the vectors.`,
	RunE: runVectorIndex,
}

func runVectorIndex(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	source, _ := cmd.Flags().GetString("source")
	log := newLogger(cmd)

	store, err := docstore.NewStore(storeConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	docs, err := store.Search(ctx, docstore.QueryOptions{
		Topic:      topic,
		Source:     types.DocumentSource(source),
		MaxResults: 100000,
	})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No cached documents to index.")
		return nil
	}

	gateway := vector.New(vectorConfig(), log)
	if !gateway.IndexDocuments(ctx, docs) {
		return fmt.Errorf("vector indexing failed")
	}
	fmt.Printf("Indexed %d document(s)\n", len(docs))
	return nil
}

// --- search subcommand ---

var vectorSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a similarity search against the vector index",
	RunE:  runVectorSearch,
}

func runVectorSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a search query")
	}
	k, _ := cmd.Flags().GetInt("k")
	source, _ := cmd.Flags().GetString("source")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	var filter map[string]any
	if source != "" {
		filter = map[string]any{"source": source}
	}

	gateway := vector.New(vectorConfig(), log)
	results := gateway.SimilaritySearch(context.Background(), strings.Join(args, " "), k, filter)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, r := range results {
		content := r.Content
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		fmt.Printf("%d. %s (score %.3f)\n   %s\n", i+1, r.ID, r.Score, content)
	}
	return nil
}

// --- stats subcommand ---

var vectorStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		gateway := vector.New(vectorConfig(), log)
		stats := gateway.IndexStats(context.Background())

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	vectorIndexCmd.Flags().String("topic", "", "only index documents collected for this topic")
	vectorIndexCmd.Flags().String("source", "", "only index documents from this source")

	vectorSearchCmd.Flags().Int("k", 5, "number of results to return")
	vectorSearchCmd.Flags().String("source", "", "restrict results to one source")
	vectorSearchCmd.Flags().Bool("json", false, "output results as JSON")

	vectorCmd.AddCommand(vectorIndexCmd)
	vectorCmd.AddCommand(vectorSearchCmd)
	vectorCmd.AddCommand(vectorStatsCmd)
	rootCmd.AddCommand(vectorCmd)
}
