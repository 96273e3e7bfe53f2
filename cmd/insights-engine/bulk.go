// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insights-engine/internal/bulk"
	"github.com/pdiddy/insights-engine/internal/docstore"
	"github.com/pdiddy/insights-engine/internal/pubmed"
	"github.com/pdiddy/insights-engine/internal/trials"
	"github.com/pdiddy/insights-engine/internal/vector"
	"github.com/pdiddy/insights-engine/pkg/types"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk [topic]",
	Short: "Run the strategic query panel against both sources",
	Long: `Bulk runs the fixed panel of strategic sub-queries against PubMed and
ClinicalTrials.gov for a topic, deduplicates the results, and optionally
saves them to the local cache and indexes them into the vector store.`,
	RunE: runBulk,
}

func init() {
	bulkCmd.Flags().Int("max-per-query", 10, "maximum results per panel entry and source")
	bulkCmd.Flags().Bool("save", false, "save results to the local document cache")
	bulkCmd.Flags().Bool("index", false, "index results into the vector store")
	bulkCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(bulkCmd)
}

func runBulk(cmd *cobra.Command, args []string) error {
	topic := "real-world evidence"
	if len(args) > 0 {
		topic = args[0]
	}
	maxPerQuery, _ := cmd.Flags().GetInt("max-per-query")
	save, _ := cmd.Flags().GetBool("save")
	index, _ := cmd.Flags().GetBool("index")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	log := newLogger(cmd)

	ctx := context.Background()
	pubmedResults := bulk.Search(ctx, pubmed.New(pubmedConfig(), log), topic, maxPerQuery, log)
	trialResults := bulk.Search(ctx, trials.New(trialsConfig(), log), topic, maxPerQuery, log)

	all := make([]types.Document, 0, len(pubmedResults)+len(trialResults))
	all = append(all, pubmedResults...)
	all = append(all, trialResults...)

	if save {
		store, err := docstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := store.Save(ctx, all)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %d document(s) to the cache\n", saved)
	}

	if index {
		gateway := vector.New(vectorConfig(), log)
		if !gateway.IndexDocuments(ctx, all) {
			return fmt.Errorf("vector indexing failed")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %d document(s)\n", len(all))
	}

	return formatDocuments(all, jsonOutput)
}
