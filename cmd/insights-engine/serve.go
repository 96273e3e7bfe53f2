// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/insights-engine/internal/docstore"
	"github.com/pdiddy/insights-engine/internal/pubmed"
	"github.com/pdiddy/insights-engine/internal/server"
	"github.com/pdiddy/insights-engine/internal/trials"
	"github.com/pdiddy/insights-engine/internal/vector"
	"github.com/pdiddy/insights-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve exposes the adapters, the strategic panel, the vector index, and
the document cache over an HTTP JSON API. The server shuts down
gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5000)")
	serveCmd.Flags().Bool("no-store", false, "disable the local document cache")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("server.addr")
	}
	if addr == "" {
		addr = ":5000"
	}

	var store server.DocumentStore
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
		s, err := docstore.NewStore(storeConfig())
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	srv := server.New(
		types.ServerConfig{Addr: addr},
		pubmed.New(pubmedConfig(), log),
		trials.New(trialsConfig(), log),
		vector.New(vectorConfig(), log),
		store,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
