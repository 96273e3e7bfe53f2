// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the insights-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/insights-engine/internal/secrets"
	"github.com/pdiddy/insights-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const defaultUserAgent = "insights-engine/0.1"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, or the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the insights-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "insights-engine",
	Short: "Biomedical evidence aggregation backend",
	Long: `insights-engine aggregates biomedical evidence from PubMed and
ClinicalTrials.gov, normalizes it into a common document shape, caches it
locally, and indexes it into a vector store for semantic search.

Each capability is a subcommand: search queries one source, bulk runs the
strategic query panel across a topic, vector manages the semantic index,
store manages the local document cache, and serve exposes everything over
HTTP.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; missing files are fine.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./insights-engine.yaml or ~/.config/insights-engine/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("insights-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "insights-engine"))
		}
	}

	viper.SetEnvPrefix("INSIGHTS_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the structured logger the subcommands share.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// --- configuration builders ---

func pubmedConfig() types.PubMedConfig {
	return types.PubMedConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("pubmed.timeout"),
			UserAgent: defaultUserAgent,
		},
		Email:      secretDefault("pubmed-email", viper.GetString("pubmed.email")),
		APIKey:     secretDefault("pubmed-api-key", viper.GetString("pubmed.api_key")),
		MaxResults: viper.GetInt("pubmed.max_results"),
	}
}

func trialsConfig() types.TrialsConfig {
	return types.TrialsConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("clinicaltrials.timeout"),
			UserAgent: defaultUserAgent,
		},
		MaxResults: viper.GetInt("clinicaltrials.max_results"),
	}
}

func vectorConfig() types.VectorConfig {
	return types.VectorConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("vector.timeout"),
			UserAgent: defaultUserAgent,
		},
		OpenAIAPIKey:   secretDefault("openai-api-key", viper.GetString("vector.openai_api_key")),
		EmbedModel:     viper.GetString("vector.embed_model"),
		PineconeAPIKey: secretDefault("pinecone-api-key", viper.GetString("vector.pinecone_api_key")),
		PineconeHost:   viper.GetString("vector.pinecone_host"),
	}
}

func storeConfig() types.StoreConfig {
	dataDir := viper.GetString("store.data_dir")
	if dataDir == "" {
		dataDir = "data"
	}
	return types.StoreConfig{
		DataDir:    dataDir,
		MaxResults: viper.GetInt("store.max_results"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
