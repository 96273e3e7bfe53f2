// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "insights-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the PubMed adapter.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent with E-utilities requests for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests/second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the default maximum number of results (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// TrialsConfig holds settings for the ClinicalTrials.gov adapter.
type TrialsConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the default maximum number of results (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// VectorConfig holds settings for the embedding and vector store gateway.
type VectorConfig struct {
	HTTPConfig `yaml:",inline"`

	// OpenAIAPIKey authenticates the embeddings API. Without it the
	// gateway starts in degraded mode.
	OpenAIAPIKey string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`

	// EmbedModel is the embeddings model identifier
	// (default "text-embedding-3-small").
	EmbedModel string `json:"embed_model" yaml:"embed_model"`

	// PineconeAPIKey authenticates the Pinecone index. Without it the
	// gateway starts in degraded mode.
	PineconeAPIKey string `json:"pinecone_api_key,omitempty" yaml:"pinecone_api_key,omitempty"`

	// PineconeHost is the index host URL
	// (e.g. "https://my-index-abc123.svc.us-east-1.pinecone.io").
	PineconeHost string `json:"pinecone_host" yaml:"pinecone_host"`
}

// StoreConfig holds settings for the local document cache.
type StoreConfig struct {
	// DataDir is the base directory holding the SQLite database and
	// export files.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	PubMed PubMedConfig `json:"pubmed" yaml:"pubmed"`
	Trials TrialsConfig `json:"trials" yaml:"trials"`
	Vector VectorConfig `json:"vector" yaml:"vector"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Server ServerConfig `json:"server" yaml:"server"`
}
