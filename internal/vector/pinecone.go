// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pdiddy/insights-engine/internal/httputil"
	"github.com/pdiddy/insights-engine/pkg/types"
)

// Vector is one entry in the index.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is one similarity-search hit as the index returns it.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// IndexStats describes the index contents.
type IndexStats struct {
	TotalVectors  int            `json:"totalVectorCount"`
	Dimension     int            `json:"dimension"`
	IndexFullness float64        `json:"indexFullness"`
	Namespaces    map[string]any `json:"namespaces"`
}

// Index is the vector store the gateway writes to and queries.
type Index interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]Match, error)
	Stats(ctx context.Context) (IndexStats, error)
}

// PineconeIndex talks to a Pinecone index over its REST data plane.
type PineconeIndex struct {
	client *http.Client
	host   string
	apiKey string
}

// NewPineconeIndex builds a client from the vector configuration. The
// host is the index-specific endpoint Pinecone assigns at creation.
func NewPineconeIndex(cfg types.VectorConfig) *PineconeIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &PineconeIndex{
		client: &http.Client{Timeout: timeout},
		host:   cfg.PineconeHost,
		apiKey: cfg.PineconeAPIKey,
	}
}

// Upsert writes vectors to the index, overwriting entries with the same id.
func (p *PineconeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	payload := map[string]any{"vectors": vectors}
	var parsed struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	if err := p.post(ctx, "/vectors/upsert", payload, &parsed); err != nil {
		return err
	}
	if parsed.UpsertedCount != len(vectors) {
		return fmt.Errorf("upserted %d of %d vectors", parsed.UpsertedCount, len(vectors))
	}
	return nil
}

// Query runs a similarity search against the index.
func (p *PineconeIndex) Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]Match, error) {
	payload := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		payload["filter"] = filter
	}
	var parsed struct {
		Matches []Match `json:"matches"`
	}
	if err := p.post(ctx, "/query", payload, &parsed); err != nil {
		return nil, err
	}
	return parsed.Matches, nil
}

// Stats fetches index-level statistics.
func (p *PineconeIndex) Stats(ctx context.Context) (IndexStats, error) {
	var parsed IndexStats
	if err := p.post(ctx, "/describe_index_stats", map[string]any{}, &parsed); err != nil {
		return IndexStats{}, err
	}
	return parsed, nil
}

func (p *PineconeIndex) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)

	resp, err := httputil.DoWithRetry(ctx, p.client, req, 3)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
