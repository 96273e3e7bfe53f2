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

// openaiBase is the embeddings API root. Declared as a var so tests can
// substitute an httptest server.
var openaiBase = "https://api.openai.com/v1"

const defaultEmbedModel = "text-embedding-3-small"

// Embedder turns a piece of text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client    *http.Client
	apiKey    string
	model     string
	userAgent string
}

// NewOpenAIEmbedder builds an embedder from the vector configuration.
func NewOpenAIEmbedder(cfg types.VectorConfig) *OpenAIEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	model := cfg.EmbedModel
	if model == "" {
		model = defaultEmbedModel
	}
	return &OpenAIEmbedder{
		client:    &http.Client{Timeout: timeout},
		apiKey:    cfg.OpenAIAPIKey,
		model:     model,
		userAgent: cfg.UserAgent,
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed requests a single embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("encoding embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiBase+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, e.client, req, 3)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings endpoint returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contained no data")
	}
	return parsed.Data[0].Embedding, nil
}
