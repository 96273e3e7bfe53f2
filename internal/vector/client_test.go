// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/insights-engine/pkg/types"
)

func TestOpenAIEmbedderParsesEmbedding(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("expected default model, got %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{0.5, 0.25}}},
		})
	}))
	defer server.Close()

	oldBase := openaiBase
	openaiBase = server.URL
	t.Cleanup(func() { openaiBase = oldBase })

	embedder := NewOpenAIEmbedder(types.VectorConfig{OpenAIAPIKey: "sk-test"})
	embedding, err := embedder.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(embedding) != 2 || embedding[0] != 0.5 {
		t.Errorf("unexpected embedding %v", embedding)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("expected bearer auth header, got %q", auth)
	}
}

func TestOpenAIEmbedderEmptyDataIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	defer server.Close()

	oldBase := openaiBase
	openaiBase = server.URL
	t.Cleanup(func() { openaiBase = oldBase })

	embedder := NewOpenAIEmbedder(types.VectorConfig{OpenAIAPIKey: "sk-test"})
	if _, err := embedder.Embed(context.Background(), "some text"); err == nil {
		t.Error("expected error for response without embeddings")
	}
}

func TestPineconeIndexRoundTrips(t *testing.T) {
	var apiKey string
	var queryBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("Api-Key")
		switch r.URL.Path {
		case "/vectors/upsert":
			var req struct {
				Vectors []Vector `json:"vectors"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decoding upsert: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(req.Vectors)})
		case "/query":
			if err := json.NewDecoder(r.Body).Decode(&queryBody); err != nil {
				t.Fatalf("decoding query: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"matches": []map[string]any{
					{"id": "a_0", "score": 0.9, "metadata": map[string]any{"content": "x"}},
				},
			})
		case "/describe_index_stats":
			json.NewEncoder(w).Encode(map[string]any{
				"totalVectorCount": 42,
				"dimension":        1536,
				"indexFullness":    0.001,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	index := NewPineconeIndex(types.VectorConfig{
		PineconeAPIKey: "pc-test",
		PineconeHost:   server.URL,
	})
	ctx := context.Background()

	if err := index.Upsert(ctx, []Vector{{ID: "a_0", Values: []float64{0.1}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if apiKey != "pc-test" {
		t.Errorf("expected Api-Key header, got %q", apiKey)
	}

	matches, err := index.Query(ctx, []float64{0.1}, 5, map[string]any{"source": "pubmed"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "a_0" {
		t.Errorf("unexpected matches %v", matches)
	}
	if queryBody["topK"] != float64(5) {
		t.Errorf("expected topK 5 in request, got %v", queryBody["topK"])
	}
	if queryBody["includeMetadata"] != true {
		t.Error("expected includeMetadata in request")
	}
	if _, ok := queryBody["filter"]; !ok {
		t.Error("expected filter forwarded in request")
	}

	stats, err := index.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalVectors != 42 || stats.Dimension != 1536 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestPineconeIndexUpsertCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"upsertedCount": 0})
	}))
	defer server.Close()

	index := NewPineconeIndex(types.VectorConfig{PineconeAPIKey: "k", PineconeHost: server.URL})
	if err := index.Upsert(context.Background(), []Vector{{ID: "a"}}); err == nil {
		t.Error("expected error when upserted count does not match")
	}
}
