// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vector indexes normalized documents into a vector store and
// answers similarity searches over them. A Gateway built without
// credentials still constructs; every operation then logs and returns
// an empty result instead of failing.
package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// upsertBatchSize caps how many vectors one upsert call carries.
const upsertBatchSize = 100

// SearchResult is one similarity-search hit in API shape.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
	Content  string         `json:"content"`
}

// StatsResult reports index statistics, or the reason they are
// unavailable.
type StatsResult struct {
	TotalVectors  int            `json:"total_vectors"`
	Dimension     int            `json:"dimension"`
	IndexFullness float64        `json:"index_fullness"`
	Namespaces    map[string]any `json:"namespaces,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Gateway chunks, embeds, and indexes documents.
type Gateway struct {
	embedder Embedder
	index    Index
	log      zerolog.Logger

	// unavailable holds the degraded-mode reason; empty means ready.
	unavailable string
}

// New builds a Gateway from configuration. Missing credentials do not
// fail construction; the gateway comes up degraded and says so once.
func New(cfg types.VectorConfig, log zerolog.Logger) *Gateway {
	g := &Gateway{log: log.With().Str("component", "vector").Logger()}

	switch {
	case cfg.OpenAIAPIKey == "":
		g.unavailable = "OpenAI API key not configured"
	case cfg.PineconeAPIKey == "" || cfg.PineconeHost == "":
		g.unavailable = "Pinecone credentials not configured"
	default:
		g.embedder = NewOpenAIEmbedder(cfg)
		g.index = NewPineconeIndex(cfg)
	}

	if g.unavailable != "" {
		g.log.Warn().Str("reason", g.unavailable).Msg("vector gateway running degraded")
	}
	return g
}

// NewWithBackends builds a Gateway on explicit backends.
func NewWithBackends(embedder Embedder, index Index, log zerolog.Logger) *Gateway {
	return &Gateway{
		embedder: embedder,
		index:    index,
		log:      log.With().Str("component", "vector").Logger(),
	}
}

// Ready reports whether the gateway has working backends.
func (g *Gateway) Ready() bool {
	return g.unavailable == ""
}

// IndexDocuments chunks, embeds, and upserts docs, reporting overall
// success. Vectors go up in batches; a failure partway through leaves
// the batches already written in place.
func (g *Gateway) IndexDocuments(ctx context.Context, docs []types.Document) bool {
	if g.unavailable != "" {
		g.log.Warn().Str("reason", g.unavailable).Msg("skipping indexing")
		return false
	}

	batch := make([]Vector, 0, upsertBatchSize)
	indexed := 0
	for _, doc := range docs {
		content := indexableText(doc)
		if content == "" {
			g.log.Debug().Str("key", doc.Key()).Msg("document has no indexable text")
			continue
		}

		chunks := splitText(content, chunkSize, chunkOverlap)
		for i, chunk := range chunks {
			embedding, err := g.embedder.Embed(ctx, chunk)
			if err != nil {
				g.log.Error().Err(err).Str("key", doc.Key()).Int("chunk", i).Msg("embedding failed")
				return false
			}
			batch = append(batch, Vector{
				ID:       fmt.Sprintf("%s_%d", doc.ID, i),
				Values:   embedding,
				Metadata: chunkMetadata(doc, chunk, i, len(chunks)),
			})
			if len(batch) == upsertBatchSize {
				if err := g.index.Upsert(ctx, batch); err != nil {
					g.log.Error().Err(err).Int("batch_size", len(batch)).Msg("upsert failed")
					return false
				}
				indexed += len(batch)
				batch = batch[:0]
			}
		}
	}

	if len(batch) > 0 {
		if err := g.index.Upsert(ctx, batch); err != nil {
			g.log.Error().Err(err).Int("batch_size", len(batch)).Msg("upsert failed")
			return false
		}
		indexed += len(batch)
	}

	g.log.Info().Int("documents", len(docs)).Int("vectors", indexed).Msg("indexed documents")
	return true
}

// SimilaritySearch embeds the query and returns the top k nearest
// chunks. Failures log and return an empty slice.
func (g *Gateway) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) []SearchResult {
	if g.unavailable != "" {
		g.log.Warn().Str("reason", g.unavailable).Msg("skipping similarity search")
		return []SearchResult{}
	}

	embedding, err := g.embedder.Embed(ctx, query)
	if err != nil {
		g.log.Error().Err(err).Str("query", query).Msg("embedding query failed")
		return []SearchResult{}
	}

	matches, err := g.index.Query(ctx, embedding, k, filter)
	if err != nil {
		g.log.Error().Err(err).Str("query", query).Msg("similarity search failed")
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		meta := m.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		content, _ := meta["content"].(string)
		results = append(results, SearchResult{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: meta,
			Content:  content,
		})
	}
	return results
}

// IndexStats reports index statistics. Failures come back as an
// error-shaped result rather than an error.
func (g *Gateway) IndexStats(ctx context.Context) StatsResult {
	if g.unavailable != "" {
		return StatsResult{Error: g.unavailable}
	}

	stats, err := g.index.Stats(ctx)
	if err != nil {
		g.log.Error().Err(err).Msg("fetching index stats failed")
		return StatsResult{Error: err.Error()}
	}
	return StatsResult{
		TotalVectors:  stats.TotalVectors,
		Dimension:     stats.Dimension,
		IndexFullness: stats.IndexFullness,
		Namespaces:    stats.Namespaces,
	}
}

// chunkMetadata packs the metadata stored alongside a chunk's vector.
func chunkMetadata(doc types.Document, chunk string, index, total int) map[string]any {
	meta := map[string]any{
		"content":      chunk,
		"source":       string(doc.Source),
		"title":        doc.Title,
		"chunk_index":  index,
		"total_chunks": total,
	}
	switch doc.Source {
	case types.SourcePubMed:
		meta["pmid"] = doc.ID
		if doc.Journal != "" {
			meta["journal"] = doc.Journal
		}
		if len(doc.Authors) > 0 {
			authors := doc.Authors
			if len(authors) > 3 {
				authors = authors[:3]
			}
			meta["authors"] = strings.Join(authors, ", ")
		}
	case types.SourceClinicalTrials:
		meta["nct_id"] = doc.ID
	}
	return meta
}
