// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bulk runs a source's fixed strategic query panel against a
// caller topic, merges the per-query results, and deduplicates them by
// natural key.
package bulk

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// PanelPause is the minimum politeness interval between panel
// sub-queries, protecting upstream rate limits. It is a hard-coded
// minimum, not caller configuration; tests override it to avoid real
// sleeps.
var PanelPause = 500 * time.Millisecond

// Source is a search adapter the aggregator can drive. Both the PubMed
// and the ClinicalTrials.gov adapters implement it.
type Source interface {
	Name() string

	// Panel returns the fixed, ordered strategic sub-query list.
	Panel() []string

	// CombineQuery merges the caller topic with one panel entry into
	// the provider query string.
	CombineQuery(topic, sub string) string

	// Search returns normalized documents; it degrades to an empty
	// result on failure and never returns an error.
	Search(ctx context.Context, query string, maxResults int) []types.Document
}

// Search iterates the source's panel sequentially, annotates each result
// with its originating sub-query and topic, and deduplicates the merged
// sequence by natural key: the first occurrence in panel order wins and
// insertion order is preserved. A failed sub-query (the adapter already
// returns empty on error) never aborts the panel. Search never returns
// an error; context cancellation stops the panel early and returns what
// has been accumulated.
func Search(ctx context.Context, src Source, topic string, perQueryCap int, log zerolog.Logger) []types.Document {
	log = log.With().Str("source", src.Name()).Str("topic", topic).Logger()
	limiter := rate.NewLimiter(rate.Every(PanelPause), 1)

	var all []types.Document
	for _, sub := range src.Panel() {
		if err := limiter.Wait(ctx); err != nil {
			log.Warn().Err(err).Msg("panel interrupted")
			break
		}

		results := src.Search(ctx, src.CombineQuery(topic, sub), perQueryCap)
		for i := range results {
			results[i].SearchQuery = sub
			results[i].Topic = topic
		}
		all = append(all, results...)

		log.Debug().Str("subquery", sub).Int("results", len(results)).Msg("panel entry done")
	}

	deduped, removed := deduplicate(all)
	log.Info().Int("results", len(deduped)).Int("duplicates_removed", removed).Msg("bulk search complete")
	return deduped
}

// deduplicate drops later occurrences of each natural key, keeping
// first-seen order. Documents without a provider id cannot be keyed and
// are dropped.
func deduplicate(docs []types.Document) ([]types.Document, int) {
	seen := make(map[string]struct{}, len(docs))
	var unique []types.Document
	removed := 0

	for _, doc := range docs {
		key := doc.Key()
		if key == "" {
			removed++
			continue
		}
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, doc)
	}
	return unique, removed
}
