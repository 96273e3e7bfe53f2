// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/pkg/types"
)

// fakeEmbedder returns a fixed vector and optionally fails at the nth
// call (1-based).
type fakeEmbedder struct {
	calls  int
	failAt int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return nil, fmt.Errorf("embedding provider unavailable")
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

// fakeIndex records upserts and replays scripted query results.
type fakeIndex struct {
	upserts   [][]Vector
	upsertErr error
	matches   []Match
	queryErr  error
	stats     IndexStats
	statsErr  error
}

func (f *fakeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]Vector, len(vectors))
	copy(batch, vectors)
	f.upserts = append(f.upserts, batch)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float64, topK int, filter map[string]any) ([]Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (IndexStats, error) {
	return f.stats, f.statsErr
}

func testGateway(embedder Embedder, index Index) *Gateway {
	return NewWithBackends(embedder, index, zerolog.Nop())
}

func makeDocs(n int) []types.Document {
	docs := make([]types.Document, n)
	for i := range docs {
		docs[i] = types.Document{
			ID:     fmt.Sprintf("NCT%04d", i),
			Source: types.SourceClinicalTrials,
			Title:  fmt.Sprintf("Study %d", i),
		}
	}
	return docs
}

func TestGatewayDegradedWithoutCredentials(t *testing.T) {
	g := New(types.VectorConfig{}, zerolog.Nop())
	if g.Ready() {
		t.Fatal("expected gateway without credentials to be degraded")
	}

	ctx := context.Background()
	if g.IndexDocuments(ctx, makeDocs(1)) {
		t.Error("expected degraded IndexDocuments to return false")
	}
	if results := g.SimilaritySearch(ctx, "anything", 5, nil); len(results) != 0 {
		t.Errorf("expected degraded search to return no results, got %d", len(results))
	}
	if stats := g.IndexStats(ctx); stats.Error == "" {
		t.Error("expected degraded stats to carry an error message")
	}
}

func TestGatewayReadyWithCredentials(t *testing.T) {
	cfg := types.VectorConfig{
		OpenAIAPIKey:   "sk-test",
		PineconeAPIKey: "pc-test",
		PineconeHost:   "https://example-index.svc.pinecone.io",
	}
	if g := New(cfg, zerolog.Nop()); !g.Ready() {
		t.Error("expected gateway with full credentials to be ready")
	}
}

func TestIndexDocumentsBatchesUpserts(t *testing.T) {
	index := &fakeIndex{}
	g := testGateway(&fakeEmbedder{}, index)

	if !g.IndexDocuments(context.Background(), makeDocs(250)) {
		t.Fatal("expected indexing to succeed")
	}

	sizes := make([]int, len(index.upserts))
	for i, batch := range index.upserts {
		sizes[i] = len(batch)
	}
	want := []int{100, 100, 50}
	if len(sizes) != len(want) {
		t.Fatalf("expected %d upsert batches, got %v", len(want), sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("batch %d: expected %d vectors, got %d", i, want[i], sizes[i])
		}
	}

	first := index.upserts[0][0]
	if first.ID != "NCT0000_0" {
		t.Errorf("expected vector id NCT0000_0, got %q", first.ID)
	}
	if first.Metadata["source"] != "clinicaltrials" {
		t.Errorf("expected source metadata, got %v", first.Metadata["source"])
	}
	if first.Metadata["nct_id"] != "NCT0000" {
		t.Errorf("expected nct_id metadata, got %v", first.Metadata["nct_id"])
	}
	if first.Metadata["chunk_index"] != 0 || first.Metadata["total_chunks"] != 1 {
		t.Errorf("expected chunk bookkeeping metadata, got %v", first.Metadata)
	}
	if first.Metadata["content"] != "Title: Study 0" {
		t.Errorf("expected chunk content in metadata, got %v", first.Metadata["content"])
	}
}

func TestIndexDocumentsPubMedMetadata(t *testing.T) {
	index := &fakeIndex{}
	g := testGateway(&fakeEmbedder{}, index)

	docs := []types.Document{{
		ID:       "12345",
		Source:   types.SourcePubMed,
		Title:    "Registry outcomes",
		Abstract: "A registry analysis.",
		Journal:  "J Clin Res",
		Authors:  []string{"A One", "B Two", "C Three", "D Four"},
	}}
	if !g.IndexDocuments(context.Background(), docs) {
		t.Fatal("expected indexing to succeed")
	}

	meta := index.upserts[0][0].Metadata
	if meta["pmid"] != "12345" {
		t.Errorf("expected pmid metadata, got %v", meta["pmid"])
	}
	if meta["journal"] != "J Clin Res" {
		t.Errorf("expected journal metadata, got %v", meta["journal"])
	}
	if meta["authors"] != "A One, B Two, C Three" {
		t.Errorf("expected first three authors, got %v", meta["authors"])
	}
}

func TestIndexDocumentsEmbedFailureKeepsEarlierBatches(t *testing.T) {
	index := &fakeIndex{}
	g := testGateway(&fakeEmbedder{failAt: 150}, index)

	if g.IndexDocuments(context.Background(), makeDocs(250)) {
		t.Fatal("expected indexing to fail when embedding fails")
	}
	if len(index.upserts) != 1 || len(index.upserts[0]) != 100 {
		t.Fatalf("expected the one full batch before the failure to stay written, got %d batches", len(index.upserts))
	}
}

func TestIndexDocumentsUpsertFailure(t *testing.T) {
	index := &fakeIndex{upsertErr: fmt.Errorf("index unavailable")}
	g := testGateway(&fakeEmbedder{}, index)

	if g.IndexDocuments(context.Background(), makeDocs(3)) {
		t.Error("expected indexing to fail when upsert fails")
	}
}

func TestIndexDocumentsSkipsDocumentsWithoutText(t *testing.T) {
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	g := testGateway(embedder, index)

	docs := []types.Document{
		{ID: "empty", Source: types.SourceClinicalTrials},
		{ID: "NCT001", Source: types.SourceClinicalTrials, Title: "Real study"},
	}
	if !g.IndexDocuments(context.Background(), docs) {
		t.Fatal("expected indexing to succeed")
	}
	if embedder.calls != 1 {
		t.Errorf("expected 1 embed call for the one indexable document, got %d", embedder.calls)
	}
}

func TestSimilaritySearchShapesResults(t *testing.T) {
	index := &fakeIndex{matches: []Match{
		{
			ID:    "12345_0",
			Score: 0.93,
			Metadata: map[string]any{
				"content": "Title: Registry outcomes",
				"source":  "pubmed",
			},
		},
		{ID: "NCT001_0", Score: 0.81, Metadata: nil},
	}}
	g := testGateway(&fakeEmbedder{}, index)

	results := g.SimilaritySearch(context.Background(), "registry outcomes", 5, nil)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "Title: Registry outcomes" {
		t.Errorf("expected content lifted from metadata, got %q", results[0].Content)
	}
	if results[1].Metadata == nil {
		t.Error("expected missing metadata to become an empty map")
	}
	if results[1].Content != "" {
		t.Errorf("expected empty content for metadata-free match, got %q", results[1].Content)
	}
}

func TestSimilaritySearchFailuresDegradeToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		embedder Embedder
		index    Index
	}{
		{"embed failure", &fakeEmbedder{failAt: 1}, &fakeIndex{}},
		{"query failure", &fakeEmbedder{}, &fakeIndex{queryErr: fmt.Errorf("index unavailable")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGateway(tt.embedder, tt.index)
			results := g.SimilaritySearch(context.Background(), "anything", 5, nil)
			if results == nil || len(results) != 0 {
				t.Errorf("expected empty non-nil results, got %v", results)
			}
		})
	}
}

func TestSimilaritySearchIsRepeatable(t *testing.T) {
	index := &fakeIndex{matches: []Match{{ID: "a_0", Score: 0.5, Metadata: map[string]any{"content": "x"}}}}
	g := testGateway(&fakeEmbedder{}, index)

	first := g.SimilaritySearch(context.Background(), "q", 3, nil)
	second := g.SimilaritySearch(context.Background(), "q", 3, nil)
	if len(first) != len(second) || first[0].ID != second[0].ID || first[0].Score != second[0].Score {
		t.Errorf("expected identical results across calls, got %v then %v", first, second)
	}
}

func TestIndexStats(t *testing.T) {
	index := &fakeIndex{stats: IndexStats{
		TotalVectors:  1234,
		Dimension:     1536,
		IndexFullness: 0.01,
	}}
	g := testGateway(&fakeEmbedder{}, index)

	stats := g.IndexStats(context.Background())
	if stats.Error != "" {
		t.Fatalf("unexpected stats error: %s", stats.Error)
	}
	if stats.TotalVectors != 1234 || stats.Dimension != 1536 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestIndexStatsErrorShaped(t *testing.T) {
	index := &fakeIndex{statsErr: fmt.Errorf("index unavailable")}
	g := testGateway(&fakeEmbedder{}, index)

	if stats := g.IndexStats(context.Background()); stats.Error != "index unavailable" {
		t.Errorf("expected error-shaped stats, got %+v", stats)
	}
}
