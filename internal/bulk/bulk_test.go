// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bulk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/pkg/types"
)

func init() {
	// Disable the politeness pause in tests.
	PanelPause = 0
}

// fakeSource replays scripted results per panel entry and records the
// combined queries it was asked to run.
type fakeSource struct {
	panel   []string
	results map[string][]types.Document // panel entry → results
	queries []string
}

func (f *fakeSource) Name() string    { return "fake" }
func (f *fakeSource) Panel() []string { return f.panel }

func (f *fakeSource) CombineQuery(topic, sub string) string {
	return topic + " AND " + sub
}

func (f *fakeSource) Search(_ context.Context, query string, _ int) []types.Document {
	f.queries = append(f.queries, query)
	for sub, docs := range f.results {
		if query == "diabetes AND "+sub {
			// Return copies so provenance attachment cannot leak into
			// the script.
			out := make([]types.Document, len(docs))
			copy(out, docs)
			return out
		}
	}
	return nil
}

func trialDoc(id string) types.Document {
	return types.Document{
		ID:     id,
		Source: types.SourceClinicalTrials,
		Title:  "Trial " + id,
	}
}

func TestSearchDeduplicatesFirstWins(t *testing.T) {
	src := &fakeSource{
		panel: []string{"registry study", "observational study", "pragmatic trial"},
		results: map[string][]types.Document{
			"registry study":      {trialDoc("NCT001"), trialDoc("NCT002")},
			"observational study": {trialDoc("NCT001"), trialDoc("NCT003")},
			"pragmatic trial":     {trialDoc("NCT002")},
		},
	}

	docs := Search(context.Background(), src, "diabetes", 5, zerolog.Nop())

	if len(docs) != 3 {
		t.Fatalf("len(docs) = %d, want 3", len(docs))
	}

	// First-seen order across the panel is preserved.
	wantOrder := []string{"NCT001", "NCT002", "NCT003"}
	for i, want := range wantOrder {
		if docs[i].ID != want {
			t.Errorf("docs[%d].ID = %q, want %q", i, docs[i].ID, want)
		}
	}

	// The surviving NCT001 carries the first panel entry that produced it.
	if docs[0].SearchQuery != "registry study" {
		t.Errorf("docs[0].SearchQuery = %q, want %q", docs[0].SearchQuery, "registry study")
	}
}

func TestSearchAttachesProvenance(t *testing.T) {
	src := &fakeSource{
		panel: []string{"registry study"},
		results: map[string][]types.Document{
			"registry study": {trialDoc("NCT010")},
		},
	}

	docs := Search(context.Background(), src, "diabetes", 5, zerolog.Nop())
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}
	if docs[0].SearchQuery != "registry study" {
		t.Errorf("SearchQuery = %q", docs[0].SearchQuery)
	}
	if docs[0].Topic != "diabetes" {
		t.Errorf("Topic = %q", docs[0].Topic)
	}
}

func TestSearchRunsFullPanelDespiteEmptyEntries(t *testing.T) {
	panel := make([]string, 12)
	for i := range panel {
		panel[i] = fmt.Sprintf("entry-%d", i)
	}
	src := &fakeSource{
		panel: panel,
		results: map[string][]types.Document{
			"entry-11": {trialDoc("NCT099")},
		},
	}

	docs := Search(context.Background(), src, "diabetes", 5, zerolog.Nop())

	if len(src.queries) != 12 {
		t.Errorf("queries issued = %d, want 12", len(src.queries))
	}
	if src.queries[0] != "diabetes AND entry-0" {
		t.Errorf("queries[0] = %q", src.queries[0])
	}
	if len(docs) != 1 || docs[0].ID != "NCT099" {
		t.Errorf("docs = %v, want single NCT099", docs)
	}
}

func TestSearchDropsDocumentsWithoutID(t *testing.T) {
	src := &fakeSource{
		panel: []string{"registry study"},
		results: map[string][]types.Document{
			"registry study": {trialDoc(""), trialDoc("NCT001")},
		},
	}

	docs := Search(context.Background(), src, "diabetes", 5, zerolog.Nop())
	if len(docs) != 1 || docs[0].ID != "NCT001" {
		t.Errorf("docs = %v, want only NCT001", docs)
	}
}

func TestSearchStopsOnCancelledContext(t *testing.T) {
	old := PanelPause
	PanelPause = 50 * time.Millisecond
	defer func() { PanelPause = old }()

	src := &fakeSource{
		panel: []string{"a", "b", "c", "d"},
		results: map[string][]types.Document{
			"a": {trialDoc("NCT001")},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	docs := Search(ctx, src, "diabetes", 5, zerolog.Nop())

	// The panel stops early but already-accumulated results survive.
	if len(src.queries) >= 4 {
		t.Errorf("queries issued = %d, want fewer than the full panel", len(src.queries))
	}
	if len(docs) != 1 || docs[0].ID != "NCT001" {
		t.Errorf("docs = %v, want accumulated NCT001", docs)
	}
}

func TestDeduplicateKeysBySourceAndID(t *testing.T) {
	docs := []types.Document{
		{ID: "1", Source: types.SourcePubMed},
		{ID: "1", Source: types.SourceClinicalTrials},
		{ID: "1", Source: types.SourcePubMed},
	}
	unique, removed := deduplicate(docs)
	// Same id under different sources is two distinct natural keys.
	if len(unique) != 2 {
		t.Errorf("len(unique) = %d, want 2", len(unique))
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
}
