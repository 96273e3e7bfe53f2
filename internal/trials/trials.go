// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials queries the ClinicalTrials.gov v2 API and normalizes
// study records into unified documents.
package trials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/internal/httputil"
	"github.com/pdiddy/insights-engine/pkg/types"
)

// studiesBase is the ClinicalTrials.gov studies endpoint. Declared as a
// var so tests can substitute an httptest server.
var studiesBase = "https://clinicaltrials.gov/api/v2/studies"

// maxPageSize is the provider's hard page-size ceiling. Caller input is
// capped here regardless of what was asked for.
const maxPageSize = 1000

// strategicQueries is the fixed panel of thematic sub-queries the bulk
// aggregator combines with a caller topic. Order matters: dedup keeps
// the first panel entry that produced a given NCT id.
var strategicQueries = []string{
	"real-world evidence",
	"observational study",
	"registry study",
	"post-marketing surveillance",
	"comparative effectiveness",
	"patient-reported outcomes",
	"health economics",
	"real-world data",
	"pragmatic trial",
	"effectiveness study",
	"safety surveillance",
	"outcomes research",
}

// Filters holds the recognized structured search parameters. Each field
// maps 1:1 to a provider query parameter; zero values are omitted.
type Filters struct {
	Condition    string `json:"condition,omitempty"`
	Intervention string `json:"intervention,omitempty"`
	Phase        string `json:"phase,omitempty"`
	Status       string `json:"status,omitempty"`
	Sponsor      string `json:"sponsor,omitempty"`
	MaxResults   int    `json:"max_results,omitempty"`
}

// Adapter queries ClinicalTrials.gov with a single call per search. All
// static configuration is set at construction and never mutated.
type Adapter struct {
	client *http.Client
	cfg    types.TrialsConfig
	log    zerolog.Logger
}

// New returns a ClinicalTrials.gov adapter. A zero Timeout defaults to 30 s.
func New(cfg types.TrialsConfig, log zerolog.Logger) *Adapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
		log:    log.With().Str("adapter", "clinicaltrials").Logger(),
	}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "clinicaltrials" }

// Panel returns the fixed strategic query panel in order.
func (a *Adapter) Panel() []string {
	panel := make([]string, len(strategicQueries))
	copy(panel, strategicQueries)
	return panel
}

// CombineQuery builds the bulk query string for one panel entry. Panel
// entries are plain terms, so no grouping is needed.
func (a *Adapter) CombineQuery(topic, sub string) string {
	return fmt.Sprintf("%s AND %s", topic, sub)
}

// Search queries ClinicalTrials.gov and returns normalized documents.
// The page size sent upstream is capped at the provider ceiling (1000);
// the returned set is truncated to maxResults client-side because the
// provider page may exceed what the caller asked for. Transport, HTTP,
// and parse failures are logged and degrade to an empty result.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) []types.Document {
	pageSize := maxResults
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if pageSize < 0 {
		pageSize = 0
	}

	params := url.Values{
		"query.term": {query},
		"pageSize":   {fmt.Sprintf("%d", pageSize)},
		"format":     {"json"},
	}

	docs, err := a.fetch(ctx, params, maxResults)
	if err != nil {
		a.log.Error().Err(err).Str("query", query).Msg("clinicaltrials search failed")
		return nil
	}
	return docs
}

// SearchWithFilters queries with structured filter parameters instead of
// a free-text term. Same fail-soft contract as Search.
func (a *Adapter) SearchWithFilters(ctx context.Context, filters Filters) []types.Document {
	maxResults := filters.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}
	if maxResults > maxPageSize {
		maxResults = maxPageSize
	}

	params := url.Values{
		"format":   {"json"},
		"pageSize": {fmt.Sprintf("%d", maxResults)},
	}
	if filters.Condition != "" {
		params.Set("query.cond", filters.Condition)
	}
	if filters.Intervention != "" {
		params.Set("query.intr", filters.Intervention)
	}
	if filters.Phase != "" {
		params.Set("query.phase", filters.Phase)
	}
	if filters.Status != "" {
		params.Set("query.status", filters.Status)
	}
	if filters.Sponsor != "" {
		params.Set("query.spons", filters.Sponsor)
	}

	docs, err := a.fetch(ctx, params, maxResults)
	if err != nil {
		a.log.Error().Err(err).Msg("clinicaltrials filter search failed")
		return nil
	}
	return docs
}

func (a *Adapter) fetch(ctx context.Context, params url.Values, maxResults int) ([]types.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, studiesBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 3)
	if err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClinicalTrials.gov returned HTTP %d", resp.StatusCode)
	}

	var page studiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing studies response: %w", err)
	}

	studies := page.Studies
	if maxResults >= 0 && len(studies) > maxResults {
		studies = studies[:maxResults]
	}

	var docs []types.Document
	for _, study := range studies {
		doc, ok := normalizeStudy(study)
		if !ok {
			a.log.Warn().Msg("skipping study without NCT id")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
