// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities API and normalizes PubMed
// articles into unified documents.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/internal/httputil"
	"github.com/pdiddy/insights-engine/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	esearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	efetchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
)

// strategicQueries is the fixed panel of sub-queries the bulk aggregator
// combines with a caller topic. Each entry is itself a boolean expression,
// so the combined form is "topic AND (entry)". Order matters: dedup keeps
// the first panel entry that produced a given PMID.
var strategicQueries = []string{
	"real-world evidence AND registry",
	"cost-effectiveness AND real-world evidence",
	"patient-reported outcomes AND real-world evidence",
	"comparative effectiveness research AND real-world data",
	"real-world evidence AND regulatory approval",
	"observational study AND real-world evidence",
	"real-world evidence AND clinical trials",
	"health economics AND real-world evidence",
	"real-world evidence AND drug safety",
	"real-world evidence AND treatment effectiveness",
	"real-world evidence AND healthcare utilization",
	"real-world evidence AND patient outcomes",
}

// Adapter queries PubMed through the two-phase E-utilities protocol:
// esearch for PMIDs, then efetch for article detail records. All static
// configuration is set at construction and never mutated.
type Adapter struct {
	client *http.Client
	cfg    types.PubMedConfig
	log    zerolog.Logger
}

// New returns a PubMed adapter. A zero Timeout defaults to 30 s.
func New(cfg types.PubMedConfig, log zerolog.Logger) *Adapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
		log:    log.With().Str("adapter", "pubmed").Logger(),
	}
}

// Name returns the adapter identifier.
func (a *Adapter) Name() string { return "pubmed" }

// Panel returns the fixed strategic query panel in order.
func (a *Adapter) Panel() []string {
	panel := make([]string, len(strategicQueries))
	copy(panel, strategicQueries)
	return panel
}

// CombineQuery builds the bulk query string for one panel entry. Panel
// entries are boolean expressions, so they are grouped in parentheses.
func (a *Adapter) CombineQuery(topic, sub string) string {
	return fmt.Sprintf("%s AND (%s)", topic, sub)
}

// Search queries PubMed and returns normalized documents. Transport,
// HTTP-status, and parse failures are logged and degrade to an empty
// result; Search never returns an error to the caller.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) []types.Document {
	docs, err := a.search(ctx, query, maxResults)
	if err != nil {
		a.log.Error().Err(err).Str("query", query).Msg("pubmed search failed")
		return nil
	}
	return docs
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]types.Document, error) {
	if maxResults < 0 {
		maxResults = 0
	}

	pmids, err := a.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return nil, nil
	}
	return a.fetchDetails(ctx, pmids)
}

// searchIDs runs the esearch phase and returns up to maxResults PMIDs.
func (a *Adapter) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
		"retmode": {"xml"},
	}
	a.addCredentials(params)

	body, err := a.get(ctx, esearchBase, params)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}
	defer body.Close()

	var result esearchResult
	if err := xml.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}
	return result.IDs, nil
}

// fetchDetails runs the efetch phase for the given PMIDs and normalizes
// each article independently. A malformed record is logged and skipped;
// it does not fail the batch.
func (a *Adapter) fetchDetails(ctx context.Context, pmids []string) ([]types.Document, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"xml"},
	}
	a.addCredentials(params)

	body, err := a.get(ctx, efetchBase, params)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}
	defer body.Close()

	var set articleSet
	if err := xml.NewDecoder(body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	var docs []types.Document
	for _, article := range set.Articles {
		doc, ok := normalizeArticle(article)
		if !ok {
			a.log.Warn().Msg("skipping article without PMID")
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (a *Adapter) addCredentials(params url.Values) {
	if a.cfg.Email != "" {
		params.Set("email", a.cfg.Email)
	}
	if a.cfg.APIKey != "" {
		params.Set("api_key", a.cfg.APIKey)
	}
}

func (a *Adapter) get(ctx context.Context, base string, params url.Values) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.client, req, 3)
	if err != nil {
		return nil, fmt.Errorf("E-utilities request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}
