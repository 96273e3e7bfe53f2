// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"net/http"

	"github.com/pdiddy/insights-engine/internal/bulk"
	"github.com/pdiddy/insights-engine/internal/docstore"
	"github.com/pdiddy/insights-engine/internal/trials"
	"github.com/pdiddy/insights-engine/pkg/types"
)

const (
	defaultMaxResults = 10
	defaultTopK       = 5
	defaultBulkTopic  = "real-world evidence"
)

// searchResponse is the envelope every search endpoint returns.
type searchResponse struct {
	Success bool   `json:"success"`
	Query   string `json:"query,omitempty"`
	Results any    `json:"results"`
	Count   int    `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Insights Engine API",
		"status":  "running",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":                "/health",
			"pubmed_search":         "/api/pubmed/search",
			"clinicaltrials_search": "/api/clinicaltrials/search",
			"clinicaltrials_filter": "/api/clinicaltrials/filter",
			"bulk_strategic_search": "/api/bulk/strategic-search",
			"vector_search":         "/api/vector/search",
			"vector_index":          "/api/vector/index",
			"vector_stats":          "/api/vector/stats",
			"documents_search":      "/api/documents/search",
			"documents_stats":       "/api/documents/stats",
			"metrics":               "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vectorStatus := "available"
	if !s.vectors.Ready() {
		vectorStatus = "degraded"
	}
	storeStatus := "available"
	if s.store == nil {
		storeStatus = "disabled"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"services": map[string]string{
			"pubmed":         "available",
			"clinicaltrials": "available",
			"vector_db":      vectorStatus,
			"document_store": storeStatus,
		},
	})
}

type sourceSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (s *Server) handleSourceSearch(w http.ResponseWriter, r *http.Request, src Searcher) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req sourceSearchRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}

	results := src.Search(r.Context(), req.Query, req.MaxResults)
	if results == nil {
		results = []types.Document{}
	}
	s.metrics.SearchesTotal.WithLabelValues(src.Name()).Inc()
	s.metrics.DocumentsFetched.WithLabelValues(src.Name()).Add(float64(len(results)))
	s.cacheDocuments(r, results)

	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handlePubMedSearch(w http.ResponseWriter, r *http.Request) {
	s.handleSourceSearch(w, r, s.pubmed)
}

func (s *Server) handleTrialsSearch(w http.ResponseWriter, r *http.Request) {
	s.handleSourceSearch(w, r, s.trials)
}

func (s *Server) handleTrialsFilter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Unknown body keys are ignored by the decoder.
	var filters trials.Filters
	json.NewDecoder(r.Body).Decode(&filters)

	results := s.trials.SearchWithFilters(r.Context(), filters)
	if results == nil {
		results = []types.Document{}
	}
	s.metrics.SearchesTotal.WithLabelValues("clinicaltrials_filter").Inc()
	s.metrics.DocumentsFetched.WithLabelValues(s.trials.Name()).Add(float64(len(results)))
	s.cacheDocuments(r, results)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"filters": filters,
		"results": results,
		"count":   len(results),
	})
}

type bulkSearchRequest struct {
	Topic               string `json:"topic"`
	MaxResultsPerSource int    `json:"max_results_per_source"`
}

func (s *Server) handleBulkSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req bulkSearchRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Topic == "" {
		req.Topic = defaultBulkTopic
	}
	if req.MaxResultsPerSource <= 0 {
		req.MaxResultsPerSource = defaultMaxResults
	}

	ctx := r.Context()
	pubmedResults := bulk.Search(ctx, s.pubmed, req.Topic, req.MaxResultsPerSource, s.log)
	trialResults := bulk.Search(ctx, s.trials, req.Topic, req.MaxResultsPerSource, s.log)
	if pubmedResults == nil {
		pubmedResults = []types.Document{}
	}
	if trialResults == nil {
		trialResults = []types.Document{}
	}

	s.metrics.SearchesTotal.WithLabelValues("bulk").Inc()
	s.metrics.DocumentsFetched.WithLabelValues(s.pubmed.Name()).Add(float64(len(pubmedResults)))
	s.metrics.DocumentsFetched.WithLabelValues(s.trials.Name()).Add(float64(len(trialResults)))
	s.cacheDocuments(r, pubmedResults)
	s.cacheDocuments(r, trialResults)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"topic":                  req.Topic,
		"pubmed_results":         pubmedResults,
		"clinicaltrials_results": trialResults,
		"total_count":            len(pubmedResults) + len(trialResults),
	})
}

type vectorSearchRequest struct {
	Query  string         `json:"query"`
	K      int            `json:"k"`
	Filter map[string]any `json:"filter"`
}

func (s *Server) handleVectorSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req vectorSearchRequest
	json.NewDecoder(r.Body).Decode(&req)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.K <= 0 {
		req.K = defaultTopK
	}

	results := s.vectors.SimilaritySearch(r.Context(), req.Query, req.K, req.Filter)
	s.metrics.SearchesTotal.WithLabelValues("vector").Inc()

	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

type vectorIndexRequest struct {
	Documents []types.Document `json:"documents"`
}

func (s *Server) handleVectorIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req vectorIndexRequest
	json.NewDecoder(r.Body).Decode(&req)
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "Documents are required")
		return
	}

	ok := s.vectors.IndexDocuments(r.Context(), req.Documents)
	s.metrics.VectorsIndexed.Inc()

	writeJSON(w, http.StatusOK, map[string]any{
		"success": ok,
		"count":   len(req.Documents),
	})
}

func (s *Server) handleVectorStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.vectors.IndexStats(r.Context()))
}

type documentsSearchRequest struct {
	Query      string `json:"query"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	Topic      string `json:"topic"`
	MaxResults int    `json:"max_results"`
}

func (s *Server) handleDocumentsSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Document store disabled")
		return
	}

	var req documentsSearchRequest
	json.NewDecoder(r.Body).Decode(&req)

	results, err := s.store.Search(r.Context(), docstore.QueryOptions{
		Query:      req.Query,
		Source:     types.DocumentSource(req.Source),
		Status:     req.Status,
		Topic:      req.Topic,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("document cache search failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if results == nil {
		results = []types.Document{}
	}

	s.metrics.SearchesTotal.WithLabelValues("documents").Inc()
	writeJSON(w, http.StatusOK, searchResponse{
		Success: true,
		Query:   req.Query,
		Results: results,
		Count:   len(results),
	})
}

func (s *Server) handleDocumentsStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Document store disabled")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("document cache stats failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// cacheDocuments saves fetched documents to the cache. Failures log;
// the response is already committed to the fetched results.
func (s *Server) cacheDocuments(r *http.Request, docs []types.Document) {
	if s.store == nil || len(docs) == 0 {
		return
	}
	if _, err := s.store.Save(r.Context(), docs); err != nil {
		s.log.Error().Err(err).Int("count", len(docs)).Msg("caching documents failed")
	}
}
