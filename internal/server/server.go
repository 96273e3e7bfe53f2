// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the evidence aggregation services over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/insights-engine/internal/docstore"
	"github.com/pdiddy/insights-engine/internal/trials"
	"github.com/pdiddy/insights-engine/internal/vector"
	"github.com/pdiddy/insights-engine/pkg/types"
)

// Searcher is a literature source the server can query directly and
// through the strategic panel.
type Searcher interface {
	Name() string
	Panel() []string
	CombineQuery(topic, sub string) string
	Search(ctx context.Context, query string, maxResults int) []types.Document
}

// FilterSearcher additionally supports structured filter search.
type FilterSearcher interface {
	Searcher
	SearchWithFilters(ctx context.Context, f trials.Filters) []types.Document
}

// VectorService is the slice of the indexing gateway the server uses.
type VectorService interface {
	Ready() bool
	IndexDocuments(ctx context.Context, docs []types.Document) bool
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]any) []vector.SearchResult
	IndexStats(ctx context.Context) vector.StatsResult
}

// DocumentStore is the slice of the document cache the server uses. Nil
// disables caching.
type DocumentStore interface {
	Save(ctx context.Context, docs []types.Document) (int, error)
	Search(ctx context.Context, opts docstore.QueryOptions) ([]types.Document, error)
	Stats(ctx context.Context) (docstore.Stats, error)
}

// Server wires the adapters, the vector gateway, and the document cache
// behind the HTTP API.
type Server struct {
	pubmed  Searcher
	trials  FilterSearcher
	vectors VectorService
	store   DocumentStore
	log     zerolog.Logger
	metrics *Metrics
	reg     *prometheus.Registry
	addr    string
}

// New builds a Server. store may be nil when caching is disabled.
func New(cfg types.ServerConfig, pubmed Searcher, trials FilterSearcher, vectors VectorService, store DocumentStore, log zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		pubmed:  pubmed,
		trials:  trials,
		vectors: vectors,
		store:   store,
		log:     log.With().Str("component", "server").Logger(),
		metrics: NewMetrics(reg),
		reg:     reg,
		addr:    cfg.Addr,
	}
}

// Handler returns the full API handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/pubmed/search", s.handlePubMedSearch)
	mux.HandleFunc("/api/clinicaltrials/search", s.handleTrialsSearch)
	mux.HandleFunc("/api/clinicaltrials/filter", s.handleTrialsFilter)
	mux.HandleFunc("/api/bulk/strategic-search", s.handleBulkSearch)
	mux.HandleFunc("/api/vector/search", s.handleVectorSearch)
	mux.HandleFunc("/api/vector/index", s.handleVectorIndex)
	mux.HandleFunc("/api/vector/stats", s.handleVectorStats)
	mux.HandleFunc("/api/documents/search", s.handleDocumentsSearch)
	mux.HandleFunc("/api/documents/stats", s.handleDocumentsStats)
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	return s.corsMiddleware(s.observeMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", s.addr).Msg("starting API server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.metrics.RequestsInFlight.Inc()
		defer s.metrics.RequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.RecordRequest(r.URL.Path, strconv.Itoa(rec.status), duration)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
