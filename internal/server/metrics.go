// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics the API server records.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	DocumentsFetched *prometheus.CounterVec
	SearchesTotal    *prometheus.CounterVec
	VectorsIndexed   prometheus.Counter
}

// NewMetrics creates and registers the server metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insights_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "insights_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		DocumentsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_documents_fetched_total",
				Help: "Total number of documents fetched from upstream sources",
			},
			[]string{"source"},
		),
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insights_searches_total",
				Help: "Total number of search operations",
			},
			[]string{"kind"},
		),
		VectorsIndexed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "insights_vector_index_runs_total",
				Help: "Total number of vector indexing runs",
			},
		),
	}
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(path, status).Inc()
	m.RequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
