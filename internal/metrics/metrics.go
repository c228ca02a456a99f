// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package metrics provides Prometheus instrumentation for:
//   - Catalog mutations (add, remove, checkout, checkin)
//   - Search latency and result counts
//   - Recommendation latency and training cycles
//   - Bulk load throughput
//   - API endpoint latency and throughput
//   - WebSocket connections
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog Metrics
	CatalogBooks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_books",
			Help: "Current number of books in the catalog index",
		},
	)

	CatalogUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_users",
			Help: "Current number of registered users",
		},
	)

	CatalogOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_operations_total",
			Help: "Total number of catalog mutations",
		},
		[]string{"operation", "outcome"}, // operation: "add_book", "remove_book", ...; outcome: "ok", "error"
	)

	CatalogCascadePurges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cascade_purges_total",
			Help: "Total number of user list entries purged by book removals",
		},
	)

	// Search Metrics
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of title searches",
		},
		[]string{"kind"}, // "exact", "fuzzy"
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Title search duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	SearchResultCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_result_count",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)

	// Recommendation Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"kind", "outcome"}, // kind: "top_rated", "personalized"
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Recommendation computation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"},
	)

	RecommendTrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_train_duration_seconds",
			Help:    "Genre profile training duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60},
		},
	)

	RecommendLastTrain = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_last_train_timestamp",
			Help: "Unix timestamp of the last successful training cycle",
		},
	)

	// Loader Metrics
	LoaderRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_records_total",
			Help: "Total number of NDJSON records processed by the bulk loader",
		},
		[]string{"kind", "result"}, // kind: "book", "user"; result: "loaded", "skipped"
	)

	LoaderDroppedReferences = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_dropped_references_total",
			Help: "Total number of user book references dropped for unknown book ids",
		},
	)

	LoaderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loader_duration_seconds",
			Help:    "Bulk load duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Auth Metrics
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to full client buffers",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)
)

// RecordCatalogOperation records a catalog mutation and its outcome.
func RecordCatalogOperation(operation string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	CatalogOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordCatalogSize updates the book and user gauges after a mutation.
func RecordCatalogSize(books, users int) {
	CatalogBooks.Set(float64(books))
	CatalogUsers.Set(float64(users))
}

// RecordSearch records a title search with its latency and result count.
func RecordSearch(kind string, duration time.Duration, results int) {
	SearchRequestsTotal.WithLabelValues(kind).Inc()
	SearchDuration.WithLabelValues(kind).Observe(duration.Seconds())
	SearchResultCount.WithLabelValues(kind).Observe(float64(results))
}

// RecordRecommendation records a recommendation request.
func RecordRecommendation(kind string, duration time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	RecommendRequestsTotal.WithLabelValues(kind, outcome).Inc()
	RecommendDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordTraining records a completed genre profile training cycle.
func RecordTraining(duration time.Duration) {
	RecommendTrainDuration.Observe(duration.Seconds())
	RecommendLastTrain.Set(float64(time.Now().Unix()))
}

// RecordLoaderRecord counts one NDJSON record by kind and result.
func RecordLoaderRecord(kind string, loaded bool) {
	result := "loaded"
	if !loaded {
		result = "skipped"
	}
	LoaderRecordsTotal.WithLabelValues(kind, result).Inc()
}

// RecordAPIRequest records an API request with method, endpoint, status, and duration.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAPIRequestCode is a convenience wrapper taking a numeric status code.
func RecordAPIRequestCode(method, endpoint string, statusCode int, duration time.Duration) {
	RecordAPIRequest(method, endpoint, strconv.Itoa(statusCode), duration)
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAuthAttempt records a login attempt result.
func RecordAuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	AuthAttempts.WithLabelValues(result).Inc()
}
