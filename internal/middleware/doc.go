// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for Prometheus metrics
integration and in-process performance monitoring. These components work
alongside the authentication middleware and the Chi ecosystem middleware
(CORS, rate limiting, request IDs) to form the complete request pipeline.

Key Components:

  - Prometheus Metrics: HTTP request/response instrumentation
  - Performance Monitor: Request latency tracking with percentile calculations

Usage Example - Prometheus Metrics:

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Get("/api/v1/books", handler.ListBooks)

Usage Example - Performance Monitoring:

	perfMon := middleware.NewPerformanceMonitor(1000)
	r.Use(perfMon.Middleware)

	// Later, on the ops surface:
	stats := perfMon.GetStats()

Performance Monitor:

The performance monitor tracks:
  - Request count per endpoint
  - Latency percentiles (p50, p95, p99) over a sliding window
  - Rolling window of the N most recent requests
  - Thread-safe concurrent access with RWMutex

Thread Safety:

All middleware components are thread-safe:
  - Performance monitor uses sync.RWMutex
  - Prometheus metrics use atomic operations

See Also:

  - internal/auth: Authentication middleware
  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
