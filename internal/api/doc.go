// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

/*
Package api provides the HTTP REST API layer for Bibliotheca.

This package implements the endpoints for managing the catalog (books and
users), circulation, title search, and recommendations. It serves as the
primary interface between clients and the in-memory catalog index.

Key Components:

  - Router: Chi route configuration and middleware stack integration
  - Handler: Request handlers for all API endpoints
  - Response formatting: Standardized JSON responses with metadata
  - Error handling: Consistent error responses with machine-readable codes
  - Authentication integration: JWT support via middleware
  - Rate limiting: Per-area limits via go-chi/httprate
  - CORS: Cross-Origin Resource Sharing for frontend compatibility

API Categories:

1. Core Endpoints (/api/v1/):
  - Health checks (health, health/live, health/ready)
  - Authentication (auth/login, auth/userinfo, auth/status)

2. Catalog Endpoints (/api/v1/books, /api/v1/users):
  - Book admission, lookup, and removal (removal cascades into user lists)
  - User registration, lookup, and removal
  - Resolved borrowed/history listings per user
  - Checkout and checkin under /api/v1/users/{id}

3. Query Endpoints (/api/v1/search, /api/v1/recommendations):
  - Exact title lookup after normalization
  - Fuzzy title search with similarity cutoff and result cap
  - Top-rated and per-user genre-affinity recommendations
  - Trainer status and manual retrain trigger

4. Admin Endpoints (/api/v1/admin/):
  - Bulk reload from the configured NDJSON files
  - Catalog and per-endpoint latency statistics

5. WebSocket Endpoint (/api/v1/ws):
  - Real-time catalog change notifications
  - Circulation and bulk-load broadcasts

All JSON responses use the models.APIResponse envelope with a status
string, payload, metadata (timestamp, query time), and an optional
error object carrying a stable error code.

Usage Example:

	handler := api.NewHandler(index, searchEngine, recommendEngine, ldr, hub, cfg)
	router := api.NewRouter(handler, authMw)
	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
*/
package api
