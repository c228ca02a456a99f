// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package main provides the Bibliotheca HTTP server
//
// Bibliotheca API provides catalog indexing, title search, circulation
// tracking, and reading recommendations for a library book collection.
//
// @title Bibliotheca API
// @version 1.0
// @description Library catalog index and query engine for book collections
// @description
// @description ## Features
// @description
// @description - **Ordered Catalog**: Books and users held in admission order with O(1) id and title lookup
// @description - **Title Search**: Exact lookup with whitespace and case normalization, plus fuzzy matching for misspelled titles
// @description - **Circulation Tracking**: Checkout and checkin with complete borrowing history
// @description - **Reading Recommendations**: Top-rated listing and genre-affinity personalized suggestions
// @description - **Real-time Updates**: WebSocket notifications for catalog changes
// @description - **Bulk Load**: NDJSON data files loaded at startup and on demand, resilient to malformed lines
// @description
// @description ## Authentication
// @description
// @description Mutating endpoints require JWT authentication when AUTH_MODE=jwt.
// @description Use `/api/v1/auth/login` to obtain a token, then send it as a Bearer token or let the HTTP-only cookie ride along automatically.
// @description
// @description ## Rate Limiting
// @description
// @description Endpoints are rate limited per client IP in tiers: search endpoints allow bursts for interactive type-ahead clients, mutations and admin operations are stricter.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-01-15T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/bibliotheca/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8020
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in cookie
// @name token
// @description JWT token stored in HTTP-only cookie. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Core
// @tag.description Core API endpoints for health checks and system status
//
// @tag.name Catalog
// @tag.description Catalog record management for books and users
//
// @tag.name Search
// @tag.description Exact and fuzzy title search endpoints
//
// @tag.name Circulation
// @tag.description Checkout and checkin operations tracking borrowed books
//
// @tag.name Recommendations
// @tag.description Top-rated and personalized reading recommendations
//
// @tag.name Realtime
// @tag.description Real-time WebSocket connections for catalog change notifications
//
// @tag.name Admin
// @tag.description Administrative operations requiring authentication (bulk load, statistics)
//
// @tag.name Auth
// @tag.description Authentication and session management endpoints
package main
