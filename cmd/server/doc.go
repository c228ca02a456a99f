// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

/*
Package main is the entry point for the Bibliotheca server application.

Bibliotheca is a self-hosted library catalog engine that indexes book and
user records in memory, answers exact and fuzzy title searches, tracks
checkouts and returns, and produces reading recommendations from ratings
and per-user genre affinity.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("bibliotheca")
	├── IndexSupervisor ("index-layer")
	│   ├── Event Hub (real-time catalog updates)
	│   └── Trainer (periodic profile rebuilds)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API with Swagger documentation)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Catalog Index: In-memory ordered book/user index with O(1) lookups
 4. Bulk Load: NDJSON data files (missing or malformed files degrade to
    an empty catalog, never a failed boot)
 5. Search Engine: Exact and fuzzy title matching
 6. Recommendation Engine: Rating ranks and genre profiles
 7. Authentication: JWT or no-auth mode
 8. Event Hub: WebSocket notifications for catalog changes
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

The catalog index itself is not supervised: it is a passive data structure
with no goroutines, so there is nothing to restart.

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8020               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Catalog data (NDJSON, one record per line)
	BOOKS_PATH=/data/books.ndjson
	USERS_PATH=/data/users.ndjson
	LOAD_ON_STARTUP=true

	# Authentication (choose one mode)
	AUTH_MODE=none               # none or jwt
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

	# Recommendations
	RECOMMEND_ENABLED=true
	RECOMMEND_TRAIN_ON_STARTUP=true
	RECOMMEND_TRAIN_INTERVAL=1h  # 0 disables periodic retraining

See internal/config for the complete reference.

# Data Loading

Book and user records are bulk loaded from NDJSON files. Each line is
parsed and validated independently: a malformed line is logged with its
line number and skipped, and user records referencing unknown book ids
have those references dropped. A missing file yields an empty catalog.
Startup never fails because of bad data.

The catalog can be rebuilt at runtime via POST /api/v1/admin/load, which
resets the index and re-runs the load against the configured paths.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Broadcasts shutdown to WebSocket clients
 3. Waits for in-flight requests (10s timeout)
 4. Stops the trainer and event hub
 5. Reports any services that failed to stop

# Usage Examples

Development (no auth):

	export AUTH_MODE=none
	export BOOKS_PATH=./data/books.ndjson USERS_PATH=./data/users.ndjson
	go run ./cmd/server

Production (JWT):

	export AUTH_MODE=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=secure-password
	export BOOKS_PATH=/data/books.ndjson USERS_PATH=/data/users.ndjson
	./bibliotheca

Docker:

	docker run -d \
	  -v /srv/library:/data \
	  -e BOOKS_PATH=/data/books.ndjson \
	  -e USERS_PATH=/data/users.ndjson \
	  -e AUTH_MODE=none \
	  -p 8020:8020 \
	  ghcr.io/tomtom215/bibliotheca

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running. The API is organized into categories:

  - Core: Health checks and system status
  - Catalog: Book and user record management
  - Search: Exact and fuzzy title lookup
  - Circulation: Checkout and checkin operations
  - Recommendations: Top-rated and personalized suggestions
  - Realtime: WebSocket catalog change notifications
  - Admin: Bulk load and statistics

# See Also

  - internal/config: Configuration management
  - internal/catalog: The in-memory catalog index
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/loader: NDJSON bulk loading
*/
package main
