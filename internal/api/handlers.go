// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/events"
	"github.com/tomtom215/bibliotheca/internal/loader"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/middleware"
	"github.com/tomtom215/bibliotheca/internal/recommend"
	"github.com/tomtom215/bibliotheca/internal/search"
)

// Broadcaster is the narrow publishing surface handlers use to notify
// event stream clients of catalog mutations. *events.Hub implements it.
// A nil Broadcaster disables notifications without branching at every
// call site; handlers go through the notify helpers below.
type Broadcaster interface {
	BroadcastBookAdded(id string)
	BroadcastBookRemoved(id string)
	BroadcastUserAdded(id string)
	BroadcastUserRemoved(id string)
	BroadcastCheckout(bookID, userID string)
	BroadcastCheckin(bookID, userID string)
	BroadcastLoadCompleted(booksLoaded, usersLoaded, droppedRefs int, durationMS float64)
	BroadcastStatsUpdate(totalBooks, totalUsers int)
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, WebSocket upgrade (this file)
//   - handlers_helpers.go: Shared helper functions
//   - handlers_health.go: Health/monitoring endpoints
//   - handlers_books.go: Book catalog endpoints
//   - handlers_users.go: User catalog endpoints
//   - handlers_circulation.go: Checkout/checkin endpoints
//   - handlers_search.go: Exact and fuzzy title search
//   - handlers_recommend.go: Recommendation endpoints
//   - handlers_admin.go: Bulk load and stats endpoints
type Handler struct {
	index     *catalog.Index
	search    *search.Engine
	recommend *recommend.Engine
	loader    *loader.Loader
	hub       *events.Hub // nil when the event stream is disabled
	events    Broadcaster // hub behind its publishing surface; nil when disabled
	config    *config.Config
	startTime time.Time
	perfMon   *middleware.PerformanceMonitor
}

// NewHandler creates a new API handler over the catalog index and its
// query engines. hub may be nil when the event stream is disabled.
func NewHandler(index *catalog.Index, searchEngine *search.Engine, recommendEngine *recommend.Engine, ldr *loader.Loader, hub *events.Hub, cfg *config.Config) *Handler {
	h := &Handler{
		index:     index,
		search:    searchEngine,
		recommend: recommendEngine,
		loader:    ldr,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
		perfMon:   middleware.NewPerformanceMonitor(1000), // Keep last 1000 requests
	}
	if hub != nil {
		h.events = hub
	}
	return h
}

// SetBroadcaster replaces the publishing surface. Tests inject a fake
// here to assert on emitted notifications.
func (h *Handler) SetBroadcaster(b Broadcaster) {
	h.events = b
}

// PerformanceMonitor exposes the sliding-window latency tracker so the
// router can install its middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// notifyStats pushes current catalog totals to event stream clients.
// Called after every mutation that changes the totals.
func (h *Handler) notifyStats() {
	if h.events != nil {
		h.events.BroadcastStatsUpdate(h.index.BookCount(), h.index.UserCount())
	}
}

// getUpgrader creates a WebSocket upgrader with proper origin checking
// and a handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Legitimate browser WebSockets always include Origin; only
	// non-browser clients omit it, and allowing it would bypass CORS.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// If config is nil, allow by default (fail open for tests/development)
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket handles WebSocket connections
//
// @Summary Establish WebSocket connection
// @Description Establishes a WebSocket connection for real-time catalog change notifications
// @Tags Realtime
// @Accept json
// @Produce json
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {string} string "Bad Request"
// @Failure 503 {string} string "Event stream not available"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Event stream unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := events.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}
