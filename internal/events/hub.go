// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package events

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during
	// shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeBookAdded     = "book_added"
	MessageTypeBookRemoved   = "book_removed"
	MessageTypeUserAdded     = "user_added"
	MessageTypeUserRemoved   = "user_removed"
	MessageTypeCheckout      = "checkout"
	MessageTypeCheckin       = "checkin"
	MessageTypeLoadCompleted = "load_completed"
	MessageTypeStatsUpdate   = "stats_update"
	MessageTypePing          = "ping"
	MessageTypePong          = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Catalog-change traffic passes through a token-bucket throttle so bulk
// loads cannot flood clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	throttle   *rate.Limiter
	maxClients int
}

// NewHub creates a hub sized from the events configuration.
func NewHub(cfg config.EventsConfig) *Hub {
	limit := rate.Inf
	burst := 1
	if cfg.BroadcastRate > 0 {
		limit = rate.Limit(cfg.BroadcastRate)
		if b := int(cfg.BroadcastRate); b > 1 {
			burst = b
		}
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Hub{
		broadcast:  make(chan Message, bufferSize),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		throttle:   rate.NewLimiter(limit, burst),
		maxClients: cfg.MaxClients,
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// Designed for use under suture supervision: when the context is canceled
// all connected clients are closed and the method returns ctx.Err(), so a
// restart never inherits orphaned connections.
//
// Selection is priority-based because Go's select picks randomly among
// ready channels:
//   - Priority 1: Context cancellation (shutdown)
//   - Priority 2: Client lifecycle events (Register/Unregister)
//   - Priority 3: Broadcast messages
//
// Handling lifecycle before broadcasts keeps the client set consistent
// before any message is fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Drain pending lifecycle events (non-blocking)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		// Priority 3: Block for the next event of any kind
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		h.mu.Unlock()
		close(client.send)
		metrics.WSErrors.WithLabelValues("max_clients").Inc()
		logging.Warn().
			Int("max_clients", h.maxClients).
			Msg("websocket client rejected, hub at capacity")
		return
	}
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.WSConnections.Dec()
	}
	total := len(h.clients)
	h.mu.Unlock()

	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is not logged as an error because cancellation
// is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "events-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("events hub stopped")
}

// getShutdownReason maps the context error to a shutdown reason for logs.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients fans a message out to every connected client in
// client-id order. Iterating a sorted slice instead of the map keeps
// delivery order reproducible across runs, which test assertions and
// message acknowledgment sequences rely on. A client whose send buffer
// is full is dropped rather than awaited.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Msg("dropping websocket client with full send buffer")
	}
}

// closeAllClients closes every connected client in id order. Called
// during shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue places a message on the broadcast channel without blocking.
func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// enqueueThrottled is enqueue behind the token bucket. Messages over the
// configured broadcast rate are dropped, never queued, so a bulk load
// admitting thousands of records produces a bounded client-facing stream.
func (h *Hub) enqueueThrottled(message Message) {
	if !h.throttle.Allow() {
		metrics.WSMessagesDropped.Inc()
		logging.Debug().Str("message_type", message.Type).Msg("broadcast throttled")
		return
	}
	h.enqueue(message)
}

// CatalogChangeData identifies the record a catalog mutation touched.
type CatalogChangeData struct {
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

// broadcastCatalogChange pushes one mutation notification through the
// throttle. The message type carries the entity and action.
func (h *Hub) broadcastCatalogChange(messageType, id string) {
	h.enqueueThrottled(Message{
		Type: messageType,
		Data: CatalogChangeData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			ID:        id,
		},
	})
}

// BroadcastBookAdded notifies all clients that a book entered the catalog.
func (h *Hub) BroadcastBookAdded(id string) {
	h.broadcastCatalogChange(MessageTypeBookAdded, id)
}

// BroadcastBookRemoved notifies all clients that a book left the catalog.
func (h *Hub) BroadcastBookRemoved(id string) {
	h.broadcastCatalogChange(MessageTypeBookRemoved, id)
}

// BroadcastUserAdded notifies all clients that a user was registered.
func (h *Hub) BroadcastUserAdded(id string) {
	h.broadcastCatalogChange(MessageTypeUserAdded, id)
}

// BroadcastUserRemoved notifies all clients that a user was removed.
func (h *Hub) BroadcastUserRemoved(id string) {
	h.broadcastCatalogChange(MessageTypeUserRemoved, id)
}

// CirculationData describes one checkout or checkin.
type CirculationData struct {
	Timestamp string `json:"timestamp"`
	BookID    string `json:"book_id"`
	UserID    string `json:"user_id"`
}

// broadcastCirculation pushes one circulation notification through the
// throttle.
func (h *Hub) broadcastCirculation(messageType, bookID, userID string) {
	h.enqueueThrottled(Message{
		Type: messageType,
		Data: CirculationData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			BookID:    bookID,
			UserID:    userID,
		},
	})
}

// BroadcastCheckout notifies all clients that a book was checked out.
func (h *Hub) BroadcastCheckout(bookID, userID string) {
	h.broadcastCirculation(MessageTypeCheckout, bookID, userID)
}

// BroadcastCheckin notifies all clients that a book was returned.
func (h *Hub) BroadcastCheckin(bookID, userID string) {
	h.broadcastCirculation(MessageTypeCheckin, bookID, userID)
}

// LoadCompletedData describes a finished bulk load.
type LoadCompletedData struct {
	Timestamp         string  `json:"timestamp"`
	BooksLoaded       int     `json:"books_loaded"`
	UsersLoaded       int     `json:"users_loaded"`
	DroppedReferences int     `json:"dropped_references"`
	DurationMS        float64 `json:"duration_ms"`
}

// BroadcastLoadCompleted notifies all clients that a bulk load finished.
// Load completions are rare, so they bypass the throttle.
func (h *Hub) BroadcastLoadCompleted(booksLoaded, usersLoaded, droppedRefs int, durationMS float64) {
	h.enqueue(Message{
		Type: MessageTypeLoadCompleted,
		Data: LoadCompletedData{
			Timestamp:         time.Now().UTC().Format(time.RFC3339),
			BooksLoaded:       booksLoaded,
			UsersLoaded:       usersLoaded,
			DroppedReferences: droppedRefs,
			DurationMS:        durationMS,
		},
	})
	logging.Info().
		Int("clients", h.GetClientCount()).
		Int("books_loaded", booksLoaded).
		Int("users_loaded", usersLoaded).
		Msg("broadcast load_completed")
}

// StatsUpdateData carries the current catalog totals.
type StatsUpdateData struct {
	Timestamp  string `json:"timestamp"`
	TotalBooks int    `json:"total_books"`
	TotalUsers int    `json:"total_users"`
}

// BroadcastStatsUpdate notifies all clients that catalog totals changed.
func (h *Hub) BroadcastStatsUpdate(totalBooks, totalUsers int) {
	h.enqueue(Message{
		Type: MessageTypeStatsUpdate,
		Data: StatsUpdateData{
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			TotalBooks: totalBooks,
			TotalUsers: totalUsers,
		},
	})
}

// BroadcastJSON sends an arbitrary typed message to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.enqueue(Message{Type: messageType, Data: data})
}
