// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bibliotheca/internal/models"
)

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns health status including catalog totals, trainer state, event stream clients, and uptime
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	// The catalog is in-memory; once the process serves traffic it is
	// healthy. Degraded states would come from a future storage layer.
	data := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  time.Since(h.startTime).Seconds(),
		"catalog": map[string]interface{}{
			"books": h.index.BookCount(),
			"users": h.index.UserCount(),
		},
	}

	if h.recommend != nil {
		data["recommendations"] = h.recommend.Status()
	}
	if h.hub != nil {
		data["event_clients"] = h.hub.GetClientCount()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Description Returns 200 OK if the process is alive
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if the service is ready to handle traffic
//
// @Summary Kubernetes readiness probe
// @Description Returns 200 OK once the catalog index is constructed and traffic can be served. Returns 503 otherwise.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ready := h.index != nil

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	data := map[string]interface{}{
		"ready_to_serve": ready,
		"uptime":         time.Since(h.startTime).Seconds(),
	}
	if ready {
		data["books"] = h.index.BookCount()
		data["users"] = h.index.UserCount()
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
