// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// TriggerLoad handles POST /api/v1/admin/load
//
// The catalog is reset first so the rebuilt state reflects only the
// configured data files, not whatever mutations accumulated since boot.
//
// @Summary Rebuild the catalog from data files
// @Description Resets the catalog and re-runs the NDJSON bulk load; responds with per-kind load counts
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Load completed"
// @Failure 503 {object} models.APIResponse "Loader unavailable"
// @Router /admin/load [post]
func (h *Handler) TriggerLoad(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		respondError(w, http.StatusServiceUnavailable, "LOAD_ERROR", "Loader unavailable", nil)
		return
	}

	logging.Info().Msg("Admin-triggered catalog rebuild starting")

	h.index.Reset()
	result := h.loader.LoadAll(h.config.Library)

	if h.events != nil {
		h.events.BroadcastLoadCompleted(result.BooksLoaded, result.UsersLoaded, result.DroppedRefs, result.DurationMS)
	}
	h.notifyStats()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: result.DurationMS,
		},
	})
}

// AdminStats handles GET /api/v1/admin/stats
//
// @Summary Catalog and request statistics
// @Description Returns catalog totals, trainer status, event stream client count, and per-endpoint latency percentiles
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Statistics retrieved"
// @Router /admin/stats [get]
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"catalog": map[string]interface{}{
			"books": h.index.BookCount(),
			"users": h.index.UserCount(),
		},
		"uptime": time.Since(h.startTime).Seconds(),
	}

	if h.recommend != nil {
		data["recommendations"] = h.recommend.Status()
	}
	if h.hub != nil {
		data["event_clients"] = h.hub.GetClientCount()
	}
	if h.perfMon != nil {
		data["endpoints"] = h.perfMon.GetStats()
	}

	respondSuccess(w, http.StatusOK, data, 0)
}
