// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// trainTimeout bounds a manually triggered training cycle.
const trainTimeout = 30 * time.Second

// recommendationsEnabled rejects recommendation requests when the
// engine is configured off.
func (h *Handler) recommendationsEnabled(w http.ResponseWriter) bool {
	if h.recommend == nil || !h.config.Recommend.Enabled {
		respondError(w, http.StatusServiceUnavailable, "RECOMMENDATION_ERROR", "Recommendations are disabled", nil)
		return false
	}
	return true
}

// recommendCount parses the k query parameter, falling back to the
// configured default and clamping to the configured maximum.
func (h *Handler) recommendCount(r *http.Request) int {
	k := h.config.Recommend.DefaultCount
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}
	if k > h.config.Recommend.MaxCount {
		k = h.config.Recommend.MaxCount
	}
	return k
}

// TopRated handles GET /api/v1/recommendations/top
//
// @Summary Top-rated books
// @Description Returns the k highest-rated books; unrated books rank after all rated ones
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param k query int false "Number of results (default and cap from config)"
// @Success 200 {object} models.APIResponse "Recommendations retrieved"
// @Failure 503 {object} models.APIResponse "Recommendations disabled"
// @Router /recommendations/top [get]
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	if !h.recommendationsEnabled(w) {
		return
	}

	k := h.recommendCount(r)

	start := time.Now()
	books := h.recommend.TopRated(k)
	queryTime := time.Since(start)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"books": books,
			"count": len(books),
			"k":     k,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(queryTime.Microseconds()) / 1000.0,
		},
	})
}

// UserRecommendations handles GET /api/v1/recommendations/user/{userID}
//
// @Summary Personalized recommendations
// @Description Returns books scored by genre affinity against the user's borrowing history; users without history fall back to top-rated
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param userID path string true "User id"
// @Param k query int false "Number of results (default and cap from config)"
// @Success 200 {object} models.APIResponse "Recommendations retrieved"
// @Failure 404 {object} models.APIResponse "Unknown user id"
// @Failure 503 {object} models.APIResponse "Recommendations disabled"
// @Router /recommendations/user/{userID} [get]
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	if !h.recommendationsEnabled(w) {
		return
	}

	userID := chi.URLParam(r, "userID")
	if _, ok := h.index.GetUser(userID); !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}

	k := h.recommendCount(r)

	start := time.Now()
	books := h.recommend.Personalized(userID, k)
	queryTime := time.Since(start)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"user_id": userID,
			"books":   books,
			"count":   len(books),
			"k":       k,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(queryTime.Microseconds()) / 1000.0,
		},
	})
}

// RecommendationStatus handles GET /api/v1/recommendations/status
//
// @Summary Recommendation engine status
// @Description Returns the trainer state: last cycle time, cycle count, and cached profile count
// @Tags Recommendations
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Status retrieved"
// @Router /recommendations/status [get]
func (h *Handler) RecommendationStatus(w http.ResponseWriter, r *http.Request) {
	if h.recommend == nil {
		respondError(w, http.StatusServiceUnavailable, "RECOMMENDATION_ERROR", "Recommendations are disabled", nil)
		return
	}

	respondSuccess(w, http.StatusOK, h.recommend.Status(), 0)
}

// TriggerTraining handles POST /api/v1/recommendations/train
//
// Training over the in-memory catalog completes in milliseconds, so the
// cycle runs synchronously and the response carries the refreshed
// status instead of a 202 handle.
//
// @Summary Trigger profile training
// @Description Rebuilds the per-user genre profile cache and returns the refreshed trainer status
// @Tags Recommendations
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Training completed"
// @Failure 500 {object} models.APIResponse "Training failed"
// @Failure 503 {object} models.APIResponse "Recommendations disabled"
// @Router /recommendations/train [post]
func (h *Handler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	if !h.recommendationsEnabled(w) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), trainTimeout)
	defer cancel()

	if err := h.recommend.Train(ctx); err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Training failed", err)
		return
	}

	logging.Info().Msg("Manual recommendation training completed")
	respondSuccess(w, http.StatusOK, h.recommend.Status(), 0)
}
