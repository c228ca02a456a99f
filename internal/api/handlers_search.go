// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/bibliotheca/internal/models"
)

// maxQueryLength caps search query input to prevent abuse.
const maxQueryLength = 200

// Search handles GET /api/v1/search
//
// A miss is an ordinary outcome for a query surface, so an unknown title
// responds 200 with found=false rather than 404.
//
// @Summary Exact title search
// @Description Looks up a book by exact title after whitespace normalization and case folding
// @Tags Search
// @Accept json
// @Produce json
// @Param q query string true "Title to look up"
// @Success 200 {object} models.APIResponse "Search completed"
// @Failure 400 {object} models.APIResponse "Missing or oversized query"
// @Router /search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter 'q' is required", nil)
		return
	}
	if len(query) > maxQueryLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter 'q' must be at most 200 characters", nil)
		return
	}

	start := time.Now()
	book, found := h.search.Exact(query)
	queryTime := time.Since(start)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"query": query,
			"found": found,
			"book":  book,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(queryTime.Microseconds()) / 1000.0,
		},
	})
}

// FuzzySearch handles GET /api/v1/search/fuzzy
//
// @Summary Fuzzy title search
// @Description Returns catalog titles ranked by string similarity to the query
// @Tags Search
// @Accept json
// @Produce json
// @Param q query string true "Title to match"
// @Param min_score query int false "Minimum similarity score 0-100 (default from config)"
// @Param limit query int false "Maximum results 1-100 (default from config)"
// @Success 200 {object} models.APIResponse "Search completed"
// @Failure 400 {object} models.APIResponse "Invalid query parameters"
// @Router /search/fuzzy [get]
func (h *Handler) FuzzySearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter 'q' is required", nil)
		return
	}
	if len(query) > maxQueryLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Query parameter 'q' must be at most 200 characters", nil)
		return
	}

	minScore := int(h.config.Search.FuzzyCutoff * 100)
	if minScoreStr := r.URL.Query().Get("min_score"); minScoreStr != "" {
		parsed, err := strconv.Atoi(minScoreStr)
		if err != nil || parsed < 0 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Parameter 'min_score' must be between 0 and 100", nil)
			return
		}
		minScore = parsed
	}

	limit := h.config.Search.FuzzyMaxResults
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Parameter 'limit' must be between 1 and 100", nil)
			return
		}
		limit = parsed
	}

	start := time.Now()
	results := h.search.FuzzyWith(query, limit, float64(minScore)/100.0)
	queryTime := time.Since(start)

	if results == nil {
		results = []*models.Book{}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"query":     query,
			"results":   results,
			"count":     len(results),
			"min_score": minScore,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: float64(queryTime.Microseconds()) / 1000.0,
		},
	})
}
