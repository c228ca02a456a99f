// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// CreateBookRequest is the POST /books payload. Year is a pointer so a
// missing key is distinguishable from year zero; rating coerces silently
// through models.Rating (absent, null, or junk all mean unrated).
type CreateBookRequest struct {
	ID     string        `json:"id" validate:"required,notblank"`
	Title  string        `json:"title" validate:"required,notblank"`
	Author string        `json:"author" validate:"required,notblank"`
	Genre  string        `json:"genre" validate:"required,notblank"`
	Year   *int          `json:"year" validate:"required"`
	Rating models.Rating `json:"rating"`
}

// ListBooks handles GET /api/v1/books
//
// @Summary List catalog books
// @Description Returns books in admission order with pagination
// @Tags Catalog
// @Accept json
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Results per page"
// @Success 200 {object} models.APIResponse "Books retrieved successfully"
// @Router /books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books := h.index.Books()
	pageItems, page, pageSize := paginate(r, books, h.config.API)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"books":     pageItems,
		"count":     len(pageItems),
		"total":     len(books),
		"page":      page,
		"page_size": pageSize,
	}, 0)
}

// CreateBook handles POST /api/v1/books
//
// @Summary Add a book to the catalog
// @Description Admits a validated book record; the rating field coerces silently to unrated on bad input
// @Tags Catalog
// @Accept json
// @Produce json
// @Param book body CreateBookRequest true "Book record"
// @Success 201 {object} models.APIResponse "Book admitted"
// @Failure 400 {object} models.APIResponse "Validation failed"
// @Failure 409 {object} models.APIResponse "Duplicate book id"
// @Router /books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, &models.APIResponse{
			Status: "error",
			Error:  apiErr,
		})
		return
	}

	var rating *float64
	if req.Rating.Valid {
		rating = &req.Rating.Value
	}

	book, err := h.index.AddBook(req.ID, req.Title, req.Author, req.Genre, *req.Year, rating)
	if err != nil {
		var vErr *models.ValidationError
		switch {
		case errors.Is(err, catalog.ErrDuplicateBookID):
			respondError(w, http.StatusConflict, "DUPLICATE_ID", err.Error(), nil)
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add book", err)
		}
		return
	}

	logging.Info().Str("book_id", sanitizeLogValue(book.ID)).Str("title", sanitizeLogValue(book.Title)).Msg("Book admitted")
	if h.events != nil {
		h.events.BroadcastBookAdded(book.ID)
	}
	h.notifyStats()

	respondSuccess(w, http.StatusCreated, book, 0)
}

// GetBook handles GET /api/v1/books/{id}
//
// @Summary Get a book by id
// @Description Returns the book with the given id
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} models.APIResponse "Book retrieved"
// @Failure 404 {object} models.APIResponse "Unknown book id"
// @Router /books/{id} [get]
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	book, ok := h.index.GetBook(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	respondSuccess(w, http.StatusOK, book, 0)
}

// DeleteBook handles DELETE /api/v1/books/{id}
//
// @Summary Remove a book from the catalog
// @Description Removes the book and purges its id from every user's borrowed and history lists
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Book id"
// @Success 200 {object} models.APIResponse "Book removed"
// @Failure 404 {object} models.APIResponse "Unknown book id"
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.index.RemoveBook(id) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	logging.Info().Str("book_id", sanitizeLogValue(id)).Msg("Book removed")
	if h.events != nil {
		h.events.BroadcastBookRemoved(id)
	}
	h.notifyStats()

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"removed": true,
		"id":      id,
	}, 0)
}
