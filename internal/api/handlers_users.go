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

// CreateUserRequest is the POST /users payload. Borrowed and history
// carry book ids; ids that resolve to no catalog book are dropped
// silently on admission, mirroring bulk load.
type CreateUserRequest struct {
	ID       string   `json:"id" validate:"required,notblank"`
	Name     string   `json:"name" validate:"required,notblank"`
	Borrowed []string `json:"borrowed_books"`
	History  []string `json:"history"`
}

// ListUsers handles GET /api/v1/users
//
// @Summary List registered users
// @Description Returns users in registration order with pagination
// @Tags Catalog
// @Accept json
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Results per page"
// @Success 200 {object} models.APIResponse "Users retrieved successfully"
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.index.Users()
	pageItems, page, pageSize := paginate(r, users, h.config.API)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"users":     pageItems,
		"count":     len(pageItems),
		"total":     len(users),
		"page":      page,
		"page_size": pageSize,
	}, 0)
}

// CreateUser handles POST /api/v1/users
//
// @Summary Register a user
// @Description Registers a validated user; unresolvable book references are dropped silently
// @Tags Catalog
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User record"
// @Success 201 {object} models.APIResponse "User registered"
// @Failure 400 {object} models.APIResponse "Validation failed"
// @Failure 409 {object} models.APIResponse "Duplicate user id"
// @Router /users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
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

	user, err := h.index.AddUser(req.ID, req.Name, req.Borrowed, req.History)
	if err != nil {
		var vErr *models.ValidationError
		switch {
		case errors.Is(err, catalog.ErrDuplicateUserID):
			respondError(w, http.StatusConflict, "DUPLICATE_ID", err.Error(), nil)
		case errors.As(err, &vErr):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", vErr.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user", err)
		}
		return
	}

	logging.Info().Str("user_id", sanitizeLogValue(user.ID)).Str("name", sanitizeLogValue(user.Name)).Msg("User registered")
	if h.events != nil {
		h.events.BroadcastUserAdded(user.ID)
	}
	h.notifyStats()

	respondSuccess(w, http.StatusCreated, user, 0)
}

// GetUser handles GET /api/v1/users/{id}
//
// @Summary Get a user by id
// @Description Returns the user with the given id
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} models.APIResponse "User retrieved"
// @Failure 404 {object} models.APIResponse "Unknown user id"
// @Router /users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, ok := h.index.GetUser(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}

	respondSuccess(w, http.StatusOK, user, 0)
}

// DeleteUser handles DELETE /api/v1/users/{id}
//
// @Summary Remove a user
// @Description Removes the user; catalog books are unaffected
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} models.APIResponse "User removed"
// @Failure 404 {object} models.APIResponse "Unknown user id"
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !h.index.RemoveUser(id) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}

	logging.Info().Str("user_id", sanitizeLogValue(id)).Msg("User removed")
	if h.events != nil {
		h.events.BroadcastUserRemoved(id)
	}
	h.notifyStats()

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"removed": true,
		"id":      id,
	}, 0)
}

// GetUserBorrowed handles GET /api/v1/users/{id}/borrowed
//
// @Summary List a user's borrowed books
// @Description Returns the user's currently borrowed books resolved to full records
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} models.APIResponse "Borrowed books retrieved"
// @Failure 404 {object} models.APIResponse "Unknown user id"
// @Router /users/{id}/borrowed [get]
func (h *Handler) GetUserBorrowed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	books, ok := h.index.UserBorrowed(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"books": books,
		"count": len(books),
	}, 0)
}

// GetUserHistory handles GET /api/v1/users/{id}/history
//
// @Summary List a user's borrowing history
// @Description Returns every book the user has ever borrowed, resolved to full records
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} models.APIResponse "History retrieved"
// @Failure 404 {object} models.APIResponse "Unknown user id"
// @Router /users/{id}/history [get]
func (h *Handler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	books, ok := h.index.UserHistory(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"books": books,
		"count": len(books),
	}, 0)
}
