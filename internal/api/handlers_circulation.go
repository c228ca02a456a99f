// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Checkout handles POST /api/v1/users/{id}/checkout/{bookID}
//
// A failed checkout is reported under a single CHECKOUT_FAILED code
// rather than split by cause; the catalog logs the precise reason, and
// splitting would need a second lock acquisition that races the first.
//
// @Summary Check a book out to a user
// @Description Appends the book to the user's borrowed list; history is not touched
// @Tags Circulation
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param bookID path string true "Book id"
// @Success 200 {object} models.APIResponse "Book checked out"
// @Failure 409 {object} models.APIResponse "Unknown book or user"
// @Router /users/{id}/checkout/{bookID} [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	bookID := chi.URLParam(r, "bookID")

	if !h.index.Checkout(bookID, userID) {
		respondError(w, http.StatusConflict, "CHECKOUT_FAILED", "Checkout failed: unknown book or user", nil)
		return
	}

	if h.events != nil {
		h.events.BroadcastCheckout(bookID, userID)
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"checked_out": true,
		"book_id":     bookID,
		"user_id":     userID,
	}, 0)
}

// Checkin handles POST /api/v1/users/{id}/checkin/{bookID}
//
// @Summary Return a borrowed book
// @Description Removes one occurrence of the book from the user's borrowed list; history is retained
// @Tags Circulation
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param bookID path string true "Book id"
// @Success 200 {object} models.APIResponse "Book checked in"
// @Failure 409 {object} models.APIResponse "Unknown book or user, or book not borrowed"
// @Router /users/{id}/checkin/{bookID} [post]
func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	bookID := chi.URLParam(r, "bookID")

	if !h.index.Checkin(bookID, userID) {
		respondError(w, http.StatusConflict, "CHECKIN_FAILED", "Checkin failed: unknown book or user, or book not borrowed", nil)
		return
	}

	if h.events != nil {
		h.events.BroadcastCheckin(bookID, userID)
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"checked_in": true,
		"book_id":    bookID,
		"user_id":    userID,
	}, 0)
}
