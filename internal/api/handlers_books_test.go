// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestListBooks(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	rec := httptest.NewRecorder()

	handler.ListBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	response := decodeBody(t, rec)
	if response["status"] != "success" {
		t.Errorf("Expected status success, got %v", response["status"])
	}

	data := response["data"].(map[string]interface{})
	if data["count"] != float64(5) {
		t.Errorf("Expected count 5, got %v", data["count"])
	}
	if data["total"] != float64(5) {
		t.Errorf("Expected total 5, got %v", data["total"])
	}
	if data["page"] != float64(1) {
		t.Errorf("Expected page 1, got %v", data["page"])
	}
	if data["page_size"] != float64(100) {
		t.Errorf("Expected default page_size 100, got %v", data["page_size"])
	}

	books := data["books"].([]interface{})
	first := books[0].(map[string]interface{})
	if first["id"] != "B01" {
		t.Errorf("Expected admission order to start with B01, got %v", first["id"])
	}
	last := books[4].(map[string]interface{})
	if last["id"] != "B05" {
		t.Errorf("Expected admission order to end with B05, got %v", last["id"])
	}
}

func TestListBooksPagination(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books?page=2&page_size=2", nil)
	rec := httptest.NewRecorder()

	handler.ListBooks(rec, req)

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})

	if data["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", data["count"])
	}
	if data["total"] != float64(5) {
		t.Errorf("Expected total 5, got %v", data["total"])
	}
	if data["page"] != float64(2) {
		t.Errorf("Expected page 2, got %v", data["page"])
	}

	books := data["books"].([]interface{})
	ids := []string{
		books[0].(map[string]interface{})["id"].(string),
		books[1].(map[string]interface{})["id"].(string),
	}
	if ids[0] != "B03" || ids[1] != "B04" {
		t.Errorf("Expected page 2 to hold [B03 B04], got %v", ids)
	}
}

func TestListBooksPageBeyondEnd(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books?page=10&page_size=2", nil)
	rec := httptest.NewRecorder()

	handler.ListBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})
	if data["count"] != float64(0) {
		t.Errorf("Expected empty page past the end, got count %v", data["count"])
	}
	if data["total"] != float64(5) {
		t.Errorf("Expected total 5, got %v", data["total"])
	}
}

func TestListBooksPageSizeClamped(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books?page_size=5000", nil)
	rec := httptest.NewRecorder()

	handler.ListBooks(rec, req)

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})
	if data["page_size"] != float64(1000) {
		t.Errorf("Expected page_size clamped to 1000, got %v", data["page_size"])
	}
}

func TestCreateBook(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	rb := &recordingBroadcaster{}
	handler.SetBroadcaster(rb)

	body := `{"id":"B06","title":"Neuromancer","author":"William Gibson","genre":"Science Fiction","year":1984,"rating":4.4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.CreateBook(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})
	if data["id"] != "B06" {
		t.Errorf("Expected id B06, got %v", data["id"])
	}
	if data["rating"] != 4.4 {
		t.Errorf("Expected rating 4.4, got %v", data["rating"])
	}

	if _, ok := handler.index.GetBook("B06"); !ok {
		t.Error("Expected B06 to be admitted into the catalog")
	}
	if !rb.has("book_added:B06") {
		t.Errorf("Expected book_added:B06 broadcast, got %v", rb.events)
	}
	if !rb.has("stats_update:6:2") {
		t.Errorf("Expected stats_update:6:2 broadcast, got %v", rb.events)
	}
}

func TestCreateBookValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing id",
			body: `{"title":"T","author":"A","genre":"G","year":2000}`,
		},
		{
			name: "whitespace-only title",
			body: `{"id":"B10","title":"   ","author":"A","genre":"G","year":2000}`,
		},
		{
			name: "missing author",
			body: `{"id":"B10","title":"T","genre":"G","year":2000}`,
		},
		{
			name: "missing genre",
			body: `{"id":"B10","title":"T","author":"A","year":2000}`,
		},
		{
			name: "missing year",
			body: `{"id":"B10","title":"T","author":"A","genre":"G"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := newTestHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.CreateBook(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}

			response := decodeBody(t, rec)
			if response["status"] != "error" {
				t.Errorf("Expected status error, got %v", response["status"])
			}
			if code := errorCode(t, response); code != "VALIDATION_ERROR" {
				t.Errorf("Expected VALIDATION_ERROR, got %s", code)
			}
		})
	}
}

func TestCreateBookDuplicateID(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	body := `{"id":"B01","title":"Another","author":"Someone","genre":"Fiction","year":2020}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.CreateBook(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d", http.StatusConflict, rec.Code)
	}
	response := decodeBody(t, rec)
	if code := errorCode(t, response); code != "DUPLICATE_ID" {
		t.Errorf("Expected DUPLICATE_ID, got %s", code)
	}

	// The original record must be untouched.
	book, ok := handler.index.GetBook("B01")
	if !ok || book.Title != "The Go Programming Language" {
		t.Errorf("Expected original B01 record to survive, got %+v", book)
	}
}

func TestCreateBookInvalidJSON(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.CreateBook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	response := decodeBody(t, rec)
	if code := errorCode(t, response); code != "INVALID_JSON" {
		t.Errorf("Expected INVALID_JSON, got %s", code)
	}
}

func TestCreateBookRatingCoercion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ratingJSON string
		want       interface{}
	}{
		{name: "numeric rating kept", ratingJSON: `4.2`, want: 4.2},
		{name: "string rating coerced to null", ratingJSON: `"five stars"`, want: nil},
		{name: "boolean rating coerced to null", ratingJSON: `true`, want: nil},
		{name: "null rating stays null", ratingJSON: `null`, want: nil},
		{name: "array rating coerced to null", ratingJSON: `[4.2]`, want: nil},
	}

	for i, tt := range tests {
		tt := tt
		id := string(rune('a' + i))
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := newTestHandler(t)

			body := `{"id":"R-` + id + `","title":"T","author":"A","genre":"G","year":2000,"rating":` + tt.ratingJSON + `}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.CreateBook(rec, req)

			if rec.Code != http.StatusCreated {
				t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
			}

			response := decodeBody(t, rec)
			data := response["data"].(map[string]interface{})
			if data["rating"] != tt.want {
				t.Errorf("Expected rating %v, got %v", tt.want, data["rating"])
			}
		})
	}
}

func TestGetBook(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/B03", nil)
	req = withURLParams(req, map[string]string{"id": "B03"})
	rec := httptest.NewRecorder()

	handler.GetBook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})
	if data["id"] != "B03" || data["title"] != "Dune" {
		t.Errorf("Expected Dune record, got %v", data)
	}
}

func TestGetBookNotFound(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books/NOPE", nil)
	req = withURLParams(req, map[string]string{"id": "NOPE"})
	rec := httptest.NewRecorder()

	handler.GetBook(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	response := decodeBody(t, rec)
	if code := errorCode(t, response); code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND, got %s", code)
	}
	errObj := response["error"].(map[string]interface{})
	if errObj["message"] != "Book not found" {
		t.Errorf("Expected 'Book not found', got %v", errObj["message"])
	}
}

func TestDeleteBookCascades(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	rb := &recordingBroadcaster{}
	handler.SetBroadcaster(rb)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/B01", nil)
	req = withURLParams(req, map[string]string{"id": "B01"})
	rec := httptest.NewRecorder()

	handler.DeleteBook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}

	response := decodeBody(t, rec)
	data := response["data"].(map[string]interface{})
	if data["removed"] != true || data["id"] != "B01" {
		t.Errorf("Expected removal acknowledgement for B01, got %v", data)
	}

	if _, ok := handler.index.GetBook("B01"); ok {
		t.Error("Expected B01 to be gone from the catalog")
	}

	// The removed id must be purged from every user list.
	user, ok := handler.index.GetUser("U01")
	if !ok {
		t.Fatal("Expected U01 to still exist")
	}
	if len(user.Borrowed) != 0 {
		t.Errorf("Expected borrowed list purged, got %v", user.Borrowed)
	}
	if len(user.History) != 1 || user.History[0] != "B03" {
		t.Errorf("Expected history reduced to [B03], got %v", user.History)
	}

	if !rb.has("book_removed:B01") {
		t.Errorf("Expected book_removed:B01 broadcast, got %v", rb.events)
	}
	if !rb.has("stats_update:4:2") {
		t.Errorf("Expected stats_update:4:2 broadcast, got %v", rb.events)
	}
}

func TestDeleteBookNotFound(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/NOPE", nil)
	req = withURLParams(req, map[string]string{"id": "NOPE"})
	rec := httptest.NewRecorder()

	handler.DeleteBook(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	response := decodeBody(t, rec)
	if code := errorCode(t, response); code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND, got %s", code)
	}
}
