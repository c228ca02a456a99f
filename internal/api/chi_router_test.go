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
	"time"

	"github.com/tomtom215/bibliotheca/internal/auth"
	"github.com/tomtom215/bibliotheca/internal/config"
)

// setupTestRouter builds a router over a seeded catalog with authentication
// disabled, matching the default deployment mode.
func setupTestRouter(t *testing.T) *Router {
	t.Helper()

	handler := newTestHandler(t)
	mw, err := auth.NewMiddleware(&handler.config.Security)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}

	return NewRouter(handler, mw)
}

// setupJWTRouter builds a router with JWT authentication enabled so the
// login flow and write protection can be exercised end to end.
func setupJWTRouter(t *testing.T) *Router {
	t.Helper()

	handler := newTestHandler(t)
	handler.config.Security = config.SecurityConfig{
		AuthMode:       auth.AuthModeJWT,
		JWTSecret:      "test_secret_with_at_least_32_characters_for_testing",
		SessionTimeout: 24 * time.Hour,
		AdminUsername:  "admin",
		AdminPassword:  "password123",
		CORSOrigins:    []string{"*"},
	}

	mw, err := auth.NewMiddleware(&handler.config.Security)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}

	return NewRouter(handler, mw)
}

// loginFor obtains a bearer token from the router's login endpoint.
func loginFor(t *testing.T, mux http.Handler) string {
	t.Helper()

	body := strings.NewReader(`{"username":"admin","password":"password123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}

	response := decodeBody(t, w)
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object in login response, got %v", response["data"])
	}
	token, ok := data["token"].(string)
	if !ok || token == "" {
		t.Fatal("Expected non-empty token in login response")
	}

	return token
}

// TestNewRouter tests router creation
func TestNewRouter(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	mw, err := auth.NewMiddleware(&handler.config.Security)
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}

	router := NewRouter(handler, mw)

	if router == nil {
		t.Fatal("NewRouter returned nil")
	}
	if router.handler != handler {
		t.Error("Handler not set correctly")
	}
	if router.middleware != mw {
		t.Error("Middleware not set correctly")
	}
	if router.authHandlers == nil {
		t.Error("Auth handlers not initialized")
	}
	if router.chiMiddleware == nil {
		t.Error("Chi middleware not initialized")
	}
}

// TestRouterSetup_HealthEndpoints tests that health endpoints are correctly configured
func TestRouterSetup_HealthEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"health live endpoint", "/api/v1/health/live", http.StatusOK},
		{"health ready endpoint", "/api/v1/health/ready", http.StatusOK},
		{"health legacy endpoint", "/api/v1/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s: expected status %d, got %d", tt.name, tt.expectedStatus, w.Code)
			}
		})
	}
}

// TestRouterSetup_CatalogEndpoints tests that catalog read endpoints are correctly configured
func TestRouterSetup_CatalogEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	tests := []struct {
		name string
		path string
	}{
		{"books list", "/api/v1/books"},
		{"book by id", "/api/v1/books/B01"},
		{"users list", "/api/v1/users"},
		{"user by id", "/api/v1/users/U01"},
		{"user borrowed", "/api/v1/users/U01/borrowed"},
		{"user history", "/api/v1/users/U01/history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d", tt.name, w.Code)
			}
		})
	}
}

// TestRouterSetup_MutationEndpoints tests that write endpoints pass through
// when authentication is disabled
func TestRouterSetup_MutationEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	t.Run("create book", func(t *testing.T) {
		body := strings.NewReader(`{"id":"B90","title":"Snow Crash","author":"Neal Stephenson","genre":"Science Fiction","year":1992}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("delete book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/B05", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("checkout", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/U02/checkout/B03", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("checkin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/U02/checkin/B03", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}

// TestRouterSetup_SearchEndpoints tests that search endpoints are correctly configured
func TestRouterSetup_SearchEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	tests := []struct {
		name string
		path string
	}{
		{"exact search", "/api/v1/search?q=Dune"},
		{"fuzzy search", "/api/v1/search/fuzzy?q=Dnue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d: %s", tt.name, w.Code, w.Body.String())
			}
		})
	}
}

// TestRouterSetup_RecommendationEndpoints tests that recommendation endpoints are correctly configured
func TestRouterSetup_RecommendationEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	tests := []struct {
		name   string
		path   string
		method string
	}{
		{"top rated", "/api/v1/recommendations/top", http.MethodGet},
		{"user recommendations", "/api/v1/recommendations/user/U01", http.MethodGet},
		{"status", "/api/v1/recommendations/status", http.MethodGet},
		{"train", "/api/v1/recommendations/train", http.MethodPost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("%s: expected status 200, got %d: %s", tt.name, w.Code, w.Body.String())
			}
		})
	}
}

// TestRouterSetup_AdminEndpoints tests that admin endpoints are correctly configured
func TestRouterSetup_AdminEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	// No data files are configured, so the rebuild completes with zero
	// counts rather than failing.
	t.Run("trigger load", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/load", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}

// TestRouterSetup_AuthEndpoints tests that auth endpoints are correctly configured
func TestRouterSetup_AuthEndpoints(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	tests := []struct {
		name           string
		path           string
		method         string
		expectedStatus int
	}{
		// Login is refused while authentication is disabled.
		{"login", "/api/v1/auth/login", http.MethodPost, http.StatusServiceUnavailable},
		{"userinfo", "/api/v1/auth/userinfo", http.MethodGet, http.StatusOK},
		{"status", "/api/v1/auth/status", http.MethodGet, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s: expected status %d, got %d", tt.name, tt.expectedStatus, w.Code)
			}
		})
	}
}

// TestRouterSetup_AuthStatusReportsMode tests the status payload in none mode
func TestRouterSetup_AuthStatusReportsMode(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	response := decodeBody(t, w)
	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %v", response["data"])
	}
	if data["mode"] != "none" {
		t.Errorf("Expected mode none, got %v", data["mode"])
	}
}

// TestRouterSetup_WebSocketEndpoint tests that the websocket route rejects
// cleanly when no event hub is attached
func TestRouterSetup_WebSocketEndpoint(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}

	response := decodeBody(t, w)
	if code := errorCode(t, response); code != "SERVICE_UNAVAILABLE" {
		t.Errorf("Expected error code SERVICE_UNAVAILABLE, got %s", code)
	}
}

// TestRouterSetup_MetricsEndpoint tests that Prometheus metrics endpoint is configured
func TestRouterSetup_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /metrics, got %d", w.Code)
	}

	// Check content type is Prometheus format
	contentType := w.Header().Get("Content-Type")
	if contentType == "" {
		t.Error("Expected Content-Type header for metrics endpoint")
	}
}

// TestRouterSetup_SwaggerEndpoint tests that the Swagger UI route is mounted
func TestRouterSetup_SwaggerEndpoint(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code == http.StatusNotFound {
		t.Error("Swagger UI route not mounted (404)")
	}
}

// TestRouterSetup_SecurityHeaders tests that API responses carry security headers
func TestRouterSetup_SecurityHeaders(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

// TestRouterSetup_CORSPreflight tests that the global CORS middleware answers
// preflight requests before routing
func TestRouterSetup_CORSPreflight(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code >= http.StatusMultipleChoices {
		t.Errorf("Expected preflight success, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

// TestRouterSetup_UnknownRoute tests 404 and 405 handling
func TestRouterSetup_UnknownRoute(t *testing.T) {
	t.Parallel()

	router := setupTestRouter(t)
	mux := router.SetupChi()

	t.Run("unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/nonexistent", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected status 405, got %d", w.Code)
		}
	})
}

// TestRouterSetup_JWTRequiresToken tests that JWT mode protects writes while
// leaving reads open
func TestRouterSetup_JWTRequiresToken(t *testing.T) {
	t.Parallel()

	router := setupJWTRouter(t)
	mux := router.SetupChi()

	t.Run("reads stay open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("write without token rejected", func(t *testing.T) {
		body := strings.NewReader(`{"id":"B91","title":"Hyperion","author":"Dan Simmons","genre":"Science Fiction","year":1989}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("write with token accepted", func(t *testing.T) {
		token := loginFor(t, mux)

		body := strings.NewReader(`{"id":"B91","title":"Hyperion","author":"Dan Simmons","genre":"Science Fiction","year":1989}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/books", body)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
	})
}

// TestRouterSetup_JWTLoginFlow tests login failure, status, and userinfo in JWT mode
func TestRouterSetup_JWTLoginFlow(t *testing.T) {
	t.Parallel()

	router := setupJWTRouter(t)
	mux := router.SetupChi()

	t.Run("wrong credentials rejected", func(t *testing.T) {
		body := strings.NewReader(`{"username":"admin","password":"wrong_password"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected status 401, got %d", w.Code)
		}

		response := decodeBody(t, w)
		if code := errorCode(t, response); code != "AUTHENTICATION_ERROR" {
			t.Errorf("Expected error code AUTHENTICATION_ERROR, got %s", code)
		}
	})

	t.Run("status reports jwt mode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}

		response := decodeBody(t, w)
		data, ok := response["data"].(map[string]interface{})
		if !ok {
			t.Fatalf("Expected data object, got %v", response["data"])
		}
		if data["mode"] != "jwt" {
			t.Errorf("Expected mode jwt, got %v", data["mode"])
		}
	})

	t.Run("userinfo without token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/userinfo", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})
}

// TestRouterSetup_JWTAdminAccess tests that admin routes enforce the token in JWT mode
func TestRouterSetup_JWTAdminAccess(t *testing.T) {
	t.Parallel()

	router := setupJWTRouter(t)
	mux := router.SetupChi()

	t.Run("train without token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations/train", nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("admin stats with token", func(t *testing.T) {
		token := loginFor(t, mux)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})
}
