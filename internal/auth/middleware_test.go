// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestMiddleware(t *testing.T, mode string) *Middleware {
	t.Helper()
	cfg := testSecurityConfig()
	cfg.AuthMode = mode
	m, err := NewMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewMiddleware: %v", err)
	}
	return m
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewMiddlewareJWTRequiresCredentials(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.AdminPassword = ""
	if _, err := NewMiddleware(cfg); err == nil {
		t.Error("expected error when jwt mode has no admin password")
	}

	cfg = testSecurityConfig()
	cfg.JWTSecret = ""
	if _, err := NewMiddleware(cfg); err == nil {
		t.Error("expected error when jwt mode has no secret")
	}
}

func TestAuthenticateNoneMode(t *testing.T) {
	m := newTestMiddleware(t, AuthModeNone)
	called := false

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	rec := httptest.NewRecorder()
	m.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Error("handler should be called in none mode")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateBearerToken(t *testing.T) {
	m := newTestMiddleware(t, AuthModeJWT)
	token, err := m.jwtManager.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotClaims *Claims
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Username != "alice" {
		t.Errorf("claims = %+v, want username alice", gotClaims)
	}
}

func TestAuthenticateCookieToken(t *testing.T) {
	m := newTestMiddleware(t, AuthModeJWT)
	token, err := m.jwtManager.GenerateToken("alice", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	called := false
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	m.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Error("handler should be called with valid cookie token")
	}
}

func TestAuthenticateRejections(t *testing.T) {
	m := newTestMiddleware(t, AuthModeJWT)

	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"invalid token", "Bearer not-a-real-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(okHandler(&called)).ServeHTTP(rec, req)

			if called {
				t.Error("handler must not be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	m := newTestMiddleware(t, AuthModeJWT)

	tests := []struct {
		name       string
		tokenRole  string
		required   string
		wantStatus int
	}{
		{"matching role", "editor", "editor", http.StatusOK},
		{"admin passes any role", "admin", "editor", http.StatusOK},
		{"insufficient role", "viewer", "editor", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := m.jwtManager.GenerateToken("alice", tt.tokenRole)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}

			called := false
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/books/B01", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			m.RequireRole(tt.required, okHandler(&called)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("called = %v with status %d", called, rec.Code)
			}
		})
	}
}

func TestLimitLoginDisabled(t *testing.T) {
	m := newTestMiddleware(t, AuthModeJWT)

	for i := 0; i < loginAttemptsPerWindow*2; i++ {
		called := false
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		rec := httptest.NewRecorder()
		m.LimitLogin(okHandler(&called)).ServeHTTP(rec, req)
		if !called {
			t.Fatalf("request %d blocked despite disabled limiter", i)
		}
	}
}

func TestLimitLoginBlocksAfterBurst(t *testing.T) {
	cfg := testSecurityConfig()
	cfg.RateLimitDisabled = false
	m, err := NewMiddleware(cfg)
	if err != nil {
		t.Fatalf("NewMiddleware: %v", err)
	}

	var lastCode int
	for i := 0; i < loginAttemptsPerWindow+1; i++ {
		called := false
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.7:40000"
		rec := httptest.NewRecorder()
		m.LimitLogin(okHandler(&called)).ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("request after burst got %d, want 429", lastCode)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("third request within window should be blocked")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("different IP should have its own budget")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	rl.Allow("3.3.3.3")
	rl.mu.Lock()
	rl.limiters["3.3.3.3"].lastAccess = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.RLock()
	_, exists := rl.limiters["3.3.3.3"]
	rl.mu.RUnlock()
	if exists {
		t.Error("stale limiter entry should be removed")
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		cookie  string
		want    string
		wantErr bool
	}{
		{"bearer header", "Bearer abc123", "", "abc123", false},
		{"cookie fallback", "", "xyz789", "xyz789", false},
		{"header wins over cookie", "Bearer abc123", "xyz789", "abc123", false},
		{"no token anywhere", "", "", "", true},
		{"malformed header", "abc123", "", "", true},
		{"wrong scheme", "Token abc123", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}

			got, err := extractToken(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
