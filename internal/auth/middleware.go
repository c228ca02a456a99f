// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package auth provides authentication for the catalog API. Two modes are
// supported: "none" passes every request through, "jwt" requires a valid
// bearer token issued by the login endpoint against the configured admin
// account. Login requests are rate limited per client IP independently of
// the general API limiter to slow credential guessing.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/metrics"
)

type contextKey string

// ClaimsContextKey is where Authenticate stores the validated claims.
const ClaimsContextKey contextKey = "claims"

// AuthModeNone and AuthModeJWT are the supported authentication modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// Middleware provides authentication and login rate limiting.
type Middleware struct {
	jwtManager        *JWTManager
	credentials       *AdminCredentials
	authMode          string
	loginLimiter      *RateLimiter
	rateLimitDisabled bool
	securityLog       *SecurityLogger
}

// NewMiddleware builds the middleware for the configured auth mode. In
// "jwt" mode the JWT manager and admin credentials must initialize; in
// "none" mode both stay nil and Authenticate is a passthrough.
func NewMiddleware(cfg *config.SecurityConfig) (*Middleware, error) {
	m := &Middleware{
		authMode:          cfg.AuthMode,
		loginLimiter:      NewRateLimiter(loginAttemptsPerWindow, loginWindow),
		rateLimitDisabled: cfg.RateLimitDisabled,
		securityLog:       NewSecurityLogger(),
	}

	if cfg.AuthMode == AuthModeJWT {
		jwtManager, err := NewJWTManager(cfg)
		if err != nil {
			return nil, fmt.Errorf("jwt manager: %w", err)
		}
		credentials, err := NewAdminCredentials(cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("admin credentials: %w", err)
		}
		m.jwtManager = jwtManager
		m.credentials = credentials
	}

	if !cfg.RateLimitDisabled {
		go m.loginLimiter.startCleanup(5 * time.Minute)
	}

	return m, nil
}

// Mode returns the active authentication mode.
func (m *Middleware) Mode() string {
	return m.authMode
}

// Authenticate enforces authentication on a handler. In "none" mode it
// passes through; otherwise a valid token must arrive as a bearer header
// or "token" cookie, and the claims land in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			m.securityLog.LogTokenRejected(r, err)
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole enforces authentication plus a role. The admin role always
// passes.
func (m *Middleware) RequireRole(role string, next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: invalid claims", http.StatusForbidden)
			return
		}

		if claims.Role != role && claims.Role != "admin" {
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}))
}

// ClaimsFromContext extracts the validated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

// extractToken pulls the JWT from the Authorization header or, failing
// that, the "token" cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("unauthorized: missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("unauthorized: invalid authorization header")
	}

	return parts[1], nil
}

// Login rate limiting is deliberately tighter than the API-wide limiter.
const (
	loginAttemptsPerWindow = 10
	loginWindow            = time.Minute
)

// LimitLogin wraps the login handler with the per-IP limiter.
func (m *Middleware) LimitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled {
			next.ServeHTTP(w, r)
			return
		}

		if !m.loginLimiter.Allow(remoteIP(r)) {
			m.securityLog.LogRateLimited(r)
			metrics.APIRateLimitHits.WithLabelValues("login").Inc()
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimiter implements per-IP rate limiting with automatic cleanup
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.RWMutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

// rateLimiterEntry wraps a rate limiter with last access time
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a limiter allowing reqsPerWindow requests per
// window per IP, with the full window available as burst.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	if reqsPerWindow < 1 {
		reqsPerWindow = 1
	}
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window / time.Duration(reqsPerWindow)),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically removes stale rate limiters
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

// cleanup removes rate limiters that haven't been accessed in the last hour
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
