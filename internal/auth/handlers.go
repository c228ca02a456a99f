// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package auth

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
	"github.com/tomtom215/bibliotheca/internal/models"
	"github.com/tomtom215/bibliotheca/internal/validation"
)

// LoginRequest is the login endpoint's JSON body.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// Handlers provides the HTTP handlers for authentication operations.
type Handlers struct {
	middleware *Middleware
}

// NewHandlers creates handlers bound to the middleware's mode and keys.
func NewHandlers(m *Middleware) *Handlers {
	return &Handlers{middleware: m}
}

// Login authenticates the admin account and issues a JWT.
// POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.middleware.authMode == AuthModeNone {
		respondAuthError(w, http.StatusServiceUnavailable, "authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAuth(w, http.StatusBadRequest, nil, &models.APIError{
			Code:    "INVALID_JSON",
			Message: "request body is not valid JSON",
		})
		return
	}

	if validationErr := validation.ValidateStruct(&req); validationErr != nil {
		apiErr := validationErr.ToAPIError()
		respondAuth(w, http.StatusBadRequest, nil, &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return
	}

	if !h.middleware.credentials.Verify(req.Username, req.Password) {
		metrics.RecordAuthAttempt(false)
		h.middleware.securityLog.LogLoginFailure(r, req.Username, "invalid credentials")
		respondAuthError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.middleware.jwtManager.GenerateToken(req.Username, "admin")
	if err != nil {
		metrics.RecordAuthAttempt(false)
		logging.Error().Err(err).Msg("Failed to generate token")
		respondAuthError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	metrics.RecordAuthAttempt(true)
	h.middleware.securityLog.LogLoginSuccess(r, req.Username)

	// Browser clients authenticate through this cookie; API clients use
	// the bearer token from the body. The header wins when both arrive.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.middleware.jwtManager.Timeout().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	respondAuth(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.middleware.jwtManager.Timeout()),
		Role:      "admin",
	}, nil)
}

// UserInfo returns the authenticated user's claims.
// GET /api/v1/auth/userinfo
func (h *Handlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	if h.middleware.authMode == AuthModeNone {
		respondAuth(w, http.StatusOK, map[string]string{
			"username": "anonymous",
			"role":     "admin",
		}, nil)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondAuthError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	respondAuth(w, http.StatusOK, map[string]string{
		"username": claims.Username,
		"role":     claims.Role,
	}, nil)
}

// Status reports the active auth mode so clients know whether to present
// a login form.
// GET /api/v1/auth/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	respondAuth(w, http.StatusOK, map[string]string{
		"mode": h.middleware.authMode,
	}, nil)
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	respondAuth(w, status, nil, &models.APIError{
		Code:    "AUTHENTICATION_ERROR",
		Message: message,
	})
}

func respondAuth(w http.ResponseWriter, status int, data interface{}, apiErr *models.APIError) {
	response := &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}
	if apiErr != nil {
		response.Status = "error"
		response.Error = apiErr
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error().Err(err).Msg("Failed to encode auth response")
	}
}
