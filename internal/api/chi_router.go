// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/bibliotheca/internal/auth"
	"github.com/tomtom215/bibliotheca/internal/middleware"
)

// Router wires the request handlers, the authentication middleware, and the
// Chi middleware stack into the served route tree.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	authHandlers  *auth.Handlers
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router for the given handler and auth middleware. The
// Chi middleware (CORS, rate limit tiers) is derived from the security
// section of the handler's configuration.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) *Router {
	chiMw := NewChiMiddleware(DefaultChiMiddlewareConfig())
	if handler.config != nil {
		chiMw = NewChiMiddlewareFromSecurity(&handler.config.Security)
	}

	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		authHandlers:  auth.NewHandlers(authMiddleware),
		chiMiddleware: chiMw,
	}
}

// requireAdmin adapts RequireRole to Chi's middleware signature.
func (router *Router) requireAdmin(next http.Handler) http.Handler {
	return router.middleware.RequireRole("admin", next)
}

// SetupChi configures all HTTP routes using the Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	perf := router.handler.PerformanceMonitor()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())      // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting so external monitors can poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())

		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		// Login carries the strictest limits: the httprate tier plus the
		// per-IP limiter inside the auth package.
		r.With(router.chiMiddleware.RateLimitLogin(), router.middleware.LimitLogin).
			Post("/login", router.authHandlers.Login)

		r.With(router.chiMiddleware.RateLimit(), router.middleware.Authenticate).
			Get("/userinfo", router.authHandlers.UserInfo)
		r.With(router.chiMiddleware.RateLimit()).
			Get("/status", router.authHandlers.Status)
	})

	// ========================
	// Catalog Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())

		// Read endpoints are open to any client.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Use(middleware.PrometheusMetrics)
			r.Use(perf.Middleware)

			r.Get("/books", router.handler.ListBooks)
			r.Get("/books/{id}", router.handler.GetBook)
			r.Get("/users", router.handler.ListUsers)
			r.Get("/users/{id}", router.handler.GetUser)
			r.Get("/users/{id}/borrowed", router.handler.GetUserBorrowed)
			r.Get("/users/{id}/history", router.handler.GetUserHistory)
		})

		// Mutations require authentication.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Use(middleware.PrometheusMetrics)
			r.Use(perf.Middleware)
			r.Use(router.middleware.Authenticate)

			r.Post("/books", router.handler.CreateBook)
			r.Delete("/books/{id}", router.handler.DeleteBook)
			r.Post("/users", router.handler.CreateUser)
			r.Delete("/users/{id}", router.handler.DeleteUser)
			r.Post("/users/{id}/checkout/{bookID}", router.handler.Checkout)
			r.Post("/users/{id}/checkin/{bookID}", router.handler.Checkin)
		})

		// The upgrade hijacks the connection, so the response wrappers used
		// for latency metrics stay out of this group.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWebSocket())

			r.Get("/ws", router.handler.WebSocket)
		})
	})

	// ========================
	// Search Endpoints
	// ========================
	// Burst-friendly rate limiting for interactive type-ahead clients.
	r.Route("/api/v1/search", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitSearch())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(perf.Middleware)

		r.Get("/", router.handler.Search)
		r.Get("/fuzzy", router.handler.FuzzySearch)
	})

	// ========================
	// Recommendation Endpoints
	// ========================
	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(perf.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitSearch())

			r.Get("/top", router.handler.TopRated)
			r.Get("/user/{userID}", router.handler.UserRecommendations)
			r.Get("/status", router.handler.RecommendationStatus)
		})

		// Retraining is an admin action.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitAdmin())
			r.Use(router.middleware.Authenticate)
			r.Use(router.requireAdmin)

			r.Post("/train", router.handler.TriggerTraining)
		})
	})

	// ========================
	// Admin Endpoints
	// ========================
	// Strict rate limiting; the bulk reload rebuilds the whole catalog.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAdmin())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(perf.Middleware)
		r.Use(router.middleware.Authenticate)
		r.Use(router.requireAdmin)

		r.Post("/load", router.handler.TriggerLoad)
		r.Get("/stats", router.handler.AdminStats)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
