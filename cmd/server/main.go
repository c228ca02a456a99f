// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package main is the entry point for the Bibliotheca server application.
//
// Bibliotheca is a self-hosted library catalog engine. It indexes book and
// user records in memory, answers exact and fuzzy title searches, tracks
// checkouts and returns, and produces reading recommendations from ratings
// and per-user genre affinity.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Logging: zerolog with JSON/console output modes
//  3. Catalog Index: In-memory ordered book/user index with O(1) lookups
//  4. Bulk Load: NDJSON data files (bad data degrades, never aborts boot)
//  5. Search and Recommendation Engines: Title matching and genre profiles
//  6. Authentication: JWT or no-auth mode
//  7. Event Hub: WebSocket notifications for catalog changes
//  8. Supervisor Tree: Suture v4 supervision of hub, trainer, and HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// For JWT authentication:
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_USERNAME: Admin username
//   - ADMIN_PASSWORD: Admin password (8+ characters)
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the trainer and event hub
//
// # Example Usage
//
// Development (no auth):
//
//	export AUTH_MODE=none
//	export BOOKS_PATH=./data/books.ndjson
//	export USERS_PATH=./data/users.ndjson
//	./bibliotheca
//
// Production with JWT:
//
//	export AUTH_MODE=jwt
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_USERNAME=admin
//	export ADMIN_PASSWORD=secure-password
//	./bibliotheca
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/bibliotheca/docs" // Import generated swagger docs
	"github.com/tomtom215/bibliotheca/internal/api"
	"github.com/tomtom215/bibliotheca/internal/auth"
	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/events"
	"github.com/tomtom215/bibliotheca/internal/loader"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/recommend"
	"github.com/tomtom215/bibliotheca/internal/search"
	"github.com/tomtom215/bibliotheca/internal/supervisor"
	"github.com/tomtom215/bibliotheca/internal/supervisor/services"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Bibliotheca with supervisor tree")

	logging.Info().
		Str("books_path", cfg.Library.BooksPath).
		Str("users_path", cfg.Library.UsersPath).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	// Watch the config file so log level changes apply without a restart.
	// Everything else needs a full reboot.
	if path := config.FindConfigFile(); path != "" {
		watchConfig(path)
	}

	// Build the catalog index and run the bulk load. Loading is a boot
	// step, not a supervised service: bad or missing data files degrade
	// to an empty catalog and the server starts anyway.
	index := catalog.New()
	ldr := loader.New(index)
	if cfg.Library.LoadOnStartup {
		result := ldr.LoadAll(cfg.Library)
		logging.Info().
			Int("books_loaded", result.BooksLoaded).
			Int("books_skipped", result.BooksSkipped).
			Int("users_loaded", result.UsersLoaded).
			Int("users_skipped", result.UsersSkipped).
			Int("dropped_references", result.DroppedRefs).
			Float64("duration_ms", result.DurationMS).
			Msg("Catalog loaded")
	} else {
		logging.Info().Msg("Startup load disabled (LOAD_ON_STARTUP=false), catalog starts empty")
	}

	searchEngine := search.NewEngine(index, cfg.Search)

	var recommendEngine *recommend.Engine
	if cfg.Recommend.Enabled {
		recommendEngine = recommend.NewEngine(index, cfg.Recommend)
	} else {
		logging.Info().Msg("Recommendation engine disabled (RECOMMEND_ENABLED=false)")
	}

	switch cfg.Security.AuthMode {
	case auth.AuthModeJWT:
		logging.Info().Msg("JWT authentication enabled")
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	middleware, err := auth.NewMiddleware(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for CI/CD testing!")
	}

	// Create the event hub before the handler so catalog mutations can
	// broadcast from the first request onward.
	var hub *events.Hub
	if cfg.Events.Enabled {
		hub = events.NewHub(cfg.Events)
		logging.Info().
			Int("buffer_size", cfg.Events.BufferSize).
			Int("max_clients", cfg.Events.MaxClients).
			Msg("Event hub created")
	} else {
		logging.Info().Msg("Event hub disabled (EVENTS_ENABLED=false)")
	}

	handler := api.NewHandler(index, searchEngine, recommendEngine, ldr, hub, cfg)
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Index layer services
	if hub != nil {
		tree.AddIndexService(services.NewEventHubService(hub))
		logging.Info().Msg("Event hub added to supervisor tree")
	}
	if recommendEngine != nil {
		tree.AddIndexService(services.NewTrainerService(recommendEngine, services.TrainerConfig{
			TrainOnStartup: cfg.Recommend.TrainOnStartup,
			TrainInterval:  cfg.Recommend.TrainInterval,
		}, logging.WithComponent("recommend")))
		logging.Info().
			Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
			Dur("train_interval", cfg.Recommend.TrainInterval).
			Msg("Trainer added to supervisor tree")
	}

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// watchConfig wires config file hot reload. Reload failures are logged
// and the running configuration stays in effect.
func watchConfig(path string) {
	err := config.WatchConfigFile(path, func() {
		newCfg, err := config.Load()
		if err != nil {
			logging.Error().Err(err).Msg("Config reload failed")
			return
		}
		logging.SetLevelString(newCfg.Logging.Level)
		logging.Info().Str("level", newCfg.Logging.Level).Msg("Log level reloaded from config file")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch failed")
		return
	}
	logging.Info().Str("path", path).Msg("Watching config file for changes")
}
