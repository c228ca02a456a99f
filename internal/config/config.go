// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package config holds all application configuration loaded from defaults,
// an optional YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Config is immutable after Load() and safe for concurrent read access
// from multiple goroutines.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	// cfg.Server.Port, cfg.Library.BooksPath, etc. are now populated
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Library   LibraryConfig   `koanf:"library"`
	Search    SearchConfig    `koanf:"search"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8020)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // Enables stricter security validation in production
}

// LibraryConfig holds catalog data source settings.
//
// Books and users are loaded from NDJSON files (one JSON object per line).
// A missing or malformed file is logged and produces an empty catalog; it
// never prevents startup.
type LibraryConfig struct {
	BooksPath     string `koanf:"books_path"`      // NDJSON file of book records
	UsersPath     string `koanf:"users_path"`      // NDJSON file of user records
	LoadOnStartup bool   `koanf:"load_on_startup"` // Load data files during boot (default: true)
}

// SearchConfig holds title search tuning.
type SearchConfig struct {
	// FuzzyCutoff is the minimum similarity ratio (0.0-1.0) for a fuzzy
	// match to be included in results. Default: 0.6
	FuzzyCutoff float64 `koanf:"fuzzy_cutoff"`

	// FuzzyMaxResults caps the number of fuzzy matches returned. Default: 10
	FuzzyMaxResults int `koanf:"fuzzy_max_results"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	Enabled        bool          `koanf:"enabled"`
	DefaultCount   int           `koanf:"default_count"`    // Results when the caller omits count
	MaxCount       int           `koanf:"max_count"`        // Hard cap on requested count
	TrainOnStartup bool          `koanf:"train_on_startup"` // Build genre profiles during boot
	TrainInterval  time.Duration `koanf:"train_interval"`   // Periodic profile rebuild (0 disables)
}

// EventsConfig holds WebSocket event hub settings.
type EventsConfig struct {
	Enabled       bool    `koanf:"enabled"`
	BufferSize    int     `koanf:"buffer_size"`    // Per-client send buffer (messages)
	BroadcastRate float64 `koanf:"broadcast_rate"` // Max catalog change events per second (0 = unlimited)
	MaxClients    int     `koanf:"max_clients"`
}

// APIConfig holds pagination and response limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and rate limiting settings.
//
// Environment Variables:
//   - AUTH_MODE: none or jwt (default: none)
//   - JWT_SECRET: HMAC secret for token signing (required for jwt mode)
//   - ADMIN_USERNAME / ADMIN_PASSWORD: Credentials for the login endpoint
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Request throttling
//   - CORS_ORIGINS: Comma-separated list of allowed origins
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}

	if c.Search.FuzzyCutoff < 0 || c.Search.FuzzyCutoff > 1 {
		return fmt.Errorf("search.fuzzy_cutoff must be between 0.0 and 1.0, got %g", c.Search.FuzzyCutoff)
	}
	if c.Search.FuzzyMaxResults < 1 {
		return fmt.Errorf("search.fuzzy_max_results must be at least 1, got %d", c.Search.FuzzyMaxResults)
	}

	if c.Recommend.DefaultCount < 1 {
		return fmt.Errorf("recommend.default_count must be at least 1, got %d", c.Recommend.DefaultCount)
	}
	if c.Recommend.MaxCount < c.Recommend.DefaultCount {
		return fmt.Errorf("recommend.max_count (%d) must be >= recommend.default_count (%d)",
			c.Recommend.MaxCount, c.Recommend.DefaultCount)
	}

	if c.Events.Enabled {
		if c.Events.BufferSize < 1 {
			return fmt.Errorf("events.buffer_size must be at least 1, got %d", c.Events.BufferSize)
		}
		if c.Events.BroadcastRate < 0 {
			return fmt.Errorf("events.broadcast_rate must not be negative, got %g", c.Events.BroadcastRate)
		}
		if c.Events.MaxClients < 1 {
			return fmt.Errorf("events.max_clients must be at least 1, got %d", c.Events.MaxClients)
		}
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// validateSecurity checks authentication and rate limiting settings, with
// stricter requirements when running in production mode.
func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case "none":
		if c.Server.Environment == "production" {
			return fmt.Errorf("security.auth_mode none is not allowed in production (set AUTH_MODE=jwt)")
		}
	case "jwt":
		if c.Security.JWTSecret == "" {
			return fmt.Errorf("security.jwt_secret is required when auth_mode is jwt")
		}
		if c.Server.Environment == "production" && len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 characters in production, got %d",
				len(c.Security.JWTSecret))
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("security.admin_username and security.admin_password are required when auth_mode is jwt")
		}
		if c.Security.SessionTimeout <= 0 {
			return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
		}
	default:
		return fmt.Errorf("security.auth_mode must be none or jwt, got %q", c.Security.AuthMode)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s", c.Security.RateLimitWindow)
		}
	}

	return nil
}

// Addr returns the host:port listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the server runs in production mode.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}
