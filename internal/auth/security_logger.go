// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package auth

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bibliotheca/internal/logging"
)

// SecurityLogger emits structured records for security-relevant events:
// logins, rejected tokens, and rate-limit hits. Records go to the normal
// log stream with a fixed component field so operators can filter them
// for monitoring or forensics. All attacker-controlled values pass
// through sanitization before logging.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security event logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{
		logger: logging.WithComponent("security"),
	}
}

// LogLoginSuccess records a successful login.
func (l *SecurityLogger) LogLoginSuccess(r *http.Request, username string) {
	l.logger.Info().
		Str("event", "login_success").
		Str("username", sanitize(username)).
		Str("remote_ip", remoteIP(r)).
		Str("user_agent", sanitize(r.UserAgent())).
		Msg("Login succeeded")
}

// LogLoginFailure records a failed login attempt. The username is logged
// sanitized so probing with crafted names cannot forge log lines.
func (l *SecurityLogger) LogLoginFailure(r *http.Request, username, reason string) {
	l.logger.Warn().
		Str("event", "login_failure").
		Str("username", sanitize(username)).
		Str("reason", reason).
		Str("remote_ip", remoteIP(r)).
		Str("user_agent", sanitize(r.UserAgent())).
		Msg("Login failed")
}

// LogTokenRejected records a request that presented an invalid token.
func (l *SecurityLogger) LogTokenRejected(r *http.Request, err error) {
	l.logger.Warn().
		Str("event", "token_rejected").
		Err(err).
		Str("remote_ip", remoteIP(r)).
		Str("path", r.URL.Path).
		Msg("Token rejected")
}

// LogRateLimited records a request blocked by the login rate limiter.
func (l *SecurityLogger) LogRateLimited(r *http.Request) {
	l.logger.Warn().
		Str("event", "rate_limited").
		Str("remote_ip", remoteIP(r)).
		Str("path", r.URL.Path).
		Msg("Request rate limited")
}

// remoteIP returns the connection's peer address without the port.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sanitize replaces control characters with escaped representations to
// prevent log injection, and truncates unreasonably long values.
func sanitize(s string) string {
	const maxLen = 256
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
