// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing strength against login latency.
const bcryptCost = 12

// AdminCredentials holds the single admin account with a bcrypt-hashed
// password. The password is hashed once at initialization so login
// requests only pay for comparison, never for hashing the stored side.
type AdminCredentials struct {
	username     string
	passwordHash []byte
}

// NewAdminCredentials validates and hashes the configured admin account.
func NewAdminCredentials(username, password string) (*AdminCredentials, error) {
	if username == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("admin password is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("admin password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &AdminCredentials{
		username:     username,
		passwordHash: hash,
	}, nil
}

// Verify reports whether the supplied credentials match. The username
// comparison is constant-time and the password comparison is bcrypt's
// timing-safe CompareHashAndPassword; both always run so a wrong
// username costs the same as a wrong password.
func (c *AdminCredentials) Verify(username, password string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return usernameMatch && passwordMatch
}

// Username returns the configured admin username.
func (c *AdminCredentials) Username() string {
	return c.username
}
