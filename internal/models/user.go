// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package models

import "strings"

// User is a patron record. Borrowed and History hold book-id handles that
// resolve through the catalog's backing store; the catalog drops handles
// that do not resolve and purges handles when a book is removed, so user
// lists never dangle.
//
// History accumulates for the user's lifetime; Borrowed shrinks on checkin.
// Borrowed being a subset of History is intended semantics, maintained by
// the load path rather than enforced by construction.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Borrowed []string `json:"borrowed_books"`
	History  []string `json:"history"`
}

// NewUser validates and constructs a User. The handle lists are copied;
// resolution against the catalog happens at admission time, not here.
func NewUser(id, name string, borrowed, history []string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newValidationError("id", "must be a non-empty string")
	}
	if strings.TrimSpace(name) == "" {
		return nil, newValidationError("name", "must be a non-empty string")
	}
	u := &User{
		ID:       id,
		Name:     name,
		Borrowed: append([]string(nil), borrowed...),
		History:  append([]string(nil), history...),
	}
	if u.Borrowed == nil {
		u.Borrowed = []string{}
	}
	if u.History == nil {
		u.History = []string{}
	}
	return u, nil
}

// Clone returns a deep copy of the user. The catalog hands out clones so
// that callers never observe a list mid-mutation.
func (u *User) Clone() *User {
	return &User{
		ID:       u.ID,
		Name:     u.Name,
		Borrowed: append([]string{}, u.Borrowed...),
		History:  append([]string{}, u.History...),
	}
}

// HasBorrowed reports whether the book id is currently in the borrowed list.
func (u *User) HasBorrowed(bookID string) bool {
	for _, id := range u.Borrowed {
		if id == bookID {
			return true
		}
	}
	return false
}

// InHistory reports whether the book id appears in the user's history.
func (u *User) InHistory(bookID string) bool {
	for _, id := range u.History {
		if id == bookID {
			return true
		}
	}
	return false
}
