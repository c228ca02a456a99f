// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package models defines the record types shared across the catalog,
// search, and recommendation packages, plus the API response envelope.
package models

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ValidationError reports a field that failed its shape contract during
// record construction. It is returned synchronously and no partial record
// is ever admitted into the catalog.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Rating is an optional numeric rating. Absent ratings are the zero value.
//
// Ratings are best-effort: a wrong-typed rating in source data is coerced
// to absent rather than rejected. This asymmetry against the strict
// identity/text fields is deliberate and load-bearing for bulk loads.
type Rating struct {
	Value float64
	Valid bool
}

// NewRating returns a present rating with the given value.
func NewRating(v float64) Rating {
	return Rating{Value: v, Valid: true}
}

// UnmarshalJSON accepts a JSON number and coerces every other shape
// (null, string, bool, array, object) to an absent rating without error.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		r.Value, r.Valid = 0, false
		return nil
	}
	r.Value, r.Valid = v, true
	return nil
}

// MarshalJSON emits the rating value, or null when absent.
func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Book is an immutable-shaped catalog record. Equality is structural over
// all six fields. The Genre field is a single string that may encode
// multiple comma-separated genre tags; use GenreTags to split it.
type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   int    `json:"year"`
	Rating Rating `json:"rating"`
}

// NewBook validates and constructs a Book. The identity and text fields
// are checked strictly and fail with a *ValidationError; rating is
// optional and passed as nil when absent.
func NewBook(id, title, author, genre string, year int, rating *float64) (*Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, newValidationError("id", "must be a non-empty string")
	}
	if strings.TrimSpace(title) == "" {
		return nil, newValidationError("title", "must be a non-empty string")
	}
	if strings.TrimSpace(author) == "" {
		return nil, newValidationError("author", "must be a non-empty string")
	}
	if strings.TrimSpace(genre) == "" {
		return nil, newValidationError("genre", "must be a non-empty string")
	}

	b := &Book{
		ID:     id,
		Title:  title,
		Author: author,
		Genre:  genre,
		Year:   year,
	}
	if rating != nil {
		b.Rating = NewRating(*rating)
	}
	return b, nil
}

// Equal reports structural equality over all six fields.
func (b *Book) Equal(other *Book) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.ID == other.ID &&
		b.Title == other.Title &&
		b.Author == other.Author &&
		b.Genre == other.Genre &&
		b.Year == other.Year &&
		b.Rating == other.Rating
}

// GenreTags splits the genre string on commas, trims each tag, and drops
// empty tags. A book whose genre encodes no usable tag returns an empty
// slice, never nil.
func (b *Book) GenreTags() []string {
	parts := strings.Split(b.Genre, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
