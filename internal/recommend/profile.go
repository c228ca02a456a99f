// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package recommend

import (
	"github.com/tomtom215/bibliotheca/internal/models"
)

// GenreProfile maps a genre tag to its weight in a user's history: the
// number of history books carrying the tag divided by the history length.
type GenreProfile map[string]float64

// BuildProfile derives a genre profile from a history of books. Tags are
// comma-split, trimmed, and empty tags discarded; a book with several tags
// contributes to each of them. A nil or empty history yields an empty
// profile.
func BuildProfile(history []*models.Book) GenreProfile {
	profile := make(GenreProfile)
	if len(history) == 0 {
		return profile
	}

	counts := make(map[string]int)
	for _, book := range history {
		for _, tag := range book.GenreTags() {
			counts[tag]++
		}
	}

	total := float64(len(history))
	for tag, count := range counts {
		profile[tag] = float64(count) / total
	}
	return profile
}

// affinityScore computes the genre-affinity of a candidate book against a
// profile: the sum of the profile weights of the book's tags, divided by
// the number of tags on the book. The division normalizes multi-genre
// books against single-genre ones. A book with no tags scores zero.
func affinityScore(book *models.Book, profile GenreProfile) float64 {
	tags := book.GenreTags()
	if len(tags) == 0 {
		return 0
	}

	var sum float64
	for _, tag := range tags {
		sum += profile[tag]
	}
	return sum / float64(len(tags))
}
