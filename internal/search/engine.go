// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package search implements exact and fuzzy title lookup over the catalog.
//
// Exact lookup compares whitespace- and case-normalized titles through the
// catalog's O(1) title index. Fuzzy lookup first tries the same normalized
// exact match and short-circuits on a hit; only when no exact match exists
// does it rank every catalog title by similarity ratio against the query.
package search

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// Engine answers title queries against a catalog snapshot. Cutoff and
// result cap come from configuration; the similarity function is pluggable
// and defaults to Ratio.
type Engine struct {
	index      *catalog.Index
	similarity SimilarityFunc
	cutoff     float64
	maxResults int
	logger     zerolog.Logger
}

// NewEngine creates a search engine over the given catalog.
func NewEngine(index *catalog.Index, cfg config.SearchConfig) *Engine {
	return &Engine{
		index:      index,
		similarity: Ratio,
		cutoff:     cfg.FuzzyCutoff,
		maxResults: cfg.FuzzyMaxResults,
		logger:     logging.WithComponent("search"),
	}
}

// SetSimilarity replaces the similarity function. Intended for wiring an
// alternative scorer at startup, before the engine serves queries.
func (e *Engine) SetSimilarity(fn SimilarityFunc) {
	if fn != nil {
		e.similarity = fn
	}
}

// Exact returns the book whose normalized title equals the normalized
// query, or false when no such book exists.
func (e *Engine) Exact(title string) (*models.Book, bool) {
	start := time.Now()
	book, ok := e.index.GetBookByTitle(title)

	results := 0
	if ok {
		results = 1
	}
	metrics.RecordSearch("exact", time.Since(start), results)

	if !ok {
		e.logger.Debug().Str("query", title).Msg("Exact search found nothing")
	}
	return book, ok
}

// Fuzzy searches with the configured cutoff and result cap.
func (e *Engine) Fuzzy(title string) []*models.Book {
	return e.FuzzyWith(title, e.maxResults, e.cutoff)
}

// FuzzyWith ranks catalog titles by similarity against the query and
// returns up to maxResults books scoring at or above cutoff, best first.
// Ties keep catalog insertion order. An exact normalized match
// short-circuits the ranking and returns every book holding that title,
// in insertion order. An empty query returns an empty result immediately.
func (e *Engine) FuzzyWith(title string, maxResults int, cutoff float64) []*models.Book {
	start := time.Now()

	norm := catalog.NormalizeTitle(title)
	if norm == "" {
		metrics.RecordSearch("fuzzy", time.Since(start), 0)
		return []*models.Book{}
	}

	if exact := e.index.GetBooksByTitle(norm); len(exact) > 0 {
		metrics.RecordSearch("fuzzy", time.Since(start), len(exact))
		e.logger.Debug().
			Str("query", title).
			Int("results", len(exact)).
			Msg("Fuzzy search resolved exactly")
		return exact
	}

	type scored struct {
		book  *models.Book
		score float64
	}

	books := e.index.Books()
	candidates := make([]scored, 0, len(books))
	for _, b := range books {
		score := e.similarity(norm, catalog.NormalizeTitle(b.Title))
		if score >= cutoff {
			candidates = append(candidates, scored{book: b, score: score})
		}
	}

	// Stable sort keeps insertion order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if maxResults > 0 && len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	results := make([]*models.Book, len(candidates))
	for i, c := range candidates {
		results[i] = c.book
	}

	metrics.RecordSearch("fuzzy", time.Since(start), len(results))
	e.logger.Debug().
		Str("query", title).
		Int("results", len(results)).
		Float64("cutoff", cutoff).
		Msg("Fuzzy search completed")

	return results
}
