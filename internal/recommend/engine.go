// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

// Package recommend ranks catalog books for callers: globally by rating,
// or per user by genre affinity against the user's borrowing history.
//
// Every query re-derives its result from the catalog's current snapshot;
// the trained profile cache only feeds the status surface and keeps the
// periodic training cycle observable. Stale profiles therefore never
// produce stale recommendations.
package recommend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/bibliotheca/internal/catalog"
	"github.com/tomtom215/bibliotheca/internal/config"
	"github.com/tomtom215/bibliotheca/internal/logging"
	"github.com/tomtom215/bibliotheca/internal/metrics"
	"github.com/tomtom215/bibliotheca/internal/models"
)

// Engine computes top-rated and personalized recommendations.
// All methods are safe for concurrent use.
type Engine struct {
	index  *catalog.Index
	cfg    config.RecommendConfig
	logger zerolog.Logger

	mu         sync.RWMutex
	profiles   map[string]GenreProfile
	lastTrain  time.Time
	trainCount int
}

// Status describes the engine's training state for the ops surface.
type Status struct {
	Enabled     bool      `json:"enabled"`
	LastTrained time.Time `json:"last_trained"`
	TrainCycles int       `json:"train_cycles"`
	Profiles    int       `json:"profiles"`
}

// NewEngine creates a recommendation engine over the given catalog.
func NewEngine(index *catalog.Index, cfg config.RecommendConfig) *Engine {
	return &Engine{
		index:    index,
		cfg:      cfg,
		logger:   logging.WithComponent("recommend"),
		profiles: make(map[string]GenreProfile),
	}
}

// TopRated returns the k highest-rated books. Books are ordered descending
// by rating with unrated books after all rated ones; ties keep catalog
// insertion order. The result holds min(k, catalog size) books.
func (e *Engine) TopRated(k int) []*models.Book {
	start := time.Now()

	books := e.index.Books()
	ranked := rankByRating(books)

	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	result := ranked[:k]

	metrics.RecordRecommendation("top_rated", time.Since(start), true)
	return result
}

// Personalized returns up to k books matched to the user's genre history.
//
// Unknown users fail closed with an empty result. A user with no history
// falls back to TopRated(k). Otherwise every catalog book outside the
// user's history is scored by genre affinity and ranked descending by
// (score, rating-or-zero); zero-score books still participate, so the
// result only runs short when the candidate pool itself does.
func (e *Engine) Personalized(userID string, k int) []*models.Book {
	start := time.Now()

	history, ok := e.index.UserHistory(userID)
	if !ok {
		metrics.RecordRecommendation("personalized", time.Since(start), false)
		e.logger.Info().Str("user_id", userID).Msg("Recommendations refused, unknown user")
		return []*models.Book{}
	}

	if len(history) == 0 {
		metrics.RecordRecommendation("personalized", time.Since(start), true)
		return e.TopRated(k)
	}

	profile := BuildProfile(history)

	seen := make(map[string]struct{}, len(history))
	for _, b := range history {
		seen[b.ID] = struct{}{}
	}

	type scored struct {
		book  *models.Book
		score float64
	}

	books := e.index.Books()
	candidates := make([]scored, 0, len(books))
	for _, b := range books {
		if _, inHistory := seen[b.ID]; inHistory {
			continue
		}
		candidates = append(candidates, scored{book: b, score: affinityScore(b, profile)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return ratingOrZero(candidates[i].book) > ratingOrZero(candidates[j].book)
	})

	if k < 0 {
		k = 0
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	result := make([]*models.Book, k)
	for i := 0; i < k; i++ {
		result[i] = candidates[i].book
	}

	metrics.RecordRecommendation("personalized", time.Since(start), true)
	return result
}

// Train rebuilds the per-user genre profile cache from the current
// catalog. The context is checked between users so a slow cycle can be
// abandoned during shutdown.
func (e *Engine) Train(ctx context.Context) error {
	start := time.Now()

	users := e.index.Users()
	profiles := make(map[string]GenreProfile, len(users))

	for _, u := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		history, ok := e.index.UserHistory(u.ID)
		if !ok {
			continue
		}
		profiles[u.ID] = BuildProfile(history)
	}

	e.mu.Lock()
	e.profiles = profiles
	e.lastTrain = time.Now()
	e.trainCount++
	cycles := e.trainCount
	e.mu.Unlock()

	metrics.RecordTraining(time.Since(start))
	e.logger.Info().
		Int("profiles", len(profiles)).
		Int("cycle", cycles).
		Dur("took", time.Since(start)).
		Msg("Genre profiles trained")

	return nil
}

// Profile returns the trained genre profile for a user, if one exists.
func (e *Engine) Profile(userID string) (GenreProfile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.profiles[userID]
	return p, ok
}

// Status reports the engine's training state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Status{
		Enabled:     e.cfg.Enabled,
		LastTrained: e.lastTrain,
		TrainCycles: e.trainCount,
		Profiles:    len(e.profiles),
	}
}

// rankByRating stable-sorts books descending by (has-rating, rating).
func rankByRating(books []*models.Book) []*models.Book {
	ranked := append([]*models.Book{}, books...)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Rating, ranked[j].Rating
		if ri.Valid != rj.Valid {
			return ri.Valid
		}
		return ri.Value > rj.Value
	})
	return ranked
}

// ratingOrZero treats an absent rating as zero for secondary ordering.
func ratingOrZero(b *models.Book) float64 {
	if b.Rating.Valid {
		return b.Rating.Value
	}
	return 0
}
