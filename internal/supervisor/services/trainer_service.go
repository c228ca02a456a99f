// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// trainTimeout bounds a single profile rebuild. Training walks the
// in-memory catalog, so anything near this limit indicates a bug.
const trainTimeout = time.Minute

// TrainerEngine defines the interface for the recommendation engine.
// This allows the service to work with the engine without circular imports.
type TrainerEngine interface {
	// Train rebuilds all user genre profiles.
	Train(ctx context.Context) error
}

// TrainerConfig holds configuration for the trainer service.
type TrainerConfig struct {
	// TrainOnStartup triggers a profile rebuild when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to rebuild profiles. Zero or negative
	// disables periodic retraining; the service then only waits for
	// shutdown (admin-triggered retraining still works via the API).
	TrainInterval time.Duration
}

// TrainerService wraps the recommendation engine for suture supervision.
// It manages the profile rebuild lifecycle: an optional startup pass and
// periodic retraining on a ticker.
type TrainerService struct {
	engine TrainerEngine
	config TrainerConfig
	logger zerolog.Logger
	name   string
}

// NewTrainerService creates a new trainer service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainerService(engine TrainerEngine, cfg TrainerConfig, logger zerolog.Logger) *TrainerService {
	return &TrainerService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "trainer").Logger(),
		name:   "trainer-service",
	}
}

// Serve implements the suture.Service interface.
// It manages the training loop for the recommendation engine.
func (s *TrainerService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("trainer service starting")

	if s.config.TrainOnStartup {
		s.logger.Info().Msg("rebuilding profiles on startup")
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup training failed (will retry on schedule)")
		}
	}

	if s.config.TrainInterval <= 0 {
		s.logger.Info().Msg("periodic retraining disabled, waiting for shutdown")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	s.logger.Info().Msg("trainer service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("trainer service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}
		}
	}
}

// train performs a training cycle with proper context handling.
func (s *TrainerService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, trainTimeout)
	defer cancel()

	start := time.Now()

	if err := s.engine.Train(trainCtx); err != nil {
		return err
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Msg("profile rebuild complete")

	return nil
}

// String returns the service name for logging.
func (s *TrainerService) String() string {
	return s.name
}
