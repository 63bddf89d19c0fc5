// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// RecommendEngine is the lifecycle part of *recommend.Engine.
type RecommendEngine interface {
	// Load publishes the latest persisted snapshot, rebuilding from the
	// event log when none exists.
	Load(ctx context.Context) error

	// Rebuild refits the model from the full event log.
	Rebuild(ctx context.Context) error
}

// RecommendServiceConfig holds the model lifecycle policy.
type RecommendServiceConfig struct {
	// RebuildOnStartup forces a rebuild after a persisted snapshot loads.
	RebuildOnStartup bool

	// RebuildInterval schedules periodic rebuilds. Zero disables them.
	RebuildInterval time.Duration
}

// RecommendService owns the engine's snapshot lifecycle under supervision.
// A failed load returns an error so the supervisor retries with backoff;
// failed rebuilds are logged and the previous snapshot keeps serving.
type RecommendService struct {
	engine RecommendEngine
	config RecommendServiceConfig
	logger zerolog.Logger
	name   string

	// loaded survives restarts so a crash after startup does not reload
	// over a newer in-memory snapshot.
	loaded atomic.Bool
}

// NewRecommendService creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(engine RecommendEngine, cfg RecommendServiceConfig, logger zerolog.Logger) *RecommendService {
	return &RecommendService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "recommend").Logger(),
		name:   "recommend-service",
	}
}

// Serve implements suture.Service.
func (s *RecommendService) Serve(ctx context.Context) error {
	if !s.loaded.Load() {
		start := time.Now()
		if err := s.engine.Load(ctx); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		s.loaded.Store(true)
		s.logger.Info().Dur("duration", time.Since(start)).Msg("snapshot loaded")

		if s.config.RebuildOnStartup {
			s.rebuild(ctx, "startup")
		}
	}

	if s.config.RebuildInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.RebuildInterval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.config.RebuildInterval).Msg("scheduled rebuilds enabled")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.rebuild(ctx, "scheduled")
		}
	}
}

func (s *RecommendService) rebuild(ctx context.Context, reason string) {
	start := time.Now()
	if err := s.engine.Rebuild(ctx); err != nil {
		s.logger.Warn().Err(err).Str("reason", reason).Msg("rebuild failed, previous snapshot kept")
		return
	}
	s.logger.Info().Str("reason", reason).Dur("duration", time.Since(start)).Msg("rebuild complete")
}

// String identifies the service in supervisor logs.
func (s *RecommendService) String() string {
	return s.name
}
