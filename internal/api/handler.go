// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Engine is the part of *recommend.Engine the handlers use.
type Engine interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Rebuild(ctx context.Context) error
	Status() recommend.Status
	SearchTracks(ctx context.Context, query string, limit int) ([]catalog.TrackSummary, error)
	LookupTracks(ctx context.Context, ids []string) ([]catalog.TrackSummary, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	engine    Engine
	scheduler recommend.RebuildScheduler
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a Handler. scheduler may be nil, in which case manual
// rebuilds run inside the request.
func NewHandler(engine Engine, scheduler recommend.RebuildScheduler) *Handler {
	return &Handler{
		engine:    engine,
		scheduler: scheduler,
		startTime: time.Now(),
		now:       time.Now,
	}
}
