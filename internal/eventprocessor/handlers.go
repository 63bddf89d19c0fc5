// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventprocessor

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/metrics"
)

// HandlerRebuild is the router name of the rebuild consumer.
const HandlerRebuild = "recommend_rebuild_consumer"

// Rebuilder refits the model unless a rebuild newer than since has already
// succeeded. *recommend.Engine satisfies it.
type Rebuilder interface {
	RebuildSince(ctx context.Context, since time.Time) (bool, error)
}

// RebuildHandler consumes RebuildRequested events.
type RebuildHandler struct {
	rebuilder Rebuilder
	logger    zerolog.Logger
}

// NewRebuildHandler creates a handler that drives rebuilder.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewRebuildHandler(rebuilder Rebuilder, logger zerolog.Logger) *RebuildHandler {
	return &RebuildHandler{
		rebuilder: rebuilder,
		logger:    logger.With().Str("component", "rebuild_consumer").Logger(),
	}
}

// Handle implements message.NoPublishHandlerFunc. Malformed payloads are
// acknowledged and dropped; rebuild errors are returned so the router
// retries them.
func (h *RebuildHandler) Handle(msg *message.Message) error {
	event, err := Unmarshal(msg.Payload)
	if err != nil {
		metrics.RebuildMessages.WithLabelValues("malformed").Inc()
		h.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed rebuild request")
		return nil
	}

	log := h.logger.With().
		Str("event_id", event.ID).
		Str("reason", event.Reason).
		Str("user_id", event.UserID).
		Logger()

	ran, err := h.rebuilder.RebuildSince(msg.Context(), event.RequestedAt)
	if err != nil {
		metrics.RebuildMessages.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("rebuild request failed")
		return err
	}
	if !ran {
		metrics.RebuildMessages.WithLabelValues("skipped").Inc()
		log.Debug().Msg("rebuild request already covered by a newer snapshot")
		return nil
	}
	metrics.RebuildMessages.WithLabelValues("processed").Inc()
	log.Info().Time("requested_at", event.RequestedAt).Msg("rebuild request processed")
	return nil
}

// Register subscribes h to the queue's topic on r.
func (h *RebuildHandler) Register(r *Router, q *Queue) *message.Handler {
	return r.AddConsumerHandler(HandlerRebuild, q.Topic(), q.Subscriber(), h.Handle)
}
