// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package eventprocessor

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cadence/internal/recommend"
)

// TopicRebuild is the topic rebuild requests are published on.
const TopicRebuild = "recommend.rebuild"

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("invalid rebuild event")

// RebuildRequested asks the consumer to refit the model.
type RebuildRequested struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Seeds       []string  `json:"seeds,omitempty"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRebuildRequested wraps req in an event with a fresh ID.
func NewRebuildRequested(req recommend.RebuildRequest) *RebuildRequested {
	requestedAt := req.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}
	return &RebuildRequested{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		Seeds:       append([]string(nil), req.Seeds...),
		Reason:      req.Reason,
		RequestedAt: requestedAt.UTC(),
	}
}

// Validate checks the fields the consumer relies on.
func (e *RebuildRequested) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if e.Reason == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidEvent)
	}
	if e.RequestedAt.IsZero() {
		return fmt.Errorf("%w: requested_at is required", ErrInvalidEvent)
	}
	return nil
}

// Request converts the event back to the engine's request type.
func (e *RebuildRequested) Request() recommend.RebuildRequest {
	return recommend.RebuildRequest{
		UserID:      e.UserID,
		Seeds:       e.Seeds,
		Reason:      e.Reason,
		RequestedAt: e.RequestedAt,
	}
}

// Marshal validates and encodes an event.
func Marshal(event *RebuildRequested) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (*RebuildRequested, error) {
	var event RebuildRequested
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
