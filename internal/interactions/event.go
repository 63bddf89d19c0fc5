// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package interactions owns the implicit-feedback data path: the
// append-only interaction event log, and the builder that turns the log
// into a sparse binary user-item matrix with its identifier mappings.
//
// A matrix and the two IDMaps built with it form one unit. Indices are
// assigned in first-seen order on every Build, so a mapping from one
// build must never be used with a matrix from another.
package interactions

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/cadence/internal/catalog"
)

// Event records that a track appeared in (was liked by) a playlist/user.
type Event struct {
	UserID  string `json:"playlist_id" db:"playlist_id"`
	TrackID string `json:"track_id" db:"track_id"`
}

// ErrInvalidEvent is returned for events with an empty user or track id.
var ErrInvalidEvent = errors.New("invalid interaction event")

// Normalize trims the user id and strips the track namespace prefix.
func (e Event) Normalize() Event {
	return Event{UserID: strings.TrimSpace(e.UserID), TrackID: catalog.NormalizeTrackID(e.TrackID)}
}

// Valid reports whether both ids are present.
func (e Event) Valid() bool {
	return e.UserID != "" && e.TrackID != ""
}

// EventsFor returns one event per track for userID, in order.
func EventsFor(userID string, trackIDs []string) []Event {
	out := make([]Event, 0, len(trackIDs))
	for _, id := range trackIDs {
		out = append(out, Event{UserID: userID, TrackID: id})
	}
	return out
}

// EventLog is the append-only source of truth for collaborative training.
type EventLog interface {
	// Append adds events in order. Either all events are stored or none.
	Append(ctx context.Context, events ...Event) error

	// ReadAll returns every event in append order.
	ReadAll(ctx context.Context) ([]Event, error)

	// Len returns the number of stored events.
	Len(ctx context.Context) (int, error)

	// Close releases the log.
	Close() error
}

func normalizeAll(events []Event) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		n := e.Normalize()
		if !n.Valid() {
			return nil, ErrInvalidEvent
		}
		out = append(out, n)
	}
	return out, nil
}

// Import reads a playlist_id,track_id dataset from r and appends it to log.
// It returns the number of events appended.
func Import(ctx context.Context, log EventLog, r io.Reader) (int, error) {
	events, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}
	if err := log.Append(ctx, events...); err != nil {
		return 0, err
	}
	return len(events), nil
}
