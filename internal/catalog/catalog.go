// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package catalog is the feature store adapter: it supplies track metadata
// and the 12-dimensional audio feature vector the content ranker works on.
//
// The engine only depends on the Store interface. SQLStore reads the
// relational catalog (sqlite or duckdb), BreakerStore isolates the engine
// from a failing backend, and MemoryStore serves tests and small catalogs.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// NumFeatures is the length of a track feature vector.
const NumFeatures = 12

// FeatureNames lists the feature columns in vector order.
var FeatureNames = [NumFeatures]string{
	"danceability", "energy", "key", "loudness", "mode", "speechiness",
	"acousticness", "instrumentalness", "liveness", "valence", "tempo", "time_signature",
}

// Features is an audio feature vector in FeatureNames order.
type Features [NumFeatures]float64

// Track is a catalog entry with its feature vector.
type Track struct {
	// ID is the bare track identifier (namespace prefix stripped).
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Artists are the credited artist names.
	Artists []string `json:"artists"`

	// Features is the audio feature vector.
	Features Features `json:"features"`
}

// TrackSummary is the display subset of a Track returned by name search.
type TrackSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// Summary returns the display subset of t.
func (t *Track) Summary() TrackSummary {
	return TrackSummary{ID: t.ID, Name: t.Name, Artists: t.Artists}
}

// DefaultSearchLimit is used when SearchByName receives a non-positive limit.
const DefaultSearchLimit = 10

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("catalog unavailable")

// Store supplies catalog tracks and their feature vectors.
type Store interface {
	// SearchByName returns tracks whose name contains query
	// (case-insensitive), ordered by name, at most limit entries.
	SearchByName(ctx context.Context, query string, limit int) ([]TrackSummary, error)

	// AllTracks returns every track that has a feature vector, in a
	// stable catalog order.
	AllTracks(ctx context.Context) ([]Track, error)

	// TracksByID returns the tracks among ids that exist. Unknown ids are
	// omitted. Ids may be namespaced or bare.
	TracksByID(ctx context.Context, ids []string) ([]Track, error)
}

// NormalizeTrackID strips a "<namespace>:track:" prefix and surrounding
// whitespace, so "spotify:track:abc" and "abc" name the same track.
func NormalizeTrackID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, ":track:"); i >= 0 {
		return id[i+len(":track:"):]
	}
	return id
}

// NormalizeTrackIDs normalizes ids, drops empties, and removes duplicates
// keeping the first occurrence.
func NormalizeTrackIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		n := NormalizeTrackID(id)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func splitArtists(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
