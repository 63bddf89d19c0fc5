// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"time"
)

// State is a step of the per-request fusion state machine.
type State string

const (
	StateContentOnly            State = "CONTENT_ONLY"
	StateCollaborativeAttempted State = "COLLABORATIVE_ATTEMPTED"
	StateBlended                State = "BLENDED"
	StateColdStartRebuild       State = "COLD_START_REBUILD"
	StateContentFallback        State = "CONTENT_FALLBACK"
)

// Request asks for recommendations for a user given seed tracks. Seed ids
// may be bare or namespaced ("spotify:track:<id>").
type Request struct {
	UserID       string   `json:"user_id"`
	SeedTrackIDs []string `json:"seed_track_ids"`
	N            int      `json:"n"`
}

// ScoredTrack is one ranked result. ContentScore and CollabScore are the
// normalized inputs to the blend; both are zero on a cache hit.
type ScoredTrack struct {
	TrackID      string  `json:"track_id"`
	Score        float64 `json:"score"`
	ContentScore float64 `json:"content_score"`
	CollabScore  float64 `json:"collab_score"`
}

// Response is the result of Engine.Recommend.
type Response struct {
	// TrackIDs are bare track ids, best first.
	TrackIDs []string `json:"track_ids"`

	// Items carries scores for TrackIDs. Nil for cached responses.
	Items []ScoredTrack `json:"items,omitempty"`

	// State is the terminal state: BLENDED or CONTENT_FALLBACK.
	State State `json:"state"`

	// Trace lists every state visited, in order.
	Trace []State `json:"trace"`

	// SnapshotVersion is the snapshot the request was answered from.
	SnapshotVersion int64 `json:"snapshot_version"`

	// Skipped lists seed ids that are not in the catalog.
	Skipped []string `json:"skipped,omitempty"`

	// RebuildQueued is set when a cold start handed the rebuild to the
	// scheduler instead of running it.
	RebuildQueued bool `json:"rebuild_queued,omitempty"`

	CacheHit bool `json:"cache_hit,omitempty"`
}

// Status reports the published snapshot and rebuild history.
type Status struct {
	SnapshotVersion     int64         `json:"snapshot_version"`
	BuiltAt             time.Time     `json:"built_at"`
	Users               int           `json:"users"`
	Items               int           `json:"items"`
	NNZ                 int           `json:"nnz"`
	Factors             int           `json:"factors"`
	HasModel            bool          `json:"has_model"`
	Rebuilding          bool          `json:"rebuilding"`
	RebuildMode         RebuildMode   `json:"rebuild_mode"`
	LastRebuildAt       time.Time     `json:"last_rebuild_at,omitempty"`
	LastRebuildDuration time.Duration `json:"last_rebuild_duration_ns,omitempty"`
	LastRebuildError    string        `json:"last_rebuild_error,omitempty"`
	RebuildsSucceeded   int64         `json:"rebuilds_succeeded"`
	RebuildsFailed      int64         `json:"rebuilds_failed"`
}

// RebuildRequest describes why a rebuild was asked for.
type RebuildRequest struct {
	UserID      string    `json:"user_id,omitempty"`
	Seeds       []string  `json:"seeds,omitempty"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// RebuildScheduler runs rebuilds outside the request path.
type RebuildScheduler interface {
	ScheduleRebuild(ctx context.Context, req RebuildRequest) error
}
