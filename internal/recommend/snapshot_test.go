// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"reflect"
	"testing"

	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

func buildSnapshot(t *testing.T, events []interactions.Event) *Snapshot {
	t.Helper()
	m, users, items := interactions.Build(events)
	model, err := algorithms.Fit(context.Background(), m, testConfig().ALS)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return &Snapshot{Version: 1, Matrix: m, Users: users, Items: items, Model: model}
}

func poolIDs(pool []algorithms.Scored) []string {
	out := make([]string, len(pool))
	for i, s := range pool {
		out[i] = s.TrackID
	}
	return out
}

func TestSnapshot_CollaborateExcludesLiked(t *testing.T) {
	snap := buildSnapshot(t, []interactions.Event{
		{UserID: "U1", TrackID: "t1"},
		{UserID: "U1", TrackID: "t2"},
		{UserID: "U2", TrackID: "t1"},
		{UserID: "U2", TrackID: "t3"},
	})
	if snap.Matrix.Rows != 2 || snap.Matrix.Cols != 3 {
		t.Fatalf("matrix shape = (%d, %d), want (2, 3)", snap.Matrix.Rows, snap.Matrix.Cols)
	}

	res, err := snap.collaborate("U1", []string{"t1"}, 10)
	if err != nil {
		t.Fatalf("collaborate() error = %v", err)
	}
	if got := poolIDs(res.Pool); !reflect.DeepEqual(got, []string{"t3"}) {
		t.Errorf("pool = %v, want [t3]", got)
	}
}

func TestSnapshot_CollaborateFoldsInNewSeed(t *testing.T) {
	snap := buildSnapshot(t, backgroundEvents())

	// t5 is known to the model but not in U2's row {t2, t4}.
	res, err := snap.collaborate("U2", []string{"t5"}, 10)
	if err != nil {
		t.Fatalf("collaborate() error = %v", err)
	}
	if len(res.Pool) == 0 {
		t.Fatal("pool is empty")
	}
	for _, s := range res.Pool {
		if s.TrackID == "t2" || s.TrackID == "t4" || s.TrackID == "t5" {
			t.Errorf("liked or seed track %s pooled", s.TrackID)
		}
	}
	for i := 1; i < len(res.Pool); i++ {
		if res.Pool[i].Score > res.Pool[i-1].Score {
			t.Errorf("pool not sorted at %d: %+v", i, res.Pool)
		}
	}
}

func TestSnapshot_CollaboratePoolsSeeds(t *testing.T) {
	snap := buildSnapshot(t, backgroundEvents())

	res, err := snap.collaborate("U1", []string{"t1", "t3", "t6", "unknown"}, 10)
	if err != nil {
		t.Fatalf("collaborate() error = %v", err)
	}
	if !reflect.DeepEqual(res.Unknown, []string{"unknown"}) {
		t.Errorf("Unknown = %v, want [unknown]", res.Unknown)
	}
	seen := make(map[string]bool)
	for _, s := range res.Pool {
		if seen[s.TrackID] {
			t.Errorf("track %s pooled twice", s.TrackID)
		}
		seen[s.TrackID] = true
	}
}

func TestSnapshot_CollaborateNoSignal(t *testing.T) {
	tests := []struct {
		name        string
		snap        *Snapshot
		user        string
		unknownUser bool
	}{
		{name: "empty snapshot", snap: emptySnapshot(), user: "U1"},
		{name: "unknown user", snap: buildSnapshot(t, backgroundEvents()), user: "nobody", unknownUser: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.snap.collaborate(tt.user, []string{"t1"}, 10)
			if err != nil {
				t.Fatalf("collaborate() error = %v", err)
			}
			if len(res.Pool) != 0 {
				t.Errorf("pool = %v, want empty", poolIDs(res.Pool))
			}
			if res.UnknownUser != tt.unknownUser {
				t.Errorf("UnknownUser = %v, want %v", res.UnknownUser, tt.unknownUser)
			}
		})
	}
}
