// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingStore struct {
	calls int
	err   error
}

func (f *failingStore) SearchByName(context.Context, string, int) ([]TrackSummary, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) AllTracks(context.Context) ([]Track, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) TracksByID(context.Context, []string) ([]Track, error) {
	f.calls++
	return nil, f.err
}

func TestBreakerStore_PassThrough(t *testing.T) {
	mem := NewMemoryStore(Track{ID: "a", Name: "Alpha"})
	b := NewBreakerStore(mem, BreakerConfig{Name: "test-pass", MaxRequests: 1, MinRequests: 2, FailureRatio: 0.5})

	tracks, err := b.AllTracks(context.Background())
	if err != nil {
		t.Fatalf("AllTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "a" {
		t.Errorf("AllTracks() = %+v", tracks)
	}
	if b.State() != "closed" {
		t.Errorf("State() = %s, want closed", b.State())
	}
}

func TestBreakerStore_OpensAndFailsFast(t *testing.T) {
	backend := &failingStore{err: errors.New("disk I/O error")}
	b := NewBreakerStore(backend, BreakerConfig{
		Name:         "test-open",
		MaxRequests:  1,
		Timeout:      time.Hour,
		MinRequests:  3,
		FailureRatio: 0.6,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.AllTracks(ctx); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d error = %v, want backend error", i, err)
		}
	}

	_, err := b.AllTracks(ctx)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("AllTracks() after trip error = %v, want ErrUnavailable", err)
	}
	if backend.calls != 3 {
		t.Errorf("backend calls = %d, want 3 (open breaker must not call through)", backend.calls)
	}
	if b.State() != "open" {
		t.Errorf("State() = %s, want open", b.State())
	}
}
