// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store. Catalog order is insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	tracks []Track
	byID   map[string]int
}

// NewMemoryStore creates a store holding tracks.
func NewMemoryStore(tracks ...Track) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]int, len(tracks))}
	s.Put(tracks...)
	return s
}

// Put adds or replaces tracks. Replaced tracks keep their position.
func (s *MemoryStore) Put(tracks ...Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tracks {
		t := tracks[i]
		t.ID = NormalizeTrackID(t.ID)
		if idx, ok := s.byID[t.ID]; ok {
			s.tracks[idx] = t
			continue
		}
		s.byID[t.ID] = len(s.tracks)
		s.tracks = append(s.tracks, t)
	}
}

// SearchByName implements Store.
func (s *MemoryStore) SearchByName(_ context.Context, query string, limit int) ([]TrackSummary, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(query)

	s.mu.RLock()
	var matches []TrackSummary
	for i := range s.tracks {
		if strings.Contains(strings.ToLower(s.tracks[i].Name), q) {
			matches = append(matches, s.tracks[i].Summary())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// AllTracks implements Store.
func (s *MemoryStore) AllTracks(_ context.Context) ([]Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out, nil
}

// TracksByID implements Store.
func (s *MemoryStore) TracksByID(_ context.Context, ids []string) ([]Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Track
	for _, id := range NormalizeTrackIDs(ids) {
		if idx, ok := s.byID[id]; ok {
			out = append(out, s.tracks[idx])
		}
	}
	return out, nil
}
