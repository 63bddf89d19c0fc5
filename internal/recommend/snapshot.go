// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"sort"
	"time"

	"github.com/tomtom215/cadence/internal/interactions"
	"github.com/tomtom215/cadence/internal/recommend/algorithms"
	"github.com/tomtom215/cadence/internal/recommend/storage"
)

// Snapshot is one consistent, immutable build. Never modify a published
// snapshot; build a new one and publish it.
type Snapshot struct {
	Version int64
	Matrix  *interactions.Matrix
	Users   *interactions.IDMap
	Items   *interactions.IDMap
	Model   *algorithms.ALSModel
	BuiltAt time.Time
}

func emptySnapshot() *Snapshot {
	m, users, items := interactions.Build(nil)
	return &Snapshot{Matrix: m, Users: users, Items: items}
}

func snapshotFromBundle(b *storage.Bundle) *Snapshot {
	return &Snapshot{
		Version: b.Version,
		Matrix:  b.Matrix,
		Users:   b.Users,
		Items:   b.Items,
		Model:   b.Model,
		BuiltAt: b.CreatedAt,
	}
}

func (s *Snapshot) bundle() *storage.Bundle {
	return &storage.Bundle{
		Version:   s.Version,
		CreatedAt: s.BuiltAt,
		Matrix:    s.Matrix,
		Users:     s.Users,
		Items:     s.Items,
		Model:     s.Model,
	}
}

// HasSignal reports whether the snapshot can answer collaborative queries.
func (s *Snapshot) HasSignal() bool {
	return s != nil && s.Model != nil && !s.Matrix.Empty()
}

// collabResult is the pooled output of the per-seed lookups.
type collabResult struct {
	Pool        []algorithms.Scored
	UnknownUser bool
	Unknown     []string
}

// collaborate runs one collaborative lookup per seed for userID and pools
// the results. Each lookup scores the user's liked items plus that seed:
// the trained user factors are used directly when the seed is already in
// the row, otherwise the vector is folded in. A track returned for several
// seeds keeps its highest score. The pool is ordered by score descending,
// ties in first-pooled order.
func (s *Snapshot) collaborate(userID string, seeds []string, topN int) (collabResult, error) {
	var res collabResult
	if !s.HasSignal() {
		return res, nil
	}
	u, ok := s.Users.Index(userID)
	if !ok {
		res.UnknownUser = true
		return res, nil
	}
	row := s.Matrix.Row(u)

	best := make(map[int]int) // item index -> position in pool
	var direct []algorithms.IndexScore

	for _, seed := range seeds {
		i, ok := s.Items.Index(seed)
		if !ok {
			res.Unknown = append(res.Unknown, seed)
			continue
		}

		var (
			recs []algorithms.IndexScore
			err  error
		)
		if s.Matrix.Has(u, i) {
			if direct == nil {
				direct, err = s.Model.Recommend(s.Matrix, u, topN, true)
			}
			recs = direct
		} else {
			vector := make([]int, len(row), len(row)+1)
			copy(vector, row)
			recs, err = s.Model.RecommendVector(append(vector, i), topN, true)
		}
		if errors.Is(err, algorithms.ErrNoSignal) {
			continue
		}
		if err != nil {
			return res, err
		}

		for _, r := range recs {
			if pos, seen := best[r.Index]; seen {
				if r.Score > res.Pool[pos].Score {
					res.Pool[pos].Score = r.Score
				}
				continue
			}
			id, _ := s.Items.ID(r.Index)
			best[r.Index] = len(res.Pool)
			res.Pool = append(res.Pool, algorithms.Scored{TrackID: id, Score: r.Score})
		}
	}

	sort.SliceStable(res.Pool, func(a, b int) bool {
		return res.Pool[a].Score > res.Pool[b].Score
	})
	return res, nil
}
