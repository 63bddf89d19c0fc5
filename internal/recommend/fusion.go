// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"sort"

	"github.com/tomtom215/cadence/internal/recommend/algorithms"
)

// Weights scales the two normalized signals in a blend.
type Weights struct {
	Content float64
	Collab  float64
}

// Blend normalizes content and collaborative scores independently to
// [0, 1], outer-joins them on track id (a missing side scores 0), and
// orders by contentWeight*content + collabWeight*collab descending.
// Tracks in exclude never appear. Ties keep content order, then
// collaborative order. n <= 0 returns every track.
func Blend(content, collab []algorithms.Scored, w Weights, exclude map[string]struct{}, n int) []ScoredTrack {
	contentNorm := algorithms.NormalizeScores(scores(content))
	collabNorm := algorithms.NormalizeScores(scores(collab))

	merged := make([]ScoredTrack, 0, len(content)+len(collab))
	pos := make(map[string]int, len(content)+len(collab))
	add := func(id string) int {
		if p, ok := pos[id]; ok {
			return p
		}
		pos[id] = len(merged)
		merged = append(merged, ScoredTrack{TrackID: id})
		return len(merged) - 1
	}

	for i, s := range content {
		p := add(s.TrackID)
		merged[p].ContentScore = contentNorm[i]
	}
	for i, s := range collab {
		p := add(s.TrackID)
		if collabNorm[i] > merged[p].CollabScore {
			merged[p].CollabScore = collabNorm[i]
		}
	}

	out := merged[:0]
	for _, t := range merged {
		if _, skip := exclude[t.TrackID]; skip {
			continue
		}
		t.Score = w.Content*t.ContentScore + w.Collab*t.CollabScore
		out = append(out, t)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// contentOnly converts a content ranking into results without blending.
func contentOnly(content []algorithms.Scored, exclude map[string]struct{}, n int) []ScoredTrack {
	out := make([]ScoredTrack, 0, len(content))
	for _, s := range content {
		if _, skip := exclude[s.TrackID]; skip {
			continue
		}
		out = append(out, ScoredTrack{TrackID: s.TrackID, Score: s.Score, ContentScore: s.Score})
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

func scores(list []algorithms.Scored) []float64 {
	out := make([]float64, len(list))
	for i, s := range list {
		out[i] = s.Score
	}
	return out
}

func trackIDs(items []ScoredTrack) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.TrackID
	}
	return out
}
