// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"errors"
	"sort"

	"github.com/tomtom215/cadence/internal/catalog"
)

// ErrEmptySeeds is returned when none of the seed tracks are in the catalog.
var ErrEmptySeeds = errors.New("no seed tracks found in catalog")

// Scored is a track id with its score.
type Scored struct {
	TrackID string  `json:"track_id"`
	Score   float64 `json:"score"`
}

// ContentRanking is the result of RankContent.
type ContentRanking struct {
	// Ranked holds non-seed tracks, most similar first.
	Ranked []Scored

	// Missing lists seed ids absent from the catalog.
	Missing []string
}

// RankContent ranks every non-seed catalog track by cosine similarity of
// its scaled audio features to the mean of the scaled seed features.
//
// The scaler is fit on the non-seed tracks only and then applied to both
// groups. Equal scores keep catalog order. topN <= 0 returns every track.
func RankContent(seedIDs []string, tracks []catalog.Track, topN int) (ContentRanking, error) {
	seeds := catalog.NormalizeTrackIDs(seedIDs)
	if len(seeds) == 0 {
		return ContentRanking{}, ErrEmptySeeds
	}
	wanted := make(map[string]struct{}, len(seeds))
	for _, id := range seeds {
		wanted[id] = struct{}{}
	}

	var (
		seedRows  [][]float64
		rest      []catalog.Track
		restRows  [][]float64
		foundSeed = make(map[string]struct{}, len(seeds))
	)
	for i := range tracks {
		t := &tracks[i]
		if _, ok := wanted[t.ID]; ok {
			if _, dup := foundSeed[t.ID]; !dup {
				foundSeed[t.ID] = struct{}{}
				seedRows = append(seedRows, t.Features[:])
			}
			continue
		}
		rest = append(rest, *t)
		restRows = append(restRows, t.Features[:])
	}

	var result ContentRanking
	for _, id := range seeds {
		if _, ok := foundSeed[id]; !ok {
			result.Missing = append(result.Missing, id)
		}
	}
	if len(seedRows) == 0 {
		return result, ErrEmptySeeds
	}
	if len(rest) == 0 {
		return result, nil
	}

	scaler := FitMinMax(restRows)
	centroid := make([]float64, catalog.NumFeatures)
	for _, row := range seedRows {
		for c, v := range scaler.Transform(row) {
			centroid[c] += v
		}
	}
	for c := range centroid {
		centroid[c] /= float64(len(seedRows))
	}

	ranked := make([]Scored, len(rest))
	for i, row := range restRows {
		ranked[i] = Scored{
			TrackID: rest[i].ID,
			Score:   CosineSimilarity(scaler.Transform(row), centroid),
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	result.Ranked = ranked
	return result, nil
}
