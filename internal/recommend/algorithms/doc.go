// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package algorithms holds the two scorers the hybrid engine fuses.
//
// # Collaborative
//
// Fit trains an implicit-feedback ALS model (Hu, Koren and Volinsky) on an
// interactions.Matrix. Observed cells get confidence 1 + alpha; every solve
// uses the YtY trick so cost scales with the non-zeros, not the full
// matrix. Row solves run on a bounded worker pool and use gonum's Cholesky.
//
// ALSModel.Recommend scores a trained user row. RecommendVector folds in a
// vector that was never trained (a new playlist) by solving one least
// squares problem against the fixed item factors.
//
// # Content
//
// MinMaxScaler rescales each feature column to [0, 1]. RankContent scores
// catalog tracks by cosine similarity to the mean of the scaled seed
// vectors and reports seeds that are not in the catalog.
//
// Both scorers return plain (id, score) pairs; blending lives in the
// recommend package.
package algorithms
