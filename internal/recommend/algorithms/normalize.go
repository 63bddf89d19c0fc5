// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler rescales each column to [0, 1] using the minimum and range
// observed at fit time. A column that was constant at fit time maps to 0.
type MinMaxScaler struct {
	Min   []float64
	Range []float64
}

// FitMinMax learns per-column minimum and range from rows. All rows must
// have the same width; an empty input yields a zero-width scaler.
func FitMinMax(rows [][]float64) *MinMaxScaler {
	if len(rows) == 0 {
		return &MinMaxScaler{}
	}
	width := len(rows[0])
	lo := make([]float64, width)
	hi := make([]float64, width)
	copy(lo, rows[0])
	copy(hi, rows[0])

	for _, row := range rows[1:] {
		for c, v := range row {
			lo[c] = math.Min(lo[c], v)
			hi[c] = math.Max(hi[c], v)
		}
	}

	rng := make([]float64, width)
	floats.SubTo(rng, hi, lo)
	return &MinMaxScaler{Min: lo, Range: rng}
}

// Transform returns the scaled copy of row. Values outside the fitted
// range are not clipped.
func (s *MinMaxScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for c, v := range row {
		if c >= len(s.Range) || s.Range[c] == 0 {
			continue
		}
		out[c] = (v - s.Min[c]) / s.Range[c]
	}
	return out
}

// NormalizeScores min-max scales scores into [0, 1]. When every score is
// equal, including the single-score case, every output is 1.0 so an
// unambiguous list still carries full weight in a blend.
func NormalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := floats.Min(scores), floats.Max(scores)
	span := hi - lo
	for i, s := range scores {
		if span == 0 {
			out[i] = 1.0
			continue
		}
		out[i] = (s - lo) / span
	}
	return out
}

// CosineSimilarity returns a·b / (|a||b|), or 0 when either vector has
// zero norm.
func CosineSimilarity(a, b []float64) float64 {
	na := floats.Dot(a, a)
	nb := floats.Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := floats.Dot(a, b) / math.Sqrt(na*nb)
	// Rounding can push identical vectors just past 1.
	return math.Max(-1, math.Min(1, sim))
}
