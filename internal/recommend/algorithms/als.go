// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"github.com/tomtom215/cadence/internal/interactions"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrOutOfRange is returned for a user index outside the trained rows.
	ErrOutOfRange = errors.New("user index out of range")

	// ErrNoSignal is returned when the user row or query vector has no
	// observed interactions.
	ErrNoSignal = errors.New("no interactions to score")

	// ErrEmptyMatrix is returned by Fit for a matrix with no rows or columns.
	ErrEmptyMatrix = errors.New("interaction matrix is empty")

	// ErrShapeMismatch is returned when a matrix was not the one the model
	// was fit on.
	ErrShapeMismatch = errors.New("matrix shape does not match model")
)

// ALSConfig contains configuration for implicit-feedback ALS.
type ALSConfig struct {
	// Factors is the rank k of the latent factor matrices.
	Factors int `json:"factors"`

	// Iterations is the number of alternating rounds.
	Iterations int `json:"iterations"`

	// Regularization is the L2 penalty lambda.
	Regularization float64 `json:"regularization"`

	// Alpha scales confidence: c = 1 + alpha for an observed entry.
	Alpha float64 `json:"alpha"`

	// Workers shards each half-step. <= 0 means GOMAXPROCS.
	Workers int `json:"workers"`

	// Seed fixes the factor initialization.
	Seed uint64 `json:"seed"`
}

// DefaultALSConfig returns the hyperparameters the catalog model is
// trained with: k=50, lambda=0.1, 20 iterations, alpha=1, seed 42.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Factors:        50,
		Iterations:     20,
		Regularization: 0.1,
		Alpha:          1.0,
		Workers:        runtime.GOMAXPROCS(0),
		Seed:           42,
	}
}

// Validate checks the configuration.
func (c ALSConfig) Validate() error {
	if c.Factors <= 0 {
		return fmt.Errorf("als.factors must be positive, got %d", c.Factors)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("als.iterations must be positive, got %d", c.Iterations)
	}
	if c.Regularization <= 0 {
		return fmt.Errorf("als.regularization must be positive, got %f", c.Regularization)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("als.alpha must be non-negative, got %f", c.Alpha)
	}
	return nil
}

// ALSModel holds trained factors. It is immutable after Fit and safe for
// concurrent scoring. Exported fields are the gob-persisted state.
//
// Reference: "Collaborative Filtering for Implicit Feedback Datasets"
// (Hu, Koren, Volinsky, 2008). The objective minimised is
//
//	sum_{u,i} c_ui (p_ui - x_u'y_i)^2 + lambda (||x_u||^2 + ||y_i||^2)
//
// with p_ui = 1 and c_ui = 1 + alpha for observed pairs, p_ui = 0 and
// c_ui = 1 otherwise.
type ALSModel struct {
	UserFactors    [][]float64
	ItemFactors    [][]float64
	Factors        int
	Regularization float64
	Iterations     int
	Alpha          float64
	Seed           uint64

	gramOnce sync.Once
	gram     *mat.SymDense
}

// IndexScore is a scored item index.
type IndexScore struct {
	Index int
	Score float64
}

// Fit trains factors on m. Cancellation is checked between half-steps.
func Fit(ctx context.Context, m *interactions.Matrix, cfg ALSConfig) (*ALSModel, error) {
	if m.Empty() {
		return nil, ErrEmptyMatrix
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	k := cfg.Factors
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible init, not security
	model := &ALSModel{
		UserFactors:    initFactors(rng, m.Rows, k),
		ItemFactors:    initFactors(rng, m.Cols, k),
		Factors:        k,
		Regularization: cfg.Regularization,
		Iterations:     cfg.Iterations,
		Alpha:          cfg.Alpha,
		Seed:           cfg.Seed,
	}

	itemMajor := m.Transpose()
	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := solveSide(model.UserFactors, model.ItemFactors, m, cfg); err != nil {
			return nil, fmt.Errorf("iteration %d users: %w", iter, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := solveSide(model.ItemFactors, model.UserFactors, itemMajor, cfg); err != nil {
			return nil, fmt.Errorf("iteration %d items: %w", iter, err)
		}
	}

	return model, nil
}

func initFactors(rng *rand.Rand, n, k int) [][]float64 {
	out := make([][]float64, n)
	for r := range out {
		row := make([]float64, k)
		for f := range row {
			row[f] = rng.NormFloat64() * 0.01
		}
		out[r] = row
	}
	return out
}

// solveSide recomputes every row of target holding fixed constant. rows
// gives, for each target row, the observed columns of fixed.
func solveSide(target, fixed [][]float64, rows *interactions.Matrix, cfg ALSConfig) error {
	gram := gramian(fixed, cfg.Factors)

	n := len(target)
	workers := cfg.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for r := lo; r < hi; r++ {
				x, err := solveRow(gram, fixed, rows.Row(r), cfg.Regularization, cfg.Alpha)
				if err != nil {
					errOnce.Do(func() { firstErr = fmt.Errorf("row %d: %w", r, err) })
					return
				}
				target[r] = x
			}
		}(start, end)
	}
	wg.Wait()

	return firstErr
}

// gramian returns FᵀF for the row-major factor matrix F.
func gramian(factors [][]float64, k int) *mat.SymDense {
	g := mat.NewSymDense(k, nil)
	if len(factors) == 0 {
		return g
	}
	flat := make([]float64, 0, len(factors)*k)
	for _, row := range factors {
		flat = append(flat, row...)
	}
	f := mat.NewDense(len(factors), k, flat)
	g.SymOuterK(1, f.T())
	return g
}

// solveRow solves (FᵀF + Fᵀ(C−I)F + λI) x = FᵀCp for one row whose observed
// columns are cols.
func solveRow(gram *mat.SymDense, fixed [][]float64, cols []int, lambda, alpha float64) ([]float64, error) {
	k, _ := gram.Dims()

	a := mat.NewSymDense(k, nil)
	a.CopySym(gram)
	for f := 0; f < k; f++ {
		a.SetSym(f, f, a.At(f, f)+lambda)
	}

	b := mat.NewVecDense(k, nil)
	confidence := 1 + alpha
	for _, c := range cols {
		y := mat.NewVecDense(k, fixed[c])
		a.SymRankOne(a, confidence-1, y)
		b.AddScaledVec(b, confidence, y)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, errors.New("normal equations not positive definite")
	}
	x := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(x, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	return x.RawVector().Data, nil
}

// Users returns the number of trained user rows.
func (m *ALSModel) Users() int {
	return len(m.UserFactors)
}

// Items returns the number of trained item rows.
func (m *ALSModel) Items() int {
	return len(m.ItemFactors)
}

// Recommend scores every item for a trained user as the dot product of the
// user's factors with each item's factors. matrix must be the matrix the
// model was fit on; its row supplies the already-liked items.
func (m *ALSModel) Recommend(matrix *interactions.Matrix, user, topN int, excludeLiked bool) ([]IndexScore, error) {
	if matrix == nil || matrix.Rows != m.Users() || matrix.Cols != m.Items() {
		return nil, ErrShapeMismatch
	}
	if user < 0 || user >= m.Users() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, user, m.Users())
	}
	liked := matrix.Row(user)
	if len(liked) == 0 {
		return nil, ErrNoSignal
	}
	return m.rank(m.UserFactors[user], liked, topN, excludeLiked), nil
}

// RecommendVector scores a would-be new user whose liked items are given,
// by folding the vector in against the fixed item factors. The model is
// not modified. Indices outside the trained items are ignored.
func (m *ALSModel) RecommendVector(items []int, topN int, excludeLiked bool) ([]IndexScore, error) {
	liked := m.validItems(items)
	if len(liked) == 0 {
		return nil, ErrNoSignal
	}
	x, err := m.FoldIn(liked)
	if err != nil {
		return nil, err
	}
	return m.rank(x, liked, topN, excludeLiked), nil
}

// FoldIn returns the least-squares user factors for a vector of liked
// item indices, solving (YᵀY + Yᵀ(Cu−I)Y + λI) x = YᵀCu p.
func (m *ALSModel) FoldIn(items []int) ([]float64, error) {
	m.gramOnce.Do(func() {
		m.gram = gramian(m.ItemFactors, m.Factors)
	})
	return solveRow(m.gram, m.ItemFactors, items, m.Regularization, m.Alpha)
}

// validItems returns the distinct in-range indices, sorted.
func (m *ALSModel) validItems(items []int) []int {
	seen := make(map[int]struct{}, len(items))
	out := make([]int, 0, len(items))
	for _, i := range items {
		if i < 0 || i >= m.Items() {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// rank scores all items against x and returns the top n by descending
// score, ties broken by ascending item index. n <= 0 returns all.
func (m *ALSModel) rank(x []float64, liked []int, n int, excludeLiked bool) []IndexScore {
	skip := make(map[int]struct{}, len(liked))
	if excludeLiked {
		for _, i := range liked {
			skip[i] = struct{}{}
		}
	}

	scored := make([]IndexScore, 0, m.Items())
	for i, y := range m.ItemFactors {
		if _, ok := skip[i]; ok {
			continue
		}
		scored = append(scored, IndexScore{Index: i, Score: floats.Dot(x, y)})
	}
	sortScores(scored)

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

func sortScores(s []IndexScore) {
	sort.Slice(s, func(a, b int) bool {
		if s[a].Score != s[b].Score {
			return s[a].Score > s[b].Score
		}
		return s[a].Index < s[b].Index
	})
}
