// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// FactorConfig contains parameters for the truncated SVD.
type FactorConfig struct {
	// MaxRank caps k; the effective rank is min(MaxRank, min(users, articles)-1).
	// Default: 5.
	MaxRank int `koanf:"max_rank" json:"max_rank"`

	// Oversample adds extra subspace columns to stabilize the top-k estimate.
	// Default: 5.
	Oversample int `koanf:"oversample" json:"oversample"`

	// Iterations is the number of subspace (power) iterations.
	// Default: 25.
	Iterations int `koanf:"iterations" json:"iterations"`

	// Seed initializes the starting subspace.
	// Default: 42.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultFactorConfig returns the production defaults.
func DefaultFactorConfig() FactorConfig {
	return FactorConfig{
		MaxRank:    5,
		Oversample: 5,
		Iterations: 25,
		Seed:       42,
	}
}

// Validate checks the configuration for errors.
func (c FactorConfig) Validate() error {
	if c.MaxRank < 1 {
		return fmt.Errorf("factorization max_rank must be positive, got %d", c.MaxRank)
	}
	if c.Oversample < 0 {
		return fmt.Errorf("factorization oversample must be non-negative, got %d", c.Oversample)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("factorization iterations must be positive, got %d", c.Iterations)
	}
	return nil
}

// RatingOffset is added to the latent inner product to map it onto the
// rating scale.
const RatingOffset = 2.5

// FactorModel is a rank-k truncated SVD of the interaction matrix R:
//
//	R ~= (U_k S_k) V_k^T
//
// User factors are U_k S_k (users x k), item factors are V_k (articles x k),
// so the inner product of a user row and an item row is the rank-k
// reconstruction of that cell.
//
// The top-k right singular subspace is found by seeded subspace iteration
// on R^T R followed by a Rayleigh-Ritz step solved with cyclic Jacobi, so
// identical input and seed produce identical factors.
type FactorModel struct {
	users       *Index
	articles    *Index
	rank        int
	userFactors [][]float64
	itemFactors [][]float64
	singular    []float64

	// users/articles with at least one observed rating
	userSeen    []bool
	articleSeen []bool
}

// FitFactorModel factorizes m. Fewer than two users or two articles yields
// an InsufficientDataError.
func FitFactorModel(m *InteractionMatrix, cfg FactorConfig) (*FactorModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	numUsers, numArticles := m.Shape()
	if numUsers < 2 || numArticles < 2 {
		return nil, insufficient(ModelFactorization,
			"need at least 2 users and 2 articles, got %dx%d", numUsers, numArticles)
	}
	if m.Observed() == 0 {
		return nil, insufficient(ModelFactorization, "no observed ratings")
	}

	k := cfg.MaxRank
	if limit := minInt(numUsers, numArticles) - 1; k > limit {
		k = limit
	}
	width := minInt(k+cfg.Oversample, numArticles)

	r := m.ratings
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic init, not security sensitive

	// Q: articles x width, orthonormal columns
	q := newMatrix(numArticles, width)
	for a := range q {
		for c := range q[a] {
			q[a][c] = rng.NormFloat64()
		}
	}
	orthonormalize(q)

	for it := 0; it < cfg.Iterations; it++ {
		y := mulMatrix(r, q)       // users x width
		q = mulTransposeLeft(r, y) // articles x width
		orthonormalize(q)
	}

	b := mulMatrix(r, q)           // users x width
	gram := mulTransposeLeft(b, b) // width x width, symmetric
	values, vectors := jacobiEigen(gram)

	order := make([]int, width)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return values[order[i]] > values[order[j]] })

	model := &FactorModel{
		users:       m.Users(),
		articles:    m.Articles(),
		rank:        k,
		userFactors: newMatrix(numUsers, k),
		itemFactors: newMatrix(numArticles, k),
		singular:    make([]float64, k),
		userSeen:    make([]bool, numUsers),
		articleSeen: make([]bool, numArticles),
	}

	for f := 0; f < k; f++ {
		col := order[f]
		model.singular[f] = math.Sqrt(math.Max(0, values[col]))
		for a := 0; a < numArticles; a++ {
			var v float64
			for c := 0; c < width; c++ {
				v += q[a][c] * vectors[c][col]
			}
			model.itemFactors[a][f] = v
		}
		for u := 0; u < numUsers; u++ {
			var v float64
			for c := 0; c < width; c++ {
				v += b[u][c] * vectors[c][col]
			}
			model.userFactors[u][f] = v
		}
	}

	for u := 0; u < numUsers; u++ {
		for a := 0; a < numArticles; a++ {
			if r[u][a] > 0 {
				model.userSeen[u] = true
				model.articleSeen[a] = true
			}
		}
	}

	return model, nil
}

// Rank returns k.
func (f *FactorModel) Rank() int { return f.rank }

// SingularValues returns a copy of the top-k singular values, largest first.
func (f *FactorModel) SingularValues() []float64 {
	out := make([]float64, len(f.singular))
	copy(out, f.singular)
	return out
}

// UserFactors returns a copy of the user factor row at position u.
func (f *FactorModel) UserFactors(u int) []float64 {
	out := make([]float64, f.rank)
	copy(out, f.userFactors[u])
	return out
}

// ItemFactors returns a copy of the item factor row at position a.
func (f *FactorModel) ItemFactors(a int) []float64 {
	out := make([]float64, f.rank)
	copy(out, f.itemFactors[a])
	return out
}

// Reconstruct returns the raw rank-k inner product at (u, a).
func (f *FactorModel) Reconstruct(u, a int) float64 {
	return dot(f.userFactors[u], f.itemFactors[a])
}

// PredictAt returns clamp(dot + 2.5, 1, 5) for positions (u, a). Users or
// articles without any observed rating carry no latent signal and yield
// (0, false).
func (f *FactorModel) PredictAt(u, a int) (float64, bool) {
	if u < 0 || u >= len(f.userFactors) || a < 0 || a >= len(f.itemFactors) {
		return 0, false
	}
	if !f.userSeen[u] || !f.articleSeen[a] {
		return 0, false
	}
	return clamp(f.Reconstruct(u, a)+RatingOffset, 1, 5), true
}

// Predict is PredictAt addressed by IDs.
func (f *FactorModel) Predict(userID, articleID int) (float64, bool) {
	u, ok := f.users.Pos(userID)
	if !ok {
		return 0, false
	}
	a, ok := f.articles.Pos(articleID)
	if !ok {
		return 0, false
	}
	return f.PredictAt(u, a)
}

// mulMatrix returns a (n x m) * b (m x p).
func mulMatrix(a, b [][]float64) [][]float64 {
	n, p := len(a), len(b[0])
	out := newMatrix(n, p)
	for i := range a {
		row := out[i]
		for k, av := range a[i] {
			if av == 0 {
				continue
			}
			for j, bv := range b[k] {
				row[j] += av * bv
			}
		}
	}
	return out
}

// mulTransposeLeft returns a^T (m x n) * b (n x p).
func mulTransposeLeft(a, b [][]float64) [][]float64 {
	m, p := len(a[0]), len(b[0])
	out := newMatrix(m, p)
	for i := range a {
		for k, av := range a[i] {
			if av == 0 {
				continue
			}
			row := out[k]
			for j, bv := range b[i] {
				row[j] += av * bv
			}
		}
	}
	return out
}

// orthonormalize applies modified Gram-Schmidt to the columns of q in place.
// Columns that collapse numerically are zeroed.
func orthonormalize(q [][]float64) {
	if len(q) == 0 {
		return
	}
	cols := len(q[0])
	for c := 0; c < cols; c++ {
		for prev := 0; prev < c; prev++ {
			var proj float64
			for r := range q {
				proj += q[r][c] * q[r][prev]
			}
			for r := range q {
				q[r][c] -= proj * q[r][prev]
			}
		}

		var norm float64
		for r := range q {
			norm += q[r][c] * q[r][c]
		}
		norm = math.Sqrt(norm)
		for r := range q {
			if norm < 1e-12 {
				q[r][c] = 0
			} else {
				q[r][c] /= norm
			}
		}
	}
}

// jacobiEigen diagonalizes the symmetric matrix s with cyclic Jacobi
// rotations. It returns the eigenvalues and a matrix whose columns are the
// corresponding eigenvectors. s is not modified.
func jacobiEigen(s [][]float64) ([]float64, [][]float64) {
	n := len(s)
	a := newMatrix(n, n)
	v := newMatrix(n, n)
	for i := 0; i < n; i++ {
		copy(a[i], s[i])
		v[i][i] = 1
	}

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		var off float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < 1e-22 {
			break
		}

		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < 1e-300 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				sn := t * c

				for k := 0; k < n; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - sn*akq
					a[k][q] = sn*akp + c*akq
				}
				for k := 0; k < n; k++ {
					apk, aqk := a[p][k], a[q][k]
					a[p][k] = c*apk - sn*aqk
					a[q][k] = sn*apk + c*aqk
				}
				for k := 0; k < n; k++ {
					vkp, vkq := v[k][p], v[k][q]
					v[k][p] = c*vkp - sn*vkq
					v[k][q] = sn*vkp + c*vkq
				}
			}
		}
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = a[i][i]
	}
	return values, v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
