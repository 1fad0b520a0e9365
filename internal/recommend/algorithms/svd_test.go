// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func denseEntries(userIDs, articleIDs []int, ratings [][]float64) []Entry {
	var out []Entry
	for u, row := range ratings {
		for a, r := range row {
			if r > 0 {
				out = append(out, Entry{User: userIDs[u], Article: articleIDs[a], Rating: r, Views: 1})
			}
		}
	}
	return out
}

func testMatrix(t *testing.T, ratings [][]float64) *InteractionMatrix {
	t.Helper()
	users := make([]int, len(ratings))
	for i := range users {
		users[i] = i + 1
	}
	articles := make([]int, len(ratings[0]))
	for i := range articles {
		articles[i] = 100 + i
	}
	m, err := BuildInteractionMatrix(users, articles, denseEntries(users, articles, ratings))
	if err != nil {
		t.Fatalf("BuildInteractionMatrix() error = %v", err)
	}
	return m
}

func TestFitFactorModel_Rank(t *testing.T) {
	tests := []struct {
		name     string
		users    int
		articles int
		wantRank int
	}{
		{name: "small square", users: 3, articles: 3, wantRank: 2},
		{name: "two users", users: 2, articles: 8, wantRank: 1},
		{name: "capped at five", users: 10, articles: 12, wantRank: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratings := make([][]float64, tt.users)
			for u := range ratings {
				ratings[u] = make([]float64, tt.articles)
				for a := range ratings[u] {
					if (u+a)%2 == 0 {
						ratings[u][a] = float64(1 + (u*3+a)%5)
					}
				}
			}
			f, err := FitFactorModel(testMatrix(t, ratings), DefaultFactorConfig())
			if err != nil {
				t.Fatalf("FitFactorModel() error = %v", err)
			}
			if f.Rank() != tt.wantRank {
				t.Errorf("Rank() = %d, want %d", f.Rank(), tt.wantRank)
			}
			sv := f.SingularValues()
			for i := 1; i < len(sv); i++ {
				if sv[i] > sv[i-1]+1e-9 {
					t.Errorf("singular values not descending: %v", sv)
				}
			}
		})
	}
}

func TestFitFactorModel_Degradation(t *testing.T) {
	tests := []struct {
		name    string
		ratings [][]float64
	}{
		{name: "single user", ratings: [][]float64{{4, 3, 5}}},
		{name: "single article", ratings: [][]float64{{4}, {2}, {5}}},
		{name: "no observed ratings", ratings: [][]float64{{0, 0}, {0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitFactorModel(testMatrix(t, tt.ratings), DefaultFactorConfig())
			if !errors.Is(err, ErrInsufficientData) {
				t.Errorf("error = %v, want ErrInsufficientData", err)
			}
		})
	}
}

func TestFitFactorModel_ReconstructsLowRank(t *testing.T) {
	// rank-1 fully observed matrix: rating = a_u * b_i
	ratings := [][]float64{
		{1, 2, 3, 4},
		{1.25, 2.5, 3.75, 5},
		{0.5 * 2, 1 * 2, 1.5 * 2, 2 * 2},
	}
	m := testMatrix(t, ratings)

	f, err := FitFactorModel(m, DefaultFactorConfig())
	if err != nil {
		t.Fatalf("FitFactorModel() error = %v", err)
	}
	for u := range ratings {
		for a := range ratings[u] {
			if got := f.Reconstruct(u, a); math.Abs(got-ratings[u][a]) > 1e-6 {
				t.Errorf("Reconstruct(%d,%d) = %f, want %f", u, a, got, ratings[u][a])
			}
		}
	}
}

func TestFactorModel_Predict(t *testing.T) {
	ratings := [][]float64{
		{5, 4, 0, 1},
		{4, 5, 1, 0},
		{1, 0, 5, 4},
		{0, 0, 0, 0},
	}
	m := testMatrix(t, ratings)
	f, err := FitFactorModel(m, DefaultFactorConfig())
	if err != nil {
		t.Fatalf("FitFactorModel() error = %v", err)
	}

	for u := 0; u < 3; u++ {
		for a := 0; a < 4; a++ {
			got, ok := f.PredictAt(u, a)
			if !ok {
				t.Fatalf("PredictAt(%d,%d) not ok", u, a)
			}
			if got < 1 || got > 5 {
				t.Errorf("PredictAt(%d,%d) = %f, out of [1,5]", u, a, got)
			}
		}
	}

	if _, ok := f.PredictAt(3, 0); ok {
		t.Error("PredictAt() for user without ratings reported ok")
	}
	if _, ok := f.Predict(1, 999); ok {
		t.Error("Predict() for unknown article reported ok")
	}
	if _, ok := f.Predict(999, 100); ok {
		t.Error("Predict() for unknown user reported ok")
	}
	if got, ok := f.Predict(1, 100); !ok || got < 1 || got > 5 {
		t.Errorf("Predict(1,100) = (%f, %v), want in-range prediction", got, ok)
	}
}

func TestFitFactorModel_Deterministic(t *testing.T) {
	ratings := [][]float64{
		{5, 3, 0, 1, 2},
		{4, 0, 0, 1, 3},
		{1, 1, 0, 5, 4},
		{0, 1, 5, 4, 0},
		{2, 0, 4, 0, 5},
	}
	a, err := FitFactorModel(testMatrix(t, ratings), DefaultFactorConfig())
	if err != nil {
		t.Fatalf("first fit error = %v", err)
	}
	b, err := FitFactorModel(testMatrix(t, ratings), DefaultFactorConfig())
	if err != nil {
		t.Fatalf("second fit error = %v", err)
	}
	for u := range ratings {
		if !reflect.DeepEqual(a.UserFactors(u), b.UserFactors(u)) {
			t.Fatalf("user factors differ for user %d", u)
		}
	}
}

func TestJacobiEigen(t *testing.T) {
	s := [][]float64{
		{2, 1},
		{1, 2},
	}
	values, vectors := jacobiEigen(s)

	got := []float64{values[0], values[1]}
	if got[0] < got[1] {
		got[0], got[1] = got[1], got[0]
	}
	if math.Abs(got[0]-3) > 1e-9 || math.Abs(got[1]-1) > 1e-9 {
		t.Errorf("eigenvalues = %v, want [3 1]", values)
	}

	// S v = lambda v for each column
	for c := 0; c < 2; c++ {
		for r := 0; r < 2; r++ {
			sv := s[r][0]*vectors[0][c] + s[r][1]*vectors[1][c]
			if math.Abs(sv-values[c]*vectors[r][c]) > 1e-9 {
				t.Errorf("column %d is not an eigenvector", c)
			}
		}
	}
	if s[0][1] != 1 {
		t.Error("jacobiEigen modified its input")
	}
}

func TestFactorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FactorConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultFactorConfig()},
		{name: "zero rank", cfg: FactorConfig{MaxRank: 0, Iterations: 1}, wantErr: true},
		{name: "negative oversample", cfg: FactorConfig{MaxRank: 1, Oversample: -1, Iterations: 1}, wantErr: true},
		{name: "zero iterations", cfg: FactorConfig{MaxRank: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
