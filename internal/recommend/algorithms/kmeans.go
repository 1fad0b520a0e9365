// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package algorithms

import (
	"fmt"
	"math"
	"math/rand"
)

// SegmentationConfig contains parameters for k-means user segmentation.
type SegmentationConfig struct {
	// MaxClusters caps the number of cohorts; the effective k is
	// min(MaxClusters, users).
	// Default: 3.
	MaxClusters int `koanf:"max_clusters" json:"max_clusters"`

	// MinUsers is the minimum user count required to segment.
	// Default: 3.
	MinUsers int `koanf:"min_users" json:"min_users"`

	// MaxIterations bounds Lloyd iterations per restart.
	// Default: 300.
	MaxIterations int `koanf:"max_iterations" json:"max_iterations"`

	// Restarts is the number of k-means++ initializations; the run with the
	// lowest inertia wins.
	// Default: 10.
	Restarts int `koanf:"restarts" json:"restarts"`

	// Seed fixes the initialization so assignments are reproducible.
	// Default: 42.
	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultSegmentationConfig returns the production defaults.
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		MaxClusters:   3,
		MinUsers:      3,
		MaxIterations: 300,
		Restarts:      10,
		Seed:          42,
	}
}

// Validate checks the configuration for errors.
func (c SegmentationConfig) Validate() error {
	if c.MaxClusters < 1 {
		return fmt.Errorf("segmentation max_clusters must be positive, got %d", c.MaxClusters)
	}
	if c.MinUsers < 1 {
		return fmt.Errorf("segmentation min_users must be positive, got %d", c.MinUsers)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("segmentation max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Restarts < 1 {
		return fmt.Errorf("segmentation restarts must be positive, got %d", c.Restarts)
	}
	return nil
}

// Segmentation assigns every user a cluster label in [0, k).
// Labels are only meaningful within the cycle that produced them.
type Segmentation struct {
	users     *Index
	labels    []int
	centroids [][]float64
	inertia   float64
}

// Segment clusters users by their feature rows (aligned with userIDs).
// Fewer than cfg.MinUsers users yields an InsufficientDataError.
func Segment(userIDs []int, features [][]float64, cfg SegmentationConfig) (*Segmentation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(userIDs) != len(features) {
		return nil, fmt.Errorf("segmentation: %d users but %d feature rows", len(userIDs), len(features))
	}

	n := len(features)
	if n < cfg.MinUsers {
		return nil, insufficient(ModelSegmentation, "need at least %d users, got %d", cfg.MinUsers, n)
	}

	k := minInt(cfg.MaxClusters, n)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible clustering, not security sensitive

	var best *Segmentation
	for run := 0; run < cfg.Restarts; run++ {
		centroids := kmeansPlusPlus(features, k, rng)
		labels, inertia := lloyd(features, centroids, cfg.MaxIterations)
		if best == nil || inertia < best.inertia {
			best = &Segmentation{labels: labels, centroids: centroids, inertia: inertia}
		}
	}

	best.users = NewIndex(userIDs)
	return best, nil
}

// kmeansPlusPlus picks k initial centroids, each new one sampled with
// probability proportional to its squared distance from the nearest
// centroid chosen so far.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, squaredDistance(p, c))
			}
			dist[i] = d
			total += d
		}

		pick := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				target -= d
				if target <= 0 {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, append([]float64(nil), points[pick]...))
	}
	return centroids
}

// lloyd runs assignment/update steps until assignments stop changing.
// Empty clusters keep their previous centroid. centroids is updated in place.
func lloyd(points, centroids [][]float64, maxIter int) ([]int, float64) {
	k := len(centroids)
	dims := len(points[0])
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, p := range points {
			l := nearest(p, centroids)
			if l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := newMatrix(k, dims)
		counts := make([]int, k)
		for i, p := range points {
			counts[labels[i]]++
			for d, v := range p {
				sums[labels[i]][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centroids[labels[i]])
	}
	return labels, inertia
}

// nearest returns the closest centroid; ties go to the lowest label.
func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// K returns the number of clusters.
func (s *Segmentation) K() int { return len(s.centroids) }

// Inertia returns the within-cluster sum of squared distances.
func (s *Segmentation) Inertia() float64 { return s.inertia }

// LabelAt returns the label of the user at position u.
func (s *Segmentation) LabelAt(u int) int { return s.labels[u] }

// Label returns the label of a user ID.
func (s *Segmentation) Label(userID int) (int, bool) {
	u, ok := s.users.Pos(userID)
	if !ok {
		return 0, false
	}
	return s.labels[u], true
}

// Labels returns a copy of all labels in user position order.
func (s *Segmentation) Labels() []int {
	out := make([]int, len(s.labels))
	copy(out, s.labels)
	return out
}

// Sizes returns the number of users per label.
func (s *Segmentation) Sizes() []int {
	sizes := make([]int, s.K())
	for _, l := range s.labels {
		sizes[l]++
	}
	return sizes
}

// Members returns the user positions carrying label.
func (s *Segmentation) Members(label int) []int {
	var out []int
	for u, l := range s.labels {
		if l == label {
			out = append(out, u)
		}
	}
	return out
}
