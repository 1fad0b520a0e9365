// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package interactions

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/tomtom215/lectern/internal/recommend"
)

// SyntheticSource generates plausible interactions from user activity and
// article age. The same seed and snapshot give the same set.
type SyntheticSource struct {
	seed int64
	now  func() time.Time
}

// NewSyntheticSource creates a seeded generator.
func NewSyntheticSource(seed int64, now func() time.Time) *SyntheticSource {
	if now == nil {
		now = time.Now
	}
	return &SyntheticSource{seed: seed, now: now}
}

// Name implements recommend.InteractionSource.
func (s *SyntheticSource) Name() string { return SourceSynthetic }

// Load draws int(|A| * activity * U(0.1, 0.8)) distinct articles per user.
func (s *SyntheticSource) Load(ctx context.Context, articles []recommend.Article, users []recommend.User) (recommend.InteractionSet, error) {
	rng := rand.New(rand.NewSource(s.seed)) //nolint:gosec // reproducible synthetic data, not security sensitive
	now := s.now()

	// draw order must not depend on caller ordering
	arts := make([]recommend.Article, len(articles))
	copy(arts, articles)
	sort.Slice(arts, func(i, j int) bool { return arts[i].ID < arts[j].ID })
	us := make([]recommend.User, len(users))
	copy(us, users)
	sort.Slice(us, func(i, j int) bool { return us[i].ID < us[j].ID })

	out := make(recommend.InteractionSet, len(us))
	for i := range us {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := &us[i]

		viewed := int(float64(len(arts)) * u.ActivityLevel * uniform(rng, 0.1, 0.8))
		if viewed > len(arts) {
			viewed = len(arts)
		}
		if viewed <= 0 {
			continue
		}

		row := make(map[int]recommend.Interaction, viewed)
		for _, idx := range rng.Perm(len(arts))[:viewed] {
			a := &arts[idx]
			base := uniform(rng, 2.0, 4.5)
			recency := math.Max(0, 1-float64(a.DaysSincePublished)/365) * 0.5
			preference := uniform(rng, -0.3, 0.7)

			row[a.ID] = recommend.Interaction{
				Rating:       clamp(math.Min(5, base+recency+preference), 1, 5),
				Views:        1 + rng.Intn(4),
				TimeSpent:    uniform(rng, 30, 300),
				InteractedAt: now.AddDate(0, 0, -(1 + rng.Intn(180))),
			}
		}
		out[u.ID] = row
	}
	return out, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
