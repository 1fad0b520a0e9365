// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"math"
	"testing"
)

func handSimilar() map[int][]SimilarArticle {
	return map[int][]SimilarArticle{
		1: {{ArticleID: 2, Score: 0.5}, {ArticleID: 3, Score: 0.1}},
		3: {{ArticleID: 2, Score: 0.3}},
	}
}

func TestTargetStats(t *testing.T) {
	t.Parallel()

	stats := TargetStats(handSimilar())
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if st := stats[2]; st.Count != 2 || math.Abs(st.MeanScore-0.4) > 1e-9 {
		t.Errorf("stats[2] = %+v, want count 2 mean 0.4", st)
	}
	if st := stats[3]; st.Count != 1 || math.Abs(st.MeanScore-0.1) > 1e-9 {
		t.Errorf("stats[3] = %+v, want count 1 mean 0.1", st)
	}
}

func TestCycle_Homepage(t *testing.T) {
	t.Parallel()

	c := buildTestCycle(t)
	home := c.homepage(handSimilar())

	type entry struct {
		id    int
		score float64
	}
	tests := []struct {
		surface string
		want    []entry
	}{
		{
			surface: SurfaceRecent,
			want:    []entry{{1, 1.0}, {2, 0.8}, {3, 0.4}, {4, 0.3}},
		},
		{
			surface: SurfaceFeatured,
			want:    []entry{{2, 2*0.7 + 0.4*0.3}},
		},
		{
			surface: SurfacePopular,
			want: []entry{
				{2, 2*0.6 + 0.4*0.3 + (160.0/180.0)*0.1},
				{3, 1*0.6 + 0.1*0.3 + (80.0/180.0)*0.1},
			},
		},
		{
			surface: SurfaceTrending,
			want:    []entry{{2, 2*0.8 + 0.15}, {3, 0.8 + 0.05}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.surface, func(t *testing.T) {
			got := home[tt.surface]
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if got[i].ArticleID != w.id || math.Abs(got[i].Score-w.score) > 1e-9 {
					t.Errorf("[%d] = %d/%f, want %d/%f", i, got[i].ArticleID, got[i].Score, w.id, w.score)
				}
				if got[i].Rank != i+1 {
					t.Errorf("[%d].Rank = %d, want %d", i, got[i].Rank, i+1)
				}
				if got[i].Display.Title == "" {
					t.Errorf("[%d] missing display metadata", i)
				}
			}
		})
	}
}

func TestIsHomepageSurface(t *testing.T) {
	t.Parallel()

	for _, s := range HomepageSurfaces {
		if !IsHomepageSurface(s) {
			t.Errorf("IsHomepageSurface(%q) = false", s)
		}
	}
	if IsHomepageSurface("editorial") {
		t.Error("IsHomepageSurface(editorial) = true")
	}
}

func TestCycle_Results(t *testing.T) {
	t.Parallel()

	c := buildTestCycle(t)
	r, err := c.Results(context.Background())
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}

	if r.CycleID != "cycle-1" || r.ArticleCount != 4 || r.UserCount != 4 {
		t.Errorf("header = %+v", r)
	}
	if len(r.Similar) == 0 {
		t.Error("Similar is empty")
	}
	if len(r.Users) == 0 {
		t.Error("Users is empty")
	}
	for _, s := range HomepageSurfaces {
		if _, ok := r.Homepage[s]; !ok {
			t.Errorf("Homepage missing %q", s)
		}
	}
	if len(r.Homepage[SurfaceRecent]) != 4 {
		t.Errorf("recent = %d entries, want 4", len(r.Homepage[SurfaceRecent]))
	}

	stats := TargetStats(r.Similar)
	if len(r.Metrics) != len(stats) {
		t.Fatalf("len(Metrics) = %d, want %d", len(r.Metrics), len(stats))
	}
	for _, m := range r.Metrics {
		st := stats[m.ArticleID]
		if m.RecommendationCount != st.Count {
			t.Errorf("metric %d count = %d, want %d", m.ArticleID, m.RecommendationCount, st.Count)
		}
		if math.Abs(m.PopularityScore-float64(st.Count)*st.MeanScore) > 1e-9 {
			t.Errorf("metric %d popularity = %f", m.ArticleID, m.PopularityScore)
		}
	}

	if r.RecommendationCount() == 0 {
		t.Error("RecommendationCount() = 0")
	}
}

func TestCycle_Results_Cancelled(t *testing.T) {
	t.Parallel()

	c := buildTestCycle(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Results(ctx); err == nil {
		t.Error("Results() = nil error, want cancellation")
	}
}
