// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"sort"
	"time"
)

// ArticleMetric is the daily metric row of one article.
type ArticleMetric struct {
	ArticleID           int     `json:"article_id"`
	RecommendationCount int     `json:"recommendation_count"`
	PopularityScore     float64 `json:"popularity_score"`
	TrendingScore       float64 `json:"trending_score"`
}

// CycleResults is everything a cycle persists, computed once before the
// publish transaction.
type CycleResults struct {
	CycleID     string    `json:"cycle_id"`
	Source      string    `json:"source"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	ArticleCount     int            `json:"article_count"`
	UserCount        int            `json:"user_count"`
	InteractionCount int            `json:"interaction_count"`
	VocabularySize   int            `json:"vocabulary_size"`
	Sparsity         float64        `json:"sparsity"`
	Readiness        ModelReadiness `json:"model_readiness"`

	Similar  map[int][]SimilarArticle       `json:"similar"`
	Authors  map[int][]AuthorRecommendation `json:"authors"`
	Users    map[int][]UserRecommendation   `json:"users"`
	Homepage map[string][]HomepageEntry     `json:"homepage"`
	Metrics  []ArticleMetric                `json:"metrics"`
}

// RecommendationCount totals every persisted list entry.
func (r *CycleResults) RecommendationCount() int {
	n := 0
	for _, l := range r.Similar {
		n += len(l)
	}
	for _, l := range r.Authors {
		n += len(l)
	}
	for _, l := range r.Users {
		n += len(l)
	}
	for _, l := range r.Homepage {
		n += len(l)
	}
	return n
}

// Results computes every surface for persistence. The context is checked
// between articles and users so a cancelled cycle stops early.
func (c *Cycle) Results(ctx context.Context) (*CycleResults, error) {
	s := c.cfg.Surfaces
	r := &CycleResults{
		CycleID:          c.ID,
		Source:           c.Source,
		StartedAt:        c.StartedAt,
		CompletedAt:      c.CompletedAt,
		ArticleCount:     len(c.articles),
		UserCount:        len(c.users),
		InteractionCount: c.interactions.Count(),
		VocabularySize:   c.VocabularySize(),
		Sparsity:         c.Sparsity(),
		Readiness:        c.readiness,
		Similar:          make(map[int][]SimilarArticle, len(c.articles)),
		Authors:          make(map[int][]AuthorRecommendation),
		Users:            make(map[int][]UserRecommendation, len(c.users)),
	}

	for i := range c.articles {
		if err := ctx.Err(); err != nil {
			return nil, pipelineError(StepSurfaces, "cancelled", err)
		}
		id := c.articles[i].ID

		similar, err := c.SimilarArticles(id, s.SimilarPerArticle)
		if err != nil {
			return nil, pipelineError(StepSurfaces, "similar articles", err)
		}
		if len(similar) > 0 {
			r.Similar[id] = similar
		}

		authors, err := c.AuthorRecommendations(id, s.AuthorPerArticle)
		if err != nil {
			return nil, pipelineError(StepSurfaces, "author recommendations", err)
		}
		if len(authors) > 0 {
			r.Authors[id] = authors
		}
	}

	if c.predictor != nil {
		for i := range c.users {
			if err := ctx.Err(); err != nil {
				return nil, pipelineError(StepSurfaces, "cancelled", err)
			}
			id := c.users[i].ID
			recs, err := c.RecommendationsForUser(id, s.PerUser)
			if err != nil {
				return nil, pipelineError(StepSurfaces, "user recommendations", err)
			}
			if len(recs) > 0 {
				r.Users[id] = recs
			}
		}
	}

	r.Homepage = c.homepage(r.Similar)
	r.Metrics = articleMetrics(r.Similar)
	return r, nil
}

// articleMetrics derives per-target metrics: popularity is count x mean
// score, trending is the mean score.
func articleMetrics(similar map[int][]SimilarArticle) []ArticleMetric {
	stats := TargetStats(similar)
	out := make([]ArticleMetric, 0, len(stats))
	for id, st := range stats {
		out = append(out, ArticleMetric{
			ArticleID:           id,
			RecommendationCount: st.Count,
			PopularityScore:     float64(st.Count) * st.MeanScore,
			TrendingScore:       st.MeanScore,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArticleID < out[j].ArticleID })
	return out
}
