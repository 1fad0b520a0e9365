// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package interactions

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/lectern/internal/recommend"
)

// LogSource derives interactions from the provider's usage log.
type LogSource struct {
	provider recommend.DataProvider
}

// NewLogSource creates a log-backed source.
func NewLogSource(provider recommend.DataProvider) *LogSource {
	return &LogSource{provider: provider}
}

// Name implements recommend.InteractionSource.
func (s *LogSource) Name() string { return SourceLog }

type aggregate struct {
	interaction recommend.Interaction
	ratingSum   float64
	ratings     int
}

// Load groups usage events per (user, article) pair of the working set.
// Events for unknown users or articles are ignored.
func (s *LogSource) Load(ctx context.Context, articles []recommend.Article, users []recommend.User) (recommend.InteractionSet, error) {
	events, err := s.provider.FetchUsageEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch usage events: %w", err)
	}

	knownArticles := make(map[int]struct{}, len(articles))
	for i := range articles {
		knownArticles[articles[i].ID] = struct{}{}
	}
	knownUsers := make(map[int]struct{}, len(users))
	for i := range users {
		knownUsers[users[i].ID] = struct{}{}
	}

	aggs := make(map[int]map[int]*aggregate)
	for i := range events {
		ev := &events[i]
		if _, ok := knownUsers[ev.UserID]; !ok {
			continue
		}
		if _, ok := knownArticles[ev.ArticleID]; !ok {
			continue
		}

		byArticle, ok := aggs[ev.UserID]
		if !ok {
			byArticle = make(map[int]*aggregate)
			aggs[ev.UserID] = byArticle
		}
		a, ok := byArticle[ev.ArticleID]
		if !ok {
			a = &aggregate{}
			byArticle[ev.ArticleID] = a
		}

		a.interaction.Views++
		if ev.DurationSeconds > 0 && !math.IsInf(ev.DurationSeconds, 1) {
			a.interaction.TimeSpent += ev.DurationSeconds
		}
		if ev.CreatedAt.After(a.interaction.InteractedAt) {
			a.interaction.InteractedAt = ev.CreatedAt
		}
		// non-finite ratings count as a view only
		if ev.Rating != nil && !math.IsNaN(*ev.Rating) && !math.IsInf(*ev.Rating, 0) {
			a.ratingSum += *ev.Rating
			a.ratings++
		}
	}

	out := make(recommend.InteractionSet, len(aggs))
	for uid, byArticle := range aggs {
		row := make(map[int]recommend.Interaction, len(byArticle))
		for aid, a := range byArticle {
			it := a.interaction
			if a.ratings > 0 {
				it.Rating = clamp(a.ratingSum/float64(a.ratings), 1, 5)
			} else {
				it.Rating = ImplicitRating(it.Views, it.TimeSpent)
			}
			row[aid] = it
		}
		out[uid] = row
	}
	return out, nil
}

// ImplicitRating maps views and reading time onto the 1-5 scale: 2.5 for a
// single short view, +0.5 per extra view and up to +1.5 for five minutes of
// reading.
func ImplicitRating(views int, seconds float64) float64 {
	if views < 1 {
		views = 1
	}
	return clamp(2.5+0.5*float64(views-1)+math.Min(1.5, math.Max(0, seconds)/300), 1, 5)
}
