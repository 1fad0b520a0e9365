// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/cache"
	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/recommend"
)

// Recommender serves the in-memory published cycle. Satisfied by
// *recommend.Engine.
type Recommender interface {
	Status() recommend.Status
	SystemHealth() recommend.SystemHealth
	SimilarArticles(articleID, n int) ([]recommend.SimilarArticle, error)
	AuthorRecommendations(articleID, n int) ([]recommend.AuthorRecommendation, error)
	RecommendationsForUser(userID, n int) ([]recommend.UserRecommendation, error)
	RecentArticles(n int) ([]recommend.RecentArticle, error)
	PredictRating(userID, articleID int) (recommend.Prediction, error)
	BehaviorSummary(ctx context.Context, userID int) (*recommend.BehaviorSummary, error)
	Insights() (recommend.Insights, error)
}

// Store reads persisted cycles. Satisfied by *database.DB.
type Store interface {
	Ping(ctx context.Context) error
	LatestCompletedCycle(ctx context.Context) (*database.CycleRecord, error)
	CycleHistory(ctx context.Context, limit int) ([]database.CycleRecord, error)
	SimilarArticles(ctx context.Context, cycleID string, articleID, limit int) ([]recommend.SimilarArticle, error)
	AuthorRecommendations(ctx context.Context, cycleID string, articleID, limit int) ([]recommend.AuthorRecommendation, error)
	UserRecommendations(ctx context.Context, cycleID string, userID, limit int) ([]recommend.UserRecommendation, error)
	Homepage(ctx context.Context, cycleID, surface string, limit int) ([]recommend.HomepageEntry, error)
	ArticleMetrics(ctx context.Context, day time.Time) ([]recommend.ArticleMetric, error)
}

// Scheduler runs on-demand jobs. Satisfied by
// *services.RecommendService.
type Scheduler interface {
	Trigger(ctx context.Context, force bool) (*recommend.CycleSummary, error)
	Cleanup(ctx context.Context, daysToKeep int) (*database.CleanupResult, error)
}

// Options configures a Handler. Only Engine is required.
type Options struct {
	Engine    Recommender
	Store     Store
	Cache     *cache.Cache
	Scheduler Scheduler

	// DaysToKeep is the cleanup default when the request does not set one.
	DaysToKeep int

	// Version is reported by the health endpoint.
	Version string

	// RequestTimeout bounds store reads. Defaults to 10s.
	RequestTimeout time.Duration

	Logger zerolog.Logger
}

// Handler serves the recommendation API.
type Handler struct {
	engine    Recommender
	store     Store
	cache     *cache.Cache
	scheduler Scheduler

	daysToKeep int
	version    string
	timeout    time.Duration
	startTime  time.Time
	logger     zerolog.Logger
}

// NewHandler creates a handler. Without a store, list surfaces are served
// from the in-memory cycle and the homepage and metrics endpoints are
// unavailable.
//
//nolint:gocritic // Options carries a zerolog.Logger by value
func NewHandler(opts Options) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.DaysToKeep <= 0 {
		opts.DaysToKeep = 7
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Handler{
		engine:     opts.Engine,
		store:      opts.Store,
		cache:      opts.Cache,
		scheduler:  opts.Scheduler,
		daysToKeep: opts.DaysToKeep,
		version:    opts.Version,
		timeout:    opts.RequestTimeout,
		startTime:  time.Now(),
		logger:     opts.Logger.With().Str("component", "api").Logger(),
	}
}
