// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
	"github.com/tomtom215/lectern/internal/validation"
)

// Cycle triggers, used in logs and the cycle status table.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerAPI      = "api"
)

// ErrTriggerThrottled is returned when on-demand cycles arrive faster than
// the configured cooldown.
var ErrTriggerThrottled = errors.New("cycle trigger throttled, try again later")

// CycleRunner runs recommendation cycles. Satisfied by *recommend.Engine.
type CycleRunner interface {
	RunCycle(ctx context.Context, opts recommend.RunOptions) (*recommend.CycleSummary, error)
}

// StoreCleaner prunes the cycle store. Satisfied by *database.DB.
type StoreCleaner interface {
	Cleanup(ctx context.Context, now time.Time, daysToKeep, historyDays int) (*database.CleanupResult, error)
}

// RecommendServiceConfig holds configuration for the recommendation service.
type RecommendServiceConfig struct {
	Schedule config.ScheduleConfig

	// DaysToKeep and HistoryDays are the weekly cleanup retention.
	DaysToKeep  int
	HistoryDays int
}

// RecommendService runs the daily recommendation cycle and the weekly store
// cleanup, and serves on-demand triggers. It implements suture.Service.
type RecommendService struct {
	runner  CycleRunner
	cleaner StoreCleaner
	config  RecommendServiceConfig
	limiter *rate.Limiter
	logger  zerolog.Logger
	name    string

	cleanupDay time.Weekday
	now        func() time.Time
}

// NewRecommendService creates a new recommendation service. cleaner may be
// nil when no store is configured.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendService(runner CycleRunner, cleaner StoreCleaner, cfg RecommendServiceConfig, logger zerolog.Logger) (*RecommendService, error) {
	day, ok := validation.ParseWeekday(cfg.Schedule.CleanupWeekday)
	if !ok {
		return nil, fmt.Errorf("invalid cleanup weekday %q", cfg.Schedule.CleanupWeekday)
	}
	if cfg.Schedule.TriggerCooldown <= 0 {
		cfg.Schedule.TriggerCooldown = time.Minute
	}
	if cfg.DaysToKeep <= 0 {
		cfg.DaysToKeep = 7
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}

	return &RecommendService{
		runner:     runner,
		cleaner:    cleaner,
		config:     cfg,
		limiter:    rate.NewLimiter(rate.Every(cfg.Schedule.TriggerCooldown), 1),
		logger:     logger.With().Str("service", "recommend").Logger(),
		name:       "recommend-service",
		cleanupDay: day,
		now:        time.Now,
	}, nil
}

// Serve implements the suture.Service interface.
func (s *RecommendService) Serve(ctx context.Context) error {
	sched := s.config.Schedule
	s.logger.Info().
		Bool("schedule_enabled", sched.Enabled).
		Int("daily_hour", sched.DailyHour).
		Str("cleanup_weekday", s.cleanupDay.String()).
		Bool("run_on_startup", sched.RunOnStartup).
		Msg("recommendation service starting")

	if sched.RunOnStartup {
		_, _ = s.run(ctx, TriggerStartup, false)
	}

	if !sched.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		now := s.now()
		nextCycle := nextDaily(now, sched.DailyHour)
		nextCleanup := nextWeekly(now, s.cleanupDay, sched.CleanupHour)

		cycleTimer := time.NewTimer(nextCycle.Sub(now))
		cleanupTimer := time.NewTimer(nextCleanup.Sub(now))

		select {
		case <-ctx.Done():
			cycleTimer.Stop()
			cleanupTimer.Stop()
			s.logger.Info().Msg("recommendation service shutting down")
			return ctx.Err()

		case <-cycleTimer.C:
			cleanupTimer.Stop()
			_, _ = s.run(ctx, TriggerSchedule, false)

		case <-cleanupTimer.C:
			cycleTimer.Stop()
			if _, err := s.Cleanup(ctx, s.config.DaysToKeep); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled cleanup failed")
			}
		}
	}
}

// Trigger runs a cycle on demand. It returns ErrTriggerThrottled when
// called again within the trigger cooldown.
func (s *RecommendService) Trigger(ctx context.Context, force bool) (*recommend.CycleSummary, error) {
	if !s.limiter.Allow() {
		metrics.RecordCycleSkip("throttled")
		return nil, ErrTriggerThrottled
	}
	return s.run(ctx, TriggerAPI, force)
}

// Cleanup prunes the store, keeping daysToKeep days of recommendation rows.
func (s *RecommendService) Cleanup(ctx context.Context, daysToKeep int) (*database.CleanupResult, error) {
	if s.cleaner == nil {
		return nil, errors.New("no cycle store configured")
	}
	return s.cleaner.Cleanup(ctx, s.now(), daysToKeep, s.config.HistoryDays)
}

func (s *RecommendService) run(ctx context.Context, trigger string, force bool) (*recommend.CycleSummary, error) {
	summary, err := s.runner.RunCycle(ctx, recommend.RunOptions{Force: force, Trigger: trigger})

	switch {
	case errors.Is(err, recommend.ErrAlreadyCalculated):
		metrics.RecordCycleSkip("already_calculated")
		s.logger.Info().Str("trigger", trigger).Msg("today's cycle already completed, skipping")
		return nil, err
	case errors.Is(err, recommend.ErrCycleInProgress):
		metrics.RecordCycleSkip("in_progress")
		s.logger.Info().Str("trigger", trigger).Msg("cycle already running, skipping")
		return nil, err
	}

	if summary != nil {
		metrics.RecordCycle(outcome(summary))
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("recommendation cycle failed")
	}
	return summary, err
}

func outcome(s *recommend.CycleSummary) metrics.CycleOutcome {
	return metrics.CycleOutcome{
		Duration:        s.Duration,
		Status:          s.Status,
		Step:            s.Step,
		Articles:        s.Articles,
		Users:           s.Users,
		Interactions:    s.Interactions,
		Vocabulary:      s.VocabularySize,
		Recommendations: s.Recommendations,
		Sparsity:        s.Sparsity,
		Models: map[string]bool{
			"content":       s.Readiness.Content,
			"collaborative": s.Readiness.Collaborative,
			"segmentation":  s.Readiness.Segmentation,
			"popularity":    s.Readiness.Popularity,
		},
	}
}

// nextDaily returns the first time after now at hour:00 local time.
func nextDaily(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the first time after now on day at hour:00.
func nextWeekly(now time.Time, day time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// String returns the service name for logging.
func (s *RecommendService) String() string {
	return s.name
}
