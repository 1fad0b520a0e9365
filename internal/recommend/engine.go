// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cycle status values, shared with the output store.
const (
	CycleStatusRunning   = "running"
	CycleStatusCompleted = "completed"
	CycleStatusFailed    = "failed"
)

// CycleStore persists cycle results. It is typically implemented by the
// database package. PublishCycle must write the results and the completed
// marker atomically.
type CycleStore interface {
	// CompletedOn reports whether a cycle completed on the calendar day of t.
	CompletedOn(ctx context.Context, t time.Time) (bool, error)

	// BeginCycle records a running cycle.
	BeginCycle(ctx context.Context, id string, startedAt time.Time, source string) error

	// PublishCycle writes results and marks the cycle completed in one
	// transaction.
	PublishCycle(ctx context.Context, results *CycleResults) error

	// FailCycle marks a running cycle failed with a reason.
	FailCycle(ctx context.Context, id string, finishedAt time.Time, reason string) error
}

// EventPublisher announces cycle outcomes.
type EventPublisher interface {
	PublishCycleEvent(ctx context.Context, event CycleEvent) error
}

// CycleEvent is emitted when a cycle completes or fails.
type CycleEvent struct {
	CycleID         string         `json:"cycle_id"`
	Status          string         `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	Source          string         `json:"source"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Articles        int            `json:"articles"`
	Users           int            `json:"users"`
	Recommendations int            `json:"recommendations"`
	Readiness       ModelReadiness `json:"model_readiness"`
}

// RunOptions controls one cycle run.
type RunOptions struct {
	// Force runs even if today's cycle already completed.
	Force bool

	// Trigger names the caller, for logs ("schedule", "api", "startup").
	Trigger string
}

// CycleSummary describes a finished cycle run.
type CycleSummary struct {
	CycleID         string         `json:"cycle_id"`
	Status          string         `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	Step            string         `json:"step,omitempty"`
	Duration        time.Duration  `json:"duration"`
	Articles        int            `json:"articles"`
	Users           int            `json:"users"`
	Interactions    int            `json:"interactions"`
	VocabularySize  int            `json:"vocabulary_size"`
	Sparsity        float64        `json:"sparsity"`
	Recommendations int            `json:"recommendations"`
	Readiness       ModelReadiness `json:"model_readiness"`
}

// Status is the engine's in-memory view of cycle activity.
type Status struct {
	Running         bool           `json:"running"`
	CurrentCycleID  string         `json:"current_cycle_id,omitempty"`
	LastCycleID     string         `json:"last_cycle_id,omitempty"`
	LastCompletedAt time.Time      `json:"last_completed_at"`
	LastDurationMS  int64          `json:"last_duration_ms"`
	LastError       string         `json:"last_error,omitempty"`
	CyclesCompleted int64          `json:"cycles_completed"`
	CyclesFailed    int64          `json:"cycles_failed"`
	Readiness       ModelReadiness `json:"model_readiness"`
}

// Engine runs batch cycles and serves the latest published cycle.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	provider DataProvider
	source   InteractionSource
	store    CycleStore
	events   EventPublisher

	// runMu serializes cycles; TryLock rejects concurrent triggers.
	runMu sync.Mutex

	current atomic.Pointer[Cycle]

	statusMu sync.RWMutex
	status   Status

	completed atomic.Int64
	failed    atomic.Int64

	now func() time.Time
}

// NewEngine creates an engine over a data provider and interaction source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, provider DataProvider, source InteractionSource, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if source == nil {
		return nil, fmt.Errorf("interaction source is required")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
		source:   source,
		now:      time.Now,
	}, nil
}

// SetStore sets the output store. Without one, cycles are published in
// memory only.
func (e *Engine) SetStore(store CycleStore) {
	e.store = store
}

// SetEventPublisher sets the cycle event publisher.
func (e *Engine) SetEventPublisher(p EventPublisher) {
	e.events = p
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// RunCycle computes and publishes a full cycle. It returns
// ErrCycleInProgress when another cycle is running and ErrAlreadyCalculated
// when today's cycle completed and opts.Force is false. On any other failure
// the previous cycle stays published and the error wraps ErrPipelineFailure.
func (e *Engine) RunCycle(ctx context.Context, opts RunOptions) (*CycleSummary, error) {
	if !e.runMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer e.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.config.Cycle.Timeout)
	defer cancel()

	started := e.now()
	id := uuid.NewString()
	log := e.logger.With().Str("cycle_id", id).Str("trigger", opts.Trigger).Logger()

	if !opts.Force && e.store != nil {
		done, err := e.store.CompletedOn(ctx, started)
		if err != nil {
			return e.fail(ctx, id, started, &CycleSummary{CycleID: id},
				pipelineError(StepLoad, "check today's cycle", err), log)
		}
		if done {
			return nil, ErrAlreadyCalculated
		}
	}

	e.markRunning(id)
	log.Info().Msg("starting recommendation cycle")

	summary, err := e.runCycle(ctx, id, started, log)
	if err != nil {
		return e.fail(ctx, id, started, summary, err, log)
	}
	summary.Duration = time.Since(started)

	summary.Status = CycleStatusCompleted
	e.recordSuccess(ctx, started, summary)
	log.Info().
		Int("articles", summary.Articles).
		Int("users", summary.Users).
		Int("recommendations", summary.Recommendations).
		Int64("duration_ms", summary.Duration.Milliseconds()).
		Msg("recommendation cycle complete")
	return summary, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) runCycle(ctx context.Context, id string, started time.Time, log zerolog.Logger) (*CycleSummary, error) {
	summary := &CycleSummary{CycleID: id}

	in, err := e.loadSnapshot(ctx, started)
	if err != nil {
		return summary, err
	}
	summary.Articles = len(in.Articles)
	summary.Users = len(in.Users)
	summary.Interactions = in.Interactions.Count()

	if e.store != nil {
		if err := e.store.BeginCycle(ctx, id, started, in.Source); err != nil {
			return summary, pipelineError(StepPublish, "record cycle start", err)
		}
	}

	cycle, err := BuildCycle(ctx, id, in, e.config, started, log)
	if err != nil {
		return summary, err
	}
	summary.Readiness = cycle.Readiness()
	summary.VocabularySize = cycle.VocabularySize()
	summary.Sparsity = cycle.Sparsity()

	results, err := cycle.Results(ctx)
	if err != nil {
		return summary, err
	}
	summary.Recommendations = results.RecommendationCount()

	if e.store != nil {
		if err := e.store.PublishCycle(ctx, results); err != nil {
			return summary, pipelineError(StepPublish, "write cycle results", err)
		}
	}

	e.current.Store(cycle)
	return summary, nil
}

// loadSnapshot fetches and normalizes the working set.
func (e *Engine) loadSnapshot(ctx context.Context, now time.Time) (CycleInput, error) {
	rawArticles, err := e.provider.FetchArticles(ctx)
	if err != nil {
		return CycleInput{}, pipelineError(StepLoad, "fetch articles", err)
	}
	rawUsers, err := e.provider.FetchUsers(ctx)
	if err != nil {
		return CycleInput{}, pipelineError(StepLoad, "fetch users", err)
	}

	articles := NormalizeArticles(rawArticles, now)
	users := NormalizeUsers(rawUsers, now)
	if len(articles) == 0 {
		return CycleInput{}, pipelineError(StepLoad, "no published articles", nil)
	}

	interactions, err := e.source.Load(ctx, articles, users)
	if err != nil {
		return CycleInput{}, pipelineError(StepLoad, "load interactions from "+e.source.Name(), err)
	}

	e.logger.Debug().
		Int("raw_articles", len(rawArticles)).
		Int("articles", len(articles)).
		Int("users", len(users)).
		Int("interactions", interactions.Count()).
		Str("source", e.source.Name()).
		Msg("loaded snapshot")

	return CycleInput{
		Articles:     articles,
		Users:        users,
		Interactions: interactions,
		Source:       e.source.Name(),
	}, nil
}

func (e *Engine) markRunning(id string) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.status.Running = true
	e.status.CurrentCycleID = id
}

func (e *Engine) recordSuccess(ctx context.Context, started time.Time, s *CycleSummary) {
	e.completed.Add(1)

	e.statusMu.Lock()
	e.status.Running = false
	e.status.CurrentCycleID = ""
	e.status.LastCycleID = s.CycleID
	e.status.LastCompletedAt = e.now()
	e.status.LastDurationMS = s.Duration.Milliseconds()
	e.status.LastError = ""
	e.status.Readiness = s.Readiness
	e.statusMu.Unlock()

	e.publishEvent(ctx, started, s)
}

// fail records summary as a failed cycle and returns it with err.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) fail(ctx context.Context, id string, started time.Time, summary *CycleSummary, err error, log zerolog.Logger) (*CycleSummary, error) {
	summary.Duration = time.Since(started)
	summary.Status = CycleStatusFailed
	summary.Reason = err.Error()
	var pe *PipelineError
	if errors.As(err, &pe) {
		summary.Step = pe.Step
	}
	e.recordFailure(ctx, id, started, summary, log)
	return summary, err
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) recordFailure(ctx context.Context, id string, started time.Time, s *CycleSummary, log zerolog.Logger) {
	e.failed.Add(1)

	e.statusMu.Lock()
	e.status.Running = false
	e.status.CurrentCycleID = ""
	e.status.LastError = s.Reason
	e.statusMu.Unlock()

	log.Error().Str("step", s.Step).Str("reason", s.Reason).Msg("recommendation cycle failed")

	// the cycle context may already be cancelled
	bg := context.WithoutCancel(ctx)
	if e.store != nil {
		if err := e.store.FailCycle(bg, id, e.now(), s.Reason); err != nil {
			log.Warn().Err(err).Msg("failed to record cycle failure")
		}
	}
	e.publishEvent(bg, started, s)
}

func (e *Engine) publishEvent(ctx context.Context, started time.Time, s *CycleSummary) {
	if e.events == nil {
		return
	}
	event := CycleEvent{
		CycleID:         s.CycleID,
		Status:          s.Status,
		Reason:          s.Reason,
		Source:          e.source.Name(),
		StartedAt:       started,
		FinishedAt:      e.now(),
		Articles:        s.Articles,
		Users:           s.Users,
		Recommendations: s.Recommendations,
		Readiness:       s.Readiness,
	}
	if err := e.events.PublishCycleEvent(ctx, event); err != nil {
		e.logger.Warn().Err(err).Str("cycle_id", s.CycleID).Msg("failed to publish cycle event")
	}
}

// Status returns the current cycle status.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	s := e.status
	e.statusMu.RUnlock()

	s.CyclesCompleted = e.completed.Load()
	s.CyclesFailed = e.failed.Load()
	return s
}

// Current returns the published cycle, or ErrNoCycle before the first one.
func (e *Engine) Current() (*Cycle, error) {
	c := e.current.Load()
	if c == nil {
		return nil, ErrNoCycle
	}
	return c, nil
}

// SimilarArticles reads the published cycle.
func (e *Engine) SimilarArticles(articleID, n int) ([]SimilarArticle, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	return c.SimilarArticles(articleID, n)
}

// AuthorRecommendations reads the published cycle.
func (e *Engine) AuthorRecommendations(articleID, n int) ([]AuthorRecommendation, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	return c.AuthorRecommendations(articleID, n)
}

// RecentArticles reads the published cycle.
func (e *Engine) RecentArticles(n int) ([]RecentArticle, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	return c.RecentArticles(n), nil
}

// RecommendationsForUser reads the published cycle.
func (e *Engine) RecommendationsForUser(userID, n int) ([]UserRecommendation, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	return c.RecommendationsForUser(userID, n)
}

// PredictRating reads the published cycle.
func (e *Engine) PredictRating(userID, articleID int) (Prediction, error) {
	c, err := e.Current()
	if err != nil {
		return Prediction{}, err
	}
	return c.PredictRating(userID, articleID)
}

// AllPairwiseSimilarities reads the published cycle.
func (e *Engine) AllPairwiseSimilarities(minThreshold float64) (map[int][]ScoredArticle, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	return c.AllPairwiseSimilarities(minThreshold), nil
}

// BehaviorSummary analyzes a user of the published cycle. The profile is
// looked up from the provider when enabled; lookup failures are logged and
// the summary is returned without completeness.
func (e *Engine) BehaviorSummary(ctx context.Context, userID int) (*BehaviorSummary, error) {
	c, err := e.Current()
	if err != nil {
		return nil, err
	}
	if _, ok := c.User(userID); !ok {
		return nil, unknown("user", userID)
	}

	var profile *UserProfile
	if e.config.Cycle.ProfileLookups {
		profile, err = e.provider.FetchUserProfile(ctx, userID)
		if err != nil {
			e.logger.Warn().Err(err).Int("user_id", userID).Msg("profile lookup failed")
			profile = nil
		}
	}
	return c.BehaviorSummary(userID, profile)
}

// Insights reads the published cycle.
func (e *Engine) Insights() (Insights, error) {
	c, err := e.Current()
	if err != nil {
		return Insights{}, err
	}
	return c.Insights(), nil
}

// SystemHealth reports the published cycle's health; before the first cycle
// only readiness zero values are returned.
func (e *Engine) SystemHealth() SystemHealth {
	c := e.current.Load()
	if c == nil {
		return SystemHealth{Sparsity: 1}
	}
	return c.SystemHealth()
}
