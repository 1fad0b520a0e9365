// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("source circuit breaker is open")

// CircuitBreakerProvider wraps a DataProvider with the circuit breaker pattern
// so a failing database is not queried by every retried cycle.
//
// The breaker uses real time for its interval and timeout; tests exercise
// it by driving failures through a mock provider.
type CircuitBreakerProvider struct {
	next   recommend.DataProvider
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
	logger zerolog.Logger
}

var _ recommend.DataProvider = (*CircuitBreakerProvider)(nil)

// NewCircuitBreakerProvider creates a provider guarded by a breaker named
// name. With the default settings the circuit:
//   - allows 3 requests in half-open state
//   - resets counts every minute while closed
//   - waits 2 minutes before probing again
//   - opens at a 60% failure rate over at least 10 requests
func NewCircuitBreakerProvider(next recommend.DataProvider, name string, cfg config.BreakerConfig, logger zerolog.Logger) *CircuitBreakerProvider {
	logger = logger.With().Str("component", "source_breaker").Str("breaker", name).Logger()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.FailureRatio

			if shouldTrip {
				logger.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		// Cancellation is the caller giving up, not the database failing.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerProvider{
		next:   next,
		cb:     cb,
		name:   name,
		logger: logger,
	}
}

// State returns the current breaker state as "closed", "half-open" or "open".
func (p *CircuitBreakerProvider) State() string {
	return stateToString(p.cb.State())
}

// execute wraps a provider call with circuit breaker protection.
func (p *CircuitBreakerProvider) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := p.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
			p.logger.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}

		metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		counts := p.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(p.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(p.name).Set(0)

	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FetchArticles fetches articles with circuit breaker protection.
func (p *CircuitBreakerProvider) FetchArticles(ctx context.Context) ([]recommend.RawArticle, error) {
	return castResult[[]recommend.RawArticle](p.execute(func() (interface{}, error) {
		return p.next.FetchArticles(ctx)
	}))
}

// FetchUsers fetches users with circuit breaker protection.
func (p *CircuitBreakerProvider) FetchUsers(ctx context.Context) ([]recommend.RawUser, error) {
	return castResult[[]recommend.RawUser](p.execute(func() (interface{}, error) {
		return p.next.FetchUsers(ctx)
	}))
}

// FetchUserProfile fetches a profile with circuit breaker protection.
func (p *CircuitBreakerProvider) FetchUserProfile(ctx context.Context, userID int) (*recommend.UserProfile, error) {
	return castResult[*recommend.UserProfile](p.execute(func() (interface{}, error) {
		return p.next.FetchUserProfile(ctx, userID)
	}))
}

// FetchUsageEvents fetches the usage log with circuit breaker protection.
func (p *CircuitBreakerProvider) FetchUsageEvents(ctx context.Context) ([]recommend.UsageEvent, error) {
	return castResult[[]recommend.UsageEvent](p.execute(func() (interface{}, error) {
		return p.next.FetchUsageEvents(ctx)
	}))
}
