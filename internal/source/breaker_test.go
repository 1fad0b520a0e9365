// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package source

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// mockProvider is a DataProvider that fails while err is set.
type mockProvider struct {
	calls atomic.Int32
	err   error
}

func (m *mockProvider) FetchArticles(context.Context) ([]recommend.RawArticle, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []recommend.RawArticle{{ID: 1, Title: "A"}}, nil
}

func (m *mockProvider) FetchUsers(context.Context) ([]recommend.RawUser, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []recommend.RawUser{{ID: 10}}, nil
}

func (m *mockProvider) FetchUserProfile(_ context.Context, userID int) (*recommend.UserProfile, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if userID != 10 {
		return nil, nil
	}
	return &recommend.UserProfile{UserID: 10, GivenName: "Eva"}, nil
}

func (m *mockProvider) FetchUsageEvents(context.Context) ([]recommend.UsageEvent, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []recommend.UsageEvent{{UserID: 10, ArticleID: 1, EventType: "view"}}, nil
}

func testBreakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestCircuitBreakerProvider_PassThrough(t *testing.T) {
	mock := &mockProvider{}
	p := NewCircuitBreakerProvider(mock, "test-pass", testBreakerConfig(), zerolog.Nop())
	ctx := context.Background()

	articles, err := p.FetchArticles(ctx)
	if err != nil || len(articles) != 1 {
		t.Errorf("FetchArticles() = %v, %v", articles, err)
	}
	users, err := p.FetchUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Errorf("FetchUsers() = %v, %v", users, err)
	}
	events, err := p.FetchUsageEvents(ctx)
	if err != nil || len(events) != 1 {
		t.Errorf("FetchUsageEvents() = %v, %v", events, err)
	}

	profile, err := p.FetchUserProfile(ctx, 10)
	if err != nil || profile == nil || profile.GivenName != "Eva" {
		t.Errorf("FetchUserProfile(10) = %+v, %v", profile, err)
	}
	profile, err = p.FetchUserProfile(ctx, 99)
	if err != nil || profile != nil {
		t.Errorf("FetchUserProfile(99) = %+v, %v; want nil, nil", profile, err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-pass", "success")); got != 5 {
		t.Errorf("success requests = %v, want 5", got)
	}
	if p.State() != "closed" {
		t.Errorf("State() = %q, want closed", p.State())
	}
}

func TestCircuitBreakerProvider_Opens(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockProvider{err: dbErr}
	p := NewCircuitBreakerProvider(mock, "test-open", testBreakerConfig(), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := p.FetchArticles(ctx); !errors.Is(err, dbErr) {
			t.Fatalf("call %d error = %v, want the database error", i, err)
		}
	}

	if p.State() != "open" {
		t.Fatalf("State() = %q, want open", p.State())
	}

	_, err := p.FetchUsers(ctx)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("FetchUsers() error = %v, want ErrCircuitOpen", err)
	}
	if mock.calls.Load() != 2 {
		t.Errorf("provider calls = %d, want 2 (rejected call not forwarded)", mock.calls.Load())
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); got != 2 {
		t.Errorf("state gauge = %v, want 2 (open)", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-open", "rejected")); got != 1 {
		t.Errorf("rejected requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerTransitions.WithLabelValues("test-open", "closed", "open")); got != 1 {
		t.Errorf("closed->open transitions = %v, want 1", got)
	}
}

func TestCircuitBreakerProvider_CancellationDoesNotTrip(t *testing.T) {
	mock := &mockProvider{err: context.Canceled}
	p := NewCircuitBreakerProvider(mock, "test-cancel", testBreakerConfig(), zerolog.Nop())

	for i := 0; i < 5; i++ {
		if _, err := p.FetchArticles(context.Background()); !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	}
	if p.State() != "closed" {
		t.Errorf("State() = %q, want closed", p.State())
	}
}

func TestStateConversions(t *testing.T) {
	if stateToFloat(99) != -1 || stateToString(99) != "unknown" {
		t.Error("unknown state should map to -1/unknown")
	}
}
