// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// mockCycleRunner is a mock implementation for testing.
type mockCycleRunner struct {
	mu    sync.Mutex
	calls []recommend.RunOptions
	err   error
}

func (m *mockCycleRunner) RunCycle(_ context.Context, opts recommend.RunOptions) (*recommend.CycleSummary, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	err := m.err
	m.mu.Unlock()

	switch {
	case errors.Is(err, recommend.ErrAlreadyCalculated), errors.Is(err, recommend.ErrCycleInProgress):
		return nil, err
	case err != nil:
		return &recommend.CycleSummary{CycleID: "c-fail", Status: recommend.CycleStatusFailed, Step: recommend.StepLoad, Reason: err.Error()}, err
	}
	return &recommend.CycleSummary{
		CycleID:  "c-ok",
		Status:   recommend.CycleStatusCompleted,
		Articles: 12,
		Users:    4,
		Readiness: recommend.ModelReadiness{
			Content: true,
		},
	}, nil
}

func (m *mockCycleRunner) getCalls() []recommend.RunOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recommend.RunOptions(nil), m.calls...)
}

type mockCleaner struct {
	mu          sync.Mutex
	daysToKeep  int
	historyDays int
	calls       int
}

func (m *mockCleaner) Cleanup(_ context.Context, _ time.Time, daysToKeep, historyDays int) (*database.CleanupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.daysToKeep = daysToKeep
	m.historyDays = historyDays
	return &database.CleanupResult{DaysToKeep: daysToKeep, HistoryDays: historyDays}, nil
}

func testServiceConfig() RecommendServiceConfig {
	return RecommendServiceConfig{
		Schedule: config.ScheduleConfig{
			Enabled:         true,
			DailyHour:       2,
			CleanupWeekday:  "sunday",
			CleanupHour:     3,
			TriggerCooldown: time.Hour,
		},
		DaysToKeep:  7,
		HistoryDays: 30,
	}
}

func newTestService(t *testing.T, runner CycleRunner, cleaner StoreCleaner, cfg RecommendServiceConfig) *RecommendService {
	t.Helper()
	svc, err := NewRecommendService(runner, cleaner, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRecommendService() error = %v", err)
	}
	return svc
}

func TestRecommendService_String(t *testing.T) {
	svc := newTestService(t, &mockCycleRunner{}, nil, testServiceConfig())
	if got := svc.String(); got != "recommend-service" {
		t.Errorf("String() = %q, want %q", got, "recommend-service")
	}
}

func TestNewRecommendService_InvalidWeekday(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Schedule.CleanupWeekday = "someday"
	if _, err := NewRecommendService(&mockCycleRunner{}, nil, cfg, zerolog.Nop()); err == nil {
		t.Error("NewRecommendService() error = nil, want error")
	}
}

func TestRecommendService_RunOnStartup(t *testing.T) {
	tests := []struct {
		name      string
		onStartup bool
		want      int
	}{
		{"runs on startup", true, 1},
		{"does not run on startup", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockCycleRunner{}
			cfg := testServiceConfig()
			cfg.Schedule.RunOnStartup = tt.onStartup
			svc := newTestService(t, runner, nil, cfg)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want deadline exceeded", err)
			}

			calls := runner.getCalls()
			if len(calls) != tt.want {
				t.Fatalf("RunCycle() called %d times, want %d", len(calls), tt.want)
			}
			if tt.want == 1 && (calls[0].Trigger != TriggerStartup || calls[0].Force) {
				t.Errorf("startup run options = %+v", calls[0])
			}
		})
	}
}

func TestRecommendService_ScheduleDisabled(t *testing.T) {
	runner := &mockCycleRunner{}
	cfg := testServiceConfig()
	cfg.Schedule.Enabled = false
	svc := newTestService(t, runner, nil, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = svc.Serve(ctx)

	if n := len(runner.getCalls()); n != 0 {
		t.Errorf("RunCycle() called %d times, want 0", n)
	}
}

func TestRecommendService_Trigger(t *testing.T) {
	runner := &mockCycleRunner{}
	svc := newTestService(t, runner, nil, testServiceConfig())
	ctx := context.Background()

	completedBefore := testutil.ToFloat64(metrics.RecommendCycles.WithLabelValues(recommend.CycleStatusCompleted, ""))
	throttledBefore := testutil.ToFloat64(metrics.RecommendCycleSkips.WithLabelValues("throttled"))

	summary, err := svc.Trigger(ctx, true)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if summary.CycleID != "c-ok" {
		t.Errorf("Trigger() summary = %+v", summary)
	}
	calls := runner.getCalls()
	if len(calls) != 1 || !calls[0].Force || calls[0].Trigger != TriggerAPI {
		t.Errorf("run options = %+v", calls)
	}

	if _, err := svc.Trigger(ctx, true); !errors.Is(err, ErrTriggerThrottled) {
		t.Errorf("second Trigger() error = %v, want ErrTriggerThrottled", err)
	}
	if n := len(runner.getCalls()); n != 1 {
		t.Errorf("throttled trigger reached the engine, calls = %d", n)
	}

	if d := testutil.ToFloat64(metrics.RecommendCycles.WithLabelValues(recommend.CycleStatusCompleted, "")) - completedBefore; d != 1 {
		t.Errorf("completed cycles delta = %f, want 1", d)
	}
	if d := testutil.ToFloat64(metrics.RecommendCycleSkips.WithLabelValues("throttled")) - throttledBefore; d != 1 {
		t.Errorf("throttled skips delta = %f, want 1", d)
	}
}

func TestRecommendService_RunOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		skip     string
		wantSumm bool
	}{
		{"already calculated", recommend.ErrAlreadyCalculated, "already_calculated", false},
		{"in progress", recommend.ErrCycleInProgress, "in_progress", false},
		{"pipeline failure", errors.New("source down"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockCycleRunner{err: tt.err}
			svc := newTestService(t, runner, nil, testServiceConfig())

			var skipBefore float64
			if tt.skip != "" {
				skipBefore = testutil.ToFloat64(metrics.RecommendCycleSkips.WithLabelValues(tt.skip))
			}

			summary, err := svc.run(context.Background(), TriggerSchedule, false)
			if err == nil {
				t.Fatal("run() error = nil, want error")
			}
			if (summary != nil) != tt.wantSumm {
				t.Errorf("run() summary = %+v, want present %v", summary, tt.wantSumm)
			}
			if tt.skip != "" {
				if d := testutil.ToFloat64(metrics.RecommendCycleSkips.WithLabelValues(tt.skip)) - skipBefore; d != 1 {
					t.Errorf("skip %s delta = %f, want 1", tt.skip, d)
				}
			}
		})
	}
}

func TestRecommendService_Cleanup(t *testing.T) {
	t.Run("passes retention", func(t *testing.T) {
		cleaner := &mockCleaner{}
		svc := newTestService(t, &mockCycleRunner{}, cleaner, testServiceConfig())

		res, err := svc.Cleanup(context.Background(), 3)
		if err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
		if cleaner.daysToKeep != 3 || cleaner.historyDays != 30 || res.DaysToKeep != 3 {
			t.Errorf("cleanup args = %d/%d", cleaner.daysToKeep, cleaner.historyDays)
		}
	})

	t.Run("no store", func(t *testing.T) {
		svc := newTestService(t, &mockCycleRunner{}, nil, testServiceConfig())
		if _, err := svc.Cleanup(context.Background(), 7); err == nil {
			t.Error("Cleanup() error = nil, want error")
		}
	})
}

func TestNextDaily(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{"later today", time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC), 2, time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)},
		{"exactly now rolls over", time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC), 2, time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)},
		{"already passed", time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC), 2, time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2026, 3, 31, 5, 0, 0, 0, time.UTC), 0, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDaily(tt.now, tt.hour); !got.Equal(tt.want) {
				t.Errorf("nextDaily() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextWeekly(t *testing.T) {
	// 2026-03-02 is a Monday
	monday := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		day  time.Weekday
		hour int
		want time.Time
	}{
		{"later this week", monday, time.Sunday, 3, time.Date(2026, 3, 8, 3, 0, 0, 0, time.UTC)},
		{"later today", monday, time.Monday, 12, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)},
		{"earlier today", monday, time.Monday, 3, time.Date(2026, 3, 9, 3, 0, 0, 0, time.UTC)},
		{"tomorrow", monday, time.Tuesday, 0, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextWeekly(tt.now, tt.day, tt.hour); !got.Equal(tt.want) {
				t.Errorf("nextWeekly() = %v, want %v", got, tt.want)
			}
		})
	}
}
