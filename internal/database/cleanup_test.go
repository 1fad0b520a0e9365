// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"context"
	"testing"
	"time"
)

func TestCleanup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := sampleResults("old", completedAt.AddDate(0, 0, -10))
	publish(t, db, old)
	publish(t, db, sampleResults("new", completedAt))

	t.Run("list rows older than days to keep", func(t *testing.T) {
		res, err := db.Cleanup(ctx, completedAt, 7, 30)
		if err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
		if res.RecommendationRows != 8 || res.MetricRows != 0 || res.CycleRows != 0 {
			t.Errorf("Cleanup() = %+v, want 8 list rows only", res)
		}
		if res.KeptCycleID != "new" {
			t.Errorf("KeptCycleID = %q, want new", res.KeptCycleID)
		}

		got, err := db.SimilarArticles(ctx, "new", 1, 10)
		if err != nil || len(got) != 2 {
			t.Errorf("latest cycle lists = %d rows, %v; want 2", len(got), err)
		}
		got, err = db.SimilarArticles(ctx, "old", 1, 10)
		if err != nil || len(got) != 0 {
			t.Errorf("old cycle lists = %d rows, %v; want 0", len(got), err)
		}
	})

	t.Run("history older than history days", func(t *testing.T) {
		res, err := db.Cleanup(ctx, completedAt, 7, 5)
		if err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
		if res.MetricRows != 3 || res.CycleRows != 1 {
			t.Errorf("Cleanup() = %+v, want 3 metric rows and 1 cycle row", res)
		}
		if _, err := db.Cycle(ctx, "old"); err == nil {
			t.Error("old cycle status row still present")
		}
	})
}

func TestCleanup_KeepsLatestCompletedCycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	publish(t, db, sampleResults("only", completedAt.AddDate(0, 0, -20)))
	if err := db.BeginCycle(ctx, "stuck", completedAt.AddDate(0, 0, -20), "synthetic"); err != nil {
		t.Fatalf("BeginCycle() error = %v", err)
	}

	res, err := db.Cleanup(ctx, completedAt, 1, 1)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if res.RecommendationRows != 0 || res.CycleRows != 0 {
		t.Errorf("Cleanup() = %+v, want latest and running cycles kept", res)
	}

	latest, err := db.LatestCompletedCycle(ctx)
	if err != nil || latest.ID != "only" {
		t.Fatalf("LatestCompletedCycle() = %+v, %v", latest, err)
	}
	got, err := db.UserRecommendations(ctx, "only", 10, 10)
	if err != nil || len(got) != 1 {
		t.Errorf("UserRecommendations() = %d rows, %v; want 1", len(got), err)
	}
}

func TestCleanup_EmptyStore(t *testing.T) {
	db := setupTestDB(t)

	res, err := db.Cleanup(context.Background(), time.Now(), 7, 30)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if res.KeptCycleID != "" || res.RecommendationRows != 0 {
		t.Errorf("Cleanup() = %+v, want nothing removed", res)
	}
}

func TestCleanup_InvalidArguments(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name        string
		days        int
		historyDays int
	}{
		{"zero days to keep", 0, 30},
		{"negative history", 7, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Cleanup(context.Background(), completedAt, tt.days, tt.historyDays); err == nil {
				t.Error("Cleanup() error = nil, want error")
			}
		})
	}
}
