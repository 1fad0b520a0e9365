// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// CleanupResult reports the rows removed by Cleanup.
type CleanupResult struct {
	RecommendationRows int64  `json:"recommendation_rows"`
	MetricRows         int64  `json:"metric_rows"`
	CycleRows          int64  `json:"cycle_rows"`
	KeptCycleID        string `json:"kept_cycle_id,omitempty"`
	DaysToKeep         int    `json:"days_to_keep"`
	HistoryDays        int    `json:"history_days"`
}

// Cleanup deletes recommendation rows older than daysToKeep days and metric
// and status rows older than historyDays days. The latest completed cycle
// and running cycles are always kept.
func (db *DB) Cleanup(ctx context.Context, now time.Time, daysToKeep, historyDays int) (res *CleanupResult, err error) {
	if daysToKeep < 1 {
		return nil, fmt.Errorf("days to keep must be at least 1, got %d", daysToKeep)
	}
	if historyDays < 1 {
		return nil, fmt.Errorf("history days must be at least 1, got %d", historyDays)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("cleanup", tableCycles, time.Since(start), err) }()

	res = &CleanupResult{DaysToKeep: daysToKeep, HistoryDays: historyDays}
	latest, err := db.LatestCompletedCycle(ctx)
	switch {
	case errors.Is(err, recommend.ErrNoCycle):
	case err != nil:
		return nil, err
	default:
		res.KeptCycleID = latest.ID
	}

	listCutoff := now.UTC().AddDate(0, 0, -daysToKeep)
	historyCutoff := now.UTC().AddDate(0, 0, -historyDays)

	counts := make(map[string]int64, len(storeTables))
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res.RecommendationRows, res.MetricRows, res.CycleRows = 0, 0, 0

		for _, table := range listTables {
			n, err := execCount(ctx, tx,
				"DELETE FROM "+table+" WHERE created_at < ? AND cycle_id <> ?",
				listCutoff, res.KeptCycleID)
			if err != nil {
				return fmt.Errorf("clean %s: %w", table, err)
			}
			res.RecommendationRows += n
			counts[table] = n
		}

		n, err := execCount(ctx, tx,
			`DELETE FROM article_metrics_daily WHERE metric_date < CAST(? AS DATE)`,
			historyCutoff.Format(time.DateOnly))
		if err != nil {
			return fmt.Errorf("clean %s: %w", tableMetrics, err)
		}
		res.MetricRows = n
		counts[tableMetrics] = n

		n, err = execCount(ctx, tx,
			`DELETE FROM recommendation_cycles
			 WHERE started_at < ? AND cycle_id <> ? AND status <> ?`,
			historyCutoff, res.KeptCycleID, recommend.CycleStatusRunning)
		if err != nil {
			return fmt.Errorf("clean %s: %w", tableCycles, err)
		}
		res.CycleRows = n
		counts[tableCycles] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	for table, n := range counts {
		metrics.RecommendRowsCleaned.WithLabelValues(table).Add(float64(n))
	}

	db.logger.Info().
		Int64("recommendation_rows", res.RecommendationRows).
		Int64("metric_rows", res.MetricRows).
		Int64("cycle_rows", res.CycleRows).
		Str("kept_cycle_id", res.KeptCycleID).
		Int("days_to_keep", daysToKeep).
		Msg("cleaned up cycle store")
	return res, nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	r, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.RowsAffected()
}
