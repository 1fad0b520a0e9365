// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// CycleRecord is one row of the cycle status history.
type CycleRecord struct {
	ID              string                   `json:"cycle_id"`
	Status          string                   `json:"status"`
	Source          string                   `json:"source"`
	StartedAt       time.Time                `json:"started_at"`
	FinishedAt      *time.Time               `json:"finished_at,omitempty"`
	DurationMS      int64                    `json:"duration_ms"`
	Reason          string                   `json:"reason,omitempty"`
	Articles        int                      `json:"articles"`
	Users           int                      `json:"users"`
	Interactions    int                      `json:"interactions"`
	VocabularySize  int                      `json:"vocabulary_size"`
	Sparsity        float64                  `json:"sparsity"`
	Recommendations int                      `json:"recommendations"`
	Readiness       recommend.ModelReadiness `json:"model_readiness"`
}

const cycleColumns = `cycle_id, status, source, started_at, finished_at, duration_ms, reason,
	article_count, user_count, interaction_count, vocabulary_size, sparsity, recommendation_count,
	content_ready, collaborative_ready, segmentation_ready, popularity_ready`

// dayBounds returns the UTC bounds of t's calendar day in t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// CompletedOn reports whether a cycle completed on the calendar day of t.
func (db *DB) CompletedOn(ctx context.Context, t time.Time) (done bool, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("completed_on", tableCycles, time.Since(start), err) }()

	from, to := dayBounds(t)
	var n int
	err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendation_cycles
		 WHERE status = ? AND finished_at >= ? AND finished_at < ?`,
		recommend.CycleStatusCompleted, from, to).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query completed cycles: %w", err)
	}
	return n > 0, nil
}

// BeginCycle records a running cycle.
func (db *DB) BeginCycle(ctx context.Context, id string, startedAt time.Time, source string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("begin_cycle", tableCycles, time.Since(start), err) }()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO recommendation_cycles (cycle_id, status, source, started_at) VALUES (?, ?, ?, ?)`,
		id, recommend.CycleStatusRunning, source, startedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert cycle %s: %w", id, err)
	}
	return nil
}

// FailCycle marks a cycle failed. A cycle that failed before BeginCycle
// gets a new status row so the failure still appears in the history.
func (db *DB) FailCycle(ctx context.Context, id string, finishedAt time.Time, reason string) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fail_cycle", tableCycles, time.Since(start), err) }()

	finished := finishedAt.UTC()
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recommendation_cycles
			 SET status = ?, finished_at = ?, reason = ?,
			     duration_ms = CAST(epoch_ms(?::TIMESTAMP) - epoch_ms(started_at) AS BIGINT)
			 WHERE cycle_id = ?`,
			recommend.CycleStatusFailed, finished, reason, finished, id)
		if err != nil {
			return fmt.Errorf("update cycle %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO recommendation_cycles (cycle_id, status, started_at, finished_at, duration_ms, reason)
			 VALUES (?, ?, ?, ?, 0, ?)`,
			id, recommend.CycleStatusFailed, finished, finished, reason)
		if err != nil {
			return fmt.Errorf("insert failed cycle %s: %w", id, err)
		}
		return nil
	})
}

// PublishCycle writes every list of the cycle and marks it completed in one
// transaction. Rows already written for the cycle id are replaced.
func (db *DB) PublishCycle(ctx context.Context, r *recommend.CycleResults) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("publish_cycle", tableCycles, time.Since(start), err) }()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range listTables {
			// table names come from the fixed listTables list
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE cycle_id = ?", r.CycleID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		created := r.CompletedAt.UTC()
		if err := insertSimilar(ctx, tx, r.CycleID, created, r.Similar); err != nil {
			return err
		}
		if err := insertAuthors(ctx, tx, r.CycleID, created, r.Authors); err != nil {
			return err
		}
		if err := insertUsers(ctx, tx, r.CycleID, created, r.Users); err != nil {
			return err
		}
		if err := insertHomepage(ctx, tx, r.CycleID, created, r.Homepage); err != nil {
			return err
		}
		if err := replaceMetrics(ctx, tx, r.CycleID, r.CompletedAt, r.Metrics); err != nil {
			return err
		}
		return completeCycle(ctx, tx, r)
	})
	if err != nil {
		return err
	}

	db.logger.Debug().
		Str("cycle_id", r.CycleID).
		Int("recommendations", r.RecommendationCount()).
		Dur("elapsed", time.Since(start)).
		Msg("published cycle")
	return nil
}

func completeCycle(ctx context.Context, tx *sql.Tx, r *recommend.CycleResults) error {
	args := []any{
		recommend.CycleStatusCompleted, r.Source, r.CompletedAt.UTC(), r.CompletedAt.Sub(r.StartedAt).Milliseconds(),
		r.ArticleCount, r.UserCount, r.InteractionCount, r.VocabularySize, r.Sparsity, r.RecommendationCount(),
		r.Readiness.Content, r.Readiness.Collaborative, r.Readiness.Segmentation, r.Readiness.Popularity,
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE recommendation_cycles SET
			status = ?, source = ?, finished_at = ?, duration_ms = ?, reason = NULL,
			article_count = ?, user_count = ?, interaction_count = ?, vocabulary_size = ?, sparsity = ?,
			recommendation_count = ?,
			content_ready = ?, collaborative_ready = ?, segmentation_ready = ?, popularity_ready = ?
		 WHERE cycle_id = ?`,
		append(args, r.CycleID)...)
	if err != nil {
		return fmt.Errorf("complete cycle %s: %w", r.CycleID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recommendation_cycles (
			cycle_id, started_at, status, source, finished_at, duration_ms,
			article_count, user_count, interaction_count, vocabulary_size, sparsity,
			recommendation_count,
			content_ready, collaborative_ready, segmentation_ready, popularity_ready
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{r.CycleID, r.StartedAt.UTC()}, args...)...)
	if err != nil {
		return fmt.Errorf("insert completed cycle %s: %w", r.CycleID, err)
	}
	return nil
}

func insertSimilar(ctx context.Context, tx *sql.Tx, cycleID string, created time.Time, lists map[int][]recommend.SimilarArticle) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO similar_articles (
			cycle_id, article_id, list_rank, similar_article_id, score, confidence, algorithm,
			title, authors, abstract_snippet, url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare similar insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, id := range sortedKeys(lists) {
		for i, s := range lists[id] {
			d := s.Display
			if _, err := stmt.ExecContext(ctx, cycleID, id, i+1, s.ArticleID, s.Score, s.Confidence, s.Algorithm,
				d.Title, d.Authors, d.Snippet, d.URL, created); err != nil {
				return fmt.Errorf("insert similar articles of %d: %w", id, err)
			}
		}
	}
	return nil
}

func insertAuthors(ctx context.Context, tx *sql.Tx, cycleID string, created time.Time, lists map[int][]recommend.AuthorRecommendation) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO author_recommendations (
			cycle_id, article_id, list_rank, recommended_article_id, score, shared_authors, algorithm,
			title, authors, abstract_snippet, url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare author insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, id := range sortedKeys(lists) {
		for i, a := range lists[id] {
			shared, err := json.Marshal(a.SharedAuthors)
			if err != nil {
				return fmt.Errorf("encode shared authors: %w", err)
			}
			d := a.Display
			if _, err := stmt.ExecContext(ctx, cycleID, id, i+1, a.ArticleID, a.Score, string(shared), a.Algorithm,
				d.Title, d.Authors, d.Snippet, d.URL, created); err != nil {
				return fmt.Errorf("insert author recommendations of %d: %w", id, err)
			}
		}
	}
	return nil
}

func insertUsers(ctx context.Context, tx *sql.Tx, cycleID string, created time.Time, lists map[int][]recommend.UserRecommendation) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO user_recommendations (
			cycle_id, user_id, list_rank, article_id, predicted_rating, confidence, methods, interpretation,
			title, authors, abstract_snippet, url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare user insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, id := range sortedKeys(lists) {
		for i, u := range lists[id] {
			methods, err := json.Marshal(u.Methods)
			if err != nil {
				return fmt.Errorf("encode methods: %w", err)
			}
			d := u.Display
			if _, err := stmt.ExecContext(ctx, cycleID, id, i+1, u.ArticleID, u.PredictedRating, u.Confidence,
				string(methods), u.Interpretation, d.Title, d.Authors, d.Snippet, d.URL, created); err != nil {
				return fmt.Errorf("insert user recommendations of %d: %w", id, err)
			}
		}
	}
	return nil
}

func insertHomepage(ctx context.Context, tx *sql.Tx, cycleID string, created time.Time, surfaces map[string][]recommend.HomepageEntry) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO homepage_recommendations (
			cycle_id, surface, list_rank, article_id, score, title, authors, abstract_snippet, url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare homepage insert: %w", err)
	}
	defer closeQuietly(stmt)

	names := make([]string, 0, len(surfaces))
	for name := range surfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, e := range surfaces[name] {
			d := e.Display
			if _, err := stmt.ExecContext(ctx, cycleID, name, e.Rank, e.ArticleID, e.Score,
				d.Title, d.Authors, d.Snippet, d.URL, created); err != nil {
				return fmt.Errorf("insert %s homepage: %w", name, err)
			}
		}
	}
	return nil
}

// replaceMetrics replaces the metric rows of the completion day.
func replaceMetrics(ctx context.Context, tx *sql.Tx, cycleID string, completed time.Time, rows []recommend.ArticleMetric) error {
	day := completed.Format(time.DateOnly)
	if _, err := tx.ExecContext(ctx, `DELETE FROM article_metrics_daily WHERE metric_date = CAST(? AS DATE)`, day); err != nil {
		return fmt.Errorf("clear metrics of %s: %w", day, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO article_metrics_daily (
			metric_date, article_id, cycle_id, recommendation_count, popularity_score, trending_score
		) VALUES (CAST(? AS DATE), ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metrics insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, m := range rows {
		if _, err := stmt.ExecContext(ctx, day, m.ArticleID, cycleID, m.RecommendationCount,
			m.PopularityScore, m.TrendingScore); err != nil {
			return fmt.Errorf("insert metrics of %d: %w", m.ArticleID, err)
		}
	}
	return nil
}

// LatestCompletedCycle returns the most recently completed cycle, or
// recommend.ErrNoCycle.
func (db *DB) LatestCompletedCycle(ctx context.Context) (rec *CycleRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("latest_cycle", tableCycles, time.Since(start), err) }()

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+cycleColumns+` FROM recommendation_cycles
		 WHERE status = ?
		 ORDER BY finished_at DESC, cycle_id DESC
		 LIMIT 1`, recommend.CycleStatusCompleted)

	rec, err = scanCycle(row)
	if isNoRows(err) {
		return nil, recommend.ErrNoCycle
	}
	if err != nil {
		return nil, fmt.Errorf("query latest cycle: %w", err)
	}
	return rec, nil
}

// Cycle returns one cycle status row.
func (db *DB) Cycle(ctx context.Context, id string) (*CycleRecord, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM recommendation_cycles WHERE cycle_id = ?`, id)
	rec, err := scanCycle(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("cycle %s: %w", id, ErrCycleNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query cycle %s: %w", id, err)
	}
	return rec, nil
}

// CycleHistory returns the most recent cycles, newest first.
func (db *DB) CycleHistory(ctx context.Context, limit int) (out []CycleRecord, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("cycle_history", tableCycles, time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+cycleColumns+` FROM recommendation_cycles
		 ORDER BY started_at DESC, cycle_id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycle history: %w", err)
	}
	defer closeWithLog(rows, db.logger, "cycle rows")

	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*CycleRecord, error) {
	var (
		rec      CycleRecord
		finished sql.NullTime
		duration sql.NullInt64
		reason   sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.Status, &rec.Source, &rec.StartedAt, &finished, &duration, &reason,
		&rec.Articles, &rec.Users, &rec.Interactions, &rec.VocabularySize, &rec.Sparsity, &rec.Recommendations,
		&rec.Readiness.Content, &rec.Readiness.Collaborative, &rec.Readiness.Segmentation, &rec.Readiness.Popularity)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time.UTC()
		rec.FinishedAt = &t
	}
	rec.StartedAt = rec.StartedAt.UTC()
	rec.DurationMS = duration.Int64
	rec.Reason = reason.String
	return &rec, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
