// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// queryAndScan runs a list query and scans every row.
func queryAndScan[T any](ctx context.Context, db *DB, op, table, query string, args []any, scan func(*sql.Rows) (T, error)) (out []T, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, table, time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer closeWithLog(rows, db.logger, table+" rows")

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// display scans the four nullable display columns.
type display struct {
	title, authors, snippet, url sql.NullString
}

func (d *display) dest() []any {
	return []any{&d.title, &d.authors, &d.snippet, &d.url}
}

func (d *display) value() recommend.ArticleDisplay {
	return recommend.ArticleDisplay{
		Title:   d.title.String,
		Authors: d.authors.String,
		Snippet: d.snippet.String,
		URL:     d.url.String,
	}
}

// SimilarArticles returns the stored similar-article list of an article.
func (db *DB) SimilarArticles(ctx context.Context, cycleID string, articleID, limit int) ([]recommend.SimilarArticle, error) {
	return queryAndScan(ctx, db, "similar_articles", tableSimilar,
		`SELECT similar_article_id, score, confidence, algorithm, title, authors, abstract_snippet, url
		 FROM similar_articles
		 WHERE cycle_id = ? AND article_id = ?
		 ORDER BY list_rank
		 LIMIT ?`,
		[]any{cycleID, articleID, limit},
		func(rows *sql.Rows) (recommend.SimilarArticle, error) {
			var s recommend.SimilarArticle
			var d display
			err := rows.Scan(append([]any{&s.ArticleID, &s.Score, &s.Confidence, &s.Algorithm}, d.dest()...)...)
			s.Display = d.value()
			return s, err
		})
}

// AuthorRecommendations returns the stored shared-author list of an article.
func (db *DB) AuthorRecommendations(ctx context.Context, cycleID string, articleID, limit int) ([]recommend.AuthorRecommendation, error) {
	return queryAndScan(ctx, db, "author_recommendations", tableAuthors,
		`SELECT recommended_article_id, score, shared_authors, algorithm, title, authors, abstract_snippet, url
		 FROM author_recommendations
		 WHERE cycle_id = ? AND article_id = ?
		 ORDER BY list_rank
		 LIMIT ?`,
		[]any{cycleID, articleID, limit},
		func(rows *sql.Rows) (recommend.AuthorRecommendation, error) {
			var a recommend.AuthorRecommendation
			var d display
			var shared string
			if err := rows.Scan(append([]any{&a.ArticleID, &a.Score, &shared, &a.Algorithm}, d.dest()...)...); err != nil {
				return a, err
			}
			if err := json.Unmarshal([]byte(shared), &a.SharedAuthors); err != nil {
				return a, fmt.Errorf("decode shared authors: %w", err)
			}
			a.Display = d.value()
			return a, nil
		})
}

// UserRecommendations returns the stored personalized list of a user.
func (db *DB) UserRecommendations(ctx context.Context, cycleID string, userID, limit int) ([]recommend.UserRecommendation, error) {
	return queryAndScan(ctx, db, "user_recommendations", tableUsers,
		`SELECT article_id, predicted_rating, confidence, methods, interpretation, title, authors, abstract_snippet, url
		 FROM user_recommendations
		 WHERE cycle_id = ? AND user_id = ?
		 ORDER BY list_rank
		 LIMIT ?`,
		[]any{cycleID, userID, limit},
		func(rows *sql.Rows) (recommend.UserRecommendation, error) {
			var u recommend.UserRecommendation
			var d display
			var methods string
			var interpretation sql.NullString
			if err := rows.Scan(append([]any{&u.ArticleID, &u.PredictedRating, &u.Confidence, &methods, &interpretation}, d.dest()...)...); err != nil {
				return u, err
			}
			if err := json.Unmarshal([]byte(methods), &u.Methods); err != nil {
				return u, fmt.Errorf("decode methods: %w", err)
			}
			u.Interpretation = interpretation.String
			u.Display = d.value()
			return u, nil
		})
}

// Homepage returns a stored homepage surface in rank order.
func (db *DB) Homepage(ctx context.Context, cycleID, surface string, limit int) ([]recommend.HomepageEntry, error) {
	return queryAndScan(ctx, db, "homepage", tableHomepage,
		`SELECT article_id, list_rank, score, title, authors, abstract_snippet, url
		 FROM homepage_recommendations
		 WHERE cycle_id = ? AND surface = ?
		 ORDER BY list_rank
		 LIMIT ?`,
		[]any{cycleID, surface, limit},
		func(rows *sql.Rows) (recommend.HomepageEntry, error) {
			var e recommend.HomepageEntry
			var d display
			err := rows.Scan(append([]any{&e.ArticleID, &e.Rank, &e.Score}, d.dest()...)...)
			e.Display = d.value()
			return e, err
		})
}

// ArticleMetrics returns the daily metric rows of one day, ordered by
// article id.
func (db *DB) ArticleMetrics(ctx context.Context, day time.Time) ([]recommend.ArticleMetric, error) {
	return queryAndScan(ctx, db, "article_metrics", tableMetrics,
		`SELECT article_id, recommendation_count, popularity_score, trending_score
		 FROM article_metrics_daily
		 WHERE metric_date = CAST(? AS DATE)
		 ORDER BY article_id`,
		[]any{day.Format(time.DateOnly)},
		func(rows *sql.Rows) (recommend.ArticleMetric, error) {
			var m recommend.ArticleMetric
			err := rows.Scan(&m.ArticleID, &m.RecommendationCount, &m.PopularityScore, &m.TrendingScore)
			return m, err
		})
}
