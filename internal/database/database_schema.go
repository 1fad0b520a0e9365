// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
database_schema.go - Cycle Store Schema

Tables:
  - recommendation_cycles: one status row per cycle (running, completed, failed)
    with duration, counts and sub-model readiness
  - similar_articles: ranked article-to-article lists per cycle
  - author_recommendations: ranked shared-author lists per cycle
  - user_recommendations: ranked personalized lists per cycle
  - homepage_recommendations: ranked homepage surfaces per cycle
  - article_metrics_daily: per-day recommendation count and scores of each
    target article

Every list row carries its cycle_id so readers select the latest completed
cycle and cleanup never touches it. Display metadata is copied into each row
at generation time.

Timestamps are stored as UTC TIMESTAMP values. Columns rewritten by UPDATE
carry no index, and daily metrics are replaced by delete-then-insert, so no
unique constraint is checked twice in one transaction.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// Table names.
const (
	tableCycles   = "recommendation_cycles"
	tableSimilar  = "similar_articles"
	tableAuthors  = "author_recommendations"
	tableUsers    = "user_recommendations"
	tableHomepage = "homepage_recommendations"
	tableMetrics  = "article_metrics_daily"
)

// storeTables lists every table in creation order.
var storeTables = []string{tableCycles, tableSimilar, tableAuthors, tableUsers, tableHomepage, tableMetrics}

// listTables hold per-cycle recommendation rows.
var listTables = []string{tableSimilar, tableAuthors, tableUsers, tableHomepage}

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the store tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS recommendation_cycles (
			cycle_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			duration_ms BIGINT,
			reason TEXT,
			article_count INTEGER NOT NULL DEFAULT 0,
			user_count INTEGER NOT NULL DEFAULT 0,
			interaction_count INTEGER NOT NULL DEFAULT 0,
			vocabulary_size INTEGER NOT NULL DEFAULT 0,
			sparsity DOUBLE NOT NULL DEFAULT 0,
			recommendation_count INTEGER NOT NULL DEFAULT 0,
			content_ready BOOLEAN NOT NULL DEFAULT false,
			collaborative_ready BOOLEAN NOT NULL DEFAULT false,
			segmentation_ready BOOLEAN NOT NULL DEFAULT false,
			popularity_ready BOOLEAN NOT NULL DEFAULT false
		)`,

		`CREATE TABLE IF NOT EXISTS similar_articles (
			cycle_id TEXT NOT NULL,
			article_id INTEGER NOT NULL,
			list_rank INTEGER NOT NULL,
			similar_article_id INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			confidence DOUBLE NOT NULL,
			algorithm TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			abstract_snippet TEXT,
			url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS author_recommendations (
			cycle_id TEXT NOT NULL,
			article_id INTEGER NOT NULL,
			list_rank INTEGER NOT NULL,
			recommended_article_id INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			shared_authors TEXT NOT NULL,
			algorithm TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			abstract_snippet TEXT,
			url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS user_recommendations (
			cycle_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			list_rank INTEGER NOT NULL,
			article_id INTEGER NOT NULL,
			predicted_rating DOUBLE NOT NULL,
			confidence DOUBLE NOT NULL,
			methods TEXT NOT NULL,
			interpretation TEXT,
			title TEXT,
			authors TEXT,
			abstract_snippet TEXT,
			url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS homepage_recommendations (
			cycle_id TEXT NOT NULL,
			surface TEXT NOT NULL,
			list_rank INTEGER NOT NULL,
			article_id INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			title TEXT,
			authors TEXT,
			abstract_snippet TEXT,
			url TEXT,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS article_metrics_daily (
			metric_date DATE NOT NULL,
			article_id INTEGER NOT NULL,
			cycle_id TEXT NOT NULL,
			recommendation_count INTEGER NOT NULL,
			popularity_score DOUBLE NOT NULL,
			trending_score DOUBLE NOT NULL
		)`,
	}
}

// createIndexes creates lookup indexes for the serving queries.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_similar_cycle_article ON similar_articles(cycle_id, article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_authors_cycle_article ON author_recommendations(cycle_id, article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_cycle_user ON user_recommendations(cycle_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_homepage_cycle_surface ON homepage_recommendations(cycle_id, surface)`,
	}
	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
