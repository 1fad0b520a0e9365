// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package source

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
)

// ojsSchema is the subset of the Open Journal Systems schema the provider reads.
var ojsSchema = []string{
	`CREATE TABLE submissions (submission_id INTEGER PRIMARY KEY)`,
	`CREATE TABLE publications (
		publication_id INTEGER PRIMARY KEY,
		submission_id INTEGER NOT NULL,
		status INTEGER NOT NULL,
		date_published DATE
	)`,
	`CREATE TABLE publication_settings (
		publication_id INTEGER NOT NULL,
		locale TEXT NOT NULL DEFAULT '',
		setting_name TEXT NOT NULL,
		setting_value TEXT
	)`,
	`CREATE TABLE authors (
		author_id INTEGER PRIMARY KEY,
		publication_id INTEGER NOT NULL,
		seq REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE author_settings (
		author_id INTEGER NOT NULL,
		locale TEXT NOT NULL DEFAULT '',
		setting_name TEXT NOT NULL,
		setting_value TEXT
	)`,
	`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY,
		date_registered DATETIME,
		date_last_login DATETIME
	)`,
	`CREATE TABLE sessions (session_id TEXT PRIMARY KEY, user_id INTEGER)`,
	`CREATE TABLE user_settings (
		user_id INTEGER NOT NULL,
		locale TEXT NOT NULL DEFAULT '',
		setting_name TEXT NOT NULL,
		setting_value TEXT
	)`,
	`CREATE TABLE usage_events (
		user_id INTEGER NOT NULL,
		publication_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		duration_seconds REAL,
		rating REAL,
		created_at DATETIME NOT NULL
	)`,
}

var (
	publishedOn  = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	registeredOn = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	lastLoginOn  = time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	viewedAt     = time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)
)

// seedJournal loads a small journal:
//   - 101: published, es and en titles, two authors sharing an affiliation
//   - 102: published, undated, title only in es_ES
//   - 103: unpublished
//   - user 10 with two sessions and a partial profile, user 11 with nothing
func seedJournal(t *testing.T, db *sqlx.DB) {
	t.Helper()

	stmts := []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO submissions (submission_id) VALUES (1), (2), (3)`, nil},
		{`INSERT INTO publications VALUES (?, ?, ?, ?)`, []interface{}{101, 1, 3, publishedOn}},
		{`INSERT INTO publications VALUES (?, ?, ?, ?)`, []interface{}{102, 2, 3, nil}},
		{`INSERT INTO publications VALUES (?, ?, ?, ?)`, []interface{}{103, 3, 1, publishedOn}},

		{`INSERT INTO publication_settings VALUES (101, 'en', 'title', 'Machine learning in healthcare')`, nil},
		{`INSERT INTO publication_settings VALUES (101, 'es', 'title', 'Aprendizaje automático en salud')`, nil},
		{`INSERT INTO publication_settings VALUES (101, 'en', 'abstract', '<p>Models for diagnosis.</p>')`, nil},
		{`INSERT INTO publication_settings VALUES (101, 'es', 'pages', '1-10')`, nil},
		{`INSERT INTO publication_settings VALUES (102, 'es_ES', 'title', 'Redes neuronales')`, nil},
		{`INSERT INTO publication_settings VALUES (102, 'es_ES', 'abstract', '   ')`, nil},
		{`INSERT INTO publication_settings VALUES (103, 'es', 'title', 'Borrador')`, nil},

		{`INSERT INTO authors VALUES (1, 101, 2), (2, 101, 1), (3, 103, 1)`, nil},
		{`INSERT INTO author_settings VALUES (1, 'es', 'givenName', 'Marta')`, nil},
		{`INSERT INTO author_settings VALUES (1, 'es', 'familyName', 'Ruiz')`, nil},
		{`INSERT INTO author_settings VALUES (1, 'es', 'affiliation', 'UNAM')`, nil},
		{`INSERT INTO author_settings VALUES (2, 'en', 'givenName', 'Ana')`, nil},
		{`INSERT INTO author_settings VALUES (2, 'en', 'familyName', 'García')`, nil},
		{`INSERT INTO author_settings VALUES (2, 'en', 'affiliation', 'UNAM')`, nil},
		{`INSERT INTO author_settings VALUES (3, 'es', 'givenName', 'Oculto')`, nil},

		{`INSERT INTO users VALUES (?, ?, ?)`, []interface{}{10, registeredOn, lastLoginOn}},
		{`INSERT INTO users VALUES (?, ?, ?)`, []interface{}{11, nil, nil}},
		{`INSERT INTO sessions VALUES ('s1', 10), ('s2', 10)`, nil},

		{`INSERT INTO user_settings VALUES (10, 'es', 'givenName', 'Eva')`, nil},
		{`INSERT INTO user_settings VALUES (10, 'es', 'familyName', '')`, nil},
		{`INSERT INTO user_settings VALUES (10, '', 'country', 'MX')`, nil},
		{`INSERT INTO user_settings VALUES (10, 'es', 'orcid', 'ignored')`, nil},

		{`INSERT INTO usage_events VALUES (?, ?, ?, ?, ?, ?)`, []interface{}{10, 101, "view", 120.0, nil, viewedAt}},
		{`INSERT INTO usage_events VALUES (?, ?, ?, ?, ?, ?)`, []interface{}{10, 101, "rate", nil, 4.5, viewedAt.Add(time.Minute)}},
	}

	for _, s := range stmts {
		if _, err := db.Exec(db.Rebind(s.query), s.args...); err != nil {
			t.Fatalf("seed %q: %v", s.query, err)
		}
	}
}

// newTestDB opens a file-backed sqlite database with the journal schema.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "ojs.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range ojsSchema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func testSourceConfig() config.SourceConfig {
	return config.SourceConfig{
		Driver:          DriverSQLite,
		UsageTable:      "usage_events",
		Locales:         []string{"es", "en"},
		PublishedStatus: 3,
		QueryTimeout:    10 * time.Second,
		MaxOpenConns:    1,
	}
}

func newTestProvider(t *testing.T) *SQLProvider {
	t.Helper()

	db := newTestDB(t)
	seedJournal(t, db)

	p, err := NewSQLProvider(db, testSourceConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLProvider() error = %v", err)
	}
	return p
}
