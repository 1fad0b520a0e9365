// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package source reads bibliographic and behavioral records from the journal
// database.
//
// SQLProvider implements recommend.DataProvider over an Open Journal Systems
// schema on PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite). Queries are
// built with squirrel so the same statements serve both placeholder styles,
// and they stay flat: localized settings and author rows are folded in Go
// rather than with vendor-specific aggregate functions.
//
// CircuitBreakerProvider wraps any DataProvider with sony/gobreaker so a
// failing database is not hammered by retried cycles.
//
// Tables read:
//   - publications, submissions, publication_settings
//   - authors, author_settings
//   - users, sessions, user_settings
//   - the configured usage table (default usage_events)
package source
