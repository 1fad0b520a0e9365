// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package database persists recommendation cycles in DuckDB.
//
// # Overview
//
// DB implements recommend.CycleStore. Each cycle gets a status row when it
// starts; PublishCycle then writes every list of the cycle together with the
// completed marker in a single transaction, so readers never observe a
// half-written cycle. API list surfaces read from the latest completed cycle.
//
// # Files
//
//   - database.go: lifecycle (open, pool, close)
//   - database_schema.go: tables and indexes
//   - migrations.go: versioned schema migrations
//   - cycles.go: cycle status rows and the publish transaction
//   - surfaces.go: serving reads of stored lists
//   - cleanup.go: retention of list, metric and status rows
//
// # Retention
//
// Cleanup keeps the last days_to_keep days of list rows and history_days of
// metric and status rows. The latest completed cycle is never deleted.
//
// # Testing
//
// Tests open in-memory stores:
//
//	db, err := database.New(config.StoreConfig{Path: ":memory:"}, zerolog.Nop())
package database
