// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
database_connection.go - Connection Pool and Write Conflicts

Connection Pool Configuration:
  - MaxOpenConns: Based on CPU count for parallel reads
  - MaxIdleConns: 2 for efficient connection reuse
  - ConnMaxLifetime: 1 hour to prevent stale connections
  - ConnMaxIdleTime: 5 minutes for idle connection cleanup

An in-memory DuckDB database lives as long as one of its connections, so
in-memory stores keep a single connection open forever.

Write Conflicts:
DuckDB uses optimistic concurrency. A publish transaction that collides with
cleanup fails with a transaction conflict and is retried with backoff.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"runtime"
	"strings"
	"time"
)

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	if db.cfg.InMemory() {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		db.conn.SetConnMaxIdleTime(0)
		return
	}
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// withTx runs fn in a transaction, retrying on write conflicts.
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 0; attempt <= db.publishRetries; attempt++ {
		if attempt > 0 {
			delay := db.retryDelay * time.Duration(1<<uint(attempt-1))
			db.logger.Debug().Int("attempt", attempt).Dur("delay", delay).Msg("retrying transaction after conflict")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = db.runTx(ctx, fn)
		if !isTransactionConflict(err) {
			return err
		}
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
