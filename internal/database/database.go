// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/recommend"
)

// DB wraps the DuckDB connection holding published recommendation cycles.
type DB struct {
	conn   *sql.DB
	cfg    config.StoreConfig
	logger zerolog.Logger

	// publishRetries bounds retries of a publish transaction that hit a
	// DuckDB write conflict.
	publishRetries int
	retryDelay     time.Duration
}

var _ recommend.CycleStore = (*DB)(nil)

// New opens the cycle store and creates its schema.
func New(cfg config.StoreConfig, logger zerolog.Logger) (*DB, error) {
	path := cfg.Path
	if cfg.InMemory() {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		// 0750 per gosec G301
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("duckdb", connString(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:           conn,
		cfg:            cfg,
		logger:         logger.With().Str("component", "database").Logger(),
		publishRetries: 3,
		retryDelay:     200 * time.Millisecond,
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.enableProfiling(); err != nil {
		db.logger.Warn().Err(err).Msg("query profiling not enabled")
	}

	db.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory()).
		Msg("cycle store ready")
	return db, nil
}

// connString builds the DuckDB DSN with tuning options. Autoinstall is off
// because the store needs no extensions.
func connString(path string, cfg config.StoreConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, threads, maxMemory)
}

// Conn returns the underlying SQL connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close checkpoints file-backed stores and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if !db.cfg.InMemory() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			db.logger.Warn().Err(err).Msg("failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// initialize creates tables, runs migrations and creates indexes.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}
	return db.createIndexes()
}
