// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/recommend"
	"github.com/tomtom215/lectern/internal/recommend/interactions"
)

// Source drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Event backends.
const (
	EventsBackendChannel = "channel"
	EventsBackendNATS    = "nats"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig        `koanf:"server"`
	Source       SourceConfig        `koanf:"source"`
	Store        StoreConfig         `koanf:"store"`
	Cache        CacheConfig         `koanf:"cache"`
	Events       EventsConfig        `koanf:"events"`
	Recommend    recommend.Config    `koanf:"recommend"`
	Interactions interactions.Config `koanf:"interactions"`
	Schedule     ScheduleConfig      `koanf:"schedule"`
	Logging      logging.Config      `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `koanf:"cors_origins"`
}

// SourceConfig points at the upstream journal database.
//
// Environment Variables:
//   - SOURCE_DRIVER: postgres or sqlite (default: postgres)
//   - SOURCE_DSN: connection string (required)
//   - SOURCE_USAGE_TABLE: table holding usage events (default: usage_events)
//   - SOURCE_LOCALES: comma-separated locale preference (default: es,en)
type SourceConfig struct {
	Driver string `koanf:"driver" validate:"oneof=postgres sqlite"`
	DSN    string `koanf:"dsn"`

	// UsageTable is the table scanned by the log interaction source.
	UsageTable string `koanf:"usage_table" validate:"required"`

	// Locales is the preference order for localized titles and abstracts.
	Locales []string `koanf:"locales" validate:"min=1,dive,required"`

	// PublishedStatus is the publication status treated as published.
	// Default: 3.
	PublishedStatus int `koanf:"published_status"`

	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"min=1"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker around the source.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"min=1"`

	// Interval clears counts while closed; Timeout is the open period.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	// The breaker trips once MinRequests have been seen and the failure
	// ratio reaches FailureRatio.
	MinRequests  uint32  `koanf:"min_requests" validate:"min=1"`
	FailureRatio float64 `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// StoreConfig holds the DuckDB output store settings.
type StoreConfig struct {
	// Path is the database file; empty or ":memory:" keeps it in memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"min=0"`

	// DaysToKeep bounds recommendation rows kept by cleanup.
	// Default: 7.
	DaysToKeep int `koanf:"days_to_keep" validate:"min=1,max=30"`

	// HistoryDays bounds daily metrics and status rows.
	// Default: 30.
	HistoryDays int `koanf:"history_days" validate:"min=1"`
}

// InMemory reports whether the store has no backing file.
func (s StoreConfig) InMemory() bool {
	return s.Path == "" || s.Path == ":memory:"
}

// CacheConfig holds the badger serving cache settings.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	InMemory bool          `koanf:"in_memory"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

// EventsConfig holds cycle event publishing settings.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Backend is "channel" (in-process) or "nats". The nats backend needs a
	// binary built with the nats tag.
	Backend string `koanf:"backend" validate:"oneof=channel nats"`

	URL         string `koanf:"url"`
	TopicPrefix string `koanf:"topic_prefix" validate:"required"`
}

// ScheduleConfig holds the background job schedule.
type ScheduleConfig struct {
	Enabled bool `koanf:"enabled"`

	// DailyHour is the local hour the daily cycle starts.
	DailyHour int `koanf:"daily_hour" validate:"min=0,max=23"`

	// CleanupWeekday and CleanupHour place the weekly cleanup.
	CleanupWeekday string `koanf:"cleanup_weekday" validate:"weekday"`
	CleanupHour    int    `koanf:"cleanup_hour" validate:"min=0,max=23"`

	// TriggerCooldown is the minimum spacing of on-demand cycles.
	TriggerCooldown time.Duration `koanf:"trigger_cooldown" validate:"gt=0"`

	// RunOnStartup starts a cycle when the service comes up.
	RunOnStartup bool `koanf:"run_on_startup"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
