// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/recommend"
	"github.com/tomtom215/lectern/internal/recommend/interactions"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lectern/config.yaml",
	"/etc/lectern/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Source: SourceConfig{
			Driver:          DriverPostgres,
			UsageTable:      "usage_events",
			Locales:         []string{"es", "en"},
			PublishedStatus: 3,
			QueryTimeout:    2 * time.Minute,
			MaxOpenConns:    4,
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Store: StoreConfig{
			Path:        "/data/lectern.duckdb",
			MaxMemory:   "1GB",
			Threads:     0, // 0 = DuckDB default
			DaysToKeep:  7,
			HistoryDays: 30,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      "/data/cache",
			InMemory: false,
			TTL:      6 * time.Hour,
		},
		Events: EventsConfig{
			Enabled:     true,
			Backend:     EventsBackendChannel,
			URL:         "nats://127.0.0.1:4222",
			TopicPrefix: "lectern.cycle",
		},
		Recommend:    *recommend.DefaultConfig(),
		Interactions: interactions.DefaultConfig(),
		Schedule: ScheduleConfig{
			Enabled:         true,
			DailyHour:       2,
			CleanupWeekday:  "sunday",
			CleanupHour:     3,
			TriggerCooldown: time.Minute,
			RunOnStartup:    false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
	"source.locales",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so the process environment cannot
// pollute the configuration.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":     "server.cors_origins",

	// Source database
	"source_driver":           "source.driver",
	"source_dsn":              "source.dsn",
	"source_usage_table":      "source.usage_table",
	"source_locales":          "source.locales",
	"source_published_status": "source.published_status",
	"source_query_timeout":    "source.query_timeout",
	"source_max_open_conns":   "source.max_open_conns",
	"source_breaker_enabled":  "source.breaker.enabled",
	"source_breaker_timeout":  "source.breaker.timeout",

	// Output store
	"duckdb_path":            "store.path",
	"duckdb_max_memory":      "store.max_memory",
	"duckdb_threads":         "store.threads",
	"recommend_days_to_keep": "store.days_to_keep",
	"history_days":           "store.history_days",

	// Serving cache
	"cache_enabled":   "cache.enabled",
	"cache_dir":       "cache.dir",
	"cache_in_memory": "cache.in_memory",
	"cache_ttl":       "cache.ttl",

	// Events
	"events_enabled":      "events.enabled",
	"events_backend":      "events.backend",
	"events_topic_prefix": "events.topic_prefix",
	"nats_url":            "events.url",

	// Recommendation engine
	"recommend_weight_content":       "recommend.weights.content",
	"recommend_weight_collaborative": "recommend.weights.collaborative",
	"recommend_weight_popularity":    "recommend.weights.popularity",
	"recommend_weight_behavioral":    "recommend.weights.behavioral",
	"recommend_content_variant":      "recommend.content.variant",
	"recommend_max_features":         "recommend.content.max_features",
	"recommend_svd_rank":             "recommend.factorization.max_rank",
	"recommend_svd_seed":             "recommend.factorization.seed",
	"recommend_clusters":             "recommend.segmentation.max_clusters",
	"recommend_cluster_seed":         "recommend.segmentation.seed",
	"recommend_min_rating":           "recommend.thresholds.min_predicted_rating",
	"recommend_similarity_threshold": "recommend.thresholds.similar_article",
	"recommend_cycle_timeout":        "recommend.cycle.timeout",
	"recommend_profile_lookups":      "recommend.cycle.profile_lookups",

	// Interaction source
	"interaction_source": "interactions.name",
	"interaction_seed":   "interactions.seed",

	// Schedule
	"schedule_enabled":          "schedule.enabled",
	"schedule_daily_hour":       "schedule.daily_hour",
	"schedule_cleanup_weekday":  "schedule.cleanup_weekday",
	"schedule_cleanup_hour":     "schedule.cleanup_hour",
	"schedule_trigger_cooldown": "schedule.trigger_cooldown",
	"recommend_run_on_startup":  "schedule.run_on_startup",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SOURCE_DSN -> source.dsn
//   - DUCKDB_PATH -> store.path
//   - HTTP_PORT -> server.port
//   - RECOMMEND_WEIGHT_CONTENT -> recommend.weights.content
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
