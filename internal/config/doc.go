// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package config provides centralized configuration management for Lectern.

Configuration is layered with koanf: built-in defaults, then an optional YAML
file, then environment variables. Later layers win.

# Configuration File

The file is located through CONFIG_PATH or the first existing path in
DefaultConfigPaths:

	source:
	  driver: postgres
	  dsn: postgres://ojs:secret@db:5432/ojs?sslmode=disable
	  locales: [es, en]
	store:
	  path: /data/lectern.duckdb
	  days_to_keep: 7
	recommend:
	  weights:
	    content: 0.4
	    collaborative: 0.3
	    popularity: 0.2
	    behavioral: 0.1
	schedule:
	  daily_hour: 2
	  cleanup_weekday: sunday

# Environment Variables

Only mapped variables are read. The most common:

  - SOURCE_DRIVER, SOURCE_DSN, SOURCE_USAGE_TABLE, SOURCE_LOCALES
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, RECOMMEND_DAYS_TO_KEEP
  - CACHE_ENABLED, CACHE_DIR, CACHE_IN_MEMORY, CACHE_TTL
  - EVENTS_ENABLED, EVENTS_BACKEND, NATS_URL
  - RECOMMEND_WEIGHT_CONTENT (and _COLLABORATIVE, _POPULARITY, _BEHAVIORAL)
  - INTERACTION_SOURCE (log or synthetic), INTERACTION_SEED
  - SCHEDULE_DAILY_HOUR, SCHEDULE_CLEANUP_WEEKDAY, SCHEDULE_TRIGGER_COOLDOWN
  - HTTP_HOST, HTTP_PORT, CORS_ORIGINS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

See envMappings for the full list.

# Validation

Load validates struct tags through internal/validation, then cross-field
rules: the DSN must match the driver, history must outlive recommendation
rows, a disk cache needs a directory, the nats backend needs a URL, and the
recommendation engine settings must pass recommend.Config.Validate.
*/
package config
