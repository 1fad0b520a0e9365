// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package main is the entry point for the Lectern recommendation server.

Lectern reads articles, authors and usage events from a journal
database, computes a recommendation cycle (TF-IDF content similarity,
user-based collaborative filtering, user segmentation and popularity),
persists the cycle's lists in DuckDB and serves them over HTTP.

# Application Architecture

	RootSupervisor ("lectern")
	├── DataSupervisor ("data-layer")
	│   ├── Recommend service (daily cycle, weekly cleanup)
	│   └── Serving cache value log GC (optional)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Cache retention listener (optional, needs events)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment
 2. Source: journal database (postgres or sqlite) behind a circuit breaker
 3. Engine: interaction source and recommendation engine
 4. Store: DuckDB cycle store
 5. Cache: badger serving cache (CACHE_ENABLED)
 6. Events: cycle event bus (EVENTS_ENABLED; nats needs -tags nats)
 7. HTTP Server: /api/v1

# Build Tags

	go build ./cmd/server               # in-process event bus only
	go build -tags nats ./cmd/server    # NATS event backend

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests, then the event bus, cache, store and source are closed
in that order.

# Example Usage

	export SOURCE_DSN=postgres://lectern:secret@db:5432/journal?sslmode=disable
	export STORE_PATH=/var/lib/lectern/cycles.duckdb
	export SCHEDULE_RUN_ON_STARTUP=true
	./lectern
*/
package main
