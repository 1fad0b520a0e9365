// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package metrics provides Prometheus metrics for Lectern.

Metrics are registered on the default registry with promauto and exposed at
/metrics by the HTTP server:

	curl http://localhost:8080/metrics

# Available Metrics

Recommendation cycles:
  - recommend_cycle_duration_seconds: cycle duration histogram
  - recommend_cycles_total{status, step}: cycle outcomes
  - recommend_cycle_skips_total{reason}: triggers that did not run
  - recommend_last_success_timestamp_seconds
  - recommend_working_set_size{kind}: articles, users, interactions, vocabulary, recommendations
  - recommend_matrix_sparsity
  - recommend_model_ready{model}: 1 when the sub-model was available
  - recommend_prediction_signals: signals behind served predictions
  - recommend_rows_cleaned_total{table}

Storage and sources:
  - duckdb_query_duration_seconds{operation, table}
  - duckdb_query_errors_total{operation, table, error_type}
  - source_query_duration_seconds{query}
  - source_rows_loaded_total{query}

Serving:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests
  - cache_hits_total{cache}, cache_misses_total{cache}, cache_errors_total{cache, operation}
  - circuit_breaker_state{name} and related breaker counters
  - events_published_total{topic, result}

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	metrics.RecordDBQuery("SELECT", "similar_articles", time.Since(start), err)
*/
package metrics
