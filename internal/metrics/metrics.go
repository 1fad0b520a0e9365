// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Source Database Metrics
	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_query_duration_seconds",
			Help:    "Duration of source database queries in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"query"},
	)

	SourceRowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_rows_loaded_total",
			Help: "Total number of rows loaded from the source database",
		},
		[]string{"query"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_errors_total",
			Help: "Total number of cache read or write failures",
		},
		[]string{"cache", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Recommendation Cycle Metrics
	RecommendCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_cycle_duration_seconds",
			Help:    "Duration of recommendation cycles in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RecommendCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cycles_total",
			Help: "Total number of recommendation cycles by outcome",
		},
		[]string{"status", "step"},
	)

	RecommendCycleSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cycle_skips_total",
			Help: "Total number of cycle triggers that did not run",
		},
		[]string{"reason"}, // "in_progress", "already_calculated", "throttled"
	)

	RecommendLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last completed recommendation cycle",
		},
	)

	RecommendWorkingSet = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_working_set_size",
			Help: "Size of the last completed cycle's working set",
		},
		[]string{"kind"}, // "articles", "users", "interactions", "vocabulary", "recommendations"
	)

	RecommendSparsity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_matrix_sparsity",
			Help: "Fraction of empty cells in the last interaction matrix",
		},
	)

	RecommendModelReady = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recommend_model_ready",
			Help: "Whether a sub-model was available in the last cycle (1=ready)",
		},
		[]string{"model"},
	)

	RecommendPredictionSignals = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_prediction_signals",
			Help:    "Number of signals contributing to served rating predictions",
			Buckets: []float64{0, 1, 2, 3, 4},
		},
	)

	RecommendRowsCleaned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_rows_cleaned_total",
			Help: "Total number of output rows removed by retention cleanup",
		},
		[]string{"table"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of cycle events published",
		},
		[]string{"topic", "result"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// CycleOutcome is the subset of a cycle summary recorded as metrics.
type CycleOutcome struct {
	Status          string
	Step            string
	Duration        time.Duration
	Articles        int
	Users           int
	Interactions    int
	Vocabulary      int
	Recommendations int
	Sparsity        float64
	Models          map[string]bool
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordSourceQuery records a source database query.
func RecordSourceQuery(query string, duration time.Duration, rows int) {
	SourceQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	SourceRowsLoaded.WithLabelValues(query).Add(float64(rows))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCycle records a finished recommendation cycle. Working-set gauges
// and readiness only move on completed cycles.
func RecordCycle(o CycleOutcome) {
	RecommendCycleDuration.Observe(o.Duration.Seconds())
	RecommendCycles.WithLabelValues(o.Status, o.Step).Inc()

	if o.Status != "completed" {
		return
	}

	RecommendLastSuccess.Set(float64(time.Now().Unix()))
	RecommendWorkingSet.WithLabelValues("articles").Set(float64(o.Articles))
	RecommendWorkingSet.WithLabelValues("users").Set(float64(o.Users))
	RecommendWorkingSet.WithLabelValues("interactions").Set(float64(o.Interactions))
	RecommendWorkingSet.WithLabelValues("vocabulary").Set(float64(o.Vocabulary))
	RecommendWorkingSet.WithLabelValues("recommendations").Set(float64(o.Recommendations))
	RecommendSparsity.Set(o.Sparsity)

	for model, ready := range o.Models {
		v := 0.0
		if ready {
			v = 1
		}
		RecommendModelReady.WithLabelValues(model).Set(v)
	}
}

// RecordCycleSkip records a trigger that did not start a cycle.
func RecordCycleSkip(reason string) {
	RecommendCycleSkips.WithLabelValues(reason).Inc()
}

// RecordPrediction records how many signals fed a served prediction.
func RecordPrediction(signals int) {
	RecommendPredictionSignals.Observe(float64(signals))
}

// RecordEventPublish records a cycle event publication attempt.
func RecordEventPublish(topic string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	EventsPublished.WithLabelValues(topic, result).Inc()
}

// RecordAppInfo publishes the build information gauge.
func RecordAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordUptime sets the uptime gauge.
func RecordUptime(uptime time.Duration) {
	AppUptime.Set(uptime.Seconds())
}
