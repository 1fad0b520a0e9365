// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/logging"
)

// AccessLog logs every request through logger. The request and correlation
// IDs set by RequestID are attached when present.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func AccessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			event := logger.Debug()
			if rec.status >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			if id := logging.RequestIDFromContext(r.Context()); id != "" {
				event = event.Str("request_id", id)
			}
			if id := logging.CorrelationIDFromContext(r.Context()); id != "" {
				event = event.Str("correlation_id", id)
			}
			event.
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
