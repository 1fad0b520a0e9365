// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package middleware provides the chi middleware shared by every API route.

  - RequestID: reuses or generates X-Request-ID and puts it, with a fresh
    correlation ID, into the request context for logging.Ctx.
  - PrometheusMetrics: counts requests and observes latency labelled by the
    chi route pattern (not the raw path, which would carry article and user
    ids into label values).
  - AccessLog: one zerolog line per request at debug level, raised to warn
    for 5xx responses.

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(logger))
*/
package middleware
