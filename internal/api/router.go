// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/middleware"
)

// NewRouter builds the chi router for the API. An empty corsOrigins list
// allows any origin.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewRouter(h *Handler, corsOrigins []string, logger zerolog.Logger) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		newResponder(w, r).fail(http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		newResponder(w, r).fail(http.StatusMethodNotAllowed, ErrCodeValidation, "method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(securityHeaders)

		r.Get("/health", h.Health)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/articles/{id}/similar", h.SimilarArticles)
			r.Get("/articles/{id}/authors", h.AuthorRecommendations)
			r.Get("/users/{id}", h.UserRecommendations)
			r.Get("/users/{id}/articles/{articleID}/predict", h.PredictRating)
			r.Get("/users/{id}/behavior", h.BehaviorSummary)
			r.Get("/homepage/{surface}", h.Homepage)
			r.Get("/recent", h.RecentArticles)
			r.Get("/status", h.Status)
			r.Get("/insights", h.Insights)
			r.Get("/metrics", h.ArticleMetrics)
		})

		r.Route("/admin/recommendations", func(r chi.Router) {
			r.Post("/calculate", h.Calculate)
			r.Post("/cleanup", h.Cleanup)
		})
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
