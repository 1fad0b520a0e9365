// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// statusHistoryLimit is the number of cycles reported by the status endpoint.
const statusHistoryLimit = 10

// StatusResponse combines the engine's in-memory status with the stored
// cycle history.
type StatusResponse struct {
	Engine  recommend.Status       `json:"engine"`
	History []database.CycleRecord `json:"history,omitempty"`
}

// PredictRating serves GET /recommendations/users/{id}/articles/{articleID}/predict.
func (h *Handler) PredictRating(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	userID, err := pathInt(r, "id")
	if err != nil {
		rs.badParam(err)
		return
	}
	articleID, err := pathInt(r, "articleID")
	if err != nil {
		rs.badParam(err)
		return
	}
	req := predictRequest{UserID: userID, ArticleID: articleID}
	if !rs.validate(&req) {
		return
	}

	p, err := h.engine.PredictRating(req.UserID, req.ArticleID)
	if err != nil {
		rs.failErr(err)
		return
	}
	metrics.RecordPrediction(len(p.Signals))
	rs.cycle(h.engine.Status().LastCycleID).ok(p)
}

// BehaviorSummary serves GET /recommendations/users/{id}/behavior.
func (h *Handler) BehaviorSummary(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	userID, err := pathInt(r, "id")
	if err != nil {
		rs.badParam(err)
		return
	}
	req := predictRequest{UserID: userID, ArticleID: 1}
	if !rs.validate(&req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	summary, err := h.engine.BehaviorSummary(ctx, userID)
	if err != nil {
		rs.failErr(err)
		return
	}
	rs.cycle(h.engine.Status().LastCycleID).ok(summary)
}

// Insights serves GET /recommendations/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	insights, err := h.engine.Insights()
	if err != nil {
		rs.failErr(err)
		return
	}
	rs.cycle(h.engine.Status().LastCycleID).ok(insights)
}

// Status serves GET /recommendations/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	resp := StatusResponse{Engine: h.engine.Status()}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		history, err := h.store.CycleHistory(ctx, statusHistoryLimit)
		if err != nil {
			rs.failErr(err)
			return
		}
		resp.History = history
	}
	rs.ok(resp)
}

// ArticleMetrics serves GET /recommendations/metrics?date=YYYY-MM-DD. The
// date defaults to today in UTC.
func (h *Handler) ArticleMetrics(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	day, err := queryDate(r, "date", time.Now().UTC().Truncate(24*time.Hour))
	if err != nil {
		rs.badParam(err)
		return
	}
	if h.store == nil {
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "cycle store is not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	items, err := h.store.ArticleMetrics(ctx, day)
	if err != nil {
		rs.failErr(err)
		return
	}
	if items == nil {
		items = []recommend.ArticleMetric{}
	}
	rs.list(items, len(items))
}
