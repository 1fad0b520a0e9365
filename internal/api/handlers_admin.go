// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"

	"github.com/tomtom215/lectern/internal/logging"
)

// Calculate serves POST /admin/recommendations/calculate?force=. The cycle
// runs synchronously within the request.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	force, err := queryBool(r, "force")
	if err != nil {
		rs.badParam(err)
		return
	}
	if h.scheduler == nil {
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "scheduler is not configured", nil)
		return
	}

	logging.Ctx(r.Context()).Info().Bool("force", force).Msg("manual recommendation cycle requested")
	summary, err := h.scheduler.Trigger(r.Context(), force)
	if err != nil {
		rs.failErr(err)
		return
	}
	rs.cycle(summary.CycleID).ok(summary)
}

// Cleanup serves POST /admin/recommendations/cleanup?days_to_keep=.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	days, err := queryInt(r, "days_to_keep", h.daysToKeep)
	if err != nil {
		rs.badParam(err)
		return
	}
	req := cleanupRequest{DaysToKeep: days}
	if !rs.validate(&req) {
		return
	}
	if h.scheduler == nil {
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "scheduler is not configured", nil)
		return
	}

	res, err := h.scheduler.Cleanup(r.Context(), req.DaysToKeep)
	if err != nil {
		rs.failErr(err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int("days_to_keep", req.DaysToKeep).
		Int64("recommendation_rows", res.RecommendationRows).
		Msg("manual cleanup finished")
	rs.ok(res)
}
