// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status        string                  `json:"status"`
	Version       string                  `json:"version"`
	StoreOK       *bool                   `json:"store_ok,omitempty"`
	CycleReady    bool                    `json:"cycle_ready"`
	Models        *recommend.SystemHealth `json:"models,omitempty"`
	UptimeSeconds float64                 `json:"uptime_seconds"`
}

// Health serves GET /health. It reports "degraded" with a 503 when the
// store is unreachable and "starting" while no cycle has been published.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	uptime := time.Since(h.startTime)
	metrics.RecordUptime(uptime)
	health := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: uptime.Seconds(),
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err := h.store.Ping(ctx)
		ok := err == nil
		health.StoreOK = &ok
		if !ok {
			h.logger.Warn().Err(err).Msg("cycle store ping failed")
			health.Status = "degraded"
		}
	}

	if h.engine.Status().LastCycleID != "" {
		sh := h.engine.SystemHealth()
		health.CycleReady = true
		health.Models = &sh
	} else if health.Status == "healthy" {
		health.Status = "starting"
	}

	if health.Status == "degraded" {
		rs.write(http.StatusServiceUnavailable, &APIResponse{Data: health})
		return
	}
	rs.ok(health)
}
