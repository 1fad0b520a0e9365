// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/recommend"
	"github.com/tomtom215/lectern/internal/supervisor/services"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Success  bool      `json:"success"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	CycleID     string    `json:"cycle_id,omitempty"`
	Count       *int      `json:"count,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms"`
}

// Error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// responder writes one response and fills in the common metadata.
type responder struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
	meta  Metadata
}

func newResponder(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, start: time.Now()}
}

// cycle tags the response with the cycle the data came from.
func (rs *responder) cycle(id string) *responder {
	rs.meta.CycleID = id
	return rs
}

func (rs *responder) ok(data any) {
	rs.write(http.StatusOK, &APIResponse{Success: true, Data: data})
}

// list responds with a slice and its length.
func (rs *responder) list(data any, n int) {
	rs.meta.Count = &n
	rs.ok(data)
}

func (rs *responder) fail(status int, code, message string, details any) {
	rs.write(status, &APIResponse{Error: &APIError{Code: code, Message: message, Details: details}})
}

// failErr maps domain errors onto status codes. Unexpected errors are
// logged and reported without their text.
func (rs *responder) failErr(err error) {
	var pe *recommend.PipelineError
	switch {
	case errors.Is(err, recommend.ErrUnknownEntity):
		rs.fail(http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
	case errors.Is(err, recommend.ErrNoCycle):
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"no recommendation cycle has completed yet", nil)
	case errors.Is(err, recommend.ErrCycleInProgress), errors.Is(err, recommend.ErrAlreadyCalculated):
		rs.fail(http.StatusConflict, ErrCodeConflict, err.Error(), nil)
	case errors.Is(err, services.ErrTriggerThrottled):
		rs.fail(http.StatusTooManyRequests, ErrCodeTooManyRequests, err.Error(), nil)
	case errors.As(err, &pe):
		logging.Ctx(rs.r.Context()).Error().Err(err).Str("step", pe.Step).Msg("recommendation cycle failed")
		rs.fail(http.StatusInternalServerError, ErrCodeInternal,
			fmt.Sprintf("recommendation cycle failed at step %s", pe.Step), map[string]string{"step": pe.Step})
	case errors.Is(err, context.DeadlineExceeded):
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "request timed out", nil)
	default:
		logging.Ctx(rs.r.Context()).Error().Err(err).
			Str("path", sanitizeLogValue(rs.r.URL.Path)).Msg("api request failed")
		rs.fail(http.StatusInternalServerError, ErrCodeInternal, "internal error", nil)
	}
}

func (rs *responder) write(status int, resp *APIResponse) {
	resp.Metadata = rs.meta
	resp.Metadata.Timestamp = time.Now().UTC()
	resp.Metadata.RequestID = logging.RequestIDFromContext(rs.r.Context())
	resp.Metadata.QueryTimeMS = time.Since(rs.start).Milliseconds()

	data, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		rs.w.WriteHeader(http.StatusInternalServerError)
		return
	}

	rs.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rs.w.WriteHeader(status)
	if _, err := rs.w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
