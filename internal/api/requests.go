// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lectern/internal/validation"
)

// DefaultLimit is used when a list request has no limit parameter.
const DefaultLimit = 10

// listRequest is a list read keyed by an article or user id.
type listRequest struct {
	ID    int `validate:"min=1"`
	Limit int `validate:"min=1,max=100"`
}

// predictRequest is one rating prediction.
type predictRequest struct {
	UserID    int `validate:"min=1"`
	ArticleID int `validate:"min=1"`
}

// homepageRequest reads one homepage surface.
type homepageRequest struct {
	Surface string `validate:"required,surface"`
	Limit   int    `validate:"min=1,max=100"`
}

// limitRequest is a list read without a key.
type limitRequest struct {
	Limit int `validate:"min=1,max=100"`
}

// cleanupRequest is a manual store cleanup.
type cleanupRequest struct {
	DaysToKeep int `validate:"min=1,max=30"`
}

// paramError is a malformed path or query parameter.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.name, e.value)
}

// pathInt parses a path parameter as an integer.
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// queryInt parses a query parameter, returning def when it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}

// queryBool parses a query parameter, returning false when it is absent.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name, value: raw}
	}
	return v, nil
}

// queryDate parses a YYYY-MM-DD query parameter, returning def when absent.
func queryDate(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &paramError{name: name, value: raw}
	}
	return v, nil
}

// validate runs struct validation and writes a 400 on failure. It reports
// whether the request may proceed.
func (rs *responder) validate(req any) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rs.fail(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
	return false
}

// badParam writes a 400 for a malformed parameter.
func (rs *responder) badParam(err error) {
	rs.fail(http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
}

// parseList reads the {id} path parameter and the limit query parameter.
func parseList(rs *responder, r *http.Request) (listRequest, bool) {
	id, err := pathInt(r, "id")
	if err != nil {
		rs.badParam(err)
		return listRequest{}, false
	}
	limit, err := queryInt(r, "limit", DefaultLimit)
	if err != nil {
		rs.badParam(err)
		return listRequest{}, false
	}
	req := listRequest{ID: id, Limit: limit}
	return req, rs.validate(&req)
}

// parseLimit reads the limit query parameter.
func parseLimit(rs *responder, r *http.Request, def int) (int, bool) {
	limit, err := queryInt(r, "limit", def)
	if err != nil {
		rs.badParam(err)
		return 0, false
	}
	req := limitRequest{Limit: limit}
	return limit, rs.validate(&req)
}
