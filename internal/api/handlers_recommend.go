// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lectern/internal/cache"
	"github.com/tomtom215/lectern/internal/database"
	"github.com/tomtom215/lectern/internal/recommend"
)

// latestCycle resolves the cycle that store reads are served from.
func (h *Handler) latestCycle(ctx context.Context) (*database.CycleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.store.LatestCompletedCycle(ctx)
}

// serveStored answers a list read from the latest completed cycle through
// the cache. Unknown ids yield an empty list.
func serveStored[T any](h *Handler, rs *responder, r *http.Request, surface string, key []any,
	load func(ctx context.Context, cycleID string) ([]T, error),
) {
	rec, err := h.latestCycle(r.Context())
	if err != nil {
		rs.failErr(err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	items, err := cache.GetOrLoad(ctx, h.cache, cache.Key(rec.ID, surface, key...),
		func(ctx context.Context) ([]T, error) {
			out, err := load(ctx, rec.ID)
			if out == nil {
				out = []T{}
			}
			return out, err
		})
	if err != nil {
		rs.failErr(err)
		return
	}
	rs.cycle(rec.ID).list(items, len(items))
}

// SimilarArticles serves GET /recommendations/articles/{id}/similar.
func (h *Handler) SimilarArticles(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	req, ok := parseList(rs, r)
	if !ok {
		return
	}

	if h.store == nil {
		items, err := h.engine.SimilarArticles(req.ID, req.Limit)
		if err != nil {
			rs.failErr(err)
			return
		}
		rs.cycle(h.engine.Status().LastCycleID).list(items, len(items))
		return
	}
	serveStored(h, rs, r, "similar", []any{req.ID, req.Limit},
		func(ctx context.Context, cycleID string) ([]recommend.SimilarArticle, error) {
			return h.store.SimilarArticles(ctx, cycleID, req.ID, req.Limit)
		})
}

// AuthorRecommendations serves GET /recommendations/articles/{id}/authors.
func (h *Handler) AuthorRecommendations(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	req, ok := parseList(rs, r)
	if !ok {
		return
	}

	if h.store == nil {
		items, err := h.engine.AuthorRecommendations(req.ID, req.Limit)
		if err != nil {
			rs.failErr(err)
			return
		}
		rs.cycle(h.engine.Status().LastCycleID).list(items, len(items))
		return
	}
	serveStored(h, rs, r, "authors", []any{req.ID, req.Limit},
		func(ctx context.Context, cycleID string) ([]recommend.AuthorRecommendation, error) {
			return h.store.AuthorRecommendations(ctx, cycleID, req.ID, req.Limit)
		})
}

// UserRecommendations serves GET /recommendations/users/{id}.
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	req, ok := parseList(rs, r)
	if !ok {
		return
	}

	if h.store == nil {
		items, err := h.engine.RecommendationsForUser(req.ID, req.Limit)
		if err != nil {
			rs.failErr(err)
			return
		}
		rs.cycle(h.engine.Status().LastCycleID).list(items, len(items))
		return
	}
	serveStored(h, rs, r, "users", []any{req.ID, req.Limit},
		func(ctx context.Context, cycleID string) ([]recommend.UserRecommendation, error) {
			return h.store.UserRecommendations(ctx, cycleID, req.ID, req.Limit)
		})
}

// Homepage serves GET /recommendations/homepage/{surface}. Homepage lists
// only exist in the store.
func (h *Handler) Homepage(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	limit, err := queryInt(r, "limit", DefaultLimit)
	if err != nil {
		rs.badParam(err)
		return
	}
	req := homepageRequest{Surface: chi.URLParam(r, "surface"), Limit: limit}
	if !rs.validate(&req) {
		return
	}
	if h.store == nil {
		rs.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "cycle store is not configured", nil)
		return
	}

	serveStored(h, rs, r, "homepage", []any{req.Surface, req.Limit},
		func(ctx context.Context, cycleID string) ([]recommend.HomepageEntry, error) {
			return h.store.Homepage(ctx, cycleID, req.Surface, req.Limit)
		})
}

// RecentArticles serves GET /recommendations/recent.
func (h *Handler) RecentArticles(w http.ResponseWriter, r *http.Request) {
	rs := newResponder(w, r)
	limit, ok := parseLimit(rs, r, DefaultLimit)
	if !ok {
		return
	}

	items, err := h.engine.RecentArticles(limit)
	if err != nil {
		rs.failErr(err)
		return
	}
	rs.cycle(h.engine.Status().LastCycleID).list(items, len(items))
}
