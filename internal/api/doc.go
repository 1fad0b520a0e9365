// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package api serves the recommendation HTTP API under /api/v1.

List surfaces (similar articles, author matches, user lists, homepage
surfaces) are read from the latest completed cycle in the cycle store,
through the badger serving cache. Cache keys carry the cycle id, so a new
cycle never serves entries computed from an older one. Prediction, behavior
and insight endpoints read the engine's in-memory published cycle.

Every response uses the APIResponse envelope:

	{"success": true, "data": [...], "metadata": {"cycle_id": "...", "count": 3}}

Errors map onto status codes:

	400 VALIDATION_ERROR     malformed id, limit outside 1..100, unknown surface
	404 NOT_FOUND            unknown article or user on an engine-backed endpoint
	409 CONFLICT             a cycle is running or already ran today
	429 TOO_MANY_REQUESTS    manual trigger inside the cooldown
	503 SERVICE_UNAVAILABLE  no cycle has completed yet
*/
package api
