// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package services provides suture.Service wrappers for Lectern components.

# Services

RecommendService runs the recommendation schedule:
  - a cycle every day at schedule.daily_hour (local time)
  - the store cleanup every week on schedule.cleanup_weekday at
    schedule.cleanup_hour
  - an optional cycle at startup

It also serves on-demand triggers from the admin API. Triggers are spaced
by a golang.org/x/time/rate token bucket refilled every
schedule.trigger_cooldown; a trigger that finds the bucket empty fails
with ErrTriggerThrottled without touching the engine. The engine itself
rejects overlapping cycles and repeated same-day cycles unless forced;
those skips are recorded in lectern_recommend_cycle_skips_total.

HTTPServerService wraps *http.Server and shuts it down gracefully when the
supervisor stops.

Cycle event listeners and the serving cache GC loop implement
suture.Service directly in their own packages.
*/
package services
