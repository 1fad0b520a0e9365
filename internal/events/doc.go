// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package events publishes recommendation cycle lifecycle events over
Watermill.

Every cycle emits a "running" event when it starts and a "completed" or
"failed" event when it ends. Events are JSON-encoded recommend.CycleEvent
values published on the topic <prefix>.<status>, for example
"lectern.cycle.completed", with the cycle id, status and source copied into
the message metadata.

# Backends

  - channel: an in-process watermill gochannel. This is the default and
    lets the server react to its own cycles (the serving cache drops the
    entries of superseded cycles when a completed event arrives).
  - nats: core NATS through watermill-nats, for other processes that want
    to follow cycles. Requires building with -tags=nats. Publishes go
    through a sony/gobreaker circuit breaker.

# Listeners

Listener is a suture.Service that subscribes to one status and feeds the
decoded events to a handler:

	l := events.NewListener(bus, "cache-retain", recommend.CycleStatusCompleted,
		func(ctx context.Context, e recommend.CycleEvent) error {
			_, err := servingCache.Retain(e.CycleID)
			return err
		}, logger)
	sup.Add(l)
*/
package events
