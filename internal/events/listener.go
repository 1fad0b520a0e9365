// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/recommend"
)

// HandlerFunc handles one decoded cycle event.
type HandlerFunc func(ctx context.Context, event recommend.CycleEvent) error

// Listener feeds cycle events of one status to a handler. It implements
// suture.Service.
type Listener struct {
	bus     *Bus
	status  string
	name    string
	handler HandlerFunc
	logger  zerolog.Logger
}

// NewListener creates a listener for events with the given status.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewListener(bus *Bus, name, status string, handler HandlerFunc, logger zerolog.Logger) *Listener {
	return &Listener{
		bus:     bus,
		status:  status,
		name:    name,
		handler: handler,
		logger:  logger.With().Str("listener", name).Logger(),
	}
}

// String names the service in supervisor logs.
func (l *Listener) String() string {
	return l.name
}

// Serve subscribes and handles messages until ctx is cancelled. Messages
// that fail to decode are acked and dropped; handler failures are nacked.
func (l *Listener) Serve(ctx context.Context) error {
	messages, err := l.bus.Subscribe(ctx, l.status)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.status, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// the bus was closed; suture restarts us only if ctx is live
				return ctx.Err()
			}

			event, err := Decode(msg)
			if err != nil {
				l.logger.Warn().Err(err).Msg("dropping malformed cycle event")
				msg.Ack()
				continue
			}

			if err := l.handler(ctx, event); err != nil {
				l.logger.Error().Err(err).Str("cycle_id", event.CycleID).Msg("cycle event handler failed")
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}
