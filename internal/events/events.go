// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Metadata keys set on every cycle message.
const (
	MetadataCycleID = "cycle_id"
	MetadataStatus  = "status"
	MetadataSource  = "source"
)

// Topic returns the topic of cycle events with the given status, e.g.
// "lectern.cycle.completed".
func Topic(prefix, status string) string {
	return prefix + "." + status
}

// Bus publishes cycle events and lets in-process listeners subscribe to
// them. It implements recommend.EventPublisher.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	prefix     string
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ recommend.EventPublisher = (*Bus)(nil)

// New creates the bus for the configured backend.
func New(cfg config.EventsConfig, logger zerolog.Logger) (*Bus, error) {
	logger = logger.With().Str("component", "events").Str("backend", cfg.Backend).Logger()
	adapter := logging.NewWatermillAdapter(logger)

	switch cfg.Backend {
	case config.EventsBackendChannel, "":
		return NewChannelBus(cfg.TopicPrefix, logger), nil
	case config.EventsBackendNATS:
		pub, sub, err := newNATSPubSub(cfg.URL, adapter)
		if err != nil {
			return nil, err
		}
		return newBus(pub, sub, cfg.TopicPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewChannelBus creates an in-process bus on a watermill Go channel.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewChannelBus(prefix string, logger zerolog.Logger) *Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, logging.NewWatermillAdapter(logger))
	return newBus(ch, ch, prefix, logger)
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newBus(pub message.Publisher, sub message.Subscriber, prefix string, logger zerolog.Logger) *Bus {
	return &Bus{publisher: pub, subscriber: sub, prefix: prefix, logger: logger}
}

// PublishCycleEvent publishes the event on <prefix>.<status>.
func (b *Bus) PublishCycleEvent(ctx context.Context, event recommend.CycleEvent) (err error) {
	topic := Topic(b.prefix, event.Status)
	defer func() { metrics.RecordEventPublish(topic, err) }()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cycle event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataCycleID, event.CycleID)
	msg.Metadata.Set(MetadataStatus, event.Status)
	msg.Metadata.Set(MetadataSource, event.Source)
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	b.logger.Debug().Str("topic", topic).Str("cycle_id", event.CycleID).Msg("published cycle event")
	return nil
}

// Subscribe returns the messages of cycle events with the given status.
func (b *Bus) Subscribe(ctx context.Context, status string) (<-chan *message.Message, error) {
	if b.subscriber == nil {
		return nil, fmt.Errorf("bus has no subscriber")
	}
	return b.subscriber.Subscribe(ctx, Topic(b.prefix, status))
}

// Decode parses a cycle event message.
func Decode(msg *message.Message) (recommend.CycleEvent, error) {
	var event recommend.CycleEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("decode cycle event %s: %w", msg.UUID, err)
	}
	return event, nil
}

// Close closes the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.publisher.Close()
	// the channel backend shares one value for both roles
	if s, ok := b.subscriber.(message.Publisher); b.subscriber != nil && (!ok || s != b.publisher) {
		err = errors.Join(err, b.subscriber.Close())
	}
	return err
}
