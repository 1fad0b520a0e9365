// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/recommend"
)

const testPrefix = "test.cycle"

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus := NewChannelBus(testPrefix, zerolog.Nop())
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return bus
}

func completedEvent(id string) recommend.CycleEvent {
	started := time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
	return recommend.CycleEvent{
		CycleID:         id,
		Status:          recommend.CycleStatusCompleted,
		Source:          "synthetic",
		StartedAt:       started,
		FinishedAt:      started.Add(90 * time.Second),
		Articles:        120,
		Users:           40,
		Recommendations: 3100,
	}
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestTopic(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{recommend.CycleStatusRunning, "test.cycle.running"},
		{recommend.CycleStatusCompleted, "test.cycle.completed"},
		{recommend.CycleStatusFailed, "test.cycle.failed"},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := Topic(testPrefix, tt.status); got != tt.want {
				t.Errorf("Topic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublishCycleEvent_RoundTrip(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, recommend.CycleStatusCompleted)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	topic := Topic(testPrefix, recommend.CycleStatusCompleted)
	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "success"))

	want := completedEvent("c-1")
	if err := bus.PublishCycleEvent(ctx, want); err != nil {
		t.Fatalf("PublishCycleEvent() error = %v", err)
	}

	msg := receive(t, messages)
	msg.Ack()

	if got := msg.Metadata.Get(MetadataCycleID); got != "c-1" {
		t.Errorf("cycle_id metadata = %q", got)
	}
	if got := msg.Metadata.Get(MetadataStatus); got != recommend.CycleStatusCompleted {
		t.Errorf("status metadata = %q", got)
	}

	got, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.CycleID != want.CycleID || got.Articles != want.Articles || !got.FinishedAt.Equal(want.FinishedAt) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}

	if d := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "success")) - before; d != 1 {
		t.Errorf("events published delta = %f, want 1", d)
	}
}

func TestPublishCycleEvent_StatusTopicsAreSeparate(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failed, err := bus.Subscribe(ctx, recommend.CycleStatusFailed)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := bus.PublishCycleEvent(ctx, completedEvent("c-1")); err != nil {
		t.Fatalf("PublishCycleEvent() error = %v", err)
	}
	ev := completedEvent("c-2")
	ev.Status = recommend.CycleStatusFailed
	ev.Reason = "load: no articles"
	if err := bus.PublishCycleEvent(ctx, ev); err != nil {
		t.Fatalf("PublishCycleEvent() error = %v", err)
	}

	msg := receive(t, failed)
	msg.Ack()
	got, err := Decode(msg)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.CycleID != "c-2" || got.Reason != ev.Reason {
		t.Errorf("failed subscriber got %+v", got)
	}
}

func TestPublishCycleEvent_Closed(t *testing.T) {
	bus := NewChannelBus(testPrefix, zerolog.Nop())
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	topic := Topic(testPrefix, recommend.CycleStatusCompleted)
	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "failure"))

	err := bus.PublishCycleEvent(context.Background(), completedEvent("c-1"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("PublishCycleEvent() error = %v, want ErrClosed", err)
	}
	if d := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(topic, "failure")) - before; d != 1 {
		t.Errorf("failure delta = %f, want 1", d)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode(message.NewMessage(watermill.NewUUID(), []byte("{"))); err == nil {
		t.Error("Decode() error = nil, want error")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EventsConfig
		wantErr bool
	}{
		{"channel", config.EventsConfig{Enabled: true, Backend: config.EventsBackendChannel, TopicPrefix: testPrefix}, false},
		{"default backend", config.EventsConfig{Enabled: true, TopicPrefix: testPrefix}, false},
		{"unknown backend", config.EventsConfig{Enabled: true, Backend: "kafka", TopicPrefix: testPrefix}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, err := New(tt.cfg, zerolog.Nop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bus != nil {
				_ = bus.Close()
			}
		})
	}
}

func TestListener(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan string, 4)
	l := NewListener(bus, "test-listener", recommend.CycleStatusCompleted,
		func(_ context.Context, e recommend.CycleEvent) error {
			select {
			case handled <- e.CycleID:
			default:
			}
			return nil
		}, zerolog.Nop())
	if l.String() != "test-listener" {
		t.Errorf("String() = %q", l.String())
	}

	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()

	// the listener subscribes asynchronously; keep publishing until it sees one
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	var got string
wait:
	for {
		select {
		case got = <-handled:
			break wait
		case <-ticker.C:
			if err := bus.PublishCycleEvent(ctx, completedEvent("c-9")); err != nil {
				t.Fatalf("PublishCycleEvent() error = %v", err)
			}
		case <-deadline:
			t.Fatal("listener never handled an event")
		}
	}
	if got != "c-9" {
		t.Errorf("handled cycle = %q, want c-9", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not stop")
	}
}
