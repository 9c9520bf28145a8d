// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/events"
	"github.com/tomtom215/motortrack/internal/logging"
)

// DefaultDedupeTTL is how long an event id is remembered. NATS redelivers
// within its ack wait, so a few minutes covers it.
const DefaultDedupeTTL = 5 * time.Minute

// Subscriber is the part of the event bus the bridge consumes.
type Subscriber interface {
	Subscribe(ctx context.Context, eventTypes ...string) (<-chan events.Event, error)
}

// Broadcaster receives deduplicated events. *Hub satisfies it.
type Broadcaster interface {
	BroadcastJSON(messageType string, data any)
}

// EventData is the data field of an event message sent to dashboards.
type EventData struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  *int64    `json:"device_id,omitempty"`
	Payload   any       `json:"payload"`
}

// EventBridge forwards bus events to dashboard clients, dropping any event id
// it has already forwarded.
type EventBridge struct {
	sub    Subscriber
	out    Broadcaster
	seen   *cache.Namespace
	ttl    time.Duration
	types  []string
	logger zerolog.Logger
}

// NewEventBridge creates a bridge for every event type. seen may be shared
// with other bridges to dedupe across them.
func NewEventBridge(sub Subscriber, out Broadcaster, seen *cache.Namespace) *EventBridge {
	return &EventBridge{
		sub:    sub,
		out:    out,
		seen:   seen,
		ttl:    DefaultDedupeTTL,
		types:  events.AllTypes,
		logger: logging.WithComponent("ws-bridge"),
	}
}

// RunWithContext forwards events until ctx is done or the subscription
// closes.
func (b *EventBridge) RunWithContext(ctx context.Context) error {
	ch, err := b.sub.Subscribe(ctx, b.types...)
	if err != nil {
		return fmt.Errorf("subscribe to events: %w", err)
	}
	b.logger.Info().Strs("types", b.types).Msg("event bridge started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("event subscription closed")
			}
			b.forward(ev)
		}
	}
}

func (b *EventBridge) forward(ev events.Event) {
	key := cache.GenerateKey("event", ev.ID)
	if _, dup := b.seen.Get(key); dup {
		b.logger.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("duplicate event dropped")
		return
	}
	b.seen.SetWithTTL(key, true, b.ttl)

	b.out.BroadcastJSON(ev.Type, EventData{
		ID:        ev.ID,
		Timestamp: ev.Timestamp,
		DeviceID:  ev.DeviceID,
		Payload:   ev.Payload,
	})
}
