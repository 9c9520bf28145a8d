// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// Backends accepted by NewBus.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("event bus closed")

// pubSub is what a backend provides.
type pubSub interface {
	message.Publisher
	message.Subscriber
}

// Bus publishes events to topics and fans subscriptions back out as decoded
// events. Publishing is fire-and-forget: failures are logged and counted.
type Bus struct {
	ps      pubSub
	prefix  string
	buffer  int
	clock   clockwork.Clock
	backend string
	closed  atomic.Bool
	logger  watermill.LoggerAdapter
}

// NewBus creates a bus for the configured backend.
func NewBus(cfg *config.EventsConfig, clock clockwork.Clock) (*Bus, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := NewWatermillLogger()

	var (
		ps  pubSub
		err error
	)
	switch cfg.Backend {
	case BackendGoChannel, "":
		ps = gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
	case BackendNATS:
		ps, err = newNATSPubSub(cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendGoChannel
	}
	return &Bus{
		ps:      ps,
		prefix:  cfg.TopicPrefix,
		buffer:  int(max(cfg.BufferSize, 1)),
		clock:   clock,
		backend: backend,
		logger:  logger,
	}, nil
}

// Backend returns the backend name.
func (b *Bus) Backend() string { return b.backend }

// Topic maps an event type to its bus topic.
func (b *Bus) Topic(eventType string) string {
	if b.prefix == "" {
		return eventType
	}
	return b.prefix + "." + eventType
}

// Publish sends an event. It never fails the caller.
func (b *Bus) Publish(ctx context.Context, eventType string, deviceID *int64, payload any) {
	topic := b.Topic(eventType)
	err := b.publish(ctx, topic, eventType, deviceID, payload)
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

func (b *Bus) publish(ctx context.Context, topic, eventType string, deviceID *int64, payload any) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	event, err := NewEvent(eventType, deviceID, payload, b.clock.Now())
	if err != nil {
		return err
	}
	data, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("type", eventType)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	if err := b.ps.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe delivers decoded events of the given types until ctx is done or
// the bus closes, at which point the channel is closed. Messages are acked on
// receipt; undecodable ones are logged and dropped.
func (b *Bus) Subscribe(ctx context.Context, eventTypes ...string) (<-chan Event, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	streams := make([]<-chan *message.Message, 0, len(eventTypes))
	for _, t := range eventTypes {
		msgs, err := b.ps.Subscribe(subCtx, b.Topic(t))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("subscribe %s: %w", b.Topic(t), err)
		}
		streams = append(streams, msgs)
	}

	out := make(chan Event, b.buffer)
	var wg sync.WaitGroup
	for _, msgs := range streams {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.forward(subCtx, msgs, out)
		}()
	}
	go func() {
		wg.Wait()
		cancel()
		close(out)
	}()
	return out, nil
}

func (b *Bus) forward(ctx context.Context, msgs <-chan *message.Message, out chan<- Event) {
	for msg := range msgs {
		event, err := Decode(msg.Payload)
		msg.Ack()
		if err != nil {
			b.logger.Error("Dropping undecodable event", err, watermill.LogFields{"message_uuid": msg.UUID})
			continue
		}
		select {
		case out <- *event:
		case <-ctx.Done():
			return
		}
	}
}

// Close shuts the backend down. Open subscriptions end.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.ps.Close()
}
