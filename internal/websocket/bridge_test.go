// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/events"
)

type fakeSubscriber struct {
	ch    chan events.Event
	types []string
	err   error
}

func (f *fakeSubscriber) Subscribe(_ context.Context, eventTypes ...string) (<-chan events.Event, error) {
	f.types = eventTypes
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recordingBroadcaster) BroadcastJSON(messageType string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Type: messageType, Data: data})
}

func (r *recordingBroadcaster) snapshot() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func newBridgeFixture(t *testing.T) (*EventBridge, *fakeSubscriber, *recordingBroadcaster) {
	t.Helper()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	sub := &fakeSubscriber{ch: make(chan events.Event, 8)}
	out := &recordingBroadcaster{}
	return NewEventBridge(sub, out, c.Namespace("events.seen")), sub, out
}

func runBridge(t *testing.T, b *EventBridge) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.RunWithContext(ctx) }()
	return cancel, errc
}

func TestBridgeDropsDuplicateEvents(t *testing.T) {
	bridge, sub, out := newBridgeFixture(t)
	cancel, errc := runBridge(t, bridge)

	id := int64(7)
	ev := events.Event{
		ID:        "3b1f6a52-0c8e-4d0e-9a53-3f2f0c1d9e11",
		Type:      events.TypeLocationUpdated,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		DeviceID:  &id,
		Payload:   []byte(`{"gps_status":"online"}`),
	}
	sub.ch <- ev
	sub.ch <- ev // redelivery
	other := ev
	other.ID = "a0c7e5a4-5b7f-4b44-8d5e-0f1f54f2c0aa"
	sub.ch <- other

	deadline := time.Now().Add(2 * time.Second)
	for len(out.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext = %v, want context.Canceled", err)
	}

	msgs := out.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(msgs))
	}
	data, ok := msgs[0].Data.(EventData)
	if !ok {
		t.Fatalf("data type = %T", msgs[0].Data)
	}
	if msgs[0].Type != events.TypeLocationUpdated || data.ID != ev.ID || *data.DeviceID != 7 {
		t.Errorf("first broadcast = %+v", msgs[0])
	}
	if msgs[1].Data.(EventData).ID != other.ID {
		t.Errorf("second broadcast id = %s", msgs[1].Data.(EventData).ID)
	}
}

func TestBridgeSubscribesToEveryType(t *testing.T) {
	bridge, sub, _ := newBridgeFixture(t)
	cancel, errc := runBridge(t, bridge)
	close(sub.ch)
	err := <-errc
	cancel()

	if err == nil {
		t.Error("expected an error when the subscription closes")
	}
	if len(sub.types) != len(events.AllTypes) {
		t.Errorf("subscribed types = %v", sub.types)
	}
}

func TestBridgeSubscribeError(t *testing.T) {
	bridge, sub, _ := newBridgeFixture(t)
	sub.err = events.ErrBusClosed

	if err := bridge.RunWithContext(context.Background()); !errors.Is(err, events.ErrBusClosed) {
		t.Errorf("RunWithContext = %v, want ErrBusClosed", err)
	}
}
