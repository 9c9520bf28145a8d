// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types. The bus topic is "<prefix>.<type>".
const (
	TypeLocationUpdated = "location.updated"
	TypeSyncStarted     = "sync.started"
	TypeSyncCompleted   = "sync.completed"
	TypeSyncFailed      = "sync.failed"
	TypeTokenUpdated    = "token.updated"
)

// AllTypes lists every event type the service emits.
var AllTypes = []string{
	TypeLocationUpdated,
	TypeSyncStarted,
	TypeSyncCompleted,
	TypeSyncFailed,
	TypeTokenUpdated,
}

// Event is the envelope carried on every topic.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	DeviceID  *int64          `json:"device_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh id.
func NewEvent(eventType string, deviceID *int64, payload any, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: now.UTC(),
		DeviceID:  deviceID,
		Payload:   data,
	}, nil
}

// Encode serializes the event.
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an encoded event.
func Decode(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.ID == "" || e.Type == "" {
		return nil, errors.New("decode event: missing id or type")
	}
	return &e, nil
}
