// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package audit

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// EventType identifies the operator action.
type EventType string

const (
	EventTypeSyncAll        EventType = "sync.manual_all"
	EventTypeSyncDevice     EventType = "sync.manual_device"
	EventTypeLocationManual EventType = "location.manual_update"
	EventTypeTokenRefresh   EventType = "token.refresh"
	EventTypeTokenClear     EventType = "token.clear"
)

// ValidEventType reports whether t is a known event type.
func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeSyncAll, EventTypeSyncDevice, EventTypeLocationManual, EventTypeTokenRefresh, EventTypeTokenClear:
		return true
	}
	return false
}

// Outcome is the result of the action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one audit entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Outcome   Outcome   `json:"outcome"`

	// DeviceID is set for device-scoped actions.
	DeviceID *int64 `json:"device_id,omitempty"`

	SourceIP  string `json:"source_ip"`
	UserAgent string `json:"user_agent,omitempty"`

	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`

	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error

	// Query returns matching events, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// DeleteBefore removes events older than cutoff and returns the count.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// QueryFilter narrows a Query. Zero fields match everything.
type QueryFilter struct {
	Types    []EventType `json:"types,omitempty"`
	DeviceID *int64      `json:"device_id,omitempty"`
	Since    *time.Time  `json:"since,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// EffectiveLimit clamps Limit to (0, MaxQueryLimit], defaulting to
// DefaultQueryLimit.
func (f QueryFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultQueryLimit
	case f.Limit > MaxQueryLimit:
		return MaxQueryLimit
	default:
		return f.Limit
	}
}
