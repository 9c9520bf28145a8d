// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package events is the in-process event bus built on Watermill.

Topics are "<prefix>.<type>" where type is one of location.updated,
sync.started, sync.completed, sync.failed and token.updated. Every message
body is an Event envelope:

	{"id": "<uuid>", "type": "location.updated", "timestamp": "...",
	 "device_id": 7, "payload": {...}}

Backends:
  - gochannel (default): in-memory, non-persistent, delivers to current
    subscribers only
  - nats: JetStream via watermill-nats; requires building with -tags nats

Delivery is at-least-once. Consumers dedupe by Event.ID.
*/
package events
