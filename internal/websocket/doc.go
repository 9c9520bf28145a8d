// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package websocket pushes live fleet events to dashboard clients.

Components:

  - Hub: owns the set of connected clients and fans messages out to them
  - Client: one connection, with a read pump and a write pump
  - EventBridge: subscribes to the event bus and feeds the hub

Flow:

	sync engine ──▶ events.Bus ──▶ EventBridge ──▶ Hub ──▶ clients

The bridge remembers event ids in the cache so an event redelivered by the
bus (NATS at-least-once delivery) reaches dashboards once.

Wire format:

	{"type": "location.updated", "data": {"id": "...", "timestamp": "...", "device_id": 7, "payload": {...}}}

Clients may send {"type":"ping"} and get {"type":"pong"} back. The server also
sends protocol pings every 54 seconds and drops clients that stop answering
for 60 seconds.

Slow clients whose send buffer fills are disconnected instead of blocking
the broadcast.
*/
package websocket
