// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package cache provides a thread-safe in-memory TTL cache and a bucketed
sliding-window counter.

# Overview

A single Cache instance is shared by the process and partitioned with
Namespace views:

  - token: the provider credential, owned by provider.TokenManager
  - location: short-lived memo of provider location responses, owned by sync.Engine
  - events.seen: event fingerprints used by the websocket bridge to drop duplicates

Expiry and the background sweep follow an injected clockwork.Clock, so tests
advance a FakeClock instead of sleeping. Namespace reads are exported as
motortrack_cache_hits_total / motortrack_cache_misses_total labelled by prefix.

# Usage

	c := cache.NewWithClock(time.Minute, clock)
	defer c.Close()

	seen := c.Namespace("events.seen")
	key := cache.GenerateKey(evt.Type, evt.Payload)
	if _, dup := seen.Get(key); !dup {
	    seen.Set(key, struct{}{})
	    hub.Broadcast(evt)
	}

SlidingWindowCounter tracks counts over a trailing window with bucket
resolution; the provider client uses two of them to report whether the API
has been reachable recently.

# Thread Safety

All types are safe for concurrent use.
*/
package cache
