// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package sync keeps device positions in the fleet database current.

The Engine selects eligible devices, fetches each position from the GPS
provider, classifies it with DetermineStatus and persists the result:

	engine := sync.NewEngine(&cfg.Sync, db, client, c.Namespace("location"), bus, clock)
	run := engine.SyncAll(ctx)          // one pass
	result, err := engine.SyncOne(ctx, id) // one device, ignoring eligibility
	err = engine.Start(ctx)             // periodic passes until Stop

Status rules are evaluated in order and the first match wins; see
DetermineStatus. The rules are pure so they can be tested without a
database or provider.

Scheduling:

Passes run every sync.interval. Each pass with any failure doubles the wait,
up to sync.max_interval; a clean pass resets it. Concurrent passes are
skipped rather than queued, and a pass is never cancelled part way through.

Note: the package name shadows the standard library; files that need it
import it as gosync.
*/
package sync
