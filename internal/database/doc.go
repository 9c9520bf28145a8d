// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package database is the device repository behind the sync engine.

It runs on DuckDB (embedded, default) or PostgreSQL through sqlx. Queries are
written with ? placeholders and rebound per driver.

Repository operations:
  - FindDevicesForSync: devices with an IMEI, an operational status and a
    stale or missing position
  - GetDevice, ListDevices, UpsertDevice
  - UpdateDevice: sync-owned columns only
  - AppendSample, RecentSamples: motor_locations history
  - RecordLocation: UpdateDevice + AppendSample in one transaction

Every query records motortrack_db_query_duration_seconds.
*/
package database
