// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package models defines the data structures shared across Motortrack.

Database models:
  - Device: a fleet vehicle (motors table); sync owns lat, lng, last_update,
    gps_status and last_known_address
  - LocationSample: append-only position history (motor_locations table)

Sync models:
  - SyncRun: transient summary of one pass
  - DeviceResult: outcome for a single device
  - DeviceUpdate: the sync-owned columns written by the repository

API models:
  - APIResponse, Metadata, APIError: the response envelope
  - HealthStatus, TokenInfo

Struct tags carry both db (sqlx) and json names; JSON uses snake_case.
*/
package models
