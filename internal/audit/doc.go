// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package audit records operator actions taken through the HTTP API.

Scheduled sync passes are not audited; they are visible through metrics and
the event bus. What is audited is anything a person triggers:

  - sync.manual_all: POST /api/v1/motors/sync
  - sync.manual_device: POST /api/v1/motors/{id}/sync
  - location.manual_update: PUT /api/v1/motors/{id}/location
  - token.refresh: POST /api/v1/token/refresh
  - token.clear: DELETE /api/v1/token

Usage:

	store := audit.NewSQLStore(db.Conn(), db.Driver())
	if err := store.CreateTable(ctx); err != nil { ... }
	auditLog := audit.NewLogger(store, cfg.Audit, clock)
	defer auditLog.Close()

	auditLog.Record(r, audit.EventTypeTokenClear, audit.OutcomeSuccess, nil, "token cleared", nil)

Log and Record never block. Events are written by a background goroutine
through a buffer of AUDIT_BUFFER_SIZE; when it is full the event is dropped
and motortrack_audit_events_total{result="dropped"} is incremented.

RunWithContext deletes events older than AUDIT_RETENTION every
AUDIT_CLEANUP_INTERVAL. It is meant to run under the supervisor.
*/
package audit
