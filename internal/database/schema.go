// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
schema.go - Schema Management

Tables:
  - motors: fleet vehicles. Sync writes lat, lng, last_update, gps_status and
    last_known_address; every other column belongs to the fleet owner.
  - motor_locations: append-only position history, one row per accepted fix.

DuckDB rewrites an UPDATE as delete+insert internally, which trips foreign
keys pointing at the updated row, so motor_locations.motor_id carries no FK.
Indexes avoid columns the sync engine updates for the same reason.

Every statement is idempotent; initialize runs on each start.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) initialize(ctx context.Context) error {
	for _, query := range db.schemaQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// timestampType is TIMESTAMPTZ on Postgres. DuckDB needs the ICU extension
// for TIMESTAMPTZ arithmetic, so it stores UTC in a plain TIMESTAMP.
func (db *DB) timestampType() string {
	if db.driver == DriverPostgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

func (db *DB) schemaQueries() []string {
	ts := db.timestampType()
	return []string{
		`CREATE TABLE IF NOT EXISTS motors (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			imei TEXT,
			status TEXT NOT NULL DEFAULT 'available',
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			last_update ` + ts + `,
			gps_status TEXT NOT NULL DEFAULT 'offline',
			last_known_address TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS motor_locations (
			id TEXT PRIMARY KEY,
			motor_id BIGINT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			gps_time ` + ts + `,
			address TEXT,
			source TEXT NOT NULL,
			recorded_at ` + ts + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_motor_locations_motor_recorded ON motor_locations (motor_id, recorded_at)`,
	}
}
