// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/motortrack/internal/metrics"
	"github.com/tomtom215/motortrack/internal/models"
)

const deviceColumns = `id, name, imei, status, lat, lng, last_update, gps_status, last_known_address`

const sampleColumns = `id, motor_id, lat, lng, gps_time, address, source, recorded_at`

// FindDevicesForSync returns devices with an IMEI, an operational status and
// a position older than olderThan (or none at all), ordered by id.
func (db *DB) FindDevicesForSync(ctx context.Context, olderThan time.Time, statuses []string) (devices []models.Device, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("find_for_sync", "motors", time.Since(start), err) }()

	if len(statuses) == 0 {
		return []models.Device{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+deviceColumns+` FROM motors
		WHERE imei IS NOT NULL AND TRIM(imei) <> ''
		  AND status IN (?)
		  AND (last_update IS NULL OR last_update < ?)
		ORDER BY id`, statuses, olderThan.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to build sync query: %w", err)
	}

	devices = []models.Device{}
	if err = db.conn.SelectContext(ctx, &devices, db.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query devices for sync: %w", err)
	}
	return devices, nil
}

// GetDevice returns one device or ErrDeviceNotFound.
func (db *DB) GetDevice(ctx context.Context, id int64) (device *models.Device, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrDeviceNotFound) {
			metrics.RecordDBQuery("get", "motors", time.Since(start), nil)
			return
		}
		metrics.RecordDBQuery("get", "motors", time.Since(start), err)
	}()

	var d models.Device
	err = db.conn.GetContext(ctx, &d, db.conn.Rebind(`SELECT `+deviceColumns+` FROM motors WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &d, nil
}

// ListDevices returns every device ordered by id.
func (db *DB) ListDevices(ctx context.Context) (devices []models.Device, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("list", "motors", time.Since(start), err) }()

	devices = []models.Device{}
	if err = db.conn.SelectContext(ctx, &devices, `SELECT `+deviceColumns+` FROM motors ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// UpsertDevice inserts a device or replaces its fleet-owned columns. It is
// used for seeding and by tests; the sync columns are only set on insert.
func (db *DB) UpsertDevice(ctx context.Context, d models.Device) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "motors", time.Since(start), err) }()

	gpsStatus := d.GPSStatus
	if gpsStatus == "" {
		gpsStatus = models.GPSOffline
	}
	var lastUpdate *time.Time
	if d.LastUpdate != nil {
		t := d.LastUpdate.UTC()
		lastUpdate = &t
	}

	query := db.conn.Rebind(`INSERT INTO motors (` + deviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, imei = excluded.imei, status = excluded.status`)
	_, err = db.conn.ExecContext(ctx, query,
		d.ID, d.Name, d.IMEI, d.Status, d.Lat, d.Lng, lastUpdate, string(gpsStatus), d.LastKnownAddress)
	if err != nil {
		return fmt.Errorf("failed to upsert device %d: %w", d.ID, err)
	}
	return nil
}

// UpdateDevice writes the sync-owned columns of a device. Without coordinates
// only gps_status and last_update change.
func (db *DB) UpdateDevice(ctx context.Context, id int64, u models.DeviceUpdate) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("update", "motors", time.Since(start), err) }()
	return updateDevice(ctx, db.conn, id, u)
}

// AppendSample appends a position to the history. An empty ID gets a UUID.
func (db *DB) AppendSample(ctx context.Context, s *models.LocationSample) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("append", "motor_locations", time.Since(start), err) }()
	return appendSample(ctx, db.conn, s)
}

// RecordLocation applies a device update and, if sample is non-nil, appends
// it in the same transaction.
func (db *DB) RecordLocation(ctx context.Context, id int64, u models.DeviceUpdate, sample *models.LocationSample) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("record_location", "motors", time.Since(start), err) }()

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateDevice(ctx, tx, id, u); err != nil {
		return err
	}
	if sample != nil {
		sample.DeviceID = id
		if err = appendSample(ctx, tx, sample); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit location for device %d: %w", id, err)
	}
	return nil
}

// RecentSamples returns up to limit samples for a device recorded at or after
// since, newest first.
func (db *DB) RecentSamples(ctx context.Context, deviceID int64, since time.Time, limit int) (samples []models.LocationSample, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("recent", "motor_locations", time.Since(start), err) }()

	if limit <= 0 {
		return []models.LocationSample{}, nil
	}
	samples = []models.LocationSample{}
	query := db.conn.Rebind(`SELECT ` + sampleColumns + ` FROM motor_locations
		WHERE motor_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC
		LIMIT ?`)
	if err = db.conn.SelectContext(ctx, &samples, query, deviceID, since.UTC(), limit); err != nil {
		return nil, fmt.Errorf("failed to query samples for device %d: %w", deviceID, err)
	}
	return samples, nil
}

// execer is satisfied by *sqlx.DB and *sqlx.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

func updateDevice(ctx context.Context, ex execer, id int64, u models.DeviceUpdate) error {
	var (
		res sql.Result
		err error
	)
	lastUpdate := u.LastUpdate.UTC()
	if u.HasCoordinates() {
		res, err = ex.ExecContext(ctx, ex.Rebind(`UPDATE motors
			SET lat = ?, lng = ?, last_known_address = COALESCE(CAST(? AS TEXT), last_known_address), last_update = ?, gps_status = ?
			WHERE id = ?`),
			*u.Lat, *u.Lng, u.Address, lastUpdate, string(u.GPSStatus), id)
	} else {
		res, err = ex.ExecContext(ctx, ex.Rebind(`UPDATE motors SET last_update = ?, gps_status = ? WHERE id = ?`),
			lastUpdate, string(u.GPSStatus), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update device %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}
	return nil
}

func appendSample(ctx context.Context, ex execer, s *models.LocationSample) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Source == "" {
		s.Source = models.SourceProvider
	}
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now()
	}
	var gpsTime *time.Time
	if s.GPSTime != nil {
		t := s.GPSTime.UTC()
		gpsTime = &t
	}

	_, err := ex.ExecContext(ctx, ex.Rebind(`INSERT INTO motor_locations (`+sampleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		s.ID, s.DeviceID, s.Lat, s.Lng, gpsTime, s.Address, string(s.Source), s.RecordedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append sample for device %d: %w", s.DeviceID, err)
	}
	return nil
}
