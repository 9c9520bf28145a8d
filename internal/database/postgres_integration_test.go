// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/testinfra"
)

func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("NewPostgresContainer: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, ctx, pg) })

	db, err := New(&config.DatabaseConfig{Driver: DriverPostgres, DSN: pg.DSN, MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("New(postgres): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresRepository(t *testing.T) {
	db := setupPostgresDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedDevices(t, db,
		models.Device{ID: 1, Name: "due", IMEI: strPtr("111"), Status: "available", LastUpdate: timePtr(now.Add(-time.Hour))},
		models.Device{ID: 2, Name: "fresh", IMEI: strPtr("222"), Status: "available", LastUpdate: timePtr(now)},
		models.Device{ID: 3, Name: "no-imei", Status: "available"},
		models.Device{ID: 4, Name: "retired", IMEI: strPtr("444"), Status: "retired"},
	)

	// Schema creation must be idempotent on Postgres too.
	if err := db.initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	t.Run("find devices for sync", func(t *testing.T) {
		due, err := db.FindDevicesForSync(ctx, now.Add(-30*time.Minute), []string{"available", "in_use"})
		if err != nil {
			t.Fatalf("FindDevicesForSync: %v", err)
		}
		if len(due) != 1 || due[0].ID != 1 {
			t.Errorf("due devices = %+v, want only device 1", due)
		}
	})

	t.Run("record location", func(t *testing.T) {
		fix := now.Add(-10 * time.Second)
		update := models.DeviceUpdate{
			Lat: f64Ptr(-6.2), Lng: f64Ptr(106.8), Address: strPtr("Jl. Thamrin"),
			LastUpdate: now, GPSStatus: models.GPSOnline,
		}
		sample := &models.LocationSample{Lat: -6.2, Lng: 106.8, GPSTime: &fix, RecordedAt: now}
		if err := db.RecordLocation(ctx, 1, update, sample); err != nil {
			t.Fatalf("RecordLocation: %v", err)
		}

		d, err := db.GetDevice(ctx, 1)
		if err != nil {
			t.Fatalf("GetDevice: %v", err)
		}
		if d.GPSStatus != models.GPSOnline || d.LastUpdate == nil || !d.LastUpdate.Equal(now) {
			t.Errorf("device not updated: %+v", d)
		}

		samples, err := db.RecentSamples(ctx, 1, now.Add(-time.Hour), 5)
		if err != nil {
			t.Fatalf("RecentSamples: %v", err)
		}
		if len(samples) != 1 || samples[0].Lat != -6.2 {
			t.Errorf("samples = %+v", samples)
		}
	})

	t.Run("unknown device rolls back", func(t *testing.T) {
		update := models.DeviceUpdate{Lat: f64Ptr(1), Lng: f64Ptr(1), LastUpdate: now, GPSStatus: models.GPSOnline}
		sample := &models.LocationSample{Lat: 1, Lng: 1, RecordedAt: now}
		if err := db.RecordLocation(ctx, 99, update, sample); !errors.Is(err, ErrDeviceNotFound) {
			t.Fatalf("RecordLocation(99) = %v, want ErrDeviceNotFound", err)
		}
		samples, err := db.RecentSamples(ctx, 99, now.Add(-time.Hour), 5)
		if err != nil {
			t.Fatalf("RecentSamples: %v", err)
		}
		if len(samples) != 0 {
			t.Errorf("orphan samples written: %+v", samples)
		}
	})
}
