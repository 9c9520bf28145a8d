// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package models

import (
	"strings"
	"time"
)

// GPSStatus is the derived connectivity state of a device's GPS unit.
type GPSStatus string

const (
	GPSOnline  GPSStatus = "online"
	GPSOffline GPSStatus = "offline"
	GPSNoImei  GPSStatus = "no_imei"
	GPSError   GPSStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s GPSStatus) Valid() bool {
	switch s {
	case GPSOnline, GPSOffline, GPSNoImei, GPSError:
		return true
	}
	return false
}

// Device is a fleet vehicle (table motors).
//
// The sync engine only mutates Lat, Lng, LastUpdate, GPSStatus and
// LastKnownAddress. Everything else belongs to the fleet CRUD owner.
type Device struct {
	ID               int64      `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	IMEI             *string    `db:"imei" json:"imei"`
	Status           string     `db:"status" json:"status"`
	Lat              *float64   `db:"lat" json:"lat"`
	Lng              *float64   `db:"lng" json:"lng"`
	LastUpdate       *time.Time `db:"last_update" json:"last_update"`
	GPSStatus        GPSStatus  `db:"gps_status" json:"gps_status"`
	LastKnownAddress *string    `db:"last_known_address" json:"last_known_address"`
}

// IMEIValue returns the trimmed IMEI or "" when unset.
func (d *Device) IMEIValue() string {
	if d.IMEI == nil {
		return ""
	}
	return strings.TrimSpace(*d.IMEI)
}

// HasIMEI reports whether the device has a usable IMEI.
func (d *Device) HasIMEI() bool {
	return d.IMEIValue() != ""
}

// LastUpdateAge returns seconds since LastUpdate, or nil if never updated.
func (d *Device) LastUpdateAge(now time.Time) *int64 {
	if d.LastUpdate == nil {
		return nil
	}
	age := int64(now.Sub(*d.LastUpdate) / time.Second)
	if age < 0 {
		age = 0
	}
	return &age
}

// DeviceWithAge is the list view returned by GET /api/v1/motors.
type DeviceWithAge struct {
	Device
	LastUpdateAge *int64 `json:"last_update_age"`
}

// NewDeviceWithAge builds the list view for d at time now.
func NewDeviceWithAge(d Device, now time.Time) DeviceWithAge {
	return DeviceWithAge{Device: d, LastUpdateAge: d.LastUpdateAge(now)}
}

// DeviceUpdate carries the sync-owned columns of a device. Nil Lat/Lng/Address
// leave the stored values untouched.
type DeviceUpdate struct {
	Lat        *float64
	Lng        *float64
	Address    *string
	LastUpdate time.Time
	GPSStatus  GPSStatus
}

// HasCoordinates reports whether the update carries a position.
func (u DeviceUpdate) HasCoordinates() bool {
	return u.Lat != nil && u.Lng != nil
}

// LocationSource identifies where a sample came from.
type LocationSource string

const (
	SourceProvider LocationSource = "provider"
	SourceManual   LocationSource = "manual"
)

// LocationSample is an append-only position record (table motor_locations).
type LocationSample struct {
	ID         string         `db:"id" json:"id"`
	DeviceID   int64          `db:"motor_id" json:"device_id"`
	Lat        float64        `db:"lat" json:"lat"`
	Lng        float64        `db:"lng" json:"lng"`
	GPSTime    *time.Time     `db:"gps_time" json:"gps_time,omitempty"`
	Address    *string        `db:"address" json:"address,omitempty"`
	Source     LocationSource `db:"source" json:"source"`
	RecordedAt time.Time      `db:"recorded_at" json:"recorded_at"`
}
