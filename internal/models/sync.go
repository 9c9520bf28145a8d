// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package models

import "time"

// SyncTrigger records what started a pass.
type SyncTrigger string

const (
	TriggerScheduled SyncTrigger = "scheduled"
	TriggerStartup   SyncTrigger = "startup"
	TriggerManual    SyncTrigger = "manual"
)

// SyncRun summarizes one sync pass. It is transient; only the last sync time
// outlives it.
type SyncRun struct {
	Success       int           `json:"success"`
	Failed        int           `json:"failed"`
	Total         int           `json:"total"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	Errors        []string      `json:"errors"`
	Skipped       bool          `json:"skipped"`
	StartedAt     time.Time     `json:"started_at"`
	Trigger       SyncTrigger   `json:"trigger"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// Finish stamps the run duration.
func (r *SyncRun) Finish(d time.Duration) {
	r.Duration = d
	r.DurationMS = d.Milliseconds()
	if r.Errors == nil {
		r.Errors = []string{}
	}
}

// DeviceResult is the outcome of syncing a single device.
type DeviceResult struct {
	DeviceID  int64     `json:"device_id"`
	IMEI      string    `json:"imei,omitempty"`
	GPSStatus GPSStatus `json:"gps_status"`
	Reason    string    `json:"reason,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Cached    bool      `json:"cached,omitempty"`
	SyncedAt  time.Time `json:"synced_at"`
}
