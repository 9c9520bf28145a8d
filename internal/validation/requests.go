// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxMileageRange bounds a single mileage query; the provider rejects longer
// spans.
const MaxMileageRange = 31 * 24 * time.Hour

// ManualLocationRequest is the body of PUT /motors/{id}/location. Both fields
// are pointers so a missing value is distinguishable from 0.
type ManualLocationRequest struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// DeviceIDParam is the {id} path parameter.
type DeviceIDParam struct {
	ID int64 `json:"id" validate:"gt=0"`
}

// MileageQuery is the query of GET /motors/{id}/mileage.
type MileageQuery struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required,gtfield=From"`
}

func mileageRangeValidation(sl validator.StructLevel) {
	q, ok := sl.Current().Interface().(MileageQuery)
	if !ok || q.From.IsZero() || q.To.IsZero() {
		return
	}
	if q.To.Sub(q.From) > MaxMileageRange {
		sl.ReportError(q.To, "to", "To", "maxrange", "31 days")
	}
}

// AuditQuery is the query of GET /audit. Zero values mean "no filter".
type AuditQuery struct {
	Type     string `json:"type" validate:"omitempty,oneof=sync.manual_all sync.manual_device location.manual_update token.refresh token.clear"`
	DeviceID int64  `json:"device_id" validate:"omitempty,gt=0"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}
