// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
	"github.com/tomtom215/motortrack/internal/validation"
)

// ProviderDevices lists the devices registered with the provider account.
//
// @Summary List provider devices
// @Tags Provider
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]provider.DeviceInfo}
// @Router /provider/devices [get]
func (h *Handler) ProviderDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.provider.ListDevices(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if devices == nil {
		devices = []provider.DeviceInfo{}
	}
	h.respondSuccess(w, http.StatusOK, devices)
}

// deviceIMEI loads the device and returns its IMEI, answering the request
// itself on failure.
func (h *Handler) deviceIMEI(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := h.deviceIDParam(w, r)
	if !ok {
		return "", false
	}
	device, err := h.db.GetDevice(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return "", false
	}
	if !device.HasIMEI() {
		h.respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			fmt.Sprintf("device %d has no IMEI", id), map[string]any{"gps_status": models.GPSNoImei}, nil)
		return "", false
	}
	return device.IMEIValue(), true
}

// Mileage returns distance travelled between from and to (RFC3339).
//
// @Summary Device mileage for a time range
// @Tags Provider
// @Produce json
// @Param id path int true "Device ID"
// @Param from query string true "Start (RFC3339)"
// @Param to query string true "End (RFC3339), at most 31 days after from"
// @Success 200 {object} models.APIResponse{data=provider.Mileage}
// @Router /motors/{id}/mileage [get]
func (h *Handler) Mileage(w http.ResponseWriter, r *http.Request) {
	q, apiErr := parseMileageQuery(r)
	if apiErr != nil {
		h.respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}
	imei, ok := h.deviceIMEI(w, r)
	if !ok {
		return
	}

	mileage, err := h.provider.GetMileage(r.Context(), imei, q.From, q.To)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondSuccess(w, http.StatusOK, mileage)
}

// VehicleStatus returns the provider's live vehicle status for a device.
//
// @Summary Live vehicle status
// @Tags Provider
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} models.APIResponse{data=provider.VehicleStatus}
// @Router /motors/{id}/vehicle-status [get]
func (h *Handler) VehicleStatus(w http.ResponseWriter, r *http.Request) {
	imei, ok := h.deviceIMEI(w, r)
	if !ok {
		return
	}
	status, err := h.provider.GetVehicleStatus(r.Context(), imei)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondSuccess(w, http.StatusOK, status)
}

func parseMileageQuery(r *http.Request) (validation.MileageQuery, *models.APIError) {
	var q validation.MileageQuery
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &q.From}, {"to", &q.To}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue // reported as required below
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return q, &models.APIError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("%s must be an RFC3339 timestamp", p.name),
				Details: map[string]any{"field": p.name, "value": sanitizeLogValue(raw)},
			}
		}
		*p.dst = t
	}
	return q, validateRequest(&q)
}
