// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/validation"
)

// Motors lists every device with its location status.
//
// @Summary List devices with location status
// @Tags Motors
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.DeviceWithAge}
// @Router /motors [get]
func (h *Handler) Motors(w http.ResponseWriter, r *http.Request) {
	devices, err := h.db.ListDevices(r.Context())
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "failed to list devices", nil, err)
		return
	}

	now := h.clock.Now()
	out := make([]models.DeviceWithAge, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.NewDeviceWithAge(d, now))
	}
	h.respondSuccess(w, http.StatusOK, out)
}

// SyncMotors runs one sync pass over every eligible device and returns the
// run summary. The pass runs to completion even if the client disconnects.
//
// @Summary Trigger a sync pass
// @Tags Motors
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.SyncRun}
// @Failure 409 {object} models.APIResponse "A pass is already running"
// @Router /motors/sync [post]
func (h *Handler) SyncMotors(w http.ResponseWriter, r *http.Request) {
	run := h.sync.SyncAll(r.Context())
	if run.Skipped {
		h.recordAudit(r, audit.EventTypeSyncAll, ErrSyncSkipped, nil, "manual sync of all devices", nil)
		h.respondError(w, r, http.StatusConflict, ErrCodeSyncRunning, ErrSyncSkipped.Error(),
			map[string]any{"skipped": true}, nil)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("success", run.Success).
		Int("failed", run.Failed).
		Int("total", run.Total).
		Msg("Manual sync completed")
	h.recordAudit(r, audit.EventTypeSyncAll, nil, nil, "manual sync of all devices", map[string]any{
		"success": run.Success,
		"failed":  run.Failed,
		"total":   run.Total,
	})
	h.respondSuccessMessage(w, http.StatusOK, "sync completed", run)
}

// SyncMotor syncs one device regardless of eligibility. A device whose fetch
// failed still gets its decided status back alongside the error.
//
// @Summary Sync one device
// @Tags Motors
// @Produce json
// @Param id path int true "Device ID"
// @Success 200 {object} models.APIResponse{data=models.DeviceResult}
// @Failure 404 {object} models.APIResponse
// @Router /motors/{id}/sync [post]
func (h *Handler) SyncMotor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.sync.SyncOne(r.Context(), id)
	h.recordAudit(r, audit.EventTypeSyncDevice, err, &id, "manual sync of one device", nil)
	if err != nil {
		status, code := errorStatus(err)
		if result == nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondError(w, r, status, code, err.Error(), map[string]any{
			"device_id":  result.DeviceID,
			"gps_status": result.GPSStatus,
			"reason":     result.Reason,
		}, err)
		return
	}
	h.respondSuccess(w, http.StatusOK, result)
}

// UpdateLocation sets a device position by hand.
//
// @Summary Manually update a device location
// @Tags Motors
// @Accept json
// @Produce json
// @Param id path int true "Device ID"
// @Param body body validation.ManualLocationRequest true "Coordinates"
// @Success 200 {object} models.APIResponse{data=models.Device}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /motors/{id}/location [put]
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.deviceIDParam(w, r)
	if !ok {
		return
	}

	var req validation.ManualLocationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "request body must be JSON {\"lat\": number, \"lng\": number}", nil, nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		h.respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	device, err := h.sync.UpdateLocationManually(r.Context(), id, *req.Lat, *req.Lng)
	h.recordAudit(r, audit.EventTypeLocationManual, err, &id, "manual location update", map[string]any{
		"lat": *req.Lat,
		"lng": *req.Lng,
	})
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondSuccessMessage(w, http.StatusOK, "location updated", models.NewDeviceWithAge(*device, h.clock.Now()))
}
