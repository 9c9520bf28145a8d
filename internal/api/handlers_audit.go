// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/validation"
)

// recordAudit is a no-op when auditing is disabled.
func (h *Handler) recordAudit(r *http.Request, eventType audit.EventType, err error, deviceID *int64, description string, metadata map[string]any) {
	if h.audit == nil {
		return
	}
	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailure
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["error"] = sanitizeLogValue(err.Error())
	}
	h.audit.Record(r, eventType, outcome, deviceID, description, metadata)
}

// AuditEvents lists recorded operator actions, newest first.
//
// @Summary List operator audit events
// @Tags Audit
// @Produce json
// @Param type query string false "Event type, e.g. token.clear"
// @Param device_id query int false "Device ID"
// @Param since query string false "Only events at or after (RFC3339)"
// @Param limit query int false "1-1000, default 100"
// @Success 200 {object} models.APIResponse{data=[]audit.Event}
// @Failure 503 {object} models.APIResponse "Auditing disabled"
// @Router /audit [get]
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotAvailable, "audit logging is disabled", nil, nil)
		return
	}

	filter, apiErr := parseAuditQuery(r)
	if apiErr != nil {
		h.respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		h.respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "failed to query audit events", nil, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.respondSuccess(w, http.StatusOK, events)
}

func parseAuditQuery(r *http.Request) (audit.QueryFilter, *models.APIError) {
	var (
		q      validation.AuditQuery
		filter audit.QueryFilter
	)
	values := r.URL.Query()

	q.Type = values.Get("type")
	for _, p := range []struct {
		name string
		set  func(int64)
	}{
		{"device_id", func(v int64) { q.DeviceID = v }},
		{"limit", func(v int64) { q.Limit = int(v) }},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return filter, &models.APIError{
				Code:    ErrCodeValidation,
				Message: fmt.Sprintf("%s must be an integer", p.name),
				Details: map[string]any{"field": p.name, "value": sanitizeLogValue(raw)},
			}
		}
		p.set(v)
	}
	if raw := values.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, &models.APIError{
				Code:    ErrCodeValidation,
				Message: "since must be an RFC3339 timestamp",
				Details: map[string]any{"field": "since", "value": sanitizeLogValue(raw)},
			}
		}
		filter.Since = &since
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		return filter, apiErr
	}

	if q.Type != "" {
		filter.Types = []audit.EventType{audit.EventType(q.Type)}
	}
	if q.DeviceID > 0 {
		id := q.DeviceID
		filter.DeviceID = &id
	}
	filter.Limit = q.Limit
	return filter, nil
}
