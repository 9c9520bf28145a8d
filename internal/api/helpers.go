// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/validation"
)

// maxBodyBytes bounds request bodies; the largest valid body is a lat/lng pair.
const maxBodyBytes = 4 << 10

// validateRequest runs the shared validator and converts failures to the
// API error shape.
func validateRequest(v any) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// deviceIDParam parses and validates the {id} path parameter, answering 400
// itself when it is bad.
func (h *Handler) deviceIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "id must be an integer",
			map[string]any{"field": "id", "value": sanitizeLogValue(raw)}, nil)
		return 0, false
	}
	if apiErr := validateRequest(&validation.DeviceIDParam{ID: id}); apiErr != nil {
		h.respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return 0, false
	}
	return id, true
}
