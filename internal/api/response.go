// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/models"
)

// sanitizeLogValue escapes control characters so request-derived strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (h *Handler) envelope(success bool, message string, data any, apiErr *models.APIError) *models.APIResponse {
	return &models.APIResponse{
		Success:  success,
		Message:  message,
		Data:     data,
		Metadata: models.Metadata{Timestamp: h.clock.Now().UTC()},
		Error:    apiErr,
	}
}

// respondJSON writes an envelope. API responses are never cached.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, h.envelope(true, "", data, nil))
}

func (h *Handler) respondSuccessMessage(w http.ResponseWriter, status int, message string, data any) {
	respondJSON(w, status, h.envelope(true, message, data, nil))
}

// respondError writes a failure envelope. err, when set, is logged and never
// sent to the client.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any, err error) {
	if err != nil {
		event := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, h.envelope(false, message, nil, &models.APIError{
		Code:    code,
		Message: message,
		Details: details,
	}))
}
