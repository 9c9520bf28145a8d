// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"

	ws "github.com/tomtom215/motortrack/internal/websocket"
)

// WebSocket upgrades the connection and subscribes it to live fleet events.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		h.respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotAvailable, "live updates are not enabled", nil, nil)
		return
	}
	ws.ServeWS(h.wsHub, h.upgrader, w, r)
}
