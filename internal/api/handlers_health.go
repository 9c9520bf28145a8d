// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/motortrack/internal/models"
)

const (
	healthPingTimeout = 2 * time.Second

	// staleSyncFactor: a last sync older than this many max intervals means
	// the scheduler has stalled.
	staleSyncFactor = 3
)

func (h *Handler) databaseConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return h.db.Ping(ctx) == nil
}

// healthStatus evaluates the health rules:
//
//	unhealthy  database unreachable
//	degraded   no valid token, provider inaccessible, or last sync stale
//	healthy    otherwise
func (h *Handler) healthStatus(ctx context.Context) models.HealthStatus {
	_, tokenValid := h.tokens.Cached()
	status := models.HealthStatus{
		TokenValid:          tokenValid,
		APIAccessible:       h.provider.APIAccessible(),
		DatabaseConnected:   h.databaseConnected(ctx),
		NextSyncInSeconds:   h.sync.NextSyncIn().Seconds(),
		ConsecutiveFailures: h.sync.ConsecutiveFailures(),
		CircuitBreaker:      h.provider.BreakerState(),
		Version:             h.version,
	}

	stale := false
	if last := h.sync.LastSyncTime(); !last.IsZero() {
		last = last.UTC()
		status.LastSync = &last
		stale = h.clock.Since(last) > staleSyncFactor*h.maxSyncInterval()
	}

	switch {
	case !status.DatabaseConnected:
		status.Status = models.HealthUnhealthy
	case !status.TokenValid, !status.APIAccessible, stale:
		status.Status = models.HealthDegraded
	default:
		status.Status = models.HealthHealthy
	}
	return status
}

func (h *Handler) maxSyncInterval() time.Duration {
	d := h.config.Sync.MaxInterval
	if d < h.config.Sync.Interval {
		d = h.config.Sync.Interval
	}
	return d
}

// Health reports overall service health. Unhealthy answers 503 so load
// balancers can act on the status code alone; degraded still answers 200.
//
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus}
// @Failure 503 {object} models.APIResponse{data=models.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.healthStatus(r.Context())
	if status.Status == models.HealthUnhealthy {
		respondJSON(w, http.StatusServiceUnavailable, h.envelope(false, "database unreachable", status,
			&models.APIError{Code: ErrCodeDatabase, Message: "database unreachable"}))
		return
	}
	h.respondSuccess(w, http.StatusOK, status)
}

// HealthLive answers 200 while the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": h.clock.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 once the database is reachable. Provider trouble
// does not make the service unready; it still serves stored positions.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.databaseConnected(r.Context()) {
		h.respondError(w, r, http.StatusServiceUnavailable, ErrCodeNotAvailable, "database unreachable",
			map[string]any{"ready": false}, nil)
		return
	}
	h.respondSuccess(w, http.StatusOK, map[string]any{"ready": true})
}
