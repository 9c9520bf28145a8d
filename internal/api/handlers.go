// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"context"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
	ws "github.com/tomtom215/motortrack/internal/websocket"
)

// DeviceStore is the read side of the fleet repository.
type DeviceStore interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	Ping(ctx context.Context) error
}

// SyncService is implemented by *sync.Engine.
type SyncService interface {
	SyncAll(ctx context.Context) models.SyncRun
	SyncOne(ctx context.Context, deviceID int64) (*models.DeviceResult, error)
	UpdateLocationManually(ctx context.Context, deviceID int64, lat, lng float64) (*models.Device, error)
	LastSyncTime() time.Time
	LastRun() *models.SyncRun
	NextSyncIn() time.Duration
	ConsecutiveFailures() int
	IsRunning() bool
}

// TokenService is implemented by *provider.TokenManager.
type TokenService interface {
	Cached() (provider.Credential, bool)
	Refresh(ctx context.Context) (provider.Credential, error)
	Invalidate()
	QueueStatus() provider.QueueStatus
}

// ProviderService is implemented by *provider.Client.
type ProviderService interface {
	ListDevices(ctx context.Context) ([]provider.DeviceInfo, error)
	GetMileage(ctx context.Context, imei string, from, to time.Time) (*provider.Mileage, error)
	GetVehicleStatus(ctx context.Context, imei string) (*provider.VehicleStatus, error)
	APIAccessible() bool
	BreakerState() string
}

// AuditService is implemented by *audit.Logger.
type AuditService interface {
	Record(r *http.Request, eventType audit.EventType, outcome audit.Outcome, deviceID *int64, description string, metadata map[string]any)
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_motors.go: fleet list, sync triggers, manual location
//   - handlers_token.go: provider credential inspection and control
//   - handlers_provider.go: pass-through provider queries
//   - handlers_health.go: health, liveness and readiness
//   - handlers_audit.go: operator audit trail
type Handler struct {
	db        DeviceStore
	sync      SyncService
	tokens    TokenService
	provider  ProviderService
	wsHub     *ws.Hub
	audit     AuditService
	upgrader  *gorillaws.Upgrader
	config    *config.Config
	clock     clockwork.Clock
	version   string
	startTime time.Time
}

// NewHandler creates the API handler. wsHub may be nil, in which case the
// websocket route answers 503.
//
// Example:
//
//	handler := api.NewHandler(cfg, db, engine, tokens, client, hub, clockwork.NewRealClock())
//	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))
//	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
func NewHandler(cfg *config.Config, db DeviceStore, syncSvc SyncService, tokens TokenService, providerSvc ProviderService, wsHub *ws.Hub, clock clockwork.Clock) *Handler {
	return &Handler{
		db:        db,
		sync:      syncSvc,
		tokens:    tokens,
		provider:  providerSvc,
		wsHub:     wsHub,
		upgrader:  ws.NewUpgrader(cfg.Security.CORSOrigins),
		config:    cfg,
		clock:     clock,
		version:   "dev",
		startTime: clock.Now(),
	}
}

// SetVersion sets the version reported by the health endpoint.
func (h *Handler) SetVersion(v string) {
	if v != "" {
		h.version = v
	}
}

// SetAuditLogger enables auditing of operator actions. Without it actions are
// not recorded and GET /audit answers 503.
func (h *Handler) SetAuditLogger(a AuditService) {
	h.audit = a
}
