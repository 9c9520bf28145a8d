// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	_ "github.com/tomtom215/motortrack/docs" // registers the swagger document
	"github.com/tomtom215/motortrack/internal/api"
	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/database"
	"github.com/tomtom215/motortrack/internal/events"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
	"github.com/tomtom215/motortrack/internal/provider"
	"github.com/tomtom215/motortrack/internal/supervisor"
	"github.com/tomtom215/motortrack/internal/supervisor/services"
	"github.com/tomtom215/motortrack/internal/sync"
	ws "github.com/tomtom215/motortrack/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cacheDefaultTTL applies to namespaces that do not pass their own TTL.
const cacheDefaultTTL = 5 * time.Minute

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("provider", cfg.Provider.BaseURL).
		Str("db_driver", cfg.Database.Driver).
		Str("events_backend", cfg.Events.Backend).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Msg("Starting Motortrack")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	clock := clockwork.NewRealClock()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	c := cache.NewWithClock(cacheDefaultTTL, clock)
	defer c.Close()

	bus, err := events.NewBus(&cfg.Events, clock)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	tokens, closeTokens := initTokenManager(cfg, c, bus, clock)
	defer closeTokens()

	client, err := provider.NewClient(&cfg.Provider, tokens, clock)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize provider client")
	}

	engine := sync.NewEngine(&cfg.Sync, db, client, c.Namespace("location"), bus, clock)

	wsHub := ws.NewHub()
	bridge := ws.NewEventBridge(bus, wsHub, c.Namespace("events.seen"))

	handler := api.NewHandler(cfg, db, engine, tokens, client, wsHub, clock)
	handler.SetVersion(version)

	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog, err = initAuditLogger(cfg, db, clock)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize audit log")
		}
		defer func() {
			if err := auditLog.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing audit log")
			}
		}()
		handler.SetAuditLogger(auditLog)
	}
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		// Sync routes extend their own deadline; see api.WriteDeadline.
		WriteTimeout: cfg.Server.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewEventBridgeService(bridge))
	if cfg.Sync.Enabled {
		tree.AddSyncService(services.NewSyncSchedulerService(engine))
		logging.Info().
			Dur("interval", cfg.Sync.Interval).
			Dur("max_interval", cfg.Sync.MaxInterval).
			Bool("run_on_startup", cfg.Sync.RunOnStartup).
			Msg("Sync scheduler enabled")
	} else {
		logging.Warn().Msg("Sync scheduler disabled (SYNC_ENABLED=false); only manual syncs will run")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	if auditLog != nil {
		tree.AddAPIService(services.NewRunnerService("audit-retention", auditLog))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Motortrack stopped")
}

// initTokenManager builds the credential manager, restores a persisted
// credential when token.persist_path is set, and publishes token.updated
// after every acquisition. The returned func closes the badger store.
func initTokenManager(cfg *config.Config, c *cache.Cache, bus *events.Bus, clock clockwork.Clock) (*provider.TokenManager, func()) {
	auth := provider.NewHTTPAuthenticator(&cfg.Provider)
	tokens := provider.NewTokenManager(cfg.Token, &cfg.Provider, auth, c.Namespace("token"), clock)

	tokens.OnUpdate(func(cred provider.Credential) {
		ctx := logging.ContextWithNewCorrelationID(context.Background())
		bus.Publish(ctx, events.TypeTokenUpdated, nil, tokenUpdatedPayload(cred))
	})

	if cfg.Token.PersistPath == "" {
		return tokens, func() {}
	}

	store, err := provider.OpenBadgerCredentialStore(cfg.Token.PersistPath)
	if err != nil {
		// Persistence only saves auth budget across restarts.
		logging.Warn().Err(err).Str("path", cfg.Token.PersistPath).Msg("Credential persistence disabled")
		return tokens, func() {}
	}
	tokens.SetCredentialStore(store)

	return tokens, func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}
}

// initAuditLogger stores audit events in the fleet database.
func initAuditLogger(cfg *config.Config, db *database.DB, clock clockwork.Clock) (*audit.Logger, error) {
	store := audit.NewSQLStore(db.Conn(), db.Driver())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.CreateTable(ctx); err != nil {
		return nil, err
	}

	logging.Info().
		Dur("retention", cfg.Audit.Retention).
		Int("buffer_size", cfg.Audit.BufferSize).
		Msg("Audit logging enabled")
	return audit.NewLogger(store, cfg.Audit, clock), nil
}

// tokenUpdatedPayload never carries the raw token.
func tokenUpdatedPayload(cred provider.Credential) map[string]any {
	return map[string]any{
		"token":       cred.Masked(),
		"acquired_at": cred.AcquiredAt,
		"expires_at":  cred.ExpiresAt(),
	}
}
