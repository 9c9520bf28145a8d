// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package supervisor runs Motortrack's long-lived services under suture v4.

	motortrack
	├── messaging-layer
	│   ├── websocket-hub
	│   └── event-bridge
	├── sync-layer
	│   └── sync-scheduler
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so a service that keeps crashing backs
off without restarting the others. A dropped event subscription restarts
only the bridge; a listener failure restarts only the HTTP server.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventBridgeService(bridge))
	tree.AddSyncService(services.NewSyncSchedulerService(engine))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx) // returns once ctx is canceled and services stop

Supervisor events are logged through the slog bridge in internal/logging.
The service adapters live in the services subpackage.
*/
package supervisor
