// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Command server runs the Motortrack location sync service.

It keeps fleet device positions current by polling the GPS provider,
exposes the REST API under /api/v1 and pushes events to dashboards over a
websocket.

Startup order:

 1. .env (godotenv), then configuration (koanf: defaults, config.yaml, env)
 2. Logging
 3. Database (DuckDB by default, PostgreSQL with DB_DRIVER=postgres)
 4. Cache and event bus (watermill gochannel, or NATS with -tags nats)
 5. Token manager, optionally restoring a badger-persisted credential
 6. Provider client, sync engine, websocket hub and event bridge
 7. HTTP router and server, with the audit log when AUDIT_ENABLED
 8. Supervisor tree, which owns everything long-lived until SIGINT/SIGTERM

Build tags:

	go build ./cmd/server               # in-process event bus
	go build -tags nats ./cmd/server    # EVENTS_BACKEND=nats available

The minimum configuration is the provider credential pair:

	export GPS_APP_ID=...
	export GPS_SECRET_KEY=...
	./server

Without them the server still starts and /api/v1/health reports degraded.
*/
package main
