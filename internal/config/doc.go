// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package config provides centralized configuration management for Motortrack.

Configuration is layered with koanf: built-in defaults, then an optional YAML
file, then environment variables. Environment variable names are mapped
explicitly (see envMappings); anything unmapped is ignored.

# Configuration Sources

  - Defaults from defaultConfig()
  - YAML file: CONFIG_PATH, ./config.yaml, /etc/motortrack/config.yaml
  - Environment variables (highest priority). cmd/server loads a .env file
    into the environment before Load is called.

# Environment Variables

GPS provider (ProviderConfig):
  - GPS_BASE_URL: provider API base URL (required)
  - GPS_APP_ID, GPS_SECRET_KEY: signing credentials
  - GPS_TIMEOUT: per-call timeout (default: 10s)
  - GPS_MAX_RETRIES: retries after the first attempt (default: 3)
  - GPS_UNAUTHORIZED_CODES: comma-separated provider codes meaning "token invalid" (default: 401,403)
  - GPS_RATE_LIMIT_CODES: comma-separated provider codes meaning "slow down" (default: 429)
  - GPS_TIMEZONE: zone for provider wall-clock timestamps (default: UTC)

Token lease (TokenConfig):
  - TOKEN_AUTH_WINDOW, TOKEN_AUTH_MAX_CALLS: auth rate limit (default: 2 per 60s)
  - TOKEN_EXPIRY_MARGIN: refresh this long before expiry (default: 5m)
  - TOKEN_QUEUE_TIMEOUT: longest a caller waits for a credential (default: 90s)
  - TOKEN_PERSIST_PATH: badger directory for persisting the credential (optional)

Sync (SyncConfig):
  - SYNC_ENABLED, SYNC_RUN_ON_STARTUP
  - SYNC_INTERVAL, SYNC_MAX_INTERVAL: adaptive scheduling bounds (default: 1m, 5m)
  - SYNC_CONCURRENCY, SYNC_STAGGER: device fan-out (default: 4, 200ms)
  - SYNC_OPERATIONAL_STATUSES: comma-separated device statuses eligible for sync
  - SYNC_OFFLINE_KEYWORDS: comma-separated offline markers
  - SYNC_BOUNDS_MIN_LAT / MAX_LAT / MIN_LNG / MAX_LNG: plausible region

Database, events, server:
  - DB_DRIVER (duckdb, postgres), DB_DSN
  - EVENTS_BACKEND (gochannel, nats), NATS_URL
  - HTTP_HOST, HTTP_PORT, CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - AUDIT_ENABLED, AUDIT_RETENTION, AUDIT_CLEANUP_INTERVAL, AUDIT_BUFFER_SIZE

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	client := provider.NewClient(cfg.Provider, tokens, clock)

# Thread Safety

Config is immutable after Load and safe for concurrent reads.
*/
package config
