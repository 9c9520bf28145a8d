// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // provider timestamps are zone-local; distroless images ship no zoneinfo
)

// Config holds all application configuration.
//
// Loading order (see LoadWithKoanf):
//  1. Built-in defaults
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/motortrack/config.yaml)
//  3. Environment variables
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Provider ProviderConfig `koanf:"provider"`
	Token    TokenConfig    `koanf:"token"`
	Sync     SyncConfig     `koanf:"sync"`
	Database DatabaseConfig `koanf:"database"`
	Events   EventsConfig   `koanf:"events"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Audit    AuditConfig    `koanf:"audit"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ProviderConfig describes the GPS provider HTTP API.
//
// Environment Variables:
//   - GPS_BASE_URL: provider API base URL (may include a path prefix)
//   - GPS_APP_ID / GPS_SECRET_KEY: credentials used to sign /auth requests
//   - GPS_TIMEOUT: per-call timeout (default: 10s)
//   - GPS_MAX_RETRIES: retries after the first attempt (default: 3)
//   - GPS_RETRY_BASE_DELAY: first backoff delay, doubled per retry (default: 1s)
//   - GPS_RATE_LIMIT_COOLDOWN: wait after a provider rate-limit signal (default: 30s)
//
// A missing AppID or SecretKey does not fail Load; the token manager reports
// it as a configuration error on first use so the server can still start and
// report itself degraded.
type ProviderConfig struct {
	BaseURL           string            `koanf:"base_url"`
	AppID             string            `koanf:"app_id"`
	SecretKey         string            `koanf:"secret_key"`
	Timeout           time.Duration     `koanf:"timeout"`
	MaxRetries        int               `koanf:"max_retries"`
	RetryBaseDelay    time.Duration     `koanf:"retry_base_delay"`
	RateLimitCooldown time.Duration     `koanf:"rate_limit_cooldown"`
	UnauthorizedCodes []int             `koanf:"unauthorized_codes"`
	RateLimitCodes    []int             `koanf:"rate_limit_codes"`
	Timezone          string            `koanf:"timezone"`
	BreakerEnabled    bool              `koanf:"breaker_enabled"`
	Endpoints         ProviderEndpoints `koanf:"endpoints"`
}

// ProviderEndpoints are paths relative to ProviderConfig.BaseURL.
type ProviderEndpoints struct {
	Auth          string `koanf:"auth"`
	Location      string `koanf:"location"`
	DeviceList    string `koanf:"device_list"`
	Mileage       string `koanf:"mileage"`
	VehicleStatus string `koanf:"vehicle_status"`
}

// TokenConfig controls credential acquisition under the provider's auth rate limit.
//
// The provider accepts at most AuthMaxCalls auth calls per AuthWindow. Attempts
// are spaced at least AuthWindow/AuthMaxCalls + AuthIntervalMargin apart, and a
// rolling-window ceiling is enforced on top of that.
type TokenConfig struct {
	AuthWindow         time.Duration `koanf:"auth_window"`
	AuthMaxCalls       int           `koanf:"auth_max_calls"`
	AuthIntervalMargin time.Duration `koanf:"auth_interval_margin"`
	ExpiryMargin       time.Duration `koanf:"expiry_margin"`
	DefaultTTL         time.Duration `koanf:"default_ttl"`
	QueueTimeout       time.Duration `koanf:"queue_timeout"`
	PersistPath        string        `koanf:"persist_path"` // empty disables badger persistence
}

// MinInterval returns the minimum spacing between two auth attempts.
func (t TokenConfig) MinInterval() time.Duration {
	if t.AuthMaxCalls <= 0 {
		return t.AuthWindow + t.AuthIntervalMargin
	}
	return t.AuthWindow/time.Duration(t.AuthMaxCalls) + t.AuthIntervalMargin
}

// SyncConfig holds location synchronization settings.
type SyncConfig struct {
	Enabled             bool          `koanf:"enabled"`
	RunOnStartup        bool          `koanf:"run_on_startup"`
	Interval            time.Duration `koanf:"interval"`
	MaxInterval         time.Duration `koanf:"max_interval"`
	MinRefreshInterval  time.Duration `koanf:"min_refresh_interval"`
	Concurrency         int           `koanf:"concurrency"`
	Stagger             time.Duration `koanf:"stagger"`
	DeviceTimeout       time.Duration `koanf:"device_timeout"`
	OperationalStatuses []string      `koanf:"operational_statuses"`
	OfflineKeywords     []string      `koanf:"offline_keywords"`
	FreshnessThreshold  time.Duration `koanf:"freshness_threshold"`
	StagnationWindow    time.Duration `koanf:"stagnation_window"`
	StagnationSamples   int           `koanf:"stagnation_samples"`
	StagnationMatches   int           `koanf:"stagnation_matches"`
	CoordinateTolerance float64       `koanf:"coordinate_tolerance"`
	LocationCacheTTL    time.Duration `koanf:"location_cache_ttl"`
	Bounds              BoundsConfig  `koanf:"bounds"`
}

// BoundsConfig is the plausible operating region. An all-zero box disables the check.
type BoundsConfig struct {
	MinLat float64 `koanf:"min_lat"`
	MaxLat float64 `koanf:"max_lat"`
	MinLng float64 `koanf:"min_lng"`
	MaxLng float64 `koanf:"max_lng"`
}

// IsZero reports whether no bounding box is configured.
func (b BoundsConfig) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains reports whether (lat, lng) falls within the box, inclusive.
func (b BoundsConfig) Contains(lat, lng float64) bool {
	if b.IsZero() {
		return true
	}
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// DatabaseConfig selects the storage driver.
//
// Environment Variables:
//   - DB_DRIVER: duckdb (default) or postgres
//   - DB_DSN: DuckDB file path or Postgres connection string
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// EventsConfig selects the event bus backend.
type EventsConfig struct {
	Backend     string `koanf:"backend"` // gochannel or nats
	NATSURL     string `koanf:"nats_url"`
	TopicPrefix string `koanf:"topic_prefix"`
	BufferSize  int64  `koanf:"buffer_size"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// SyncTimeout bounds manual sync requests, which hold the connection for
	// a whole pass.
	SyncTimeout time.Duration `koanf:"sync_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds CORS and inbound rate limiting. User authentication is
// handled upstream of this service.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AuditConfig controls the operator action trail.
//
// Environment Variables:
//   - AUDIT_ENABLED: record manual syncs, location fixes and token actions (default: true)
//   - AUDIT_RETENTION: how long entries are kept (default: 2160h, 90 days)
//   - AUDIT_BUFFER_SIZE: entries queued for the async writer (default: 256)
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Retention       time.Duration `koanf:"retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	BufferSize      int           `koanf:"buffer_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
