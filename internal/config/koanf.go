// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/motortrack/config.yaml",
	"/etc/motortrack/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultOfflineKeywords are matched case-insensitively against provider text fields.
var DefaultOfflineKeywords = []string{"offline", "no signal", "timeout", "disconnected"}

func defaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:           "",
			Timeout:           10 * time.Second,
			MaxRetries:        3,
			RetryBaseDelay:    1 * time.Second,
			RateLimitCooldown: 30 * time.Second,
			UnauthorizedCodes: []int{401, 403},
			RateLimitCodes:    []int{429},
			Timezone:          "UTC",
			BreakerEnabled:    true,
			Endpoints: ProviderEndpoints{
				Auth:          "/auth",
				Location:      "/device/location",
				DeviceList:    "/device/list",
				Mileage:       "/device/mileage",
				VehicleStatus: "/device/status",
			},
		},
		Token: TokenConfig{
			AuthWindow:         60 * time.Second,
			AuthMaxCalls:       2,
			AuthIntervalMargin: 1 * time.Second,
			ExpiryMargin:       5 * time.Minute,
			DefaultTTL:         1 * time.Hour,
			QueueTimeout:       90 * time.Second,
			PersistPath:        "",
		},
		Sync: SyncConfig{
			Enabled:             true,
			RunOnStartup:        true,
			Interval:            1 * time.Minute,
			MaxInterval:         5 * time.Minute,
			MinRefreshInterval:  1 * time.Minute,
			Concurrency:         4,
			Stagger:             200 * time.Millisecond,
			DeviceTimeout:       30 * time.Second,
			OperationalStatuses: []string{"available", "rented"},
			OfflineKeywords:     append([]string(nil), DefaultOfflineKeywords...),
			FreshnessThreshold:  10 * time.Minute,
			StagnationWindow:    30 * time.Minute,
			StagnationSamples:   3,
			StagnationMatches:   2,
			CoordinateTolerance: 0.0001,
			LocationCacheTTL:    30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			DSN:             "/data/motortrack.duckdb",
			MaxOpenConns:    4,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Events: EventsConfig{
			Backend:     "gochannel",
			NATSURL:     "nats://127.0.0.1:4222",
			TopicPrefix: "motortrack",
			BufferSize:  256,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SyncTimeout:     10 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Audit: AuditConfig{
			Enabled:         true,
			Retention:       90 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
			BufferSize:      256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in layers: defaults, then the optional
// config file, then environment variables (highest priority). The result is
// validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// GPS_APP_ID -> provider.app_id, SYNC_INTERVAL -> sync.interval, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come from the environment.
var sliceConfigPaths = []string{
	"provider.unauthorized_codes",
	"provider.rate_limit_codes",
	"sync.operational_statuses",
	"sync.offline_keywords",
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored so the process environment cannot leak into config.
var envMappings = map[string]string{
	// Provider
	"gps_base_url":            "provider.base_url",
	"gps_app_id":              "provider.app_id",
	"gps_secret_key":          "provider.secret_key",
	"gps_timeout":             "provider.timeout",
	"gps_max_retries":         "provider.max_retries",
	"gps_retry_base_delay":    "provider.retry_base_delay",
	"gps_rate_limit_cooldown": "provider.rate_limit_cooldown",
	"gps_unauthorized_codes":  "provider.unauthorized_codes",
	"gps_rate_limit_codes":    "provider.rate_limit_codes",
	"gps_timezone":            "provider.timezone",
	"gps_breaker_enabled":     "provider.breaker_enabled",
	"gps_auth_path":           "provider.endpoints.auth",
	"gps_location_path":       "provider.endpoints.location",
	"gps_device_list_path":    "provider.endpoints.device_list",
	"gps_mileage_path":        "provider.endpoints.mileage",
	"gps_vehicle_status_path": "provider.endpoints.vehicle_status",

	// Token lease
	"token_auth_window":          "token.auth_window",
	"token_auth_max_calls":       "token.auth_max_calls",
	"token_auth_interval_margin": "token.auth_interval_margin",
	"token_expiry_margin":        "token.expiry_margin",
	"token_default_ttl":          "token.default_ttl",
	"token_queue_timeout":        "token.queue_timeout",
	"token_persist_path":         "token.persist_path",

	// Sync
	"sync_enabled":              "sync.enabled",
	"sync_run_on_startup":       "sync.run_on_startup",
	"sync_interval":             "sync.interval",
	"sync_max_interval":         "sync.max_interval",
	"sync_min_refresh_interval": "sync.min_refresh_interval",
	"sync_concurrency":          "sync.concurrency",
	"sync_stagger":              "sync.stagger",
	"sync_device_timeout":       "sync.device_timeout",
	"sync_operational_statuses": "sync.operational_statuses",
	"sync_offline_keywords":     "sync.offline_keywords",
	"sync_freshness_threshold":  "sync.freshness_threshold",
	"sync_stagnation_window":    "sync.stagnation_window",
	"sync_stagnation_samples":   "sync.stagnation_samples",
	"sync_stagnation_matches":   "sync.stagnation_matches",
	"sync_coordinate_tolerance": "sync.coordinate_tolerance",
	"sync_location_cache_ttl":   "sync.location_cache_ttl",
	"sync_bounds_min_lat":       "sync.bounds.min_lat",
	"sync_bounds_max_lat":       "sync.bounds.max_lat",
	"sync_bounds_min_lng":       "sync.bounds.min_lng",
	"sync_bounds_max_lng":       "sync.bounds.max_lng",

	// Database
	"db_driver":            "database.driver",
	"db_dsn":               "database.dsn",
	"database_url":         "database.dsn",
	"db_max_open_conns":    "database.max_open_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",

	// Events
	"events_backend":      "events.backend",
	"nats_url":            "events.nats_url",
	"events_topic_prefix": "events.topic_prefix",
	"events_buffer_size":  "events.buffer_size",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_sync_timeout":     "server.sync_timeout",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Audit
	"audit_enabled":          "audit.enabled",
	"audit_retention":        "audit.retention",
	"audit_cleanup_interval": "audit.cleanup_interval",
	"audit_buffer_size":      "audit.buffer_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
//
// Examples:
//   - GPS_APP_ID -> provider.app_id
//   - SYNC_MAX_INTERVAL -> sync.max_interval
//   - DATABASE_URL -> database.dsn
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
