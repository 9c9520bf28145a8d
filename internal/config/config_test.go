// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// setupTestEnv sets up test environment variables and returns cleanup function
func setupTestEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	os.Clearenv()
	for k, v := range envVars {
		if err := os.Setenv(k, v); err != nil {
			t.Fatalf("failed to set env var %s: %v", k, err)
		}
	}
	return func() {
		os.Clearenv()
	}
}

// assertNoError checks that error is nil
func assertNoError(t *testing.T, err error, testName string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", testName, err)
	}
}

// assertError checks that error occurred and optionally matches message
func assertError(t *testing.T, err error, expectedMsg, testName string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error, got nil", testName)
	}
	if expectedMsg != "" && !strings.Contains(err.Error(), expectedMsg) {
		t.Errorf("%s: error = %q, want it to contain %q", testName, err.Error(), expectedMsg)
	}
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Provider.BaseURL = "https://gps.example.com"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with base url", func(*Config) {}, ""},
		{"provider path prefix allowed", func(c *Config) { c.Provider.BaseURL = "https://gps.example.com/openapi/v2" }, ""},
		{"provider query rejected", func(c *Config) { c.Provider.BaseURL = "https://gps.example.com?x=1" }, "query parameters"},
		{"zero timeout", func(c *Config) { c.Provider.Timeout = 0 }, "GPS_TIMEOUT"},
		{"negative retries", func(c *Config) { c.Provider.MaxRetries = -1 }, "GPS_MAX_RETRIES"},
		{"bad timezone", func(c *Config) { c.Provider.Timezone = "Mars/Olympus" }, "GPS_TIMEZONE"},
		{"relative endpoint", func(c *Config) { c.Provider.Endpoints.Location = "device/location" }, "GPS_LOCATION_PATH"},
		{"zero auth calls", func(c *Config) { c.Token.AuthMaxCalls = 0 }, "TOKEN_AUTH_MAX_CALLS"},
		{"zero queue timeout", func(c *Config) { c.Token.QueueTimeout = 0 }, "TOKEN_QUEUE_TIMEOUT"},
		{"zero concurrency", func(c *Config) { c.Sync.Concurrency = 0 }, "SYNC_CONCURRENCY"},
		{"no statuses", func(c *Config) { c.Sync.OperationalStatuses = nil }, "SYNC_OPERATIONAL_STATUSES"},
		{"matches exceed samples", func(c *Config) { c.Sync.StagnationMatches = 4 }, "SYNC_STAGNATION_MATCHES"},
		{"inverted bounds", func(c *Config) {
			c.Sync.Bounds = BoundsConfig{MinLat: 10, MaxLat: -10, MinLng: 0, MaxLng: 1}
		}, "SYNC_BOUNDS"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "DB_DSN"},
		{"postgres url dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "postgres://fleet:secret@db:5432/fleet?sslmode=disable"
		}, ""},
		{"postgres key value dsn", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "host=db dbname=fleet sslmode=disable"
		}, ""},
		{"postgres with duckdb path", func(c *Config) { c.Database.Driver = "postgres" }, "DB_DSN is invalid"},
		{"postgres wrong scheme", func(c *Config) {
			c.Database.Driver = "postgres"
			c.Database.DSN = "mysql://db/fleet"
		}, "scheme must be one of"},
		{"nats bad scheme", func(c *Config) {
			c.Events.Backend = "nats"
			c.Events.NATSURL = "http://localhost:4222"
		}, "NATS_URL"},
		{"unknown backend", func(c *Config) { c.Events.Backend = "kafka" }, "EVENTS_BACKEND"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"sync timeout below request timeout", func(c *Config) { c.Server.SyncTimeout = 5 * time.Second }, "HTTP_SYNC_TIMEOUT"},
		{"rate limit disabled skips checks", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"zero audit retention", func(c *Config) { c.Audit.Retention = 0 }, "AUDIT_RETENTION"},
		{"audit disabled skips checks", func(c *Config) {
			c.Audit.Enabled = false
			c.Audit.BufferSize = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assertNoError(t, err, tt.name)
				return
			}
			assertError(t, err, tt.wantErr, tt.name)
		})
	}
}

func TestTokenConfigMinInterval(t *testing.T) {
	tests := []struct {
		cfg  TokenConfig
		want time.Duration
	}{
		{TokenConfig{AuthWindow: 60 * time.Second, AuthMaxCalls: 2, AuthIntervalMargin: time.Second}, 31 * time.Second},
		{TokenConfig{AuthWindow: 60 * time.Second, AuthMaxCalls: 1}, 60 * time.Second},
		{TokenConfig{AuthWindow: 10 * time.Second, AuthMaxCalls: 0, AuthIntervalMargin: time.Second}, 11 * time.Second},
	}
	for _, tt := range tests {
		if got := tt.cfg.MinInterval(); got != tt.want {
			t.Errorf("MinInterval(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestBoundsContains(t *testing.T) {
	var zero BoundsConfig
	if !zero.Contains(89, 179) {
		t.Error("zero bounds should accept everything")
	}

	b := BoundsConfig{MinLat: -11, MaxLat: 6, MinLng: 95, MaxLng: 141}
	if !b.Contains(-11, 95) {
		t.Error("bounds should be inclusive at the corner")
	}
	if b.Contains(7, 100) {
		t.Error("latitude north of box should be rejected")
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
}
