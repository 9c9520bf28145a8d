// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/motortrack/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}

	if err := c.validateToken(); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateAudit(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateProvider() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("GPS_BASE_URL is required")
	}
	if err := validateHTTPURL(c.Provider.BaseURL, "GPS_BASE_URL"); err != nil {
		return fmt.Errorf("GPS_BASE_URL is invalid: %w", err)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("GPS_TIMEOUT must be positive, got %v", c.Provider.Timeout)
	}
	if c.Provider.MaxRetries < 0 {
		return fmt.Errorf("GPS_MAX_RETRIES must be non-negative, got %d", c.Provider.MaxRetries)
	}
	if c.Provider.RetryBaseDelay < 0 {
		return fmt.Errorf("GPS_RETRY_BASE_DELAY must be non-negative, got %v", c.Provider.RetryBaseDelay)
	}
	if _, err := time.LoadLocation(c.Provider.Timezone); err != nil {
		return fmt.Errorf("GPS_TIMEZONE is invalid: %w", err)
	}
	return c.validateEndpoints()
}

func (c *Config) validateEndpoints() error {
	paths := map[string]string{
		"GPS_AUTH_PATH":           c.Provider.Endpoints.Auth,
		"GPS_LOCATION_PATH":       c.Provider.Endpoints.Location,
		"GPS_DEVICE_LIST_PATH":    c.Provider.Endpoints.DeviceList,
		"GPS_MILEAGE_PATH":        c.Provider.Endpoints.Mileage,
		"GPS_VEHICLE_STATUS_PATH": c.Provider.Endpoints.VehicleStatus,
	}
	for name, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, p)
		}
	}
	return nil
}

func (c *Config) validateToken() error {
	if c.Token.AuthWindow <= 0 {
		return fmt.Errorf("TOKEN_AUTH_WINDOW must be positive, got %v", c.Token.AuthWindow)
	}
	if c.Token.AuthMaxCalls < 1 {
		return fmt.Errorf("TOKEN_AUTH_MAX_CALLS must be at least 1, got %d", c.Token.AuthMaxCalls)
	}
	if c.Token.AuthIntervalMargin < 0 {
		return fmt.Errorf("TOKEN_AUTH_INTERVAL_MARGIN must be non-negative, got %v", c.Token.AuthIntervalMargin)
	}
	if c.Token.DefaultTTL <= 0 {
		return fmt.Errorf("TOKEN_DEFAULT_TTL must be positive, got %v", c.Token.DefaultTTL)
	}
	if c.Token.QueueTimeout <= 0 {
		return fmt.Errorf("TOKEN_QUEUE_TIMEOUT must be positive, got %v", c.Token.QueueTimeout)
	}
	return nil
}

func (c *Config) validateSync() error {
	s := c.Sync
	if s.Interval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL must be positive, got %v", s.Interval)
	}
	if s.MaxInterval < s.Interval {
		return fmt.Errorf("SYNC_MAX_INTERVAL (%v) must be >= SYNC_INTERVAL (%v)", s.MaxInterval, s.Interval)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1, got %d", s.Concurrency)
	}
	if s.DeviceTimeout <= 0 {
		return fmt.Errorf("SYNC_DEVICE_TIMEOUT must be positive, got %v", s.DeviceTimeout)
	}
	if len(s.OperationalStatuses) == 0 {
		return fmt.Errorf("SYNC_OPERATIONAL_STATUSES must list at least one status")
	}
	if s.StagnationMatches > s.StagnationSamples {
		return fmt.Errorf("SYNC_STAGNATION_MATCHES (%d) cannot exceed SYNC_STAGNATION_SAMPLES (%d)",
			s.StagnationMatches, s.StagnationSamples)
	}
	if s.CoordinateTolerance < 0 {
		return fmt.Errorf("SYNC_COORDINATE_TOLERANCE must be non-negative, got %v", s.CoordinateTolerance)
	}
	return c.validateBounds()
}

func (c *Config) validateBounds() error {
	b := c.Sync.Bounds
	if b.IsZero() {
		return nil
	}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return fmt.Errorf("SYNC_BOUNDS min values must not exceed max values")
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLng < -180 || b.MaxLng > 180 {
		return fmt.Errorf("SYNC_BOUNDS must lie within [-90,90] x [-180,180]")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be duckdb or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Database.Driver == "postgres" {
		if err := validatePostgresDSN(c.Database.DSN); err != nil {
			return fmt.Errorf("DB_DSN is invalid for postgres: %w", err)
		}
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case "gochannel":
	case "nats":
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be gochannel or nats, got %q", c.Events.Backend)
	}
	if c.Events.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX cannot be empty")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.SyncTimeout < c.Server.Timeout {
		return fmt.Errorf("HTTP_SYNC_TIMEOUT must be at least HTTP_TIMEOUT (%v), got %v", c.Server.Timeout, c.Server.SyncTimeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateAudit() error {
	if !c.Audit.Enabled {
		return nil
	}
	if c.Audit.Retention <= 0 {
		return fmt.Errorf("AUDIT_RETENTION must be positive, got %v", c.Audit.Retention)
	}
	if c.Audit.CleanupInterval <= 0 {
		return fmt.Errorf("AUDIT_CLEANUP_INTERVAL must be positive, got %v", c.Audit.CleanupInterval)
	}
	if c.Audit.BufferSize < 1 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE must be at least 1, got %d", c.Audit.BufferSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
