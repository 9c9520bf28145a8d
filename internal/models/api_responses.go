// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package models

import (
	"time"
)

// APIResponse is the envelope returned by every HTTP endpoint.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": {"success": 4, "failed": 1, "total": 5},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "message": "device 99 not found",
//	  "error": {"code": "NOT_FOUND", "message": "device 99 not found"},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMITED: Provider or inbound rate limit reached
//   - PROVIDER_AUTH_ERROR: Provider rejected our credentials
//   - PROVIDER_UNAVAILABLE: Provider unreachable or failing
//   - CONFIGURATION_ERROR: Provider credentials missing
//   - SYNC_IN_PROGRESS: A pass is already running
//   - DATABASE_ERROR: Repository failure
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthState is the overall service health.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// HealthStatus is returned by GET /api/v1/health.
type HealthStatus struct {
	Status              HealthState `json:"status"`
	TokenValid          bool        `json:"token_valid"`
	APIAccessible       bool        `json:"api_accessible"`
	DatabaseConnected   bool        `json:"database_connected"`
	LastSync            *time.Time  `json:"last_sync"`
	NextSyncInSeconds   float64     `json:"next_sync_in"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	CircuitBreaker      string      `json:"circuit_breaker"`
	Version             string      `json:"version,omitempty"`
}

// TokenInfo is the masked view of the provider credential.
type TokenInfo struct {
	Token      string     `json:"token"`
	AcquiredAt *time.Time `json:"acquired_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Valid      bool       `json:"valid"`
}
