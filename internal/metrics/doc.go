// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package metrics provides Prometheus instrumentation for Motortrack.

All collectors are registered with the default registry through promauto and
exposed by the API router at /metrics. Callers use the Record* helpers rather
than touching collectors directly, so label sets stay consistent.

# Metric Families

  - motortrack_db_*: repository query latency and errors
  - motortrack_api_*: inbound HTTP requests
  - motortrack_provider_*: outbound GPS provider attempts and retries
  - motortrack_token_*: auth calls, waiting callers and credential expiry
  - motortrack_sync_*: pass duration, per-device outcomes, adaptive interval
  - motortrack_device_status_decisions_total: GPS status decisions by reason
  - motortrack_cache_*: TTL cache efficiency by namespace
  - motortrack_events_*: domain event publishing
  - motortrack_websocket_*: dashboard connections
  - motortrack_circuit_breaker_*: provider breaker state

# Example Queries

Provider error rate:

	sum(rate(motortrack_provider_requests_total{outcome!="success"}[5m]))
	  / sum(rate(motortrack_provider_requests_total[5m]))

Devices failing per pass:

	rate(motortrack_sync_devices_total{result="failure"}[15m])

Auth calls per minute (must stay at or below the provider limit):

	sum(increase(motortrack_token_acquisitions_total[1m]))
*/
package metrics
