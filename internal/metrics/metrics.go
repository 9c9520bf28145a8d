// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motortrack_db_query_duration_seconds",
			Help:    "Duration of repository queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_db_query_errors_total",
			Help: "Total number of repository query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motortrack_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// GPS Provider Metrics
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_provider_requests_total",
			Help: "Total number of provider API attempts by outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, unauthorized, rate_limited, not_found, invalid, transient, rejected
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "motortrack_provider_request_duration_seconds",
			Help:    "Duration of provider API attempts in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	ProviderRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_provider_retries_total",
			Help: "Total number of provider retries by reason",
		},
		[]string{"endpoint", "reason"},
	)

	// Token Lease Metrics
	TokenAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_token_acquisitions_total",
			Help: "Total number of provider auth calls by result",
		},
		[]string{"result"}, // success, failure
	)

	TokenQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_token_queue_length",
			Help: "Callers currently waiting for a credential",
		},
	)

	TokenExpiry = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_token_expiry_timestamp",
			Help: "Unix timestamp at which the cached credential is treated as expired",
		},
	)

	TokenQueueTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "motortrack_token_queue_timeouts_total",
			Help: "Total number of callers that gave up waiting for a credential",
		},
	)

	// Sync Operation Metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "motortrack_sync_duration_seconds",
			Help:    "Duration of sync passes in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_sync_runs_total",
			Help: "Total number of sync passes by result",
		},
		[]string{"result"}, // success, failure, skipped
	)

	SyncDevices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_sync_devices_total",
			Help: "Total number of per-device sync outcomes",
		},
		[]string{"result"}, // success, failure
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync pass",
		},
	)

	SyncInterval = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_sync_interval_seconds",
			Help: "Delay until the next scheduled sync pass",
		},
	)

	SyncConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_sync_consecutive_failures",
			Help: "Consecutive failed sync passes",
		},
	)

	DeviceStatusDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_device_status_decisions_total",
			Help: "Total number of GPS status decisions by status and reason",
		},
		[]string{"status", "reason"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // token, location, event
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "motortrack_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_cache_evictions_total",
			Help: "Total number of cache evictions (TTL expiry)",
		},
		[]string{"cache_type"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"topic"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_events_publish_failed_total",
			Help: "Total number of domain events that failed to publish",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "motortrack_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "motortrack_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "motortrack_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Audit Metrics
	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "motortrack_audit_events_total",
			Help: "Total number of operator audit entries by outcome",
		},
		[]string{"result"}, // result: saved, dropped, failed
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "motortrack_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a repository query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordProviderRequest records a single provider attempt.
func RecordProviderRequest(endpoint, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordProviderRetry records a retry decision.
func RecordProviderRetry(endpoint, reason string) {
	ProviderRetries.WithLabelValues(endpoint, reason).Inc()
}

// RecordTokenAttempt records an auth call outcome.
func RecordTokenAttempt(err error) {
	if err != nil {
		TokenAcquisitions.WithLabelValues("failure").Inc()
		return
	}
	TokenAcquisitions.WithLabelValues("success").Inc()
}

// SetTokenExpiry publishes the effective expiry of the cached credential.
// A zero time clears the gauge.
func SetTokenExpiry(expiresAt time.Time) {
	if expiresAt.IsZero() {
		TokenExpiry.Set(0)
		return
	}
	TokenExpiry.Set(float64(expiresAt.Unix()))
}

// RecordSyncRun records a completed (or skipped) sync pass.
func RecordSyncRun(duration time.Duration, succeeded, failed int, skipped bool, err error) {
	if skipped {
		SyncRuns.WithLabelValues("skipped").Inc()
		return
	}
	SyncDuration.Observe(duration.Seconds())
	SyncDevices.WithLabelValues("success").Add(float64(succeeded))
	SyncDevices.WithLabelValues("failure").Add(float64(failed))
	if err != nil {
		SyncRuns.WithLabelValues("failure").Inc()
		return
	}
	SyncRuns.WithLabelValues("success").Inc()
	SyncLastSuccess.Set(float64(time.Now().Unix()))
}

// SetSyncSchedule publishes the scheduler's adaptive state.
func SetSyncSchedule(next time.Duration, consecutiveFailures int) {
	SyncInterval.Set(next.Seconds())
	SyncConsecutiveFailures.Set(float64(consecutiveFailures))
}

// RecordStatusDecision records the output of the GPS status decision.
func RecordStatusDecision(status, reason string) {
	if reason == "" {
		reason = "none"
	}
	DeviceStatusDecisions.WithLabelValues(status, reason).Inc()
}

// RecordEventPublish records a publish attempt for a topic. The topic prefix
// is stripped so label cardinality does not depend on deployment naming.
func RecordEventPublish(topic string, err error) {
	if i := strings.Index(topic, "."); i >= 0 {
		topic = topic[i+1:]
	}
	if err != nil {
		EventsPublishFailed.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordCacheAccess records a hit or miss for the given cache.
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
		return
	}
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// CircuitBreakerStateValue maps a breaker state name to the gauge encoding.
func CircuitBreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordCircuitBreakerTransition updates state gauge and transition counter.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(CircuitBreakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
