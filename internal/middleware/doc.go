// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package middleware holds the HTTP middleware shared by the API router:
// request ids wired into the logging context, and Prometheus request
// instrumentation keyed by chi route pattern.
//
// Both are plain func(http.Handler) http.Handler and mount with chi's Use:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
package middleware
