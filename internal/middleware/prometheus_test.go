// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/motortrack/internal/metrics"
)

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Post("/api/v1/motors/{id}/sync", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	r.Get("/api/v1/motors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	syncCounter := metrics.APIRequestsTotal.WithLabelValues("POST", "/api/v1/motors/{id}/sync", "409")
	listCounter := metrics.APIRequestsTotal.WithLabelValues("GET", "/api/v1/motors", "200")
	syncBefore := testutil.ToFloat64(syncCounter)
	listBefore := testutil.ToFloat64(listCounter)

	for _, path := range []string{"/api/v1/motors/7/sync", "/api/v1/motors/8/sync"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/motors", nil))

	if got := testutil.ToFloat64(syncCounter); got != syncBefore+2 {
		t.Errorf("sync requests = %v, want %v", got, syncBefore+2)
	}
	if got := testutil.ToFloat64(listCounter); got != listBefore+1 {
		t.Errorf("list requests (implicit 200) = %v, want %v", got, listBefore+1)
	}
}

func TestRoutePatternWithoutChi(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	if got := routePattern(req); got != "unmatched" {
		t.Errorf("routePattern = %q, want unmatched", got)
	}
}
