// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/motortrack/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewHTTPClient(srv.URL+"/", time.Second)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("localhost:8080", time.Second)
	assert.Error(t, err)

	_, err = NewHTTPClient("ftp://example.com", time.Second)
	assert.Error(t, err)
}

func TestHTTPClient_UnwrapsEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/motors/sync", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"message":"sync completed","data":{"success":3,"failed":1,"total":4,"duration_ms":1200,"errors":["device 7: timeout"],"skipped":false,"trigger":"manual"},"metadata":{"timestamp":"2026-03-01T12:00:00Z"}}`)
	})

	run, err := c.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, run.Success)
	assert.Equal(t, 4, run.Total)
	assert.Equal(t, int64(1200), run.DurationMS)
	assert.Equal(t, []string{"device 7: timeout"}, run.Errors)
}

func TestHTTPClient_FailureEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/motors/42/sync", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"success":false,"data":null,"metadata":{},"error":{"code":"VALIDATION_ERROR","message":"device has no IMEI","details":{"device_id":42,"reason":"no_imei"}}}`)
	})

	_, err := c.SyncOne(context.Background(), 42)
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusUnprocessableEntity, rerr.Status)
	assert.Equal(t, "VALIDATION_ERROR", rerr.Code)
	assert.Contains(t, err.Error(), "device has no IMEI")

	reason, ok := errorDetail(err)
	assert.True(t, ok)
	assert.Equal(t, "no_imei", reason)
}

func TestHTTPClient_UnhealthyStillReturnsStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"success":false,"message":"database unreachable","data":{"status":"unhealthy","database_connected":false,"circuit_breaker":"closed"},"metadata":{},"error":{"code":"DATABASE_ERROR","message":"database unreachable"}}`)
	})

	status, err := c.Health(context.Background())
	require.Error(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.HealthUnhealthy, status.Status)
	assert.False(t, status.DatabaseConnected)
}

func TestHTTPClient_UpdateLocationSendsBody(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"lat":-6.2,"lng":106.8}`, string(body))
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":5,"name":"B 1234 XY","gps_status":"online","lat":-6.2,"lng":106.8,"last_update_age":0},"metadata":{}}`)
	})

	device, err := c.UpdateLocation(context.Background(), 5, -6.2, 106.8)
	require.NoError(t, err)
	assert.Equal(t, int64(5), device.ID)
	assert.Equal(t, models.GPSOnline, device.GPSStatus)
}

func TestHTTPClient_MalformedResponse(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream connect error")
	})

	_, err := c.Motors(context.Background())
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusBadGateway, rerr.Status)
	assert.Contains(t, rerr.Message, "upstream connect error")
}

func TestHTTPClient_ClearTokenAndQueue(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/token":
			assert.Equal(t, http.MethodDelete, r.Method)
			_, _ = io.WriteString(w, `{"success":true,"message":"token cache cleared","data":{"token":"","valid":false},"metadata":{}}`)
		case "/api/v1/token/queue":
			_, _ = io.WriteString(w, `{"success":true,"data":{"length":2,"is_processing":true},"metadata":{}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	require.NoError(t, c.ClearToken(context.Background()))
	q, err := c.TokenQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, q.Length)
	assert.True(t, q.IsProcessing)
}

func TestHTTPClient_AuditEventsQuery(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/audit", r.URL.Path)
		assert.Equal(t, "token.clear", r.URL.Query().Get("type"))
		assert.Equal(t, "", r.URL.Query().Get("device_id"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"e1","timestamp":"2026-03-01T12:00:00Z","type":"token.clear","outcome":"success","source_ip":"10.0.0.1","description":"provider token cache cleared"}],"metadata":{}}`)
	})

	events, err := c.AuditEvents(context.Background(), "token.clear", 0, 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Nil(t, events[0].DeviceID)
}
