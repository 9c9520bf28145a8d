// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/database"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
	syncpkg "github.com/tomtom215/motortrack/internal/sync"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	devices  map[int64]models.Device
	listErr  error
	pingErr  error
	listHook func(context.Context)
}

func (f *fakeStore) ListDevices(ctx context.Context) ([]models.Device, error) {
	if f.listHook != nil {
		f.listHook(ctx)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Device, 0, len(f.devices))
	for id := int64(1); id <= int64(len(f.devices)); id++ {
		if d, ok := f.devices[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDevice(_ context.Context, id int64) (*models.Device, error) {
	d, ok := f.devices[id]
	if !ok {
		return nil, fmt.Errorf("device %d: %w", id, database.ErrDeviceNotFound)
	}
	return &d, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakeSync struct {
	syncAll    func(context.Context) models.SyncRun
	syncOne    func(context.Context, int64) (*models.DeviceResult, error)
	updateLoc  func(context.Context, int64, float64, float64) (*models.Device, error)
	lastSync   time.Time
	lastRun    *models.SyncRun
	nextSyncIn time.Duration
	failures   int
	running    bool
}

func (f *fakeSync) SyncAll(ctx context.Context) models.SyncRun { return f.syncAll(ctx) }
func (f *fakeSync) SyncOne(ctx context.Context, id int64) (*models.DeviceResult, error) {
	return f.syncOne(ctx, id)
}
func (f *fakeSync) UpdateLocationManually(ctx context.Context, id int64, lat, lng float64) (*models.Device, error) {
	return f.updateLoc(ctx, id, lat, lng)
}
func (f *fakeSync) LastSyncTime() time.Time { return f.lastSync }
func (f *fakeSync) LastRun() *models.SyncRun { return f.lastRun }
func (f *fakeSync) NextSyncIn() time.Duration { return f.nextSyncIn }
func (f *fakeSync) ConsecutiveFailures() int { return f.failures }
func (f *fakeSync) IsRunning() bool { return f.running }

type fakeTokens struct {
	cred        provider.Credential
	valid       bool
	refresh     func(context.Context) (provider.Credential, error)
	invalidated int
	queue       provider.QueueStatus
}

func (f *fakeTokens) Cached() (provider.Credential, bool) { return f.cred, f.valid }
func (f *fakeTokens) Refresh(ctx context.Context) (provider.Credential, error) {
	return f.refresh(ctx)
}
func (f *fakeTokens) Invalidate() { f.invalidated++ }
func (f *fakeTokens) QueueStatus() provider.QueueStatus { return f.queue }

type fakeProvider struct {
	listDevices func(context.Context) ([]provider.DeviceInfo, error)
	mileage     func(context.Context, string, time.Time, time.Time) (*provider.Mileage, error)
	status      func(context.Context, string) (*provider.VehicleStatus, error)
	accessible  bool
	breaker     string
}

func (f *fakeProvider) ListDevices(ctx context.Context) ([]provider.DeviceInfo, error) {
	return f.listDevices(ctx)
}
func (f *fakeProvider) GetMileage(ctx context.Context, imei string, from, to time.Time) (*provider.Mileage, error) {
	return f.mileage(ctx, imei, from, to)
}
func (f *fakeProvider) GetVehicleStatus(ctx context.Context, imei string) (*provider.VehicleStatus, error) {
	return f.status(ctx, imei)
}
func (f *fakeProvider) APIAccessible() bool { return f.accessible }
func (f *fakeProvider) BreakerState() string { return f.breaker }

type apiFixture struct {
	store    *fakeStore
	sync     *fakeSync
	tokens   *fakeTokens
	provider *fakeProvider
	clock    *clockwork.FakeClock
	handler  *Handler
	server   http.Handler
}

func strPtr(s string) *string { return &s }

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	lastUpdate := testNow.Add(-90 * time.Second)
	lat, lng := -6.2, 106.8
	f := &apiFixture{
		store: &fakeStore{devices: map[int64]models.Device{
			1: {ID: 1, Name: "B 1234 XY", IMEI: strPtr("860000000000001"), Status: "active",
				Lat: &lat, Lng: &lng, LastUpdate: &lastUpdate, GPSStatus: models.GPSOnline},
			2: {ID: 2, Name: "B 5678 XY", Status: "maintenance"},
		}},
		sync: &fakeSync{
			syncAll: func(context.Context) models.SyncRun { return models.SyncRun{} },
			syncOne: func(context.Context, int64) (*models.DeviceResult, error) { return nil, nil },
			updateLoc: func(context.Context, int64, float64, float64) (*models.Device, error) {
				return nil, errors.New("unexpected call")
			},
			lastSync: testNow.Add(-time.Minute),
		},
		tokens: &fakeTokens{
			cred:  provider.Credential{Value: "tok-abcdefgh-1234", AcquiredAt: testNow.Add(-10 * time.Minute), TTL: time.Hour},
			valid: true,
		},
		provider: &fakeProvider{accessible: true, breaker: "closed"},
		clock:    clockwork.NewFakeClockAt(testNow),
	}

	cfg := &config.Config{}
	cfg.Sync.Interval = time.Minute
	cfg.Sync.MaxInterval = 5 * time.Minute
	cfg.Server.Timeout = 30 * time.Second

	f.handler = NewHandler(cfg, f.store, f.sync, f.tokens, f.provider, nil, f.clock)
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	f.server = NewRouter(f.handler, mw).SetupChi()
	return f
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var resp testResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, resp
}

func checkError(t *testing.T, rec *httptest.ResponseRecorder, resp testResponse, wantStatus int, wantCode string) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, wantStatus, rec.Body.String())
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Message == "" {
		t.Error("failure responses must carry a message")
	}
	if resp.Error == nil || resp.Error.Code != wantCode {
		t.Errorf("error = %+v, want code %s", resp.Error, wantCode)
	}
}

func TestMotorsListsDevicesWithAge(t *testing.T) {
	f := newAPIFixture(t)
	rec, resp := f.do(t, http.MethodGet, "/api/v1/motors", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var devices []map[string]any
	if err := json.Unmarshal(resp.Data, &devices); err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(devices))
	}
	if devices[0]["last_update_age"] != float64(90) {
		t.Errorf("age = %v, want 90", devices[0]["last_update_age"])
	}
	if devices[1]["last_update_age"] != nil {
		t.Errorf("never-updated device age = %v, want null", devices[1]["last_update_age"])
	}
	for _, key := range []string{"id", "name", "imei", "status", "lat", "lng", "last_update", "gps_status", "last_known_address"} {
		if _, ok := devices[0][key]; !ok {
			t.Errorf("device is missing %q", key)
		}
	}
}

func TestMotorsDatabaseError(t *testing.T) {
	f := newAPIFixture(t)
	f.store.listErr = errors.New("connection reset")
	rec, resp := f.do(t, http.MethodGet, "/api/v1/motors", "")
	checkError(t, rec, resp, http.StatusInternalServerError, ErrCodeDatabase)
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Error("internal error text leaked to the client")
	}
}

func TestSyncMotors(t *testing.T) {
	f := newAPIFixture(t)
	f.sync.syncAll = func(context.Context) models.SyncRun {
		return models.SyncRun{Success: 4, Failed: 1, Total: 5, Errors: []string{"device 3: boom"}}
	}
	rec, resp := f.do(t, http.MethodPost, "/api/v1/motors/sync", "")
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var run models.SyncRun
	if err := json.Unmarshal(resp.Data, &run); err != nil {
		t.Fatal(err)
	}
	if run.Success != 4 || run.Failed != 1 || run.Total != 5 {
		t.Errorf("run = %+v", run)
	}
}

func TestSyncRoutesUseSyncTimeout(t *testing.T) {
	f := newAPIFixture(t)
	f.handler.config.Server.SyncTimeout = 15 * time.Minute
	f.server = NewRouter(f.handler, NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})).SetupChi()

	remaining := func(ctx context.Context) time.Duration {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Error("request context has no deadline")
			return 0
		}
		return time.Until(deadline)
	}

	var syncAllLeft, syncOneLeft time.Duration
	f.sync.syncAll = func(ctx context.Context) models.SyncRun {
		syncAllLeft = remaining(ctx)
		return models.SyncRun{}
	}
	f.sync.syncOne = func(ctx context.Context, id int64) (*models.DeviceResult, error) {
		syncOneLeft = remaining(ctx)
		return &models.DeviceResult{DeviceID: id, GPSStatus: models.GPSOnline}, nil
	}

	if rec, _ := f.do(t, http.MethodPost, "/api/v1/motors/sync", ""); rec.Code != http.StatusOK {
		t.Fatalf("sync all status = %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/api/v1/motors/1/sync", ""); rec.Code != http.StatusOK {
		t.Fatalf("sync one status = %d", rec.Code)
	}

	for name, left := range map[string]time.Duration{"sync all": syncAllLeft, "sync one": syncOneLeft} {
		if left < 14*time.Minute {
			t.Errorf("%s deadline in %v, want the 15m sync timeout", name, left)
		}
	}

	var listLeft time.Duration
	f.store.listHook = func(ctx context.Context) { listLeft = remaining(ctx) }
	if rec, _ := f.do(t, http.MethodGet, "/api/v1/motors", ""); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if listLeft > 30*time.Second {
		t.Errorf("list deadline in %v, want the 30s request timeout", listLeft)
	}
}

func TestSyncMotorsSkipped(t *testing.T) {
	f := newAPIFixture(t)
	f.sync.syncAll = func(context.Context) models.SyncRun { return models.SyncRun{Skipped: true} }
	rec, resp := f.do(t, http.MethodPost, "/api/v1/motors/sync", "")
	checkError(t, rec, resp, http.StatusConflict, ErrCodeSyncRunning)
}

func TestSyncMotor(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		syncOne    func(context.Context, int64) (*models.DeviceResult, error)
		wantStatus int
		wantCode   string
	}{
		{
			name: "synced",
			path: "/api/v1/motors/1/sync",
			syncOne: func(_ context.Context, id int64) (*models.DeviceResult, error) {
				return &models.DeviceResult{DeviceID: id, GPSStatus: models.GPSOnline}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad id",
			path:       "/api/v1/motors/abc/sync",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "non-positive id",
			path:       "/api/v1/motors/0/sync",
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name: "unknown device",
			path: "/api/v1/motors/99/sync",
			syncOne: func(context.Context, int64) (*models.DeviceResult, error) {
				return nil, fmt.Errorf("device 99: %w", database.ErrDeviceNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name: "busy",
			path: "/api/v1/motors/1/sync",
			syncOne: func(context.Context, int64) (*models.DeviceResult, error) {
				return nil, syncpkg.ErrDeviceBusy
			},
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeSyncRunning,
		},
		{
			name: "no imei",
			path: "/api/v1/motors/2/sync",
			syncOne: func(_ context.Context, id int64) (*models.DeviceResult, error) {
				return &models.DeviceResult{DeviceID: id, GPSStatus: models.GPSNoImei, Reason: "no_imei"},
					&provider.Error{Kind: provider.KindValidation, Op: syncpkg.OpSync, Err: syncpkg.ErrNoIMEI}
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name: "provider down",
			path: "/api/v1/motors/1/sync",
			syncOne: func(_ context.Context, id int64) (*models.DeviceResult, error) {
				return &models.DeviceResult{DeviceID: id, GPSStatus: models.GPSError, Reason: "request_failed"},
					fmt.Errorf("failed to fetch location: %w", &provider.Error{Kind: provider.KindTransient, Err: provider.ErrCircuitOpen})
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			if tt.syncOne != nil {
				f.sync.syncOne = tt.syncOne
			}
			rec, resp := f.do(t, http.MethodPost, tt.path, "")
			if tt.wantCode == "" {
				if rec.Code != tt.wantStatus || !resp.Success {
					t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
				}
				return
			}
			checkError(t, rec, resp, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestSyncMotorFailureCarriesDecidedStatus(t *testing.T) {
	f := newAPIFixture(t)
	f.sync.syncOne = func(_ context.Context, id int64) (*models.DeviceResult, error) {
		return &models.DeviceResult{DeviceID: id, GPSStatus: models.GPSNoImei, Reason: "no_imei"},
			&provider.Error{Kind: provider.KindValidation, Err: syncpkg.ErrNoIMEI}
	}
	_, resp := f.do(t, http.MethodPost, "/api/v1/motors/2/sync", "")
	if resp.Error == nil || resp.Error.Details["gps_status"] != "no_imei" {
		t.Errorf("details = %+v", resp.Error)
	}
}

func TestUpdateLocation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantLat    float64
		wantLng    float64
	}{
		{name: "valid", body: `{"lat": -6.21, "lng": 106.85}`, wantStatus: http.StatusOK, wantLat: -6.21, wantLng: 106.85},
		{name: "zero is passed through", body: `{"lat": 0, "lng": 0}`, wantStatus: http.StatusOK},
		{name: "not json", body: `lat=1`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "missing lng", body: `{"lat": 1}`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "lat out of range", body: `{"lat": 91, "lng": 0}`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "lng out of range", body: `{"lat": 0, "lng": -181}`, wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			called := false
			f.sync.updateLoc = func(_ context.Context, id int64, lat, lng float64) (*models.Device, error) {
				called = true
				if id != 1 || lat != tt.wantLat || lng != tt.wantLng {
					t.Errorf("UpdateLocationManually(%d, %v, %v)", id, lat, lng)
				}
				status := models.GPSOnline
				if lat == 0 && lng == 0 {
					status = models.GPSOffline
				}
				d := f.store.devices[1]
				d.GPSStatus = status
				return &d, nil
			}

			rec, resp := f.do(t, http.MethodPut, "/api/v1/motors/1/location", tt.body)
			if tt.wantCode != "" {
				checkError(t, rec, resp, tt.wantStatus, tt.wantCode)
				if called {
					t.Error("engine should not be called for an invalid body")
				}
				return
			}
			if rec.Code != tt.wantStatus || !called {
				t.Fatalf("status = %d, called = %v", rec.Code, called)
			}
		})
	}
}

func TestUpdateLocationUnknownDevice(t *testing.T) {
	f := newAPIFixture(t)
	f.sync.updateLoc = func(context.Context, int64, float64, float64) (*models.Device, error) {
		return nil, database.ErrDeviceNotFound
	}
	rec, resp := f.do(t, http.MethodPut, "/api/v1/motors/42/location", `{"lat": 1, "lng": 100}`)
	checkError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
}

func TestTokenIsMasked(t *testing.T) {
	f := newAPIFixture(t)
	rec, resp := f.do(t, http.MethodGet, "/api/v1/token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var info models.TokenInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		t.Fatal(err)
	}
	if !info.Valid || info.Token != "****1234" {
		t.Errorf("token info = %+v", info)
	}
	if strings.Contains(rec.Body.String(), "tok-abcdefgh") {
		t.Error("raw token leaked")
	}
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(testNow.Add(50*time.Minute)) {
		t.Errorf("expires_at = %v", info.ExpiresAt)
	}
}

func TestRefreshToken(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantRetryAfter string
	}{
		{name: "refreshed", wantStatus: http.StatusOK},
		{
			name:           "rate limited",
			err:            &provider.Error{Kind: provider.KindRateLimit, Op: "auth", Err: provider.ErrRateLimited, RetryAfter: 30500 * time.Millisecond},
			wantStatus:     http.StatusTooManyRequests,
			wantCode:       ErrCodeRateLimited,
			wantRetryAfter: "31",
		},
		{
			name:       "credentials missing",
			err:        &provider.Error{Kind: provider.KindConfiguration, Op: "auth", Err: provider.ErrMissingCredentials},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeConfiguration,
		},
		{
			name:       "rejected",
			err:        &provider.Error{Kind: provider.KindAuth, Op: "auth", Err: provider.ErrUnauthorized},
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeProviderAuth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.tokens.refresh = func(context.Context) (provider.Credential, error) {
				if tt.err != nil {
					return provider.Credential{}, tt.err
				}
				return provider.Credential{Value: "new-token-5678", AcquiredAt: testNow, TTL: time.Hour}, nil
			}
			rec, resp := f.do(t, http.MethodPost, "/api/v1/token/refresh", "")
			if tt.wantCode == "" {
				if rec.Code != tt.wantStatus || !resp.Success {
					t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
				}
				return
			}
			checkError(t, rec, resp, tt.wantStatus, tt.wantCode)
			if got := rec.Header().Get("Retry-After"); got != tt.wantRetryAfter {
				t.Errorf("Retry-After = %q, want %q", got, tt.wantRetryAfter)
			}
		})
	}
}

func TestClearTokenAndQueue(t *testing.T) {
	f := newAPIFixture(t)
	rec, _ := f.do(t, http.MethodDelete, "/api/v1/token", "")
	if rec.Code != http.StatusOK || f.tokens.invalidated != 1 {
		t.Errorf("status = %d, invalidated = %d", rec.Code, f.tokens.invalidated)
	}

	f.tokens.queue = provider.QueueStatus{Length: 3, IsProcessing: true}
	_, resp := f.do(t, http.MethodGet, "/api/v1/token/queue", "")
	var q provider.QueueStatus
	if err := json.Unmarshal(resp.Data, &q); err != nil {
		t.Fatal(err)
	}
	if q.Length != 3 || !q.IsProcessing {
		t.Errorf("queue = %+v", q)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *apiFixture)
		wantState  models.HealthState
		wantStatus int
	}{
		{name: "healthy", setup: func(*apiFixture) {}, wantState: models.HealthHealthy, wantStatus: http.StatusOK},
		{name: "database down", setup: func(f *apiFixture) { f.store.pingErr = errors.New("down") },
			wantState: models.HealthUnhealthy, wantStatus: http.StatusServiceUnavailable},
		{name: "no token", setup: func(f *apiFixture) { f.tokens.valid = false },
			wantState: models.HealthDegraded, wantStatus: http.StatusOK},
		{name: "provider inaccessible", setup: func(f *apiFixture) { f.provider.accessible = false },
			wantState: models.HealthDegraded, wantStatus: http.StatusOK},
		{name: "stale sync", setup: func(f *apiFixture) { f.sync.lastSync = testNow.Add(-16 * time.Minute) },
			wantState: models.HealthDegraded, wantStatus: http.StatusOK},
		{name: "sync within three max intervals", setup: func(f *apiFixture) { f.sync.lastSync = testNow.Add(-14 * time.Minute) },
			wantState: models.HealthHealthy, wantStatus: http.StatusOK},
		{name: "never synced", setup: func(f *apiFixture) { f.sync.lastSync = time.Time{} },
			wantState: models.HealthHealthy, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.sync.nextSyncIn = 45 * time.Second
			f.sync.failures = 2
			tt.setup(f)

			rec, resp := f.do(t, http.MethodGet, "/api/v1/health", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var health models.HealthStatus
			if err := json.Unmarshal(resp.Data, &health); err != nil {
				t.Fatal(err)
			}
			if health.Status != tt.wantState {
				t.Errorf("health = %s, want %s", health.Status, tt.wantState)
			}
			if health.NextSyncInSeconds != 45 || health.ConsecutiveFailures != 2 || health.CircuitBreaker != "closed" {
				t.Errorf("health detail = %+v", health)
			}
		})
	}
}

func TestHealthProbes(t *testing.T) {
	f := newAPIFixture(t)
	if rec, _ := f.do(t, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready = %d", rec.Code)
	}

	f.store.pingErr = errors.New("down")
	rec, resp := f.do(t, http.MethodGet, "/api/v1/health/ready", "")
	checkError(t, rec, resp, http.StatusServiceUnavailable, ErrCodeNotAvailable)
	if rec, _ := f.do(t, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live must not depend on the database, got %d", rec.Code)
	}
}

func TestProviderDevices(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.listDevices = func(context.Context) ([]provider.DeviceInfo, error) {
		return []provider.DeviceInfo{{IMEI: "860000000000001", DeviceName: "B 1234 XY"}}, nil
	}
	rec, resp := f.do(t, http.MethodGet, "/api/v1/provider/devices", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(resp.Data), "860000000000001") {
		t.Errorf("status = %d, data %s", rec.Code, resp.Data)
	}
}

func TestMileage(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "ok", path: "/api/v1/motors/1/mileage?from=2026-02-01T00:00:00Z&to=2026-02-02T00:00:00Z", wantStatus: http.StatusOK},
		{name: "bad timestamp", path: "/api/v1/motors/1/mileage?from=yesterday&to=2026-02-02T00:00:00Z",
			wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "missing to", path: "/api/v1/motors/1/mileage?from=2026-02-01T00:00:00Z",
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "range too long", path: "/api/v1/motors/1/mileage?from=2026-01-01T00:00:00Z&to=2026-03-01T00:00:00Z",
			wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "device without imei", path: "/api/v1/motors/2/mileage?from=2026-02-01T00:00:00Z&to=2026-02-02T00:00:00Z",
			wantStatus: http.StatusBadRequest, wantCode: ErrCodeValidation},
		{name: "unknown device", path: "/api/v1/motors/9/mileage?from=2026-02-01T00:00:00Z&to=2026-02-02T00:00:00Z",
			wantStatus: http.StatusNotFound, wantCode: ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.provider.mileage = func(_ context.Context, imei string, from, to time.Time) (*provider.Mileage, error) {
				if imei != "860000000000001" || to.Sub(from) != 24*time.Hour {
					t.Errorf("GetMileage(%s, %v, %v)", imei, from, to)
				}
				return &provider.Mileage{IMEI: imei}, nil
			}
			rec, resp := f.do(t, http.MethodGet, tt.path, "")
			if tt.wantCode == "" {
				if rec.Code != tt.wantStatus {
					t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
				}
				return
			}
			checkError(t, rec, resp, tt.wantStatus, tt.wantCode)
		})
	}
}

func TestVehicleStatusProviderError(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.status = func(context.Context, string) (*provider.VehicleStatus, error) {
		return nil, &provider.Error{Kind: provider.KindNotFound, Op: "status", Err: errors.New("unknown imei")}
	}
	rec, resp := f.do(t, http.MethodGet, "/api/v1/motors/1/vehicle-status", "")
	checkError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
}

func TestWebSocketDisabled(t *testing.T) {
	f := newAPIFixture(t)
	rec, resp := f.do(t, http.MethodGet, "/api/v1/ws", "")
	checkError(t, rec, resp, http.StatusServiceUnavailable, ErrCodeNotAvailable)
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t)
	rec, resp := f.do(t, http.MethodGet, "/api/v1/nope", "")
	checkError(t, rec, resp, http.StatusNotFound, ErrCodeNotFound)
}

func TestSecurityHeaders(t *testing.T) {
	f := newAPIFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/api/v1/motors", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("headers = %v", rec.Header())
	}
}
