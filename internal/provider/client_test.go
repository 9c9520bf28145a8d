// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// fakeTokens hands out "stale" until invalidated, then "fresh".
type fakeTokens struct {
	mu            sync.Mutex
	invalidations int
	getCredential func(ctx context.Context) (Credential, error)
}

func (f *fakeTokens) GetCredential(ctx context.Context) (Credential, error) {
	if f.getCredential != nil {
		return f.getCredential(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invalidations == 0 {
		return Credential{Value: "stale"}, nil
	}
	return Credential{Value: "fresh"}, nil
}

func (f *fakeTokens) Invalidate() {
	f.mu.Lock()
	f.invalidations++
	f.mu.Unlock()
}

func (f *fakeTokens) invalidated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidations
}

func newTestClient(t *testing.T, handler http.HandlerFunc, clock clockwork.Clock, tune func(*Client)) (*Client, *fakeTokens, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tokens := &fakeTokens{}
	c, err := NewClient(testProviderConfig(srv.URL), tokens, clock)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if tune != nil {
		tune(c)
	}
	return c, tokens, &hits
}

func TestClientGetLocation(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/location" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("imei") != "860000000000001" {
			t.Errorf("imei = %s", r.URL.Query().Get("imei"))
		}
		if r.Header.Get("accessToken") != "stale" {
			t.Errorf("accessToken header = %q", r.Header.Get("accessToken"))
		}
		fmt.Fprint(w, `{"code":0,"lat":"-6.2","lng":106.8,"gpsTime":"2023-11-15 05:13:20","address":"Jl. Sudirman","speed":"12","direction":90}`)
	}, nil, nil)

	loc, err := c.GetLocation(context.Background(), " 860000000000001 ")
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if !loc.HasCoordinates() || loc.Lat.Value != -6.2 || loc.Lng.Value != 106.8 {
		t.Errorf("coordinates = %+v %+v", loc.Lat, loc.Lng)
	}
	fix, ok := loc.GPSTime.In(c.Location())
	if !ok || !fix.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("gps time = %v (ok=%v)", fix, ok)
	}
	if loc.Speed.Value != 12 {
		t.Errorf("speed = %v", loc.Speed)
	}

	stats := c.Stats()
	if stats.TotalSuccess != 1 || !stats.APIAccessible || stats.LastSuccess == nil {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestClientGetLocationRequiresIMEI(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {}, nil, nil)
	if _, err := c.GetLocation(context.Background(), "  "); !IsKind(err, KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("no request should be sent without an imei")
	}
}

func TestClientUnauthorizedRetriesWithFreshToken(t *testing.T) {
	tests := []struct {
		name    string
		respond func(w http.ResponseWriter)
	}{
		{"http 401", func(w http.ResponseWriter) { w.WriteHeader(http.StatusUnauthorized) }},
		{"http 403", func(w http.ResponseWriter) { w.WriteHeader(http.StatusForbidden) }},
		{"unauthorized code", func(w http.ResponseWriter) { fmt.Fprint(w, `{"code":10012,"msg":"denied"}`) }},
		{"token message", func(w http.ResponseWriter) { fmt.Fprint(w, `{"code":1,"msg":"Token has expired"}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tokens, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("accessToken") == "stale" {
					tt.respond(w)
					return
				}
				fmt.Fprint(w, `{"code":0,"lat":1.5,"lng":2.5}`)
			}, nil, nil)

			loc, err := c.GetLocation(context.Background(), "860000000000001")
			if err != nil {
				t.Fatalf("GetLocation: %v", err)
			}
			if loc.Lat.Value != 1.5 {
				t.Errorf("lat = %v", loc.Lat.Value)
			}
			if tokens.invalidated() != 1 {
				t.Errorf("invalidations = %d, want 1", tokens.invalidated())
			}
			if hits.Load() != 2 {
				t.Errorf("hits = %d, want 2", hits.Load())
			}
		})
	}
}

func TestClientNotFoundIsNotRetried(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}, nil, nil)

	_, err := c.GetLocation(context.Background(), "860000000000001")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
	if c.Stats().TotalFailure != 0 {
		t.Error("not found should not count against availability")
	}
}

func TestClientMalformedBody(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html>gateway</html>`)
	}, nil, nil)

	_, err := c.GetLocation(context.Background(), "860000000000001")
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestClientTransientRetries(t *testing.T) {
	var n atomic.Int64
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"code":0,"lat":1,"lng":2}`)
	}, nil, nil)

	if _, err := c.GetLocation(context.Background(), "860000000000001"); err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
}

func TestClientTransientExhausted(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil, nil)

	_, err := c.GetLocation(context.Background(), "860000000000001")
	if !IsKind(err, KindTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if hits.Load() != 4 {
		t.Errorf("hits = %d, want 1 + 3 retries", hits.Load())
	}
	if c.APIAccessible() {
		t.Error("API should be reported inaccessible after only failures")
	}
}

func TestClientBackoffWaitsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	var n atomic.Int64
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"code":0,"lat":1,"lng":2}`)
	}, clock, func(c *Client) { c.cfg.RetryBaseDelay = time.Second })

	done := make(chan error, 1)
	go func() {
		_, err := c.GetLocation(context.Background(), "860000000000001")
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i, delay := range []time.Duration{time.Second, 2 * time.Second} {
		if err := clock.BlockUntilContext(ctx, 1); err != nil {
			t.Fatalf("retry %d never waited: %v", i+1, err)
		}
		if hits.Load() != int64(i+1) {
			t.Fatalf("hits = %d before backoff %d", hits.Load(), i+1)
		}
		clock.Advance(delay)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("GetLocation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request did not finish")
	}
}

func TestClientRateLimitHonorsRetryAfter(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	var n atomic.Int64
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if n.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"code":0,"lat":1,"lng":2}`)
	}, clock, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.GetLocation(context.Background(), "860000000000001")
		done <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("rate limit never waited: %v", err)
	}
	clock.Advance(time.Second)
	select {
	case <-done:
		t.Fatal("retried before Retry-After elapsed")
	case <-time.After(50 * time.Millisecond):
	}
	clock.Advance(time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("GetLocation: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request did not finish")
	}
	if hits.Load() != 2 {
		t.Errorf("hits = %d, want 2", hits.Load())
	}
}

func TestClientCredentialErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"configuration", newError(KindConfiguration, OpAuth, ErrMissingCredentials), KindConfiguration},
		{"refused signature", newError(KindAuth, OpAuth, errors.New("bad signature")), KindAuth},
		{"queue timeout", &Error{Kind: KindRateLimit, Op: OpAuth, Err: errors.New("queued"), RetryAfter: time.Second}, KindRateLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, tokens, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {}, nil, nil)
			calls := 0
			tokens.getCredential = func(context.Context) (Credential, error) {
				calls++
				return Credential{}, tt.err
			}

			_, err := c.GetLocation(context.Background(), "860000000000001")
			if !IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
			if calls != 1 || hits.Load() != 0 {
				t.Errorf("credential calls = %d, hits = %d", calls, hits.Load())
			}
		})
	}
}

func TestClientCircuitBreakerOpens(t *testing.T) {
	pcfgTune := func(c *Client) {
		c.cfg.MaxRetries = 0
		c.breaker = newBreaker("gps-provider-test")
	}
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil, pcfgTune)

	for i := 0; i < 10; i++ {
		if _, err := c.GetLocation(context.Background(), "860000000000001"); !IsKind(err, KindTransient) {
			t.Fatalf("call %d: expected transient error, got %v", i, err)
		}
	}
	if c.BreakerState() != "open" {
		t.Fatalf("breaker state = %s, want open", c.BreakerState())
	}

	_, err := c.GetLocation(context.Background(), "860000000000001")
	if !errors.Is(err, ErrCircuitOpen) || !IsKind(err, KindTransient) {
		t.Errorf("expected fast-fail transient error, got %v", err)
	}
	if hits.Load() != 10 {
		t.Errorf("hits = %d, open breaker should not reach the server", hits.Load())
	}
}

func TestClientBreakerIgnoresNotFound(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}, nil, func(c *Client) { c.breaker = newBreaker("gps-provider-notfound") })

	for i := 0; i < 12; i++ {
		_, _ = c.GetLocation(context.Background(), "860000000000001")
	}
	if c.BreakerState() != "closed" {
		t.Errorf("breaker state = %s, 404s must not trip it", c.BreakerState())
	}
}

func TestClientListDevices(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/device/list" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"code":0,"data":[{"imei":"1","deviceName":"Vario","status":1},{"imei":"2","deviceName":"Beat"}]}`)
	}, nil, nil)

	devices, err := c.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 || devices[0].DeviceName != "Vario" || devices[0].Status != "1" {
		t.Errorf("unexpected devices %+v", devices)
	}
}

func TestClientGetMileage(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("startTime") != "2026-03-01 19:00:00" || q.Get("endTime") != "2026-03-02 19:00:00" {
			t.Errorf("times not in provider zone: %s .. %s", q.Get("startTime"), q.Get("endTime"))
		}
		fmt.Fprint(w, `{"code":0,"result":{"mileage":"42.5"}}`)
	}, nil, nil)

	m, err := c.GetMileage(context.Background(), "860000000000001", t0, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetMileage: %v", err)
	}
	if m.Mileage.Value != 42.5 || m.IMEI != "860000000000001" {
		t.Errorf("unexpected mileage %+v", m)
	}

	if _, err := c.GetMileage(context.Background(), "860000000000001", t0, t0); !IsKind(err, KindValidation) {
		t.Errorf("empty range should be a validation error, got %v", err)
	}
}

func TestClientGetVehicleStatus(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"status":"moving","accStatus":1,"speed":"30","battery":87}}`)
	}, nil, nil)

	vs, err := c.GetVehicleStatus(context.Background(), "860000000000001")
	if err != nil {
		t.Fatalf("GetVehicleStatus: %v", err)
	}
	if vs.Status != "moving" || vs.ACC != "1" || vs.Speed.Value != 30 || vs.Battery.Value != 87 {
		t.Errorf("unexpected status %+v", vs)
	}
}

func TestClientEnvelopeErrorCode(t *testing.T) {
	c, _, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"code":5001,"msg":"device not bound"}`)
	}, nil, nil)

	_, err := c.GetVehicleStatus(context.Background(), "860000000000001")
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Code != 5001 {
		t.Errorf("expected provider code 5001, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d", hits.Load())
	}
}
