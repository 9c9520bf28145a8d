// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPDATE", "motors"))

	RecordDBQuery("SELECT", "motors", 5*time.Millisecond, nil)
	RecordDBQuery("UPDATE", "motors", 10*time.Millisecond, errors.New("connection refused"))

	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("UPDATE", "motors")); got != before+1 {
		t.Errorf("DBQueryErrors = %v, want %v", got, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/motors", "200"))

	RecordAPIRequest("GET", "/api/v1/motors", 200, 20*time.Millisecond)

	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/motors", "200")); got != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+2 {
		t.Errorf("APIActiveRequests = %v, want %v", got, before+2)
	}

	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestRecordProviderRequestAndRetry(t *testing.T) {
	okBefore := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("location", "success"))
	retryBefore := testutil.ToFloat64(ProviderRetries.WithLabelValues("location", "unauthorized"))

	RecordProviderRequest("location", "success", 120*time.Millisecond)
	RecordProviderRetry("location", "unauthorized")

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("location", "success")); got != okBefore+1 {
		t.Errorf("ProviderRequestsTotal = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(ProviderRetries.WithLabelValues("location", "unauthorized")); got != retryBefore+1 {
		t.Errorf("ProviderRetries = %v, want %v", got, retryBefore+1)
	}
}

func TestRecordTokenAttempt(t *testing.T) {
	okBefore := testutil.ToFloat64(TokenAcquisitions.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(TokenAcquisitions.WithLabelValues("failure"))

	RecordTokenAttempt(nil)
	RecordTokenAttempt(errors.New("bad signature"))

	if got := testutil.ToFloat64(TokenAcquisitions.WithLabelValues("success")); got != okBefore+1 {
		t.Errorf("success attempts = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(TokenAcquisitions.WithLabelValues("failure")); got != failBefore+1 {
		t.Errorf("failure attempts = %v, want %v", got, failBefore+1)
	}
}

func TestSetTokenExpiry(t *testing.T) {
	expiry := time.Unix(1_700_003_300, 0)
	SetTokenExpiry(expiry)
	if got := testutil.ToFloat64(TokenExpiry); got != 1_700_003_300 {
		t.Errorf("TokenExpiry = %v, want 1700003300", got)
	}

	SetTokenExpiry(time.Time{})
	if got := testutil.ToFloat64(TokenExpiry); got != 0 {
		t.Errorf("TokenExpiry = %v, want 0 after clear", got)
	}
}

func TestRecordSyncRun(t *testing.T) {
	tests := []struct {
		name       string
		succeeded  int
		failed     int
		skipped    bool
		err        error
		wantResult string
	}{
		{"clean pass", 5, 0, false, nil, "success"},
		{"partial failure", 4, 1, false, nil, "success"},
		{"total failure", 0, 5, false, errors.New("all devices failed"), "failure"},
		{"concurrent pass", 0, 0, true, nil, "skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runsBefore := testutil.ToFloat64(SyncRuns.WithLabelValues(tt.wantResult))
			okBefore := testutil.ToFloat64(SyncDevices.WithLabelValues("success"))
			failBefore := testutil.ToFloat64(SyncDevices.WithLabelValues("failure"))

			RecordSyncRun(2*time.Second, tt.succeeded, tt.failed, tt.skipped, tt.err)

			if got := testutil.ToFloat64(SyncRuns.WithLabelValues(tt.wantResult)); got != runsBefore+1 {
				t.Errorf("SyncRuns{%s} = %v, want %v", tt.wantResult, got, runsBefore+1)
			}
			if got := testutil.ToFloat64(SyncDevices.WithLabelValues("success")); got != okBefore+float64(tt.succeeded) {
				t.Errorf("SyncDevices{success} = %v, want %v", got, okBefore+float64(tt.succeeded))
			}
			if got := testutil.ToFloat64(SyncDevices.WithLabelValues("failure")); got != failBefore+float64(tt.failed) {
				t.Errorf("SyncDevices{failure} = %v, want %v", got, failBefore+float64(tt.failed))
			}
		})
	}

	if testutil.ToFloat64(SyncLastSuccess) == 0 {
		t.Error("SyncLastSuccess should be set after a successful pass")
	}
}

func TestSetSyncSchedule(t *testing.T) {
	SetSyncSchedule(4*time.Minute, 2)

	if got := testutil.ToFloat64(SyncInterval); got != 240 {
		t.Errorf("SyncInterval = %v, want 240", got)
	}
	if got := testutil.ToFloat64(SyncConsecutiveFailures); got != 2 {
		t.Errorf("SyncConsecutiveFailures = %v, want 2", got)
	}
}

func TestRecordStatusDecision(t *testing.T) {
	before := testutil.ToFloat64(DeviceStatusDecisions.WithLabelValues("Online", "none"))
	RecordStatusDecision("Online", "")
	if got := testutil.ToFloat64(DeviceStatusDecisions.WithLabelValues("Online", "none")); got != before+1 {
		t.Errorf("DeviceStatusDecisions = %v, want %v", got, before+1)
	}
}

func TestRecordEventPublish(t *testing.T) {
	okBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("location.updated"))
	failBefore := testutil.ToFloat64(EventsPublishFailed.WithLabelValues("sync.failed"))

	RecordEventPublish("motortrack.location.updated", nil)
	RecordEventPublish("motortrack.sync.failed", errors.New("closed"))

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("location.updated")); got != okBefore+1 {
		t.Errorf("EventsPublished = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(EventsPublishFailed.WithLabelValues("sync.failed")); got != failBefore+1 {
		t.Errorf("EventsPublishFailed = %v, want %v", got, failBefore+1)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	hitsBefore := testutil.ToFloat64(CacheHits.WithLabelValues("location"))
	missBefore := testutil.ToFloat64(CacheMisses.WithLabelValues("location"))

	RecordCacheAccess("location", true)
	RecordCacheAccess("location", false)
	RecordCacheAccess("location", false)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("location")); got != hitsBefore+1 {
		t.Errorf("CacheHits = %v, want %v", got, hitsBefore+1)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("location")); got != missBefore+2 {
		t.Errorf("CacheMisses = %v, want %v", got, missBefore+2)
	}
}

func TestCircuitBreakerStateValue(t *testing.T) {
	tests := []struct {
		state string
		want  float64
	}{
		{"closed", 0},
		{"half-open", 1},
		{"open", 2},
		{"unknown", 0},
	}
	for _, tt := range tests {
		if got := CircuitBreakerStateValue(tt.state); got != tt.want {
			t.Errorf("CircuitBreakerStateValue(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	before := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("gps-provider", "closed", "open"))

	RecordCircuitBreakerTransition("gps-provider", "closed", "open")

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("gps-provider")); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("gps-provider", "closed", "open")); got != before+1 {
		t.Errorf("CircuitBreakerTransitions = %v, want %v", got, before+1)
	}
}

func TestConcurrentRecording(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("device_list", "success"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordProviderRequest("device_list", "success", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("device_list", "success")); got != before+50 {
		t.Errorf("ProviderRequestsTotal = %v, want %v", got, before+50)
	}
}
