// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
engine.go - Location Sync Engine

This file contains the Engine, which pulls positions from the GPS provider
and writes them to the fleet database.

Pass Lifecycle:
 1. Take the run flag; a concurrent pass returns at once with Skipped set
 2. Select eligible devices (IMEI present, operational, not refreshed recently)
 3. Fan out with bounded concurrency, staggering each dispatch
 4. Per device: fetch, classify with DetermineStatus, persist, publish
 5. Tally the run and adjust the adaptive interval

Per-device failures never abort a pass. The device status is persisted, the
error text lands in SyncRun.Errors and the remaining devices continue.

Thread Safety:
  - running guards whole passes; inflight guards individual devices so a
    manual sync and a scheduled pass never process the same device at once
  - mu protects the schedule state read by health checks
*/

package sync

import (
	"context"
	"errors"
	"fmt"
	"math"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/events"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
)

// OpSync labels errors raised by the engine itself.
const OpSync = "sync"

var (
	// ErrNoIMEI is returned by SyncOne for a device without an IMEI.
	ErrNoIMEI = errors.New("device has no IMEI")

	// ErrDeviceBusy is returned when the device is already being synced.
	ErrDeviceBusy = errors.New("device sync already in progress")
)

// Repository is the storage the engine needs. *database.DB implements it.
type Repository interface {
	FindDevicesForSync(ctx context.Context, olderThan time.Time, statuses []string) ([]models.Device, error)
	GetDevice(ctx context.Context, id int64) (*models.Device, error)
	RecordLocation(ctx context.Context, id int64, u models.DeviceUpdate, sample *models.LocationSample) error
	RecentSamples(ctx context.Context, deviceID int64, since time.Time, limit int) ([]models.LocationSample, error)
}

// LocationFetcher reads current positions. *provider.Client implements it.
type LocationFetcher interface {
	GetLocation(ctx context.Context, imei string) (*provider.LocationResponse, error)
	Location() *time.Location
}

// Publisher receives engine events. Publishing must not block for long and
// never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType string, deviceID *int64, payload any)
}

// Engine synchronizes device positions from the provider.
type Engine struct {
	cfg       config.SyncConfig
	policy    Policy
	repo      Repository
	fetcher   LocationFetcher
	locations *cache.Namespace
	publisher Publisher
	clock     clockwork.Clock

	running  atomic.Bool
	inflight gosync.Map // device id -> struct{}

	mu                  gosync.RWMutex
	lastSync            time.Time
	lastRun             *models.SyncRun
	consecutiveFailures int
	nextRun             time.Time

	// scheduler state
	schedMu gosync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewEngine creates an engine. locations may be nil to disable response
// memoization and publisher may be nil to drop events.
func NewEngine(cfg *config.SyncConfig, repo Repository, fetcher LocationFetcher, locations *cache.Namespace, publisher Publisher, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		cfg:       *cfg,
		policy:    PolicyFromConfig(cfg),
		repo:      repo,
		fetcher:   fetcher,
		locations: locations,
		publisher: publisher,
		clock:     clock,
	}
}

// SyncAll runs a manually triggered pass over every eligible device.
func (e *Engine) SyncAll(ctx context.Context) models.SyncRun {
	return e.syncAll(ctx, models.TriggerManual)
}

func (e *Engine) syncAll(ctx context.Context, trigger models.SyncTrigger) models.SyncRun {
	start := e.clock.Now()
	run := models.SyncRun{StartedAt: start, Trigger: trigger, Errors: []string{}}

	if !e.running.CompareAndSwap(false, true) {
		run.Skipped = true
		run.Finish(0)
		metrics.RecordSyncRun(0, 0, 0, true, nil)
		logging.Ctx(ctx).Debug().Str("trigger", string(trigger)).Msg("Sync already in progress, skipping")
		return run
	}
	defer e.running.Store(false)

	// A pass always runs to completion; device timeouts bound it.
	ctx = logging.ContextWithNewCorrelationID(context.WithoutCancel(ctx))
	run.CorrelationID = logging.CorrelationIDFromContext(ctx)
	logger := logging.Ctx(ctx)

	logger.Info().Str("trigger", string(trigger)).Msg("Starting location sync")
	e.publish(ctx, events.TypeSyncStarted, nil, map[string]any{
		"trigger":        trigger,
		"started_at":     start,
		"correlation_id": run.CorrelationID,
	})

	devices, err := e.repo.FindDevicesForSync(ctx, start.Add(-e.cfg.MinRefreshInterval), e.cfg.OperationalStatuses)
	if err != nil {
		run.Errors = append(run.Errors, fmt.Sprintf("find devices: %v", err))
		run.Finish(e.clock.Since(start))
		e.finishPass(ctx, &run, fmt.Errorf("failed to find devices for sync: %w", err))
		return run
	}
	run.Total = len(devices)

	errs := make([]error, len(devices))
	g := new(errgroup.Group)
	g.SetLimit(max(1, e.cfg.Concurrency))
	limiter := e.dispatchLimiter()

	for i := range devices {
		if err := limiter.Wait(ctx); err != nil {
			errs[i] = err
			continue
		}
		g.Go(func() error {
			_, errs[i] = e.syncDevice(ctx, &devices[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		switch {
		case err == nil, errors.Is(err, ErrDeviceBusy):
			run.Success++
		default:
			run.Failed++
			run.Errors = append(run.Errors, fmt.Sprintf("device %d: %v", devices[i].ID, err))
		}
	}

	run.Finish(e.clock.Since(start))
	e.finishPass(ctx, &run, nil)
	return run
}

// dispatchLimiter spaces goroutine launches by the configured stagger.
func (e *Engine) dispatchLimiter() *rate.Limiter {
	if e.cfg.Stagger <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(e.cfg.Stagger), 1)
}

// finishPass updates the adaptive schedule and reports the run. fatal is set
// when the pass could not select devices at all.
func (e *Engine) finishPass(ctx context.Context, run *models.SyncRun, fatal error) {
	e.mu.Lock()
	if fatal == nil && run.Failed == 0 {
		e.consecutiveFailures = 0
	} else {
		e.consecutiveFailures++
	}
	if fatal == nil {
		e.lastSync = e.clock.Now()
	}
	snapshot := *run
	e.lastRun = &snapshot
	failures := e.consecutiveFailures
	next := e.nextIntervalLocked()
	e.mu.Unlock()

	var runErr error
	switch {
	case fatal != nil:
		runErr = fatal
	case run.Failed > 0:
		runErr = fmt.Errorf("%d of %d devices failed", run.Failed, run.Total)
	}
	metrics.RecordSyncRun(run.Duration, run.Success, run.Failed, false, runErr)
	metrics.SetSyncSchedule(next, failures)

	logger := logging.Ctx(ctx)
	event := logger.Info()
	if runErr != nil {
		event = logger.Warn().Err(runErr)
	}
	event.
		Int("total", run.Total).
		Int("success", run.Success).
		Int("failed", run.Failed).
		Int64("duration_ms", run.DurationMS).
		Int("consecutive_failures", failures).
		Dur("next_interval", next).
		Msg("Location sync completed")

	eventType := events.TypeSyncCompleted
	if fatal != nil || (run.Total > 0 && run.Success == 0) {
		eventType = events.TypeSyncFailed
	}
	e.publish(ctx, eventType, nil, snapshot)
}

// SyncOne syncs a single device regardless of eligibility.
func (e *Engine) SyncOne(ctx context.Context, deviceID int64) (*models.DeviceResult, error) {
	ctx = context.WithoutCancel(ctx)
	device, err := e.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return e.syncDevice(ctx, device)
}

// syncDevice runs the per-device pipeline. The returned result is non-nil
// whenever a status was decided, even if err is set.
func (e *Engine) syncDevice(ctx context.Context, device *models.Device) (*models.DeviceResult, error) {
	if _, busy := e.inflight.LoadOrStore(device.ID, struct{}{}); busy {
		return nil, ErrDeviceBusy
	}
	defer e.inflight.Delete(device.ID)

	now := e.clock.Now()
	imei := device.IMEIValue()
	result := &models.DeviceResult{DeviceID: device.ID, IMEI: imei, SyncedAt: now}
	logger := logging.Ctx(ctx).With().Int64("device_id", device.ID).Str("imei", imei).Logger()

	if imei == "" {
		e.applyDecision(result, Decision{Status: models.GPSNoImei, Reason: ReasonNoIMEI})
		if err := e.repo.RecordLocation(ctx, device.ID, models.DeviceUpdate{LastUpdate: now, GPSStatus: models.GPSNoImei}, nil); err != nil {
			return result, fmt.Errorf("failed to persist status: %w", err)
		}
		return result, &provider.Error{Kind: provider.KindValidation, Op: OpSync, Err: ErrNoIMEI}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.DeviceTimeout)
	resp, fetchedAt, cached, err := e.fetchLocation(fetchCtx, imei, now)
	cancel()
	if err != nil {
		decision := e.classifyFetchError(err)
		e.applyDecision(result, decision)
		logger.Warn().Err(err).Str("gps_status", string(decision.Status)).Msg("Failed to fetch device location")
		if perr := e.repo.RecordLocation(ctx, device.ID, models.DeviceUpdate{LastUpdate: now, GPSStatus: decision.Status}, nil); perr != nil {
			logger.Error().Err(perr).Msg("Failed to persist device status")
		}
		return result, fmt.Errorf("failed to fetch location: %w", err)
	}
	result.Cached = cached

	obs := ObservationFromResponse(resp, e.fetcher.Location())
	var recent []models.LocationSample
	if validCoordinates(obs.Lat, obs.Lng) && e.policy.StagnationSamples > 0 {
		limit := e.policy.StagnationSamples
		if cached {
			limit++
		}
		recent, err = e.repo.RecentSamples(ctx, device.ID, now.Add(-e.policy.StagnationWindow), limit)
		if err != nil {
			// Without history the stagnation rule simply cannot fire.
			logger.Warn().Err(err).Msg("Failed to load recent samples")
			recent = nil
		}
		if cached {
			recent = priorSamples(recent, fetchedAt, e.policy.StagnationSamples)
		}
	}
	decision := DetermineStatus(obs, recent, now, e.policy)
	e.applyDecision(result, decision)

	update := models.DeviceUpdate{LastUpdate: now, GPSStatus: decision.Status}
	var sample *models.LocationSample
	if decision.UsableCoordinates() {
		update.Lat, update.Lng = obs.Lat, obs.Lng
		if obs.Address != "" {
			addr := obs.Address
			update.Address = &addr
		}
		result.Lat, result.Lng, result.Address = update.Lat, update.Lng, update.Address
		if !cached {
			sample = &models.LocationSample{
				Lat:        *obs.Lat,
				Lng:        *obs.Lng,
				GPSTime:    obs.FixTime,
				Address:    update.Address,
				Source:     models.SourceProvider,
				RecordedAt: now,
			}
		}
	}

	if err := e.repo.RecordLocation(ctx, device.ID, update, sample); err != nil {
		return result, fmt.Errorf("failed to persist location: %w", err)
	}

	logger.Debug().
		Str("gps_status", string(decision.Status)).
		Str("reason", string(decision.Reason)).
		Bool("cached", cached).
		Msg("Device location synced")
	e.publish(ctx, events.TypeLocationUpdated, &device.ID, result)
	return result, nil
}

// classifyFetchError maps a failed fetch to a device status.
func (e *Engine) classifyFetchError(err error) Decision {
	switch {
	case e.policy.HasOfflineKeyword(err.Error()):
		return Decision{Status: models.GPSOffline, Reason: ReasonOfflineSignal}
	case provider.IsKind(err, provider.KindValidation):
		return Decision{Status: models.GPSOffline, Reason: ReasonInvalidResponse}
	default:
		return Decision{Status: models.GPSError, Reason: ReasonRequestFailed}
	}
}

func (e *Engine) applyDecision(result *models.DeviceResult, d Decision) {
	result.GPSStatus = d.Status
	result.Reason = string(d.Reason)
	metrics.RecordStatusDecision(string(d.Status), string(d.Reason))
}

// locationMemo is what the location cache holds: the provider response and
// the sync time it was first fetched at.
type locationMemo struct {
	resp      *provider.LocationResponse
	fetchedAt time.Time
}

// fetchLocation returns the provider response for imei, memoized for the
// location cache TTL. cached reports whether the memo answered; fetchedAt is
// the sync time of the fetch that produced resp.
func (e *Engine) fetchLocation(ctx context.Context, imei string, now time.Time) (resp *provider.LocationResponse, fetchedAt time.Time, cached bool, err error) {
	memo := e.locations != nil && e.cfg.LocationCacheTTL > 0
	if memo {
		if v, ok := e.locations.Get(imei); ok {
			if m, ok := v.(locationMemo); ok {
				return m.resp, m.fetchedAt, true, nil
			}
		}
	}

	resp, err = e.fetcher.GetLocation(ctx, imei)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if memo {
		e.locations.SetWithTTL(imei, locationMemo{resp: resp, fetchedAt: now}, e.cfg.LocationCacheTTL)
	}
	return resp, now, false, nil
}

// priorSamples drops provider samples recorded at or after fetchedAt. A
// memoized response already wrote that sample and must not count it as its
// own history. Stored timestamps may be truncated to microseconds.
func priorSamples(samples []models.LocationSample, fetchedAt time.Time, limit int) []models.LocationSample {
	cutoff := fetchedAt.Truncate(time.Microsecond)
	out := samples[:0]
	for _, s := range samples {
		if s.Source == models.SourceProvider && !s.RecordedAt.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UpdateLocationManually sets a device position by hand. Zero, invalid or
// out-of-bounds coordinates mark the device offline without moving it.
func (e *Engine) UpdateLocationManually(ctx context.Context, deviceID int64, lat, lng float64) (*models.Device, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, &provider.Error{Kind: provider.KindValidation, Op: OpSync,
			Err: fmt.Errorf("coordinates out of range: lat %v, lng %v", lat, lng)}
	}
	if _, err := e.repo.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	update := models.DeviceUpdate{LastUpdate: now, GPSStatus: models.GPSOffline}
	var sample *models.LocationSample
	if validLatLng(lat, lng) && e.policy.Bounds.Contains(lat, lng) {
		update.GPSStatus = models.GPSOnline
		update.Lat, update.Lng = &lat, &lng
		sample = &models.LocationSample{Lat: lat, Lng: lng, Source: models.SourceManual, RecordedAt: now}
	}
	metrics.RecordStatusDecision(string(update.GPSStatus), "manual")

	if err := e.repo.RecordLocation(ctx, deviceID, update, sample); err != nil {
		return nil, err
	}
	device, err := e.repo.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("device_id", deviceID).
		Str("gps_status", string(update.GPSStatus)).
		Msg("Device location updated manually")
	e.publish(ctx, events.TypeLocationUpdated, &deviceID, models.DeviceResult{
		DeviceID:  deviceID,
		IMEI:      device.IMEIValue(),
		GPSStatus: update.GPSStatus,
		Reason:    "manual",
		Lat:       update.Lat,
		Lng:       update.Lng,
		SyncedAt:  now,
	})
	return device, nil
}

func (e *Engine) publish(ctx context.Context, eventType string, deviceID *int64, payload any) {
	if e.publisher == nil {
		return
	}
	e.publisher.Publish(ctx, eventType, deviceID, payload)
}

// IsRunning reports whether a pass is in progress.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// LastSyncTime returns when the last pass finished, or the zero time.
func (e *Engine) LastSyncTime() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSync
}

// LastRun returns a copy of the most recent completed run, or nil.
func (e *Engine) LastRun() *models.SyncRun {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastRun == nil {
		return nil
	}
	run := *e.lastRun
	return &run
}

// ConsecutiveFailures returns the number of passes in a row with failures.
func (e *Engine) ConsecutiveFailures() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.consecutiveFailures
}

// NextInterval is interval * 2^failures, capped at the max interval.
func (e *Engine) NextInterval() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextIntervalLocked()
}

func (e *Engine) nextIntervalLocked() time.Duration {
	interval := e.cfg.Interval
	ceiling := max(e.cfg.MaxInterval, interval)
	for i := 0; i < e.consecutiveFailures && interval < ceiling; i++ {
		interval *= 2
	}
	return min(interval, ceiling)
}

// NextSyncIn returns the time until the scheduler's next pass, or zero when
// no pass is scheduled.
func (e *Engine) NextSyncIn() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.nextRun.IsZero() {
		return 0
	}
	return max(0, e.nextRun.Sub(e.clock.Now()))
}
