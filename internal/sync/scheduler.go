// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
	"github.com/tomtom215/motortrack/internal/models"
)

// ErrSchedulerRunning is returned by Start when the scheduler is already up.
var ErrSchedulerRunning = errors.New("sync scheduler already running")

// Start launches the periodic sync loop. The timer is re-armed with
// NextInterval after every pass, so failures stretch the schedule.
func (e *Engine) Start(ctx context.Context) error {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	if e.cancel != nil {
		return ErrSchedulerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	logging.Info().
		Dur("interval", e.cfg.Interval).
		Dur("max_interval", e.cfg.MaxInterval).
		Bool("run_on_startup", e.cfg.RunOnStartup).
		Msg("Starting sync scheduler")

	go e.loop(ctx, e.done)
	return nil
}

// Stop halts the loop and waits for it to exit. A pass already running is
// allowed to finish first.
func (e *Engine) Stop() error {
	e.schedMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.schedMu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	e.mu.Lock()
	e.nextRun = time.Time{}
	e.mu.Unlock()

	logging.Info().Msg("Sync scheduler stopped")
	return nil
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if e.cfg.RunOnStartup {
		e.syncAll(ctx, models.TriggerStartup)
	}

	next := e.NextInterval()
	timer := e.clock.NewTimer(next)
	defer timer.Stop()

	for {
		e.mu.Lock()
		e.nextRun = e.clock.Now().Add(next)
		failures := e.consecutiveFailures
		e.mu.Unlock()
		metrics.SetSyncSchedule(next, failures)

		select {
		case <-ctx.Done():
			return
		case <-timer.Chan():
			e.syncAll(ctx, models.TriggerScheduled)
			next = e.NextInterval()
			timer.Reset(next)
		}
	}
}
