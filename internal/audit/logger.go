// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package audit

import (
	"context"
	"net"
	"net/http"
	gosync "sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// Logger records operator actions. Log never blocks the request path:
// events go through a buffered channel to a background writer, and are
// dropped (and counted) when the buffer is full.
type Logger struct {
	cfg   config.AuditConfig
	store Store
	clock clockwork.Clock

	events    chan *Event
	stopCh    chan struct{}
	closeOnce gosync.Once
	wg        gosync.WaitGroup
}

// NewLogger starts the background writer. Call Close to flush it.
func NewLogger(store Store, cfg config.AuditConfig, clock clockwork.Clock) *Logger {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 256
	}
	l := &Logger{
		cfg:    cfg,
		store:  store,
		clock:  clock,
		events: make(chan *Event, cfg.BufferSize),
		stopCh: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.writer()

	return l
}

func (l *Logger) writer() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopCh:
			for {
				select {
				case event := <-l.events:
					l.save(event)
				default:
					return
				}
			}
		case event := <-l.events:
			l.save(event)
		}
	}
}

func (l *Logger) save(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, event); err != nil {
		metrics.AuditEvents.WithLabelValues("failed").Inc()
		logging.Error().Err(err).Str("audit_id", event.ID).Str("type", string(event.Type)).Msg("Failed to save audit event")
		return
	}
	metrics.AuditEvents.WithLabelValues("saved").Inc()
}

// Log queues event. ID, Timestamp and the request/correlation ids from ctx
// are filled in when empty.
func (l *Logger) Log(ctx context.Context, event *Event) {
	if !l.cfg.Enabled || event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.clock.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}

	select {
	case l.events <- event:
	default:
		metrics.AuditEvents.WithLabelValues("dropped").Inc()
		logging.Warn().Str("audit_id", event.ID).Str("type", string(event.Type)).Msg("Audit buffer full, dropping event")
	}
}

// Record builds an event from an HTTP request and logs it. metadata may be nil.
func (l *Logger) Record(r *http.Request, eventType EventType, outcome Outcome, deviceID *int64, description string, metadata map[string]any) {
	event := &Event{
		Type:        eventType,
		Outcome:     outcome,
		DeviceID:    deviceID,
		SourceIP:    sourceIP(r),
		UserAgent:   r.UserAgent(),
		Description: description,
	}
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			event.Metadata = data
		}
	}
	l.Log(r.Context(), event)
}

// Query reads from the store.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Close stops the writer after flushing queued events. Safe to call twice.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() { close(l.stopCh) })
	l.wg.Wait()
	return nil
}

// RunWithContext enforces retention until ctx is done. It runs one cleanup
// immediately, then every CleanupInterval.
func (l *Logger) RunWithContext(ctx context.Context) error {
	if !l.cfg.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}

	interval := l.cfg.CleanupInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	l.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			l.cleanup(ctx)
		}
	}
}

func (l *Logger) cleanup(ctx context.Context) {
	cutoff := l.clock.Now().Add(-l.cfg.Retention).UTC()
	count, err := l.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit retention cleanup failed")
		return
	}
	if count > 0 {
		logging.Info().Int64("count", count).Time("cutoff", cutoff).Msg("Removed expired audit events")
	}
}

// sourceIP strips the port from RemoteAddr. RealIP middleware has already
// applied X-Forwarded-For / X-Real-IP.
func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
