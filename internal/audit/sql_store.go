// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tomtom215/motortrack/internal/database"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// SQLStore keeps audit events in the fleet database, on either driver.
type SQLStore struct {
	conn   *sqlx.DB
	driver string
}

// NewSQLStore wraps an open connection. Call CreateTable before use.
func NewSQLStore(conn *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{conn: conn, driver: driver}
}

// CreateTable creates the audit_events table and its indexes if missing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	ts := "TIMESTAMP"
	if s.driver == database.DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			occurred_at ` + ts + ` NOT NULL,
			event_type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			device_id BIGINT,
			source_ip TEXT NOT NULL,
			user_agent TEXT,
			description TEXT NOT NULL,
			metadata TEXT,
			request_id TEXT,
			correlation_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_occurred ON audit_events (occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_device ON audit_events (device_id)`,
	}
	for _, q := range queries {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create audit table: %w", err)
		}
	}
	return nil
}

type eventRow struct {
	ID            string         `db:"id"`
	OccurredAt    time.Time      `db:"occurred_at"`
	EventType     string         `db:"event_type"`
	Outcome       string         `db:"outcome"`
	DeviceID      sql.NullInt64  `db:"device_id"`
	SourceIP      string         `db:"source_ip"`
	UserAgent     sql.NullString `db:"user_agent"`
	Description   string         `db:"description"`
	Metadata      sql.NullString `db:"metadata"`
	RequestID     sql.NullString `db:"request_id"`
	CorrelationID sql.NullString `db:"correlation_id"`
}

func (r *eventRow) event() Event {
	e := Event{
		ID:            r.ID,
		Timestamp:     r.OccurredAt.UTC(),
		Type:          EventType(r.EventType),
		Outcome:       Outcome(r.Outcome),
		SourceIP:      r.SourceIP,
		UserAgent:     r.UserAgent.String,
		Description:   r.Description,
		RequestID:     r.RequestID.String,
		CorrelationID: r.CorrelationID.String,
	}
	if r.DeviceID.Valid {
		id := r.DeviceID.Int64
		e.DeviceID = &id
	}
	if r.Metadata.Valid && r.Metadata.String != "" {
		e.Metadata = []byte(r.Metadata.String)
	}
	return e
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLStore) Save(ctx context.Context, event *Event) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "audit_events", time.Since(start), err) }()

	var deviceID sql.NullInt64
	if event.DeviceID != nil {
		deviceID = sql.NullInt64{Int64: *event.DeviceID, Valid: true}
	}
	query := s.conn.Rebind(`INSERT INTO audit_events
		(id, occurred_at, event_type, outcome, device_id, source_ip, user_agent, description, metadata, request_id, correlation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.conn.ExecContext(ctx, query,
		event.ID, event.Timestamp.UTC(), string(event.Type), string(event.Outcome), deviceID,
		event.SourceIP, nullString(event.UserAgent), event.Description, nullString(string(event.Metadata)),
		nullString(event.RequestID), nullString(event.CorrelationID),
	)
	if err != nil {
		return fmt.Errorf("save audit event: %w", err)
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, filter QueryFilter) (events []Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "audit_events", time.Since(start), err) }()

	var (
		conds []string
		args  []any
	)
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		cond, inArgs, inErr := sqlx.In("event_type IN (?)", types)
		if inErr != nil {
			return nil, fmt.Errorf("build audit query: %w", inErr)
		}
		conds = append(conds, cond)
		args = append(args, inArgs...)
	}
	if filter.DeviceID != nil {
		conds = append(conds, "device_id = ?")
		args = append(args, *filter.DeviceID)
	}
	if filter.Since != nil {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	var b strings.Builder
	b.WriteString("SELECT id, occurred_at, event_type, outcome, device_id, source_ip, user_agent, description, metadata, request_id, correlation_id FROM audit_events")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY occurred_at DESC, id LIMIT ?")
	args = append(args, filter.EffectiveLimit())

	var rows []eventRow
	if err = s.conn.SelectContext(ctx, &rows, s.conn.Rebind(b.String()), args...); err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events = make([]Event, len(rows))
	for i := range rows {
		events[i] = rows[i].event()
	}
	return events, nil
}

func (s *SQLStore) DeleteBefore(ctx context.Context, cutoff time.Time) (n int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("delete", "audit_events", time.Since(start), err) }()

	res, err := s.conn.ExecContext(ctx, s.conn.Rebind("DELETE FROM audit_events WHERE occurred_at < ?"), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete audit events: %w", err)
	}
	return n, nil
}
