// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/database"
	"github.com/tomtom215/motortrack/internal/provider"
)

func TestTokenUpdatedPayloadMasksToken(t *testing.T) {
	acquired := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cred := provider.Credential{Value: "abcdef0123456789", AcquiredAt: acquired, TTL: 2 * time.Hour}

	payload := tokenUpdatedPayload(cred)

	token, _ := payload["token"].(string)
	if strings.Contains(token, "abcdef") || !strings.HasSuffix(token, "6789") {
		t.Errorf("token = %q, want masked with last four characters", token)
	}
	if got := payload["expires_at"]; got != acquired.Add(2*time.Hour) {
		t.Errorf("expires_at = %v", got)
	}
	if got := payload["acquired_at"]; got != acquired {
		t.Errorf("acquired_at = %v", got)
	}
}

func TestInitAuditLoggerCreatesTable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Audit = config.AuditConfig{Enabled: true, Retention: time.Hour, CleanupInterval: time.Hour, BufferSize: 4}

	db, err := database.New(&config.DatabaseConfig{Driver: database.DriverDuckDB, DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	defer db.Close()

	auditLog, err := initAuditLogger(cfg, db, clockwork.NewFakeClock())
	if err != nil {
		t.Fatalf("initAuditLogger: %v", err)
	}
	defer auditLog.Close()

	events, err := auditLog.Query(context.Background(), audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("fresh audit table has %d events", len(events))
	}
}
