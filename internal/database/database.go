// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
)

// Driver names accepted in DatabaseConfig.Driver.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// ErrDeviceNotFound is returned when a device id does not exist.
var ErrDeviceNotFound = errors.New("device not found")

// DB is the device repository. It owns the motors and motor_locations tables'
// sync columns; fleet CRUD lives elsewhere.
type DB struct {
	conn   *sqlx.DB
	cfg    *config.DatabaseConfig
	driver string
}

// New opens the database and creates the schema if needed.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "" {
		driver = DriverDuckDB
	}

	dsn := cfg.DSN
	switch driver {
	case DriverDuckDB:
		if err := ensureDuckDBDir(dsn); err != nil {
			return nil, err
		}
		// Extensions are not needed; keep DuckDB from reaching the network.
		dsn = duckDBConnString(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, driver: driver}
	db.configureConnectionPool()

	ctx, cancel := schemaContext()
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("driver", driver).Msg("Database ready")
	return db, nil
}

// Driver returns the active driver name.
func (db *DB) Driver() string { return db.driver }

// Conn returns the underlying sqlx handle.
func (db *DB) Conn() *sqlx.DB { return db.conn }

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(min(2, maxOpen))
	if db.cfg.ConnMaxLifetime > 0 {
		db.conn.SetConnMaxLifetime(db.cfg.ConnMaxLifetime)
	}
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.HasPrefix(dsn, ":memory:")
}

// ensureDuckDBDir creates the parent directory of a file-backed database.
func ensureDuckDBDir(dsn string) error {
	if isMemoryDSN(dsn) {
		return nil
	}
	path, _, _ := strings.Cut(dsn, "?")
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func duckDBConnString(dsn string) string {
	opts := "autoinstall_known_extensions=false&autoload_known_extensions=false"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + opts
	}
	return dsn + "?" + opts
}

type closer interface{ Close() error }

func closeQuietly(c closer) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("Error closing database")
	}
}
