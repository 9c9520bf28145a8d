// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultPostgresImage    = "postgres:16-alpine"
	DefaultPostgresPort     = "5432"
	DefaultPostgresUser     = "motortrack"
	DefaultPostgresPassword = "motortrack"
	DefaultPostgresDatabase = "motortrack"
)

// PostgresContainer is a throwaway PostgreSQL server.
type PostgresContainer struct {
	testcontainers.Container
	// DSN is a lib/pq connection string for the mapped port.
	DSN string
}

type postgresConfig struct {
	image        string
	startTimeout time.Duration
}

// PostgresOption customises NewPostgresContainer.
type PostgresOption func(*postgresConfig)

func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) { c.image = image }
}

func WithPostgresStartTimeout(timeout time.Duration) PostgresOption {
	return func(c *postgresConfig) { c.startTimeout = timeout }
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts
// connections. The caller must Terminate it.
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	defer testinfra.CleanupContainer(t, ctx, pg)
//	db, err := database.New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN})
func NewPostgresContainer(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := &postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostgresPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     DefaultPostgresUser,
			"POSTGRES_PASSWORD": DefaultPostgresPassword,
			"POSTGRES_DB":       DefaultPostgresDatabase,
			"TZ":                "UTC",
		},
		// The entrypoint restarts the server once after init, so the ready
		// line appears twice.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostgresPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, DefaultPostgresPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			DefaultPostgresUser, DefaultPostgresPassword, host, port.Port(), DefaultPostgresDatabase),
	}, nil
}
