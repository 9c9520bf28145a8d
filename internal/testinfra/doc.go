// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package testinfra starts real backing services for integration tests with
// testcontainers-go. Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// Tests call SkipIfNoDocker first so the suite still passes on machines
// without a Docker daemon.
package testinfra
