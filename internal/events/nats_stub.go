// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

//go:build !nats

package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/motortrack/internal/config"
)

// ErrNATSNotCompiled is returned when the nats backend is selected in a
// binary built without -tags nats.
var ErrNATSNotCompiled = errors.New("nats event backend not compiled in (build with -tags nats)")

func newNATSPubSub(_ *config.EventsConfig, _ watermill.LoggerAdapter) (pubSub, error) {
	return nil, ErrNATSNotCompiled
}
