// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package logging provides the process-wide zerolog logger for Motortrack.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Int("devices", 12).Msg("sync pass started")
//	logging.Error().Err(err).Str("imei", imei).Msg("location fetch failed")
//
//	// With correlation id (one per sync pass)
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("processing device")
//
// # Configuration
//
// Environment variables (mapped through internal/config):
//
//	LOG_LEVEL   trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  json, console (default: json)
//	LOG_CALLER  include file:line (default: false)
//
// Always terminate event chains with Msg or Send, otherwise nothing is written.
//
// # slog Adapter
//
// NewSlogLogger returns an *slog.Logger backed by the same zerolog logger.
// The supervisor tree hands it to sutureslog.
package logging
