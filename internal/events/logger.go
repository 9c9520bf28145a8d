// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/tomtom215/motortrack/internal/logging"
)

// WatermillLogger adapts zerolog to watermill.LoggerAdapter so pub/sub
// internals log through the application logger.
type WatermillLogger struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = (*WatermillLogger)(nil)

// NewWatermillLogger returns an adapter over the global logger tagged with
// component=events.
func NewWatermillLogger() *WatermillLogger {
	return &WatermillLogger{logger: logging.WithComponent("events")}
}

// NewWatermillLoggerWith wraps a specific zerolog logger.
func NewWatermillLoggerWith(logger zerolog.Logger) *WatermillLogger {
	return &WatermillLogger{logger: logger}
}

func (l *WatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (l *WatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillLogger{logger: l.logger.With().Fields(map[string]any(fields)).Logger()}
}
