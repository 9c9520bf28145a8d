// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package services

import (
	"context"
)

// ContextRunner runs until its context is canceled. The websocket hub and
// the event bridge both implement it.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService adapts a ContextRunner to suture.Service.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under the given service name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService wraps the dashboard hub.
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewEventBridgeService wraps the bus-to-hub bridge. When the bridge's
// subscription drops it returns an error and suture restarts it with a
// fresh subscription.
func NewEventBridgeService(bridge ContextRunner) *RunnerService {
	return NewRunnerService("event-bridge", bridge)
}

func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

func (s *RunnerService) String() string {
	return s.name
}
