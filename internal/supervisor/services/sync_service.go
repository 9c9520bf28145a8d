// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package services

import (
	"context"
	"fmt"
)

// StartStopManager is a component with its own background loop.
// *sync.Engine implements it for the periodic scheduler.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// SyncSchedulerService adapts the sync scheduler to suture.Service.
type SyncSchedulerService struct {
	manager StartStopManager
	name    string
}

// NewSyncSchedulerService wraps manager.
func NewSyncSchedulerService(manager StartStopManager) *SyncSchedulerService {
	return &SyncSchedulerService{manager: manager, name: "sync-scheduler"}
}

// Serve starts the scheduler, waits for ctx and stops it. Stop blocks until
// any in-flight pass has finished, so a restart never overlaps two
// schedulers.
func (s *SyncSchedulerService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("sync scheduler start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("sync scheduler stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *SyncSchedulerService) String() string {
	return s.name
}
