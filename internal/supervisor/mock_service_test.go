// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// mockService runs until canceled, failing its first maxFails runs.
type mockService struct {
	name     string
	maxFails int32

	starts atomic.Int32
	stops  atomic.Int32
	fails  atomic.Int32
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	if m.maxFails > 0 && m.fails.Add(1) <= m.maxFails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string {
	return m.name
}
