// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package audit

import (
	"context"
	"sort"
	gosync "sync"
	"time"
)

// MemoryStore keeps the most recent events in memory. It is used when no
// database is configured for auditing, and in tests.
type MemoryStore struct {
	mu     gosync.RWMutex
	events []Event
	maxLen int
}

// NewMemoryStore keeps at most maxLen events (default 10000).
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{maxLen: maxLen}
}

func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *event)
	if over := len(s.events) - s.maxLen; over > 0 {
		s.events = append([]Event(nil), s.events[over:]...)
	}
	return nil
}

func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Event{}
	for _, e := range s.events {
		if matches(&e, &filter) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matches(e *Event, f *QueryFilter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.DeviceID != nil && (e.DeviceID == nil || *e.DeviceID != *f.DeviceID) {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}

func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	var removed int64
	for _, e := range s.events {
		if e.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return removed, nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
