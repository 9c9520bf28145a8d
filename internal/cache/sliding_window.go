// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SlidingWindowCounter is a bucketed counter over a trailing time window.
// Resolution is one bucket: an event is forgotten somewhere between
// windowSize-bucketSize and windowSize after it was recorded.
//
// The provider client keeps one for recent successes and one for recent
// failures to decide whether the upstream API is currently reachable.
type SlidingWindowCounter struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	buckets    []int64       // circular buffer of bucket counts
	bucketSize time.Duration // duration of each bucket
	windowSize time.Duration // total window duration
	numBuckets int
	current    int
	lastUpdate time.Time
}

// NewSlidingWindowCounter creates a counter on the real clock.
func NewSlidingWindowCounter(windowSize time.Duration, numBuckets int) *SlidingWindowCounter {
	return NewSlidingWindowCounterWithClock(windowSize, numBuckets, clockwork.NewRealClock())
}

// NewSlidingWindowCounterWithClock creates a counter whose buckets advance with clock.
//
// Example: NewSlidingWindowCounterWithClock(5*time.Minute, 10, clock) creates
// a 5-minute window with 30-second buckets.
func NewSlidingWindowCounterWithClock(windowSize time.Duration, numBuckets int, clock clockwork.Clock) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if windowSize <= 0 {
		windowSize = 5 * time.Minute
	}

	return &SlidingWindowCounter{
		clock:      clock,
		buckets:    make([]int64, numBuckets),
		bucketSize: windowSize / time.Duration(numBuckets),
		windowSize: windowSize,
		numBuckets: numBuckets,
		lastUpdate: clock.Now(),
	}
}

// Increment adds delta to the current bucket.
func (sw *SlidingWindowCounter) Increment(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()
	sw.buckets[sw.current] += delta
}

// IncrementOne adds 1 to the current bucket.
func (sw *SlidingWindowCounter) IncrementOne() {
	sw.Increment(1)
}

// Count returns the sum of all buckets in the window.
func (sw *SlidingWindowCounter) Count() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance()

	var total int64
	for _, count := range sw.buckets {
		total += count
	}
	return total
}

// Window returns the configured window size.
func (sw *SlidingWindowCounter) Window() time.Duration {
	return sw.windowSize
}

// Reset clears all buckets.
func (sw *SlidingWindowCounter) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	for i := range sw.buckets {
		sw.buckets[i] = 0
	}
	sw.current = 0
	sw.lastUpdate = sw.clock.Now()
}

// advance moves the window forward based on elapsed time.
// Must be called with lock held.
func (sw *SlidingWindowCounter) advance() {
	now := sw.clock.Now()
	bucketsElapsed := int(now.Sub(sw.lastUpdate) / sw.bucketSize)
	if bucketsElapsed <= 0 {
		return
	}

	if bucketsElapsed >= sw.numBuckets {
		for i := range sw.buckets {
			sw.buckets[i] = 0
		}
		sw.current = 0
	} else {
		for i := 0; i < bucketsElapsed; i++ {
			sw.current = (sw.current + 1) % sw.numBuckets
			sw.buckets[sw.current] = 0
		}
	}

	// Keep bucket boundaries aligned so partial buckets are not lost.
	sw.lastUpdate = sw.lastUpdate.Add(time.Duration(bucketsElapsed) * sw.bucketSize)
}
