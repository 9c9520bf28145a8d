// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/metrics"
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// Entry represents a cached item with expiration
type Entry struct {
	Data      any
	ExpiresAt time.Time
}

// Cache provides a thread-safe in-memory cache with TTL support.
//
// Expiry is evaluated against the injected clock, so tests can move time
// forward with clockwork.FakeClock instead of sleeping.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	clock   clockwork.Clock
	stats   Stats

	stop     chan struct{}
	stopOnce sync.Once
}

// Stats tracks cache performance metrics
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// New creates a cache with the real clock.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, clockwork.NewRealClock())
}

// NewWithClock creates a cache whose expiry and background sweep follow clock.
// The sweep goroutine runs until Close is called.
//
// Example:
//
//	c := cache.NewWithClock(time.Minute, clock)
//	defer c.Close()
//	locations := c.Namespace("location")
//	locations.Set(imei, resp)
func NewWithClock(ttl time.Duration, clock clockwork.Clock) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		clock:   clock,
		stop:    make(chan struct{}),
		stats: Stats{
			LastCleanup: clock.Now(),
		},
	}

	go c.cleanupLoop(DefaultCleanupInterval)

	return c
}

// Close stops the background sweep. Entries remain readable.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get retrieves a value by key. Expired entries are removed and reported as misses.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if !c.clock.Now().Before(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under write lock; a concurrent Set may have refreshed it.
		if current, ok := c.entries[key]; ok && !c.clock.Now().Before(current.ExpiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.recordMiss()
		c.recordEviction()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL. A non-positive TTL stores
// nothing and removes any existing entry.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.entries, key)
	} else {
		c.entries[key] = Entry{
			Data:      value,
			ExpiresAt: c.clock.Now().Add(ttl),
		}
	}

	c.stats.mu.Lock()
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.mu.Unlock()
}

// Delete removes a specific cache entry by key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	if existed {
		c.stats.Evictions++
	}
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	evictions := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = 0
	c.stats.mu.Unlock()
}

// deletePrefix removes every key starting with prefix.
func (c *Cache) deletePrefix(prefix string) {
	c.mu.Lock()
	removed := int64(0)
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	total := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += removed
	c.stats.TotalKeys = total
	c.stats.mu.Unlock()
}

// GetStats returns a snapshot of current cache statistics.
func (c *Cache) GetStats() Stats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()

	return Stats{
		Hits:        c.stats.Hits,
		Misses:      c.stats.Misses,
		Evictions:   c.stats.Evictions,
		TotalKeys:   c.stats.TotalKeys,
		LastCleanup: c.stats.LastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			c.cleanup()
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	evictions := int64(0)
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			evictions++
		}
	}

	c.stats.mu.Lock()
	c.stats.Evictions += evictions
	c.stats.TotalKeys = int64(len(c.entries))
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *Cache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.Evictions++
	c.stats.mu.Unlock()
}

// Namespace is a view of a Cache restricted to keys under "prefix:".
// Hits and misses are also exported as Prometheus metrics labelled by prefix.
type Namespace struct {
	cache  *Cache
	prefix string
}

// Namespace returns a view that reads and writes only prefix-scoped keys.
func (c *Cache) Namespace(prefix string) *Namespace {
	return &Namespace{cache: c, prefix: prefix}
}

// Name returns the namespace prefix.
func (n *Namespace) Name() string { return n.prefix }

func (n *Namespace) key(k string) string { return n.prefix + ":" + k }

// Get retrieves a value from the namespace.
func (n *Namespace) Get(key string) (any, bool) {
	v, ok := n.cache.Get(n.key(key))
	metrics.RecordCacheAccess(n.prefix, ok)
	return v, ok
}

// Set stores a value with the cache's default TTL.
func (n *Namespace) Set(key string, value any) {
	n.cache.Set(n.key(key), value)
}

// SetWithTTL stores a value with a custom TTL.
func (n *Namespace) SetWithTTL(key string, value any, ttl time.Duration) {
	n.cache.SetWithTTL(n.key(key), value, ttl)
}

// Delete removes a single key from the namespace.
func (n *Namespace) Delete(key string) {
	n.cache.Delete(n.key(key))
}

// Clear removes every key in the namespace, leaving other namespaces intact.
func (n *Namespace) Clear() {
	n.cache.deletePrefix(n.prefix + ":")
}

// GenerateKey creates a compact cache key from a method name and parameters.
func GenerateKey(method string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
