// Package cache provides a small in-process TTL cache used to memoise
// expensive list queries. Writes to a collection invalidate every cached
// page for that collection via InvalidatePrefix, so stale pages never
// outlive the next mutation.
package cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache keyed by string. A zero TTL
// disables caching entirely, which keeps call sites unconditional.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	hits   func()
	misses func()
}

// Option configures a Cache.
type Option func(*Cache)

// WithCounters wires hit/miss callbacks, typically Prometheus counters.
func WithCounters(hit, miss func()) Option {
	return func(c *Cache) {
		c.hits = hit
		c.misses = miss
	}
}

// New returns a cache whose entries expire after ttl.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key, or (nil, false) when the key is
// absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		if c.misses != nil {
			c.misses()
		}
		return nil, false
	}
	if c.hits != nil {
		c.hits()
	}
	return e.value, true
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(key string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidatePrefix drops every entry whose key starts with prefix.
// Mutating operations call this with the collection namespace
// (e.g. "patients:") so all cached pages are rebuilt on next read.
func (c *Cache) InvalidatePrefix(prefix string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Purge removes expired entries. Called periodically from the job
// scheduler so long-idle namespaces do not pin memory.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	now := time.Now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len reports the number of live entries, including any not yet purged.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
