// Package cache provides an in-memory, tenant-scoped TTL cache for slowly
// changing reference data such as a tenant's service catalog.
package cache

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is used when neither the caller nor the cache options supply one.
const DefaultTTL = 5 * time.Minute

// KeySeparator joins the tenant ID and the logical key. A logical key that
// contains the separator can collide with another tenant's key; callers
// control both halves and must avoid that.
const KeySeparator = ":"

type entry struct {
	tenant    string
	key       string
	value     any
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) >= e.ttl
}

// Stats is a diagnostics snapshot of the cache.
type Stats struct {
	Entries     int `json:"entries"`
	ApproxBytes int `json:"approx_bytes"`
}

// TenantCache memoizes values per (tenant, key) for a bounded time window.
// Values are returned as stored, without copying; callers must treat them as
// read-only. It is safe for concurrent use and each method is a single
// atomic step.
type TenantCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// Option customises a TenantCache.
type Option func(*TenantCache)

// WithDefaultTTL overrides the TTL applied when Set is called without one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *TenantCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock overrides the wall clock, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(c *TenantCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *TenantCache {
	c := &TenantCache{
		entries:    make(map[string]entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the composite map key for a tenant and logical key.
func Key(tenant, key string) string {
	return tenant + KeySeparator + key
}

// Set stores value under (tenant, key), replacing any existing entry. A
// missing or non-positive ttl falls back to the default TTL.
func (c *TenantCache) Set(tenant, key string, value any, ttl ...time.Duration) {
	entryTTL := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		entryTTL = ttl[0]
	}

	c.mu.Lock()
	c.entries[Key(tenant, key)] = entry{
		tenant:    tenant,
		key:       key,
		value:     value,
		createdAt: c.now(),
		ttl:       entryTTL,
	}
	c.mu.Unlock()
}

// Get returns the value stored under (tenant, key). An expired entry is
// evicted and reported as a miss.
func (c *TenantCache) Get(tenant, key string) (any, bool) {
	k := Key(tenant, key)
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expired(now) {
		return e.value, true
	}

	c.mu.Lock()
	// Re-check under write lock in case another caller replaced it.
	if cur, ok := c.entries[k]; ok {
		if !cur.expired(now) {
			c.mu.Unlock()
			return cur.value, true
		}
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil, false
}

// GetAs is Get with a type assertion. A value of another type is a miss.
func GetAs[T any](c *TenantCache, tenant, key string) (T, bool) {
	var zero T
	v, ok := c.Get(tenant, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Delete removes a single entry. It is a no-op when the entry is absent.
func (c *TenantCache) Delete(tenant, key string) {
	c.mu.Lock()
	delete(c.entries, Key(tenant, key))
	c.mu.Unlock()
}

// DeletePrefix removes every entry of tenant whose logical key starts with
// prefix and returns how many were removed.
func (c *TenantCache) DeletePrefix(tenant, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.tenant == tenant && strings.HasPrefix(e.key, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// ClearTenant removes every entry belonging to tenant and returns how many
// were removed. Entries of other tenants are untouched.
func (c *TenantCache) ClearTenant(tenant string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.tenant == tenant {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Cleanup evicts every expired entry and returns how many were evicted.
func (c *TenantCache) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			evicted++
		}
	}
	return evicted
}

// Stats reports the entry count and an approximate size computed from the
// JSON encoding of every key and value. Values that cannot be encoded only
// contribute their key.
func (c *TenantCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{Entries: len(c.entries)}
	for k, e := range c.entries {
		stats.ApproxBytes += len(k)
		if data, err := json.Marshal(e.value); err == nil {
			stats.ApproxBytes += len(data)
		}
	}
	return stats
}
