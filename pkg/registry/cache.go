package registry

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// ttlCache maps keys to values that expire a fixed duration after being set.
// Concurrent writers for the same key race; the last one wins.
type ttlCache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clock.PassiveClock
	entries map[string]cacheEntry[V]
}

func newTTLCache[V any](ttl time.Duration, clk clock.PassiveClock) *ttlCache[V] {
	return &ttlCache[V]{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]cacheEntry[V]),
	}
}

// get returns the value for key if present and not yet expired.
func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.clock.Now().Before(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[V]) set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()
	c.entries[key] = cacheEntry[V]{value: value, expires: c.clock.Now().Add(c.ttl)}
}

// pruneLocked drops expired entries so the map cannot grow without bound
// across many distinct repositories.
func (c *ttlCache[V]) pruneLocked() {
	now := c.clock.Now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

func (c *ttlCache[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
