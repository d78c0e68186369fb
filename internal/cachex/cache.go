// Package cachex implements a small process-local TTL cache shared by the
// directory and download resolver. Entries are evicted lazily on access, and
// writers invalidate entries explicitly, so losing an entry only costs a
// slower path, never a wrong answer.
package cachex

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so the staleness contract can be tested with a
// fake clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

type entry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a mutex-guarded map with per-entry expiry.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[K]entry[V]
}

// New creates a cache whose entries live for ttl after each Set.
func New[K comparable, V any](ttl time.Duration, clock Clock) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[K]entry[V]),
	}
}

// Get returns the cached value for k if it has not expired. Expired entries
// are removed on access.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		var zero V
		return zero, false
	}
	if c.clock.Now().After(e.expires) {
		delete(c.entries, k)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores v under k with a fresh TTL.
func (c *Cache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry[V]{value: v, expires: c.clock.Now().Add(c.ttl)}
}

// Delete removes k if present.
func (c *Cache[K, V]) Delete(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, k)
}

// DeleteFunc removes every entry for which match returns true. Used to
// invalidate lookups keyed by one attribute when a record changes under
// another (e.g. dropping API-key entries for a given user id).
func (c *Cache[K, V]) DeleteFunc(match func(K, V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if match(k, e.value) {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of stored entries, including not-yet-evicted
// expired ones.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
