// Copyright 2024 ResourceFM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a bounded, optionally expiring cache keyed by K.
// It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu         sync.Mutex
	cache      *lru.Cache[K, entry[V]]
	ttl        time.Duration
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time // zero if no TTL
}

// NewLRU creates an LRU holding at most maxEntries values.
// A ttl of 0 disables expiration.
func NewLRU[K comparable, V any](maxEntries int, ttl time.Duration) (*LRU[K, V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c, err := lru.New[K, entry[V]](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: c, ttl: ttl, maxEntries: maxEntries}, nil
}

// Get returns the cached value for key, or false on miss or expiry.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	var zero V
	if Disabled {
		return zero, false
	}

	c.mu.Lock()
	e, ok := c.cache.Get(key)
	if ok && !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.cache.Remove(key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key.
func (c *LRU[K, V]) Set(key K, value V) {
	if Disabled {
		return
	}
	e := entry[V]{value: value}
	if c.ttl > 0 {
		e.expiresAt = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.cache.Add(key, e)
	c.mu.Unlock()
}

// Delete removes key from the cache.
func (c *LRU[K, V]) Delete(key K) {
	c.mu.Lock()
	c.cache.Remove(key)
	c.mu.Unlock()
}

// DeleteFunc removes every entry whose key satisfies match.
func (c *LRU[K, V]) DeleteFunc(match func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.cache.Keys() {
		if match(key) {
			c.cache.Remove(key)
		}
	}
}

// Invalidate clears all entries.
func (c *LRU[K, V]) Invalidate() {
	c.mu.Lock()
	c.cache.Purge()
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	n := c.cache.Len()
	c.mu.Unlock()
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Entries:    n,
		MaxEntries: c.maxEntries,
	}
}

var _ Invalidator = (*LRU[string, int64])(nil)
