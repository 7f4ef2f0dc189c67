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

// Package cache provides the lookup caches used by the resourcefm stores.
//
// Each cache lives in exactly one layer. Mutations invalidate only the
// affected entries rather than flushing the whole cache.
package cache

import "os"

// Disabled controls whether caching is bypassed entirely.
// Set via RESOURCEFM_CACHE=0 environment variable.
// When true, Get always misses and Set is a no-op.
var Disabled = os.Getenv("RESOURCEFM_CACHE") == "0"

// DefaultMaxEntries is used when a store is opened without an explicit size.
const DefaultMaxEntries = 4096

// Invalidator is implemented by all caches that support full invalidation.
type Invalidator interface {
	// Invalidate clears all entries from the cache.
	Invalidate()
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits       int64
	Misses     int64
	Entries    int
	MaxEntries int
}

// HitRate returns the fraction of lookups served from the cache.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
