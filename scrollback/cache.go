// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: scrollback/cache.go
// Summary: wrapCache memoizes Wrap results per history index.
//
// Architecture:
//
//	Entries are keyed by logical line index and remember the FormatOptions
//	they were built with. Validity is checked on read by comparing those
//	options with the live ones; a stale entry is never deleted, it is simply
//	replaced by the next Set for the same index. Nothing is ever evicted.

package scrollback

import "sync/atomic"

// wrapCache caches wrapped rows per logical line.
// Thread-safety must be managed by the caller (View).
type wrapCache struct {
	entries map[int][]ScreenLine

	// Statistics (useful for debugging/profiling)
	hits   atomic.Int64
	misses atomic.Int64
}

func newWrapCache() *wrapCache {
	return &wrapCache{entries: make(map[int][]ScreenLine)}
}

// Get returns the cached rows for index if they were built with opts.
// Returns nil on a miss.
func (c *wrapCache) Get(index int, opts FormatOptions) []ScreenLine {
	lines, ok := c.entries[index]
	if !ok || len(lines) == 0 || lines[0].Options != opts {
		c.misses.Add(1)
		// Don't delete here - Set will replace the stale entry.
		return nil
	}
	c.hits.Add(1)
	return lines
}

// Set stores rows for index, superseding any previous entry.
func (c *wrapCache) Set(index int, lines []ScreenLine) {
	c.entries[index] = lines
}

// Len returns the number of entries, stale ones included.
func (c *wrapCache) Len() int {
	return len(c.entries)
}

// Stats returns cache hit/miss statistics.
func (c *wrapCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
