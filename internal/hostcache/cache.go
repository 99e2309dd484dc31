// Package hostcache provides the in-memory store of resolved host entries
// for the hostd resolution service. Entries are keyed by the lookup string
// (a hostname, or the canonical name discovered during a reverse lookup),
// never mutated in place, and live until an explicit flush. The cache has
// process-wide lifetime but is an injectable component, so tests construct
// isolated instances instead of sharing global state.
package hostcache

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/lc/hostd/internal/hostentry"
)

var _ Store = (*Cache)(nil)

// Store is the cache surface the resolver depends on.
type Store interface {
	// Lookup returns the entry stored under key, if any. No side effects.
	Lookup(key string) (*hostentry.Entry, bool)
	// Insert stores e under key if absent and returns the authoritative
	// stored entry. If key is already populated the existing entry wins
	// and e is discarded (first-writer-wins).
	Insert(key string, e *hostentry.Entry) *hostentry.Entry
	// Flush atomically removes all entries.
	Flush()
}

// Cache is the in-memory Store implementation. All operations execute
// under one mutex: lookups, inserts, and flushes are mutually exclusive,
// so no caller ever observes a torn state and the first-writer-wins
// invariant of Insert cannot race.
type Cache struct {
	mu      sync.Mutex // guards entries
	entries map[string]*hostentry.Entry

	hits   atomic.Int64 // metrics: lookups answered from the cache
	misses atomic.Int64 // metrics: lookups that found nothing
}

// New creates an empty cache ready for use.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*hostentry.Entry),
	}
}

// Lookup returns the entry stored under key, if any.
func (c *Cache) Lookup(key string) (*hostentry.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.hits.Inc()
	} else {
		c.misses.Inc()
	}
	return e, ok
}

// Insert stores e under key if the key is absent. Callers must treat the
// returned entry, not necessarily e, as authoritative: when a concurrent
// insert already populated key, the stored entry is returned and e is
// dropped.
func (c *Cache) Insert(key string, e *hostentry.Entry) *hostentry.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[key]; ok {
		return cur
	}
	c.entries[key] = e
	return e
}

// Flush removes every entry. Hit/miss counters are preserved across a
// flush; they count lookups, not contents.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*hostentry.Entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Keys returns the cached lookup keys. Order is unspecified.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of the current key to entry mapping. The entries
// themselves are shared (they are immutable); only the map is copied.
func (c *Cache) Snapshot() map[string]*hostentry.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := make(map[string]*hostentry.Entry, len(c.entries))
	for k, e := range c.entries {
		m[k] = e
	}
	return m
}

// Stats returns the cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
