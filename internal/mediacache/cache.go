// Package mediacache is a bounded in-memory store for resolved media
// payloads. Entries expire lazily on read; there is deliberately no
// background sweeper, the on-access check is cheap and keeps the cache
// free of timers.
package mediacache

import (
	"sync"
	"time"
)

const (
	// DefaultMaxEntries bounds the number of payloads held at once.
	DefaultMaxEntries = 50
	// DefaultTTL is how long an entry stays servable after insertion.
	DefaultTTL = time.Hour
)

type entry struct {
	payload     []byte
	contentType string
	cachedAt    time.Time
}

// Cache maps opaque ids to complete media payloads. Safe for
// concurrent use; every read-check-write sequence runs under the mutex.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		entries:    make(map[string]entry, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the payload and content type for id. An entry past its
// TTL counts as absent and is removed as a side effect of the lookup.
func (c *Cache) Get(id string) ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		c.misses++
		return nil, "", false
	}
	if c.now().Sub(e.cachedAt) > c.ttl {
		delete(c.entries, id)
		c.misses++
		return nil, "", false
	}
	c.hits++
	return e.payload, e.contentType, true
}

// Put stores payload under id. When a new id would push the cache past
// capacity, the single entry with the oldest insertion time is evicted
// first; overwriting an existing id never evicts. A cache configured
// with a non-positive TTL drops every Put, since the entry would be
// born expired.
func (c *Cache) Put(id string, payload []byte, contentType string) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[id] = entry{
		payload:     payload,
		contentType: contentType,
		cachedAt:    c.now(),
	}
}

// evictOldest removes the entry with the smallest insertion timestamp.
// Caller holds the mutex.
func (c *Cache) evictOldest() {
	var oldestID string
	var oldestAt time.Time
	first := true
	for id, e := range c.entries {
		if first || e.cachedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = e.cachedAt
			first = false
		}
	}
	if oldestID != "" {
		delete(c.entries, oldestID)
		c.evictions++
	}
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a snapshot of cache counters for the stats endpoint.
type Stats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Bytes      int    `json:"bytes"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, e := range c.entries {
		total += len(e.payload)
	}
	return Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Bytes:      total,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}
