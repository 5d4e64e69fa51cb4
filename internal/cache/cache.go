// Package cache implements the in-memory response cache: exact lookups keyed
// by (intent, normalized query) with a word-set similarity fallback across
// live entries of the same intent. Process-lifetime only; a restart clears it.
package cache

import (
	"sort"
	"sync"
	"time"

	"portfolio-chatbot/internal/textmatch"
)

const (
	// DefaultCapacity bounds the entry count; inserting beyond it evicts
	// the oldest fifth by insertion time.
	DefaultCapacity = 1000
	// DefaultTTL is how long an entry may be served after insertion.
	DefaultTTL = 5 * time.Minute

	similarityThreshold = 0.8
	similarConfidence   = 0.9
)

// Entry is the cached response payload. Source is the source the response was
// originally produced with; the cache appends the hit-kind suffix on the way
// out.
type Entry struct {
	Response   string
	Confidence float64
	Source     string
}

// HitKind distinguishes exact key hits from similarity hits.
type HitKind int

const (
	HitExact HitKind = iota
	HitSimilar
)

type record struct {
	query      string
	intent     string
	entry      Entry
	insertedAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size      int
	Hits      int64
	Similar   int64
	Misses    int64
	Evictions int64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*record
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits      int64
	similar   int64
	misses    int64
	evictions int64
}

// New creates a cache with the given capacity and TTL. Non-positive arguments
// fall back to the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[string]*record),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func key(intent, normalizedQuery string) string {
	return intent + "\x00" + normalizedQuery
}

// Get returns the cached entry for the query, or nil on a miss. Exact key
// match wins; otherwise live entries of the same intent are scanned and the
// first one whose query has Jaccard similarity >= 0.8 with the lookup query
// is returned with its confidence scaled by 0.9 and kind HitSimilar.
func (c *Cache) Get(query, intent string) (*Entry, HitKind) {
	normalized := textmatch.Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpiredLocked()

	if rec, ok := c.entries[key(intent, normalized)]; ok {
		c.hits++
		e := rec.entry
		return &e, HitExact
	}

	for _, rec := range c.entries {
		if rec.intent != intent {
			continue
		}
		if textmatch.Jaccard(normalized, rec.query) >= similarityThreshold {
			c.similar++
			e := rec.entry
			e.Confidence *= similarConfidence
			return &e, HitSimilar
		}
	}

	c.misses++
	return nil, HitExact
}

// Put inserts or overwrites the entry for (query, intent). When the cache is
// at capacity the oldest 20% of entries are evicted first.
func (c *Cache) Put(query, intent string, e Entry) {
	normalized := textmatch.Normalize(query)

	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(intent, normalized)
	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[k] = &record{
		query:      normalized,
		intent:     intent,
		entry:      e,
		insertedAt: c.now(),
	}
}

// Clear drops every entry without touching the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*record)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      len(c.entries),
		Hits:      c.hits,
		Similar:   c.similar,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *Cache) purgeExpiredLocked() {
	cutoff := c.now().Add(-c.ttl)
	for k, rec := range c.entries {
		if rec.insertedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// evictOldestLocked removes the oldest 20% of entries by insertion time, at
// least one.
func (c *Cache) evictOldestLocked() {
	n := len(c.entries) / 5
	if n < 1 {
		n = 1
	}
	type aged struct {
		key string
		at  time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, rec := range c.entries {
		all = append(all, aged{key: k, at: rec.insertedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })
	for i := 0; i < n && i < len(all); i++ {
		delete(c.entries, all[i].key)
		c.evictions++
	}
}
