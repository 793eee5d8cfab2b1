// Package cachegc adds entry expiry to LRU caches.
package cachegc

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/hashicorp/golang-lru/simplelru"
)

// Cache is a local in-memory caching layer.
// Entries older than TTL are treated as absent and pruned lazily.
type Cache struct {
	LRU simplelru.LRUCache
	TTL time.Duration
	Now func() time.Time
}

type cacheEntry struct {
	data        interface{}
	lastUpdated time.Time
}

// NewCache creates a new caching layer over an existing LRU cache.
func NewCache(cache simplelru.LRUCache, ttl time.Duration) *Cache {
	return &Cache{LRU: cache, TTL: ttl, Now: time.Now}
}

// New creates a thread-safe caching layer that keeps the number of entries specified.
func New(size int, ttl time.Duration) (*Cache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return NewCache(cache, ttl), nil
}

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Add inserts or refreshes an item.
func (c *Cache) Add(key, value interface{}) {
	c.LRU.Add(key, &cacheEntry{
		data:        value,
		lastUpdated: c.now(),
	})
}

// Get returns an item in the cache, ignoring expired items.
func (c *Cache) Get(key interface{}) (value interface{}, ok bool) {
	entryI, ok := c.LRU.Get(key)
	if !ok {
		return nil, false
	}
	entry := entryI.(*cacheEntry)
	if c.now().Sub(entry.lastUpdated) > c.TTL {
		c.LRU.Remove(key)
		c.GC() // Also prune other expired entries while we're at it.
		return nil, false
	}
	return entry.data, true
}

// Remove deletes an item, reporting whether it was present.
func (c *Cache) Remove(key interface{}) bool {
	return c.LRU.Remove(key)
}

// GC removes expired entries, starting from the oldest.
func (c *Cache) GC() {
	now := c.now()
	for {
		key, entryI, ok := c.LRU.GetOldest()
		if !ok {
			return
		}
		entry := entryI.(*cacheEntry)
		if now.Sub(entry.lastUpdated) <= c.TTL {
			return
		}
		c.LRU.Remove(key)
	}
}

// Len returns the number of entries, including expired ones not yet pruned.
func (c *Cache) Len() int {
	return c.LRU.Len()
}
