package main

import (
	"fmt"
	"sync"
	"time"
)

const (
	searchCacheTTL     = 15 * time.Minute
	searchCacheMaxSize = 50
)

type cacheEntry struct {
	payload   *ImageSearchResponse
	expiresAt time.Time
}

// SearchCache holds fully assembled search payloads keyed by request
// shape. When the entry ceiling is reached on write the whole cache is
// cleared rather than evicting a single entry. Expired entries are evicted
// lazily on read. Nothing survives a restart.
type SearchCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

func NewSearchCache() *SearchCache {
	return &SearchCache{
		entries: make(map[string]cacheEntry),
		ttl:     searchCacheTTL,
		maxSize: searchCacheMaxSize,
		now:     time.Now,
	}
}

// CacheKey identifies a search by its full request shape.
func CacheKey(query string, count int, order SortOrder) string {
	return fmt.Sprintf("%s::%d::%s", query, count, order)
}

// Get returns the cached payload for key, or nil on a miss.
func (c *SearchCache) Get(key string) *ImageSearchResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	if entry.expiresAt.Before(c.now()) {
		delete(c.entries, key)
		return nil
	}
	return entry.payload
}

// Put stores payload under key, dropping the entire cache first when at
// capacity.
func (c *SearchCache) Put(key string, payload *ImageSearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{
		payload:   payload,
		expiresAt: c.now().Add(c.ttl),
	}
}
