package aiclient

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a generated summary is reused.
const DefaultCacheTTL = time.Hour

type cacheEntry struct {
	summary  string
	storedAt time.Time
}

// SummaryCache is a process-local, TTL-bounded map from cache key to summary.
// Expired entries are not swept; they are overwritten on the next Set.
type SummaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewSummaryCache returns an empty cache. ttl <= 0 uses DefaultCacheTTL.
func NewSummaryCache(ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SummaryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the summary stored under key if it is younger than the TTL.
func (c *SummaryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return "", false
	}
	return e.summary, true
}

// Set stores summary under key. Empty summaries are ignored.
func (c *SummaryCache) Set(key, summary string) {
	if summary == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{summary: summary, storedAt: c.now()}
}

// Len returns the number of stored entries, expired ones included.
func (c *SummaryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
