package cache

import (
	"sync"
	"time"

	"github.com/jg-phare/nudge/pkg/config"
	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

// Entry is one cached outcome: either a suggestion or a recorded LLM
// failure (negative entry).
type Entry struct {
	Suggestion *protocol.Suggestion
	Failure    *protocol.ErrorInfo

	createdAt  time.Time
	ttl        time.Duration
	lastAccess time.Time
}

// Lookup is the result of a cache read.
type Lookup struct {
	Entry *Entry
	// Stale is set when the entry is inside the stale window: still
	// servable, but a background refresh is worthwhile.
	Stale bool
}

// Cache is a bounded TTL map from fingerprint keys to suggestions. Expired
// entries are dropped lazily on lookup; overflow evicts the least recently
// used entry. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	capacity   int
	staleRatio float64
}

// New builds a cache from config.
func New(cfg config.CacheConfig) *Cache {
	return &Cache{
		entries:    make(map[string]*Entry, cfg.Capacity),
		capacity:   cfg.Capacity,
		staleRatio: cfg.StaleRatio,
	}
}

// Get returns the entry for key when it is still within its TTL. Entries
// past the full TTL are removed and reported as a miss; entries past
// stale_ratio x TTL are returned with Stale set.
func (c *Cache) Get(key string) (Lookup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Lookup{}, false
	}

	age := time.Since(e.createdAt)
	if age >= e.ttl {
		delete(c.entries, key)
		return Lookup{}, false
	}

	e.lastAccess = time.Now()
	stale := c.staleRatio > 0 && age >= time.Duration(float64(e.ttl)*c.staleRatio)
	return Lookup{Entry: e, Stale: stale}, true
}

// Put stores a suggestion under key with the given TTL.
func (c *Cache) Put(key string, s protocol.Suggestion, ttl time.Duration) {
	c.insert(key, &Entry{Suggestion: &s}, ttl)
}

// PutNegative records an LLM failure so repeated identical requests back off
// instead of hammering a failing endpoint.
func (c *Cache) PutNegative(key string, errInfo protocol.ErrorInfo, ttl time.Duration) {
	c.insert(key, &Entry{Failure: &errInfo}, ttl)
}

func (c *Cache) insert(key string, e *Entry, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	now := time.Now()
	e.createdAt = now
	e.lastAccess = now
	e.ttl = ttl

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = e
}

// evictOldest drops the least recently used entry. Called with mu held.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTLFor picks the TTL class for a successful completion: the short auto
// TTL for high-frequency auto modes, the manual TTL otherwise.
func TTLFor(mode shellmode.Mode, cfg config.CacheConfig) time.Duration {
	if mode.IsAuto() {
		return time.Duration(cfg.TTLAutoMs) * time.Millisecond
	}
	return time.Duration(cfg.TTLManualMs) * time.Millisecond
}

// NegativeTTL is the TTL for recorded failures.
func NegativeTTL(cfg config.CacheConfig) time.Duration {
	return time.Duration(cfg.TTLNegMs) * time.Millisecond
}
