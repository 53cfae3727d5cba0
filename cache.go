package courier

import (
	"container/list"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultCacheCapacity bounds NewMemoryCache when no capacity is given.
const DefaultCacheCapacity = 128

// Entry is a cached response envelope with an absolute expiry. An entry is
// never returned once the current time reaches ExpiresAt; eviction is owned
// by the cache, not the pipeline.
type Entry struct {
	Response  *Response
	ExpiresAt time.Time
}

// Cache is the response cache capability. Implementations must tolerate
// concurrent calls; consistency beyond last-writer-wins is not required.
type Cache interface {
	Get(key string) (*Entry, bool)
	Set(key string, entry *Entry, ttl time.Duration)
	Delete(key string)
	Clear()
}

// MemoryCache is a capacity-bounded in-memory cache with FIFO eviction:
// inserting into a full cache removes the earliest-surviving inserted key.
// Re-setting an existing key keeps its original insertion position.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	clock    clock.Clock
}

type memoryCacheItem struct {
	key   string
	entry *Entry
}

// NewMemoryCache creates a cache holding at most capacity entries. A
// non-positive capacity falls back to DefaultCacheCapacity.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		clock:    clock.New(),
	}
}

// Get returns the entry for key unless it has expired. Expired entries are
// removed on access.
func (c *MemoryCache) Get(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	item := elem.Value.(*memoryCacheItem)
	if !c.clock.Now().Before(item.entry.ExpiresAt) {
		c.removeLocked(elem)
		return nil, false
	}
	return item.entry, true
}

// Set stores entry under key with the given ttl, evicting the oldest
// surviving key when the cache is full.
func (c *MemoryCache) Set(key string, entry *Entry, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.ExpiresAt = c.clock.Now().Add(ttl)

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*memoryCacheItem).entry = entry
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Front(); oldest != nil {
			c.removeLocked(oldest)
		}
	}
	c.entries[key] = c.order.PushBack(&memoryCacheItem{key: key, entry: entry})
}

// Delete removes key if present.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
}

// Clear removes every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len reports the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	item := elem.Value.(*memoryCacheItem)
	delete(c.entries, item.key)
	c.order.Remove(elem)
}

// withClock swaps the time source; tests use a mock clock.
func (c *MemoryCache) withClock(clk clock.Clock) *MemoryCache {
	c.clock = clk
	return c
}
