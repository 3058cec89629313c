package feed

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/hotspot-cli/internal/zone"
)

// FrameCache is a concurrent-safe LRU of decoded frames with TTL expiration.
// A zero-capacity cache stores nothing.
type FrameCache struct {
	mu      sync.Mutex
	entries map[int]*list.Element
	order   *list.List // front=newest
	max     int
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	index    int
	frame    *zone.Frame
	storedAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewFrameCache creates a cache holding up to maxEntries frames for ttl.
// A non-positive ttl never expires entries.
func NewFrameCache(maxEntries int, ttl time.Duration) *FrameCache {
	return &FrameCache{
		entries: make(map[int]*list.Element),
		order:   list.New(),
		max:     maxEntries,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached frame for index, or nil on miss or expiration.
func (c *FrameCache) Get(index int) *zone.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[index]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	e := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.entries, index)
		c.misses.Add(1)
		return nil
	}

	c.order.MoveToFront(el)
	c.hits.Add(1)
	return e.frame
}

// Put stores frame under index, evicting the least recently used entry when
// full.
func (c *FrameCache) Put(index int, frame *zone.Frame) {
	if c.max <= 0 || frame == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[index]; ok {
		el.Value = &cacheEntry{index: index, frame: frame, storedAt: c.now()}
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).index)
	}
	c.entries[index] = c.order.PushFront(&cacheEntry{index: index, frame: frame, storedAt: c.now()})
}

// Stats returns cache performance statistics.
func (c *FrameCache) Stats() CacheStats {
	c.mu.Lock()
	entries := c.order.Len()
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return CacheStats{
		Entries:    entries,
		MaxEntries: c.max,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}
