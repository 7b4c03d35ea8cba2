// Package cache memoizes derived freshness states. Entries carry no
// authority: the content store's metadata is always the source of truth, and
// an entry older than its TTL is logically absent even before eviction.
package cache

import (
	"sync"
	"time"

	"github.com/stillhq/still/internal/forum"
)

// DefaultTTL bounds the staleness window for any read served from the cache.
const DefaultTTL = 60 * time.Second

type entry struct {
	state    forum.State
	insertAt time.Time
	ttl      time.Duration
}

// Cache maps post ids to their most recently computed freshness state.
// Safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
}

// New creates a Cache with the given default per-entry TTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
}

// NewDefault creates a Cache with the standard 60s TTL.
func NewDefault() *Cache {
	return New(DefaultTTL)
}

// Set stores a state with the default TTL, overwriting any existing entry.
func (c *Cache) Set(postID string, state forum.State) {
	c.SetWithTTL(postID, state, c.defaultTTL)
}

// SetWithTTL stores a state with an explicit TTL.
func (c *Cache) SetWithTTL(postID string, state forum.State, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[postID] = entry{state: state, insertAt: time.Now(), ttl: ttl}
}

// Get returns the cached state for a post. Expired entries are treated as
// absent and evicted as a side effect.
func (c *Cache) Get(postID string) (forum.State, bool) {
	c.mu.RLock()
	e, ok := c.entries[postID]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if time.Since(e.insertAt) > e.ttl {
		c.mu.Lock()
		// Re-check under the write lock: the entry may have been refreshed.
		if cur, still := c.entries[postID]; still && cur.insertAt.Equal(e.insertAt) {
			delete(c.entries, postID)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.state, true
}

// Invalidate removes a post's entry, used when a write makes it stale.
func (c *Cache) Invalidate(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, postID)
}

// InvalidateThread conservatively clears the whole cache. There is no
// postID→threadID index, and correctness beats hit-rate here.
func (c *Cache) InvalidateThread(threadID string) {
	c.Clear()
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Size returns the number of physically present entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
