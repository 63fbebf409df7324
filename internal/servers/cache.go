// ABOUTME: Thread-safe TTL cache for parsed manifest sidecars.
// ABOUTME: Keeps repeated /servers listings from re-parsing unchanged TOML.

package servers

import (
	"container/list"
	"sync"
	"time"
)

const (
	manifestCacheTTL  = time.Minute
	manifestCacheSize = 256
)

// manifestEntry stores a parsed manifest with the sidecar mtime it was
// parsed from and its list element.
type manifestEntry struct {
	manifest *Manifest
	modTime  time.Time
	cachedAt time.Time
	element  *list.Element
}

// manifestCache provides a thread-safe, TTL-based, size-limited cache of
// parsed manifests. Uses a doubly-linked list to maintain insertion order
// for O(1) eviction. Entries expire lazily; a changed sidecar mtime is a
// miss.
type manifestCache struct {
	mu      sync.RWMutex
	entries map[string]*manifestEntry
	order   *list.List // List of names in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
}

// newManifestCache creates a manifest cache with the specified TTL and
// maximum size.
func newManifestCache(ttl time.Duration, maxSize int) *manifestCache {
	return &manifestCache{
		entries: make(map[string]*manifestEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// get returns the cached manifest for name if it is fresh and the sidecar
// has not been rewritten since it was parsed.
func (c *manifestCache) get(name string, modTime time.Time) (*Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	if time.Since(entry.cachedAt) >= c.ttl || !entry.modTime.Equal(modTime) {
		return nil, false
	}
	return entry.manifest, true
}

// put records a parsed manifest. If the cache is at capacity, the oldest
// entry is evicted to make room.
func (c *manifestCache) put(name string, modTime time.Time, m *Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	// If name already exists, update in place and move to back
	if entry, exists := c.entries[name]; exists {
		entry.manifest = m
		entry.modTime = modTime
		entry.cachedAt = now
		c.order.MoveToBack(entry.element)
		return
	}

	// Evict oldest if at capacity
	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(name)
	c.entries[name] = &manifestEntry{
		manifest: m,
		modTime:  modTime,
		cachedAt: now,
		element:  elem,
	}
}

// forget drops one name, typically after its server file is removed.
func (c *manifestCache) forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[name]
	if !ok {
		return
	}
	c.order.Remove(entry.element)
	delete(c.entries, name)
}

// evictOldest removes the oldest entry from the cache.
// Must be called with mu held. O(1) operation using linked list.
func (c *manifestCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}

	name, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, name)
}
