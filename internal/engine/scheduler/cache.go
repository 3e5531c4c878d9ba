package scheduler

import (
	"maps"
	"sync"

	"go.trai.ch/knit/internal/core/domain"
)

// Cache maps module identities to transformed content for one build.
// Entries are written once by the scheduler and never changed afterwards.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates a Cache, optionally warm-started from persisted entries.
func NewCache(warm map[string]string) *Cache {
	entries := make(map[string]string, len(warm))
	maps.Copy(entries, warm)
	return &Cache{entries: entries}
}

// Get returns the cached content for id.
func (c *Cache) Get(id domain.ModuleID) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.entries[id.String()]
	return content, ok
}

// put stores content for id unless an entry already exists.
func (c *Cache) put(id domain.ModuleID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[id.String()]; exists {
		return
	}
	c.entries[id.String()] = content
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Retain discards every entry whose module is not kept and returns how many
// entries were dropped.
func (c *Cache) Retain(keep func(domain.ModuleID) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key := range c.entries {
		if !keep(domain.NewModuleID(key)) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Snapshot returns a copy of the entries suitable for persisting.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
