package confidence

import (
	"sync"

	"github.com/okian/duelrank/pkg/metrics"
)

// itemCache memoizes confidence scores per item and tracks which items
// each cached score was derived from, so a rating change invalidates
// exactly the dependent entries.
type itemCache struct {
	mu     sync.RWMutex
	values map[string]float64
	// dependents maps a contributing item id to the set of cached item
	// ids whose scores depend on it.
	dependents map[string]map[string]bool
}

func newItemCache() *itemCache {
	return &itemCache{
		values:     make(map[string]float64),
		dependents: make(map[string]map[string]bool),
	}
}

func (c *itemCache) get(itemID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[itemID]
	if ok {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return v, ok
}

func (c *itemCache) put(itemID string, value float64, deps []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[itemID] = value
	for _, dep := range deps {
		set, ok := c.dependents[dep]
		if !ok {
			set = make(map[string]bool)
			c.dependents[dep] = set
		}
		set[itemID] = true
	}
}

// invalidate drops every cached score depending on any of the given
// items.
func (c *itemCache) invalidate(itemIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for _, id := range itemIDs {
		for dependent := range c.dependents[id] {
			if _, ok := c.values[dependent]; ok {
				delete(c.values, dependent)
				dropped++
			}
		}
		delete(c.dependents, id)
	}
	if dropped > 0 {
		metrics.RecordCacheInvalidations(dropped)
	}
}

// reset clears everything; reserved for item-set changes.
func (c *itemCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.values)
	c.values = make(map[string]float64)
	c.dependents = make(map[string]map[string]bool)
	if dropped > 0 {
		metrics.RecordCacheInvalidations(dropped)
	}
}
