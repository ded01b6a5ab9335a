package descriptors

import (
	"sync"
)

// TypesUsageCache hands out small dense IDs for distinct descriptor type
// histograms. Equal histograms always map to the same ID. IDs start at 1;
// 0 means "not assigned yet".
type TypesUsageCache struct {
	mu     sync.Mutex
	nextID uint32
	ids    map[TypesHistogram]uint32
}

func NewTypesUsageCache() *TypesUsageCache {
	return &TypesUsageCache{
		nextID: 1,
		ids:    make(map[TypesHistogram]uint32),
	}
}

var (
	defaultUsageCacheOnce sync.Once
	defaultUsageCache     *TypesUsageCache
)

// DefaultTypesUsageCache is the process-wide cache used when callers do not
// inject their own.
func DefaultTypesUsageCache() *TypesUsageCache {
	defaultUsageCacheOnce.Do(func() {
		defaultUsageCache = NewTypesUsageCache()
	})
	return defaultUsageCache
}

// ID returns the usage ID for h, assigning the next free one on first sight.
func (c *TypesUsageCache) ID(h TypesHistogram) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.ids[h]; ok {
		return id
	}
	id := c.nextID
	c.nextID++
	c.ids[h] = id
	return id
}

func (c *TypesUsageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ids)
}

// Reset forgets every assigned ID. Signatures holding old IDs must not be
// compared against ones computed afterwards.
func (c *TypesUsageCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make(map[TypesHistogram]uint32)
	c.nextID = 1
}
