package loader

import "image"

const (
	// DefaultCapacity is the bounded cache size.
	DefaultCapacity = 50

	// evictBatch is how many of the oldest entries are dropped when
	// the cache overflows.
	evictBatch = 10
)

// fifoCache is an insertion-ordered thumbnail cache with batch
// eviction of the oldest entries. Deliberately not an LRU: get does
// not promote, and put of an existing key does not reorder. Eviction
// only drops the mapping; the bitmap itself is left to the garbage
// collector so an entry still being displayed is never yanked out
// from under its view.
//
// Not self-locking. The session guards the cache and the in-flight
// set with one mutex, as a unit.
type fifoCache struct {
	entries  map[string]image.Image
	order    []string
	capacity int
}

func newFIFOCache(capacity int) *fifoCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &fifoCache{
		entries:  make(map[string]image.Image),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

func (c *fifoCache) get(key string) (image.Image, bool) {
	img, ok := c.entries[key]
	return img, ok
}

// put inserts or replaces an entry and returns how many entries were
// evicted to stay within capacity.
func (c *fifoCache) put(key string, img image.Image) int {
	if _, ok := c.entries[key]; ok {
		c.entries[key] = img
		return 0
	}

	c.entries[key] = img
	c.order = append(c.order, key)

	if len(c.order) <= c.capacity {
		return 0
	}

	n := evictBatch
	if n > len(c.order) {
		n = len(c.order)
	}
	for _, old := range c.order[:n] {
		delete(c.entries, old)
	}
	c.order = append(c.order[:0], c.order[n:]...)
	return n
}

func (c *fifoCache) len() int {
	return len(c.order)
}

func (c *fifoCache) reset() {
	c.entries = make(map[string]image.Image)
	c.order = c.order[:0]
}
