package fov

import "github.com/samdwyer/deepdive/internal/world"

// losCache memoizes line-of-sight results keyed on the unordered coordinate
// pair. Normalizing the key forces one shared answer per pair, which makes
// the cached predicate symmetric even though the underlying Bresenham trace
// is not. It is an approximation, and the one this engine commits to.
//
// Entries assume static map geometry; the engine drains the cache wholesale
// whenever the grid is replaced or a door flips.
type losCache struct {
	entries map[uint64]bool
	hits    uint64
	misses  uint64
}

func newLosCache() *losCache {
	return &losCache{entries: make(map[uint64]bool)}
}

// pairKey packs the normalized pair into a single uint64: 16 bits per
// coordinate, lexicographically smaller point first. Grid dimensions are
// far below 2^16, so the packing is collision-free.
func pairKey(a, b world.Point) uint64 {
	if b.Less(a) {
		a, b = b, a
	}
	return uint64(uint16(a.X))<<48 | uint64(uint16(a.Y))<<32 |
		uint64(uint16(b.X))<<16 | uint64(uint16(b.Y))
}

func (c *losCache) lookup(a, b world.Point) (clear, ok bool) {
	clear, ok = c.entries[pairKey(a, b)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return clear, ok
}

func (c *losCache) store(a, b world.Point, clear bool) {
	c.entries[pairKey(a, b)] = clear
}

func (c *losCache) clear() {
	c.entries = make(map[uint64]bool)
	c.hits = 0
	c.misses = 0
}

func (c *losCache) len() int {
	return len(c.entries)
}
