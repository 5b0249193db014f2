package shadow

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/sightline/internal/core/geometry"
)

const DefaultCacheSize = 4096

// Cache memoises shadow polygons. Keys hash the occluder id, its full geometry,
// the origin, the plane elevation and the throw limit, so any change to one of
// them misses. When the cache fills up it is cleared as a whole.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64][]geometry.Polygon
	size    int

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		entries: make(map[uint64][]geometry.Polygon, size),
		size:    size,
	}
}

func (c *Cache) Get(key uint64) ([]geometry.Polygon, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *Cache) Put(key uint64, shadows []geometry.Polygon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.size {
		c.entries = make(map[uint64][]geometry.Polygon, c.size)
	}
	c.entries[key] = shadows
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[uint64][]geometry.Polygon, c.size)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

type keyWriter struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newKey(kind byte, id string) *keyWriter {
	k := &keyWriter{d: xxhash.New()}
	_, _ = k.d.Write([]byte{kind})
	_, _ = k.d.WriteString(id)
	return k
}

func (k *keyWriter) float(vs ...float64) *keyWriter {
	for _, v := range vs {
		binary.LittleEndian.PutUint64(k.buf[:], math.Float64bits(v))
		_, _ = k.d.Write(k.buf[:])
	}
	return k
}

func (k *keyWriter) sum() uint64 { return k.d.Sum64() }

func wallKey(w Wall, origin geometry.Point3, elevation, maxThrow float64) uint64 {
	limited := 0.0
	if w.Limited {
		limited = 1
	}
	return newKey('w', w.ID).
		float(w.A.X, w.A.Y, w.B.X, w.B.Y, w.Bottom, w.Top, limited).
		float(origin.X, origin.Y, origin.Z, elevation, maxThrow).
		sum()
}

func bodyKey(b Body, origin geometry.Point3, elevation, maxThrow float64) uint64 {
	k := newKey('b', b.ID).float(float64(len(b.Footprint)))
	for _, v := range b.Footprint {
		k.float(v.X, v.Y)
	}
	return k.float(b.Bottom, b.Top()).
		float(origin.X, origin.Y, origin.Z, elevation, maxThrow).
		sum()
}
