package shadow

import (
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/observability/log"
)

// Builder builds the shadows of a whole occluder set with one throw limit and
// an optional cache. It holds no per-query state.
type Builder struct {
	maxThrow float64
	cache    *Cache
	log      log.Log
}

// NewBuilder returns a Builder. cache may be nil.
func NewBuilder(maxThrow float64, cache *Cache, logger log.Log) *Builder {
	if maxThrow <= 0 {
		maxThrow = DefaultMaxThrow
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Builder{maxThrow: maxThrow, cache: cache, log: logger}
}

func (b *Builder) MaxThrow() float64 { return b.maxThrow }

func (b *Builder) Cache() *Cache { return b.cache }

func (b *Builder) Wall(w Wall, origin geometry.Point3, elevation float64) (geometry.Polygon, bool) {
	if b.cache == nil {
		return WallShadow(w, origin, elevation, b.maxThrow)
	}
	key := wallKey(w, origin, elevation, b.maxThrow)
	if v, ok := b.cache.Get(key); ok {
		if len(v) == 0 {
			return nil, false
		}
		return v[0], true
	}
	p, ok := WallShadow(w, origin, elevation, b.maxThrow)
	if ok {
		b.cache.Put(key, []geometry.Polygon{p})
	} else {
		b.cache.Put(key, nil)
	}
	return p, ok
}

func (b *Builder) Body(body Body, origin geometry.Point3, elevation float64) []geometry.Polygon {
	if b.cache == nil {
		return BuildBodyShadows(body, origin, elevation, b.maxThrow)
	}
	key := bodyKey(body, origin, elevation, b.maxThrow)
	if v, ok := b.cache.Get(key); ok {
		return v
	}
	shadows := BuildBodyShadows(body, origin, elevation, b.maxThrow)
	b.cache.Put(key, shadows)
	return shadows
}

// Shadows collects every shadow the walls and bodies cast on the plane at elevation.
func (b *Builder) Shadows(walls []Wall, bodies []Body, origin geometry.Point3, elevation float64) []geometry.Polygon {
	shadows := make([]geometry.Polygon, 0, len(walls)+len(bodies))
	for _, w := range walls {
		if p, ok := b.Wall(w, origin, elevation); ok {
			shadows = append(shadows, p)
		}
	}
	for _, body := range bodies {
		shadows = append(shadows, b.Body(body, origin, elevation)...)
	}
	if b.log.Enabled(log.LevelDebug) {
		b.log.Debug("shadows built",
			log.Float64("elevation", elevation),
			log.Int("walls", len(walls)),
			log.Int("bodies", len(bodies)),
			log.Int("shadows", len(shadows)),
		)
	}
	return shadows
}
