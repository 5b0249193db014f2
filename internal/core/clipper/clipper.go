// Package clipper runs polygon boolean operations on a fixed-point integer grid.
//
// Coordinates are multiplied by the scale, rounded to int64 and handed to the
// Vatti implementation in github.com/ctessum/go.clipper. Results come back as
// geometry.MultiPolygon with hole rings flagged, outer rings counter-clockwise
// and holes clockwise (y-up).
package clipper

import (
	"fmt"
	"math"
	"sync/atomic"

	vatti "github.com/ctessum/go.clipper"

	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/observability/log"
)

const (
	// DefaultScale is the number of grid units per scene unit.
	DefaultScale = 100
	// DefaultMinRingArea is the smallest ring kept in output, in squared grid units.
	DefaultMinRingArea = 1

	// maxGrid keeps the float to int64 conversion defined; the backend rejects
	// anything past 2^62 on its own.
	maxGrid = 1 << 63
)

type Option func(*Clipper)

func WithLogger(l log.Log) Option {
	return func(c *Clipper) { c.log = l }
}

// WithMinRingArea sets the sliver filter threshold in squared grid units.
func WithMinRingArea(a float64) Option {
	return func(c *Clipper) { c.minArea = a }
}

// Clipper is safe for concurrent use; each operation builds its own backend state.
type Clipper struct {
	scale   float64
	minArea float64
	log     log.Log
	ops     atomic.Int64
}

// New returns a Clipper on a grid of scale units per scene unit. A non-positive
// scale selects DefaultScale.
func New(scale float64, opts ...Option) *Clipper {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = DefaultScale
	}
	c := &Clipper{
		scale:   scale,
		minArea: DefaultMinRingArea,
		log:     log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Clipper) Scale() float64 { return c.scale }

// Ops counts boolean operations executed so far.
func (c *Clipper) Ops() int64 { return c.ops.Load() }

func (c *Clipper) Union(a, b geometry.MultiPolygon) geometry.MultiPolygon {
	return c.execute(vatti.CtUnion, a, b)
}

func (c *Clipper) Intersect(a, b geometry.MultiPolygon) geometry.MultiPolygon {
	return c.execute(vatti.CtIntersection, a, b)
}

// Difference returns a minus b.
func (c *Clipper) Difference(a, b geometry.MultiPolygon) geometry.MultiPolygon {
	return c.execute(vatti.CtDifference, a, b)
}

// UnionAll merges every valid polygon in one pass. Invalid polygons are skipped.
func (c *Clipper) UnionAll(polys []geometry.Polygon) geometry.MultiPolygon {
	var subject geometry.MultiPolygon
	for _, p := range polys {
		subject.Rings = append(subject.Rings, geometry.Ring{Points: p})
	}
	return c.execute(vatti.CtUnion, subject, geometry.MultiPolygon{})
}

// Area measures m on the integer grid and converts back to scene units.
func (c *Clipper) Area(m geometry.MultiPolygon) float64 {
	var a float64
	for _, r := range m.Rings {
		path, ok := c.toPath(r.Points)
		if !ok {
			continue
		}
		if r.IsHole {
			a -= math.Abs(vatti.Area(path))
		} else {
			a += math.Abs(vatti.Area(path))
		}
	}
	return a / (c.scale * c.scale)
}

func (c *Clipper) PolygonArea(p geometry.Polygon) float64 {
	return c.Area(geometry.MultiPolygon{Rings: []geometry.Ring{{Points: p}}})
}

// Snap rounds p onto the grid and back, the same way operations see it.
func (c *Clipper) Snap(p geometry.Point2) geometry.Point2 {
	return geometry.Point2{
		X: math.Round(p.X*c.scale) / c.scale,
		Y: math.Round(p.Y*c.scale) / c.scale,
	}
}

func (c *Clipper) execute(op vatti.ClipType, subject, clip geometry.MultiPolygon) (out geometry.MultiPolygon) {
	c.ops.Add(1)

	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("polygon clipping failed, returning empty result",
				log.String("op", opName(op)),
				log.Int("subject_rings", len(subject.Rings)),
				log.Int("clip_rings", len(clip.Rings)),
				log.String("panic", fmt.Sprint(r)),
			)
			out = geometry.MultiPolygon{}
		}
	}()

	subj := c.toPaths(subject)
	if len(subj) == 0 && op != vatti.CtUnion {
		return geometry.MultiPolygon{}
	}
	clp := c.toPaths(clip)
	if len(clp) == 0 && op == vatti.CtIntersection {
		return geometry.MultiPolygon{}
	}
	if len(subj) == 0 && len(clp) == 0 {
		return geometry.MultiPolygon{}
	}

	engine := vatti.NewClipper(vatti.IoNone)
	if len(subj) > 0 {
		engine.AddPaths(subj, vatti.PtSubject, true)
	}
	if len(clp) > 0 {
		engine.AddPaths(clp, vatti.PtClip, true)
	}

	tree, ok := engine.Execute2(op, vatti.PftNonZero, vatti.PftNonZero)
	if !ok || tree == nil {
		c.log.Debug("polygon clipping did not converge", log.String("op", opName(op)))
		return geometry.MultiPolygon{}
	}

	for _, node := range tree.Childs() {
		c.collect(node, &out)
	}
	return out
}

// collect walks an outer node, its holes and the outers nested in those holes.
// A filtered outer drops its holes with it.
func (c *Clipper) collect(node *vatti.PolyNode, out *geometry.MultiPolygon) {
	ring, ok := c.fromPath(node.Contour(), node.IsHole())
	if !ok {
		if node.IsHole() {
			for _, child := range node.Childs() {
				c.collect(child, out)
			}
		}
		return
	}
	out.Rings = append(out.Rings, ring)
	for _, child := range node.Childs() {
		c.collect(child, out)
	}
}

func (c *Clipper) toPaths(m geometry.MultiPolygon) vatti.Paths {
	paths := make(vatti.Paths, 0, len(m.Rings))
	for _, r := range m.Rings {
		path, ok := c.toPath(r.Points)
		if !ok {
			continue
		}
		// Non-zero filling needs holes wound against their outers.
		if vatti.Orientation(path) == r.IsHole {
			reverse(path)
		}
		paths = append(paths, path)
	}
	return paths
}

func (c *Clipper) toPath(p geometry.Polygon) (vatti.Path, bool) {
	if len(p) < 3 || !p.IsFinite() {
		return nil, false
	}
	path := make(vatti.Path, 0, len(p))
	for _, v := range p {
		x, y := math.Round(v.X*c.scale), math.Round(v.Y*c.scale)
		if math.Abs(x) >= maxGrid || math.Abs(y) >= maxGrid {
			return nil, false
		}
		pt := vatti.NewIntPoint(vatti.CInt(x), vatti.CInt(y))
		if n := len(path); n > 0 && path[n-1].X == pt.X && path[n-1].Y == pt.Y {
			continue
		}
		path = append(path, pt)
	}
	if n := len(path); n > 1 && path[0].X == path[n-1].X && path[0].Y == path[n-1].Y {
		path = path[:n-1]
	}
	if len(path) < 3 {
		return nil, false
	}
	return path, true
}

func (c *Clipper) fromPath(path vatti.Path, hole bool) (geometry.Ring, bool) {
	if len(path) < 3 || math.Abs(vatti.Area(path)) < c.minArea {
		return geometry.Ring{}, false
	}
	// Outers counter-clockwise, holes clockwise.
	ccw := vatti.Area(path) > 0
	pts := make(geometry.Polygon, len(path))
	for i, ip := range path {
		j := i
		if ccw == hole {
			j = len(path) - 1 - i
		}
		pts[j] = geometry.Point2{X: float64(ip.X) / c.scale, Y: float64(ip.Y) / c.scale}
	}
	return geometry.Ring{Points: pts, IsHole: hole}, true
}

func reverse(path vatti.Path) {
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
}

func opName(op vatti.ClipType) string {
	switch op {
	case vatti.CtIntersection:
		return "intersect"
	case vatti.CtUnion:
		return "union"
	case vatti.CtDifference:
		return "difference"
	default:
		return "xor"
	}
}
