package visibility

import (
	"math"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/shadow"
)

// Scene is the working state of one query. Derived shapes are computed on first
// use and live only as long as the query; a Scene is never shared between goroutines.
type Scene struct {
	Query  Query
	Bodies []shadow.Body
	Bounds geometry.Rectangle

	clip *clipper.Clipper

	raw       *geometry.MultiPolygon
	footprint *geometry.MultiPolygon
	planes    []los.Plane
	planesSet bool
}

func newScene(q Query, clip *clipper.Clipper) *Scene {
	sc := &Scene{
		Query:  q,
		Bodies: blockingBodies(q),
		Bounds: q.Bounds,
		clip:   clip,
	}
	if sc.Bounds.Empty() {
		sc.Bounds = sceneBounds(q)
	}
	return sc
}

func (sc *Scene) Clipper() *clipper.Clipper { return sc.clip }

func (sc *Scene) Viewer() geometry.Point3 { return sc.Query.Viewer.Position }

func (sc *Scene) Center() geometry.Point3 { return sc.Query.Target.Center() }

// RawLOS is the unshadowed line of sight past unlimited walls, limited by the
// viewer's field of view.
func (sc *Scene) RawLOS() geometry.MultiPolygon {
	if sc.raw != nil {
		return *sc.raw
	}
	var raw geometry.MultiPolygon
	if sc.Query.RawLOS.Valid() {
		raw = geometry.Single(sc.Query.RawLOS)
	} else {
		raw = geometry.Single(los.Sweep(sc.Viewer().XY(), sc.blockingEdges(), sc.Bounds))
	}
	if fov := sc.Query.Viewer.FOV; fov != nil && !raw.Empty() {
		if wedge, ok := los.Wedge(sc.Viewer().XY(), *fov, sc.Bounds); ok {
			raw = sc.clip.Intersect(raw, geometry.Single(wedge))
		}
	}
	sc.raw = &raw
	return raw
}

// Footprint is the target footprint clipped by the walls that cut through it.
func (sc *Scene) Footprint() geometry.MultiPolygon {
	if sc.footprint == nil {
		f := constrainFootprint(sc.Query.Target, sc.Query.Walls, sc.clip)
		sc.footprint = &f
	}
	return *sc.footprint
}

// Planes returns the shadowed line of sight for each target plane, built once.
func (sc *Scene) Planes(a *los.Assembler) []los.Plane {
	if !sc.planesSet {
		t := sc.Query.Target
		sc.planes = a.ForTarget(sc.RawLOS(), sc.Query.Walls, sc.Bodies, sc.Viewer(), t.Bottom, t.Top)
		sc.planesSet = true
	}
	return sc.planes
}

// blockingEdges are the unlimited walls. Limited walls are left to the
// shadows of each target plane.
func (sc *Scene) blockingEdges() []geometry.Edge {
	edges := make([]geometry.Edge, 0, len(sc.Query.Walls))
	for _, w := range sc.Query.Walls {
		if !w.Limited {
			edges = append(edges, w.Segment())
		}
	}
	return edges
}

// blockingBodies applies the policy's body classes. The viewer's and the
// target's own bodies never block.
func blockingBodies(q Query) []shadow.Body {
	var out []shadow.Body
	for _, b := range q.Bodies {
		if b.ID != "" && (b.ID == q.Target.ID || b.ID == q.Viewer.ID) {
			continue
		}
		switch b.Class {
		case shadow.Live:
			if !q.Policy.LiveBodiesBlock {
				continue
			}
		case shadow.Dead:
			if !q.Policy.DeadBodiesBlock {
				continue
			}
			if q.Policy.DeadHalfHeight {
				b.HalfHeight = true
			}
		}
		out = append(out, b)
	}
	return out
}

// sceneBounds covers the viewer, the target and every occluder with some margin.
func sceneBounds(q Query) geometry.Rectangle {
	r := q.Target.Footprint.Bounds()
	grow := func(p geometry.Point2) {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	grow(q.Viewer.Position.XY())
	for _, w := range q.Walls {
		grow(w.A)
		grow(w.B)
	}
	for _, b := range q.Bodies {
		for _, v := range b.Footprint {
			grow(v)
		}
	}
	margin := math.Max(r.Width(), r.Height())*0.5 + 1
	return r.Pad(margin)
}
