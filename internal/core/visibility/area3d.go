package visibility

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r3"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/observability/log"
)

// nearFraction places the near clipping plane at this fraction of the
// viewer-to-centre distance.
const nearFraction = 1e-3

// ThreeDimensional projects the target prism and every occluder face in front
// of it onto the viewer's image plane and measures the uncovered part of the
// target's silhouette.
type ThreeDimensional struct {
	clip *clipper.Clipper
	log  log.Log
}

var _ AreaStrategy = (*ThreeDimensional)(nil)

func NewThreeDimensional(clip *clipper.Clipper, logger log.Log) *ThreeDimensional {
	if logger == nil {
		logger = log.Nop()
	}
	return &ThreeDimensional{clip: clip, log: logger}
}

func (s *ThreeDimensional) Name() string { return string(ThreeDimensionalKind) }

// Breach has no cheaper form in perspective; any visible area is a breach.
func (s *ThreeDimensional) Breach(sc *Scene) bool {
	return s.Percent(sc) > geometry.Epsilon
}

func (s *ThreeDimensional) Percent(sc *Scene) float64 {
	cam, ok := newCamera(sc.Viewer(), sc.Center())
	if !ok {
		// The viewer stands at the target's centre.
		return 1
	}

	t := sc.Query.Target
	footprint := sc.Footprint()

	var targetFaces []face
	for _, r := range footprint.Rings {
		if !r.IsHole {
			targetFaces = append(targetFaces, prismFaces(r.Points, t.Bottom, t.Top)...)
		}
	}
	whole := s.project(cam, targetFaces, math.Inf(1))
	total := s.clip.Area(whole)
	if total <= geometry.Epsilon {
		return 0
	}

	faces := targetFaces
	if fov := sc.Query.Viewer.FOV; fov != nil {
		if wedge, ok := los.Wedge(sc.Viewer().XY(), *fov, sc.Bounds); ok {
			cut := s.clip.Intersect(footprint, geometry.Single(wedge))
			faces = nil
			for _, r := range cut.Rings {
				if !r.IsHole {
					faces = append(faces, prismFaces(r.Points, t.Bottom, t.Top)...)
				}
			}
		}
	}

	seen := s.visibleFaces(cam, faces, occluderFaces(sc, cam))
	pct := math.Min(1, math.Max(0, s.clip.Area(seen)/total))
	s.log.Debug("perspective measured",
		log.String("target", t.ID),
		log.Int("faces", len(faces)),
		log.Float64("percent", pct),
	)
	return pct
}

// visibleFaces projects each target face and removes the occluders nearer than
// that face's farthest point. Occluders are compared by depth per face, not per
// ray, so a slanted face may still lose area to an occluder level with its far end.
func (s *ThreeDimensional) visibleFaces(cam camera, faces, occluders []face) geometry.MultiPolygon {
	hidden := make(map[float64]geometry.MultiPolygon)
	var seen geometry.MultiPolygon
	for _, f := range faces {
		proj := s.project(cam, []face{f}, math.Inf(1))
		if proj.Empty() {
			continue
		}
		if len(occluders) > 0 {
			far := cam.farthest([]face{f})
			cover, ok := hidden[far]
			if !ok {
				cover = s.project(cam, occluders, far)
				hidden[far] = cover
			}
			if !cover.Empty() {
				proj = s.clip.Difference(proj, cover)
			}
		}
		if seen.Empty() {
			seen = proj
		} else if !proj.Empty() {
			seen = s.clip.Union(seen, proj)
		}
	}
	return seen
}

// project clips each face to the depth range [near, far], projects it and
// unions the results.
func (s *ThreeDimensional) project(cam camera, faces []face, far float64) geometry.MultiPolygon {
	polys := make([]geometry.Polygon, 0, len(faces))
	for _, f := range faces {
		clipped := cam.clipDepth(f, far)
		if len(clipped) < 3 {
			continue
		}
		p := make(geometry.Polygon, len(clipped))
		for i, v := range clipped {
			p[i] = cam.screen(v)
		}
		if p.Valid() {
			polys = append(polys, p)
		}
	}
	if len(polys) == 0 {
		return geometry.MultiPolygon{}
	}
	return s.clip.UnionAll(polys)
}

type face []r3.Vector

// prismFaces returns the sides and the end caps of footprint extruded from
// bottom to top. A flat prism is just its footprint.
func prismFaces(footprint geometry.Polygon, bottom, top float64) []face {
	if top-bottom <= geometry.Epsilon {
		return []face{horizontal(footprint, top)}
	}
	faces := make([]face, 0, len(footprint)+2)
	for _, e := range footprint.Edges() {
		faces = append(faces, verticalQuad(e.A, e.B, bottom, top))
	}
	return append(faces, horizontal(footprint, bottom), horizontal(footprint, top))
}

func horizontal(p geometry.Polygon, z float64) face {
	f := make(face, len(p))
	for i, v := range p {
		f[i] = r3.Vector{X: v.X, Y: v.Y, Z: z}
	}
	return f
}

func verticalQuad(a, b geometry.Point2, bottom, top float64) face {
	return face{
		{X: a.X, Y: a.Y, Z: bottom},
		{X: b.X, Y: b.Y, Z: bottom},
		{X: b.X, Y: b.Y, Z: top},
		{X: a.X, Y: a.Y, Z: top},
	}
}

// occluderFaces collects the walls and blocking bodies standing in the plan
// view hull of the viewer and the target.
func occluderFaces(sc *Scene, cam camera) []face {
	hull := convexHull(append(geometry.Polygon{sc.Viewer().XY()}, sc.Query.Target.Footprint...))
	if !hull.Valid() {
		return nil
	}
	// Unlimited walls are drawn tall enough to fill the view.
	reach := cam.distance * 4
	low := math.Min(sc.Viewer().Z, sc.Query.Target.Bottom) - reach
	high := math.Max(sc.Viewer().Z, sc.Query.Target.Top) + reach

	var faces []face
	for _, w := range sc.Query.Walls {
		if w.A.AlmostEqual(w.B) || !touches(hull, w.A, w.B) {
			continue
		}
		bottom, top := w.Bottom, w.Top
		if !w.Limited {
			bottom, top = low, high
		}
		if top-bottom <= geometry.Epsilon {
			continue
		}
		faces = append(faces, verticalQuad(w.A, w.B, bottom, top))
	}
	for _, b := range sc.Bodies {
		relevant := false
		for _, e := range b.Footprint.Edges() {
			if touches(hull, e.A, e.B) {
				relevant = true
				break
			}
		}
		if relevant && b.Footprint.Valid() {
			faces = append(faces, prismFaces(b.Footprint, b.Bottom, b.Top())...)
		}
	}
	return faces
}

func touches(hull geometry.Polygon, a, b geometry.Point2) bool {
	if hull.Contains(a) || hull.Contains(b) {
		return true
	}
	for _, e := range hull.Edges() {
		if geometry.SegmentsTouch(a, b, e.A, e.B) {
			return true
		}
	}
	return false
}

// convexHull is Andrew's monotone chain, counter-clockwise.
func convexHull(pts geometry.Polygon) geometry.Polygon {
	if len(pts) < 3 {
		return nil
	}
	sorted := slices.Clone(pts)
	slices.SortFunc(sorted, func(a, b geometry.Point2) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})

	hull := make(geometry.Polygon, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && hull[len(hull)-1].Sub(hull[len(hull)-2]).Cross(p.Sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && hull[len(hull)-1].Sub(hull[len(hull)-2]).Cross(p.Sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// camera looks from eye towards the target centre. Screen coordinates are
// scaled so that one unit on screen is one scene unit at the centre's depth.
type camera struct {
	eye      r3.Vector
	forward  r3.Vector
	right    r3.Vector
	up       r3.Vector
	distance float64
	near     float64
}

func newCamera(eye, center geometry.Point3) (camera, bool) {
	e := r3.Vector{X: eye.X, Y: eye.Y, Z: eye.Z}
	c := r3.Vector{X: center.X, Y: center.Y, Z: center.Z}
	dir := c.Sub(e)
	dist := dir.Norm()
	if dist <= geometry.Epsilon {
		return camera{}, false
	}
	forward := dir.Mul(1 / dist)

	ref := r3.Vector{Z: 1}
	if math.Abs(forward.Dot(ref)) > 1-1e-6 {
		ref = r3.Vector{Y: 1}
	}
	right := forward.Cross(ref).Normalize()
	up := right.Cross(forward)

	return camera{
		eye:      e,
		forward:  forward,
		right:    right,
		up:       up,
		distance: dist,
		near:     dist * nearFraction,
	}, true
}

func (c camera) depth(v r3.Vector) float64 { return v.Sub(c.eye).Dot(c.forward) }

func (c camera) screen(v r3.Vector) geometry.Point2 {
	rel := v.Sub(c.eye)
	k := c.distance / rel.Dot(c.forward)
	return geometry.Pt(rel.Dot(c.right)*k, rel.Dot(c.up)*k)
}

func (c camera) farthest(faces []face) float64 {
	far := 0.0
	for _, f := range faces {
		for _, v := range f {
			far = math.Max(far, c.depth(v))
		}
	}
	return far
}

// clipDepth keeps the part of f with depth in [near, far].
func (c camera) clipDepth(f face, far float64) face {
	out := clipPlane(f, func(v r3.Vector) float64 { return c.depth(v) - c.near })
	if !math.IsInf(far, 1) {
		out = clipPlane(out, func(v r3.Vector) float64 { return far - c.depth(v) })
	}
	return out
}

// clipPlane is one Sutherland-Hodgman pass keeping vertices where side >= 0.
func clipPlane(f face, side func(r3.Vector) float64) face {
	if len(f) == 0 {
		return nil
	}
	out := make(face, 0, len(f)+2)
	prev := f[len(f)-1]
	prevSide := side(prev)
	for _, cur := range f {
		curSide := side(cur)
		if (curSide >= 0) != (prevSide >= 0) {
			t := prevSide / (prevSide - curSide)
			out = append(out, prev.Add(cur.Sub(prev).Mul(t)))
		}
		if curSide >= 0 {
			out = append(out, cur)
		}
		prev, prevSide = cur, curSide
	}
	return out
}
