// Package los builds line-of-sight regions: the raw sweep around a viewer, the
// field-of-view wedge and the shadowed region on a target plane.
package los

import (
	"math"
	"slices"

	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/pkg/generic"
)

// AngleEpsilon is the offset of the side rays cast next to every vertex, so a
// ray slipping past a corner finds what lies behind it.
const AngleEpsilon = 1e-4

var anglePool = generic.NewSlicePool[float64](256)

// Sweep returns the region visible from origin inside bounds when every segment
// in walls blocks sight. Rays are cast at every segment endpoint and at every
// point where two segments cross, bounds edges included. The polygon has one
// vertex per cast ray, ordered by angle. It is empty when origin lies outside bounds.
func Sweep(origin geometry.Point2, walls []geometry.Edge, bounds geometry.Rectangle) geometry.Polygon {
	if bounds.Empty() || !origin.IsFinite() || !bounds.Contains(origin) {
		return nil
	}

	segments := make([]geometry.Edge, 0, len(walls)+4)
	for _, w := range walls {
		if w.A.AlmostEqual(w.B) || !bounds.SegmentIntersects(w.A, w.B) {
			continue
		}
		segments = append(segments, w)
	}
	segments = append(segments, bounds.ToPolygon().Edges()...)

	angles := anglePool.Get()
	defer func() { anglePool.Put(angles) }()

	inside := bounds.Pad(geometry.Epsilon)
	for i, s := range segments {
		angles = fan(angles, origin, s.A)
		angles = fan(angles, origin, s.B)
		for _, o := range segments[i+1:] {
			if p, ok := crossing(s, o); ok && inside.Contains(p) {
				angles = fan(angles, origin, p)
			}
		}
	}
	slices.Sort(angles)
	angles = slices.Compact(angles)

	reach := 2 * bounds.Min.Dist(bounds.Max)
	poly := make(geometry.Polygon, 0, len(angles))
	for _, a := range angles {
		dir := geometry.Pt(math.Cos(a), math.Sin(a))
		hit, dist := origin.Add(dir.Scale(reach)), reach
		for _, s := range segments {
			if d, ok := castRay(origin, dir, s); ok && d < dist {
				hit, dist = origin.Add(dir.Scale(d)), d
			}
		}
		if n := len(poly); n > 0 && poly[n-1].AlmostEqual(hit) {
			continue
		}
		poly = append(poly, hit)
	}
	if n := len(poly); n > 1 && poly[0].AlmostEqual(poly[n-1]) {
		poly = poly[:n-1]
	}
	return poly
}

// fan appends the angle from origin to v and its two side rays.
func fan(angles []float64, origin, v geometry.Point2) []float64 {
	a := math.Atan2(v.Y-origin.Y, v.X-origin.X)
	return append(angles, normalizeAngle(a-AngleEpsilon), normalizeAngle(a), normalizeAngle(a+AngleEpsilon))
}

// crossing returns the point where segments s and o meet, endpoints included.
func crossing(s, o geometry.Edge) (geometry.Point2, bool) {
	p, t, u, ok := geometry.LineIntersection(s.A, s.B, o.A, o.B)
	if !ok {
		return geometry.Point2{}, false
	}
	lo, hi := -geometry.Epsilon, 1+geometry.Epsilon
	if t < lo || t > hi || u < lo || u > hi {
		return geometry.Point2{}, false
	}
	return p, true
}

// castRay returns the distance along dir from origin to segment s.
func castRay(origin, dir geometry.Point2, s geometry.Edge) (float64, bool) {
	seg := s.B.Sub(s.A)
	den := dir.Cross(seg)
	if math.Abs(den) < 1e-12 {
		return 0, false
	}
	diff := s.A.Sub(origin)
	t := diff.Cross(seg) / den
	u := diff.Cross(dir) / den
	if u < -geometry.Epsilon || u > 1+geometry.Epsilon || t <= geometry.Epsilon {
		return 0, false
	}
	return t, true
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
