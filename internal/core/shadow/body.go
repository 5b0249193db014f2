package shadow

import (
	"math"

	"github.com/zeusync/sightline/internal/core/geometry"
)

// ProjectQuad returns the region of the plane at elevation plane hidden from
// origin by q. Unlike BuildWallShadow it handles a viewer level with or below
// the quad: a sight line from origin to a plane point is hidden when it passes
// the quad's base line between Bottom and Top.
func ProjectQuad(q Quad, origin geometry.Point3, plane, maxThrow float64) (geometry.Polygon, bool) {
	if q.A.Dist(q.B) <= geometry.Epsilon || q.Top-q.Bottom <= geometry.Epsilon {
		return nil, false
	}
	if maxThrow <= 0 {
		maxThrow = DefaultMaxThrow
	}
	o := origin.XY()
	if geometry.Orient(q.A, q.B, o) == geometry.Collinear {
		return nil, false
	}

	h := origin.Z
	// A sight line to a plane point at ratio s from o crosses the base line at
	// elevation h + (plane-h)*u with u = 1/s in (0, 1].
	var uNear, uFar float64
	if geometry.AlmostEqual(plane, h) {
		if h < q.Bottom || h > q.Top {
			return nil, false
		}
		uNear, uFar = 1, 0
	} else {
		u1 := (q.Bottom - h) / (plane - h)
		u2 := (q.Top - h) / (plane - h)
		lo, hi := math.Min(u1, u2), math.Max(u1, u2)
		lo = math.Max(lo, 0)
		hi = math.Min(hi, 1)
		if hi <= lo+geometry.Epsilon {
			return nil, false
		}
		uNear, uFar = hi, lo
	}

	farRatio := math.Inf(1)
	if uFar > geometry.Epsilon {
		farRatio = 1 / uFar
	}
	return throwQuad(o, q.A, q.B, 1/uNear, farRatio, maxThrow)
}

// projectCap projects a horizontal face at elevation z onto the plane. Only a
// face strictly between the viewer and the plane hides anything.
func projectCap(face geometry.Polygon, z float64, origin geometry.Point3, plane, maxThrow float64) (geometry.Polygon, bool) {
	h := origin.Z
	if !(z < h-geometry.Epsilon && z > plane+geometry.Epsilon) && !(z > h+geometry.Epsilon && z < plane-geometry.Epsilon) {
		return nil, false
	}
	ratio := (h - plane) / (h - z)
	o := origin.XY()
	out := make(geometry.Polygon, len(face))
	for i, v := range face {
		p := o.Add(v.Sub(o).Scale(ratio))
		if p.Dist(o) > maxThrow {
			return nil, false
		}
		out[i] = p
	}
	if !out.Valid() {
		return nil, false
	}
	return out, true
}

// BuildBodyShadows projects every side of b, and the end face crossed by the
// sight lines, onto the plane at targetElevation. A body may cast any number of
// polygons; their union is its shadow.
func BuildBodyShadows(b Body, origin geometry.Point3, targetElevation, maxThrow float64) []geometry.Polygon {
	if !b.Footprint.Valid() || b.Top()-b.Bottom <= geometry.Epsilon {
		return nil
	}
	if maxThrow <= 0 {
		maxThrow = DefaultMaxThrow
	}

	var shadows []geometry.Polygon
	for _, side := range b.Sides() {
		if p, ok := ProjectQuad(side, origin, targetElevation, maxThrow); ok {
			shadows = append(shadows, p)
		}
	}
	if p, ok := projectCap(b.Footprint, b.Top(), origin, targetElevation, maxThrow); ok {
		shadows = append(shadows, p)
	}
	if p, ok := projectCap(b.Footprint, b.Bottom, origin, targetElevation, maxThrow); ok {
		shadows = append(shadows, p)
	}
	return shadows
}
