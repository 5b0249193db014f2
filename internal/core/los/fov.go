package los

import (
	"math"

	"github.com/zeusync/sightline/internal/core/geometry"
)

// arcStep is the largest angle, in degrees, between two vertices of a wedge arc.
const arcStep = 5.0

// FieldOfView limits what a viewer sees. Rotation is the facing in degrees,
// counter-clockwise from +X. Angle is the total opening; 360 or more means no
// angular limit. Radius limits the sight range; zero means unlimited.
type FieldOfView struct {
	Rotation float64 `json:"rotation" yaml:"rotation"`
	Angle    float64 `json:"angle" yaml:"angle"`
	Radius   float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// Limited reports whether the field of view constrains anything at all.
func (f FieldOfView) Limited() bool {
	return (f.Angle > 0 && f.Angle < 360) || f.Radius > 0
}

// Wedge returns the region covered by fov from origin, reaching to the far side
// of bounds when Radius is unset. ok is false when fov does not limit sight.
func Wedge(origin geometry.Point2, fov FieldOfView, bounds geometry.Rectangle) (geometry.Polygon, bool) {
	if !fov.Limited() {
		return nil, false
	}
	reach := fov.Radius
	if reach <= 0 {
		reach = 2 * (bounds.Min.Dist(bounds.Max) + origin.Dist(bounds.Center()))
	}

	if fov.Angle <= 0 || fov.Angle >= 360 {
		return arc(origin, reach, 0, 360), true
	}

	start := fov.Rotation - fov.Angle/2
	poly := geometry.Polygon{origin}
	poly = append(poly, arc(origin, reach, start, fov.Angle)...)
	if !poly.Valid() {
		return nil, false
	}
	return poly, true
}

// arc samples a circular arc of sweep degrees starting at start degrees.
// A full circle does not repeat its first point.
func arc(center geometry.Point2, radius, start, sweep float64) geometry.Polygon {
	steps := int(math.Ceil(sweep / arcStep))
	if steps < 1 {
		steps = 1
	}
	full := sweep >= 360
	n := steps + 1
	if full {
		n = steps
	}
	pts := make(geometry.Polygon, 0, n)
	for i := 0; i < n; i++ {
		a := (start + sweep*float64(i)/float64(steps)) * math.Pi / 180
		pts = append(pts, geometry.Pt(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a)))
	}
	return pts
}
