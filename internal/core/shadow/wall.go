package shadow

import (
	"math"

	"github.com/zeusync/sightline/internal/core/geometry"
)

// DefaultMaxThrow caps how far a shadow reaches from the viewer. A shadow that
// would reach further, including one cast by a wall top level with the viewer,
// is cut off here and means "occluded from this point on".
const DefaultMaxThrow = 1e5

// BuildWallShadow returns the region of the plane at targetElevation that w hides
// from origin. ok is false when w casts no elevation shadow on that plane:
// the wall is unlimited or has no length, the viewer is not above the wall top,
// or the plane is at or above the wall top or at or above the viewer.
func BuildWallShadow(w Wall, origin geometry.Point3, targetElevation, maxThrow float64) (geometry.Polygon, bool) {
	switch {
	case !w.Limited, w.Length() <= geometry.Epsilon:
		return nil, false
	case origin.Z <= w.Top, origin.Z <= w.Bottom:
		return nil, false
	case targetElevation >= w.Top, origin.Z <= targetElevation:
		return nil, false
	}
	if maxThrow <= 0 {
		maxThrow = DefaultMaxThrow
	}

	o := origin.XY()
	foot, ok := geometry.PerpendicularFoot(w.A, w.B, o)
	if !ok {
		return nil, false
	}
	wallDistance := o.Dist(foot)
	if wallDistance <= geometry.Epsilon {
		return nil, false
	}

	rise := origin.Z - w.Top
	drop := origin.Z - targetElevation

	// Similar triangles in the vertical section through origin and the wall.
	var farRatio float64
	if rise <= geometry.Epsilon {
		farRatio = math.Inf(1)
	} else {
		theta := math.Atan(rise / wallDistance)
		ov := drop / math.Tan(theta)
		farRatio = ov / wallDistance
	}

	nearRatio := 1.0
	if w.Bottom > targetElevation {
		// Light passes under a floating wall; the shadow starts where its bottom edge lands.
		nearRatio = drop / (origin.Z - w.Bottom)
	}

	return throwQuad(o, w.A, w.B, nearRatio, farRatio, maxThrow)
}

// WallShadow returns the region of the plane at elevation that a limited wall
// hides from origin. A viewer above the wall top gets BuildWallShadow; a viewer
// level with or below it gets ProjectQuad, so sight under a floating wall or
// over its top reaches planes beyond.
func WallShadow(w Wall, origin geometry.Point3, elevation, maxThrow float64) (geometry.Polygon, bool) {
	if !w.Limited || w.Length() <= geometry.Epsilon {
		return nil, false
	}
	if origin.Z > w.Top {
		return BuildWallShadow(w, origin, elevation, maxThrow)
	}
	return ProjectQuad(w.Quad(), origin, elevation, maxThrow)
}

// throwQuad builds the quadrilateral between the images of a and b pushed away
// from o by the near and far ratios. The far edge is cut off at maxThrow from o,
// measured perpendicular to the line ab.
func throwQuad(o, a, b geometry.Point2, nearRatio, farRatio, maxThrow float64) (geometry.Polygon, bool) {
	foot, ok := geometry.PerpendicularFoot(a, b, o)
	if !ok {
		return nil, false
	}
	d := o.Dist(foot)
	if d <= geometry.Epsilon {
		return nil, false
	}
	limit := maxThrow / d
	if nearRatio >= limit {
		return nil, false
	}
	farRatio = math.Min(farRatio, limit)

	p := geometry.Polygon{
		o.Lerp(a, nearRatio),
		o.Lerp(b, nearRatio),
		o.Lerp(b, farRatio),
		o.Lerp(a, farRatio),
	}
	if !p.Valid() {
		return nil, false
	}
	return p, true
}
