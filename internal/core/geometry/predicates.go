// Package geometry holds the 2D/3D value types and predicates shared by the
// visibility engine. All comparisons go through Epsilon.
package geometry

import "math"

// Epsilon is the tolerance for every floating point comparison in the engine.
const Epsilon = 1e-8

// Turn is the direction of travel a -> b -> c.
type Turn int8

// Clockwise and CounterClockwise are in y-up terms.
const (
	Collinear Turn = iota
	Clockwise
	CounterClockwise
)

func (t Turn) String() string {
	switch t {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return "collinear"
	}
}

func AlmostEqual(a, b float64) bool { return math.Abs(a-b) <= Epsilon }

func AlmostZero(a float64) bool { return math.Abs(a) <= Epsilon }

// Orientation returns twice the signed area of triangle abc, negated: positive
// when a -> b -> c turns clockwise in y-up terms. Zero within Epsilon means collinear.
func Orientation(a, b, c Point2) float64 {
	return (a.Y-c.Y)*(b.X-c.X) - (a.X-c.X)*(b.Y-c.Y)
}

// Orient classifies Orientation(a, b, c).
func Orient(a, b, c Point2) Turn {
	o := Orientation(a, b, c)
	switch {
	case AlmostZero(o):
		return Collinear
	case o > 0:
		return Clockwise
	default:
		return CounterClockwise
	}
}

// SegmentsIntersect reports whether segments ab and cd properly cross.
// Touching at an endpoint and collinear overlap are not crossings.
func SegmentsIntersect(a, b, c, d Point2) bool {
	xa := Orient(a, b, c)
	xb := Orient(a, b, d)
	if xa == Collinear || xb == Collinear || xa == xb {
		return false
	}
	xc := Orient(c, d, a)
	xd := Orient(c, d, b)
	return xc != Collinear && xd != Collinear && xc != xd
}

// SegmentsTouch is the inclusive variant of SegmentsIntersect: shared endpoints
// and collinear overlap count.
func SegmentsTouch(a, b, c, d Point2) bool {
	xa := Orient(a, b, c)
	xb := Orient(a, b, d)
	xc := Orient(c, d, a)
	xd := Orient(c, d, b)
	if xa == Collinear && xb == Collinear {
		return overlapOnLine(a, b, c, d)
	}
	if xa != xb && xc != xd {
		return true
	}
	return (xa == Collinear && onSegment(a, b, c)) ||
		(xb == Collinear && onSegment(a, b, d)) ||
		(xc == Collinear && onSegment(c, d, a)) ||
		(xd == Collinear && onSegment(c, d, b))
}

// PerpendicularFoot returns the point on the infinite line ab closest to c.
// ok is false when a and b coincide.
func PerpendicularFoot(a, b, c Point2) (Point2, bool) {
	ab := b.Sub(a)
	dab := ab.Dot(ab)
	if dab <= Epsilon*Epsilon {
		return Point2{}, false
	}
	u := c.Sub(a).Dot(ab) / dab
	return a.Add(ab.Scale(u)), true
}

// LineIntersection intersects the infinite lines ab and cd. t is the position of
// the hit along ab (0 at a, 1 at b), u along cd. ok is false for parallel lines.
func LineIntersection(a, b, c, d Point2) (p Point2, t, u float64, ok bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	den := r.Cross(s)
	if AlmostZero(den) {
		return Point2{}, 0, 0, false
	}
	ac := c.Sub(a)
	t = ac.Cross(s) / den
	u = ac.Cross(r) / den
	return a.Add(r.Scale(t)), t, u, true
}

// DistanceToSegment is the shortest distance from p to segment ab.
func DistanceToSegment(p, a, b Point2) float64 {
	ab := b.Sub(a)
	l := ab.Dot(ab)
	if l <= Epsilon*Epsilon {
		return p.Dist(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l))
	return p.Dist(a.Add(ab.Scale(t)))
}

func onSegment(a, b, p Point2) bool {
	return p.X >= math.Min(a.X, b.X)-Epsilon && p.X <= math.Max(a.X, b.X)+Epsilon &&
		p.Y >= math.Min(a.Y, b.Y)-Epsilon && p.Y <= math.Max(a.Y, b.Y)+Epsilon
}

func overlapOnLine(a, b, c, d Point2) bool {
	return onSegment(a, b, c) || onSegment(a, b, d) || onSegment(c, d, a) || onSegment(c, d, b)
}
