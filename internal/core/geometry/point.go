package geometry

import "math"

// Point2 is a position on the scene plane.
type Point2 struct {
	X, Y float64
}

// Point3 is a position on the scene plane with elevation.
type Point3 struct {
	X, Y, Z float64
}

func Pt(x, y float64) Point2 { return Point2{X: x, Y: y} }

func Pt3(x, y, z float64) Point3 { return Point3{X: x, Y: y, Z: z} }

func (p Point2) Add(q Point2) Point2       { return Point2{p.X + q.X, p.Y + q.Y} }
func (p Point2) Sub(q Point2) Point2       { return Point2{p.X - q.X, p.Y - q.Y} }
func (p Point2) Scale(s float64) Point2    { return Point2{p.X * s, p.Y * s} }
func (p Point2) Dot(q Point2) float64      { return p.X*q.X + p.Y*q.Y }
func (p Point2) Cross(q Point2) float64    { return p.X*q.Y - p.Y*q.X }
func (p Point2) Len() float64              { return math.Hypot(p.X, p.Y) }
func (p Point2) Dist(q Point2) float64     { return math.Hypot(q.X-p.X, q.Y-p.Y) }
func (p Point2) To3(z float64) Point3      { return Point3{p.X, p.Y, z} }
func (p Point2) AlmostEqual(q Point2) bool { return AlmostEqual(p.X, q.X) && AlmostEqual(p.Y, q.Y) }

// Lerp returns the point at fraction t of the way from p to q.
func (p Point2) Lerp(q Point2, t float64) Point2 {
	return Point2{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// IsFinite reports whether both coordinates are real numbers.
func (p Point2) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point3) XY() Point2            { return Point2{p.X, p.Y} }
func (p Point3) Sub(q Point3) Point3   { return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }
func (p Point3) Dist(q Point3) float64 { return math.Sqrt(sq(q.X-p.X) + sq(q.Y-p.Y) + sq(q.Z-p.Z)) }

// Lerp returns the point at fraction t of the way from p to q.
func (p Point3) Lerp(q Point3, t float64) Point3 {
	return Point3{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t, p.Z + (q.Z-p.Z)*t}
}

func (p Point3) IsFinite() bool {
	return p.XY().IsFinite() && !math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

func sq(v float64) float64 { return v * v }
