package geometry

import "math"

// Polygon is a closed ring of points; the closing edge is implicit.
type Polygon []Point2

// Edge is one side of a polygon or a wall seen from above.
type Edge struct {
	A, B Point2
}

// Valid reports whether p has at least 3 points and a non-zero area.
func (p Polygon) Valid() bool {
	return len(p) >= 3 && !AlmostZero(p.SignedArea())
}

// SignedArea is the shoelace area, positive for counter-clockwise rings in y-up terms.
func (p Polygon) SignedArea() float64 {
	if len(p) < 3 {
		return 0
	}
	var a float64
	j := len(p) - 1
	for i := range p {
		a += p[j].X*p[i].Y - p[i].X*p[j].Y
		j = i
	}
	return a / 2
}

func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

// Centroid is the area-weighted centre. Degenerate rings fall back to the vertex mean.
func (p Polygon) Centroid() Point2 {
	a := p.SignedArea()
	if AlmostZero(a) {
		var c Point2
		if len(p) == 0 {
			return c
		}
		for _, v := range p {
			c = c.Add(v)
		}
		return c.Scale(1 / float64(len(p)))
	}
	var cx, cy float64
	j := len(p) - 1
	for i := range p {
		f := p[j].X*p[i].Y - p[i].X*p[j].Y
		cx += (p[j].X + p[i].X) * f
		cy += (p[j].Y + p[i].Y) * f
		j = i
	}
	return Point2{cx / (6 * a), cy / (6 * a)}
}

func (p Polygon) Bounds() Rectangle {
	if len(p) == 0 {
		return Rectangle{}
	}
	r := Rectangle{Min: p[0], Max: p[0]}
	for _, v := range p[1:] {
		r.Min.X = math.Min(r.Min.X, v.X)
		r.Min.Y = math.Min(r.Min.Y, v.Y)
		r.Max.X = math.Max(r.Max.X, v.X)
		r.Max.Y = math.Max(r.Max.Y, v.Y)
	}
	return r
}

// Edges returns the sides of p including the closing edge.
func (p Polygon) Edges() []Edge {
	if len(p) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(p))
	for i := range p {
		edges = append(edges, Edge{A: p[i], B: p[(i+1)%len(p)]})
	}
	return edges
}

// Contains tests pt with the even-odd ray casting rule.
func (p Polygon) Contains(pt Point2) bool {
	inside := false
	j := len(p) - 1
	for i := range p {
		xi, yi := p[i].X, p[i].Y
		xj, yj := p[j].X, p[j].Y
		if (yi > pt.Y) != (yj > pt.Y) && pt.X < (xj-xi)*(pt.Y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// Equal compares vertex sequences within Epsilon.
func (p Polygon) Equal(q Polygon) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if !p[i].AlmostEqual(q[i]) {
			return false
		}
	}
	return true
}

// Reversed returns a copy of p with the opposite winding.
func (p Polygon) Reversed() Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// LinesCross reports whether any of edges properly crosses the boundary of p.
// Overlapping edges and endpoints resting on p do not count.
func (p Polygon) LinesCross(edges []Edge) bool {
	sides := p.Edges()
	for _, e := range edges {
		for _, s := range sides {
			if SegmentsIntersect(e.A, e.B, s.A, s.B) {
				return true
			}
		}
	}
	return false
}

func (p Polygon) IsFinite() bool {
	for _, v := range p {
		if !v.IsFinite() {
			return false
		}
	}
	return true
}

// Rectangle is an axis-aligned box.
type Rectangle struct {
	Min, Max Point2
}

func Rect(x, y, w, h float64) Rectangle {
	return Rectangle{Min: Point2{x, y}, Max: Point2{x + w, y + h}}
}

func (r Rectangle) Width() float64  { return r.Max.X - r.Min.X }
func (r Rectangle) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rectangle) Empty() bool     { return r.Width() <= 0 || r.Height() <= 0 }
func (r Rectangle) Center() Point2  { return r.Min.Lerp(r.Max, 0.5) }

// ToPolygon returns the corners counter-clockwise in y-up terms.
func (r Rectangle) ToPolygon() Polygon {
	return Polygon{
		r.Min,
		{r.Max.X, r.Min.Y},
		r.Max,
		{r.Min.X, r.Max.Y},
	}
}

func (r Rectangle) Contains(p Point2) bool {
	return p.X >= r.Min.X-Epsilon && p.X <= r.Max.X+Epsilon &&
		p.Y >= r.Min.Y-Epsilon && p.Y <= r.Max.Y+Epsilon
}

func (r Rectangle) Intersects(o Rectangle) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Pad grows r by d on every side.
func (r Rectangle) Pad(d float64) Rectangle {
	return Rectangle{Min: Point2{r.Min.X - d, r.Min.Y - d}, Max: Point2{r.Max.X + d, r.Max.Y + d}}
}

// SegmentIntersects reports whether segment ab touches r, including when it lies inside.
func (r Rectangle) SegmentIntersects(a, b Point2) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	for _, e := range r.ToPolygon().Edges() {
		if SegmentsTouch(a, b, e.A, e.B) {
			return true
		}
	}
	return false
}

// Ring is one boundary of a multi-polygon; holes subtract from the area.
type Ring struct {
	Points Polygon
	IsHole bool
}

// MultiPolygon is the result type of the clipper: outer rings plus holes.
type MultiPolygon struct {
	Rings []Ring
}

// Single wraps p as a one-ring multi-polygon. Invalid polygons yield an empty result.
func Single(p Polygon) MultiPolygon {
	if !p.Valid() {
		return MultiPolygon{}
	}
	return MultiPolygon{Rings: []Ring{{Points: p}}}
}

func (m MultiPolygon) Empty() bool { return len(m.Rings) == 0 }

// Area sums outer rings and subtracts holes.
func (m MultiPolygon) Area() float64 {
	var a float64
	for _, r := range m.Rings {
		if r.IsHole {
			a -= r.Points.Area()
		} else {
			a += r.Points.Area()
		}
	}
	return a
}

// Polygon returns the only ring when m is a single hole-free polygon.
func (m MultiPolygon) Polygon() (Polygon, bool) {
	if len(m.Rings) != 1 || m.Rings[0].IsHole {
		return nil, false
	}
	return m.Rings[0].Points, true
}

// Equal compares ring sequences exactly (within Epsilon per vertex).
func (m MultiPolygon) Equal(o MultiPolygon) bool {
	if len(m.Rings) != len(o.Rings) {
		return false
	}
	for i := range m.Rings {
		if m.Rings[i].IsHole != o.Rings[i].IsHole || !m.Rings[i].Points.Equal(o.Rings[i].Points) {
			return false
		}
	}
	return true
}

// Contains applies hole-aware even-odd containment.
func (m MultiPolygon) Contains(p Point2) bool {
	inside := false
	for _, r := range m.Rings {
		if r.Points.Contains(p) {
			inside = !inside
		}
	}
	return inside
}

// Edges flattens every ring boundary.
func (m MultiPolygon) Edges() []Edge {
	var out []Edge
	for _, r := range m.Rings {
		out = append(out, r.Points.Edges()...)
	}
	return out
}

func (m MultiPolygon) Bounds() Rectangle {
	var r Rectangle
	for i, ring := range m.Rings {
		b := ring.Points.Bounds()
		if i == 0 {
			r = b
			continue
		}
		r.Min.X = math.Min(r.Min.X, b.Min.X)
		r.Min.Y = math.Min(r.Min.Y, b.Min.Y)
		r.Max.X = math.Max(r.Max.X, b.Max.X)
		r.Max.Y = math.Max(r.Max.Y, b.Max.Y)
	}
	return r
}
