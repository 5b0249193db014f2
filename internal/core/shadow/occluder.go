// Package shadow projects occluders onto horizontal planes as seen from a viewer.
package shadow

import (
	"fmt"
	"strings"

	"github.com/zeusync/sightline/internal/core/geometry"
)

// Wall is a vertical blocking plane between A and B. An unlimited wall spans
// every elevation and blocks through the raw line of sight. A limited wall
// only ever blocks through the shadows it casts.
type Wall struct {
	ID      string
	A, B    geometry.Point2
	Bottom  float64
	Top     float64
	Limited bool
}

func (w Wall) TopLeft() geometry.Point3     { return w.A.To3(w.Top) }
func (w Wall) BottomRight() geometry.Point3 { return w.B.To3(w.Bottom) }
func (w Wall) Length() float64              { return w.A.Dist(w.B) }
func (w Wall) Segment() geometry.Edge       { return geometry.Edge{A: w.A, B: w.B} }

func (w Wall) Quad() Quad {
	return Quad{A: w.A, B: w.B, Bottom: w.Bottom, Top: w.Top}
}

type BodyClass uint8

const (
	Live BodyClass = iota
	Dead
)

func (c BodyClass) String() string {
	if c == Dead {
		return "dead"
	}
	return "live"
}

func ParseBodyClass(s string) (BodyClass, error) {
	switch strings.ToLower(s) {
	case "", "live":
		return Live, nil
	case "dead":
		return Dead, nil
	default:
		return Live, fmt.Errorf("unknown body class %q", s)
	}
}

// Body is a prism standing on Footprint. HalfHeight halves it, for bodies lying down.
type Body struct {
	ID         string
	Footprint  geometry.Polygon
	Bottom     float64
	Height     float64
	Class      BodyClass
	HalfHeight bool
}

func (b Body) Top() float64 {
	if b.HalfHeight {
		return b.Bottom + b.Height/2
	}
	return b.Bottom + b.Height
}

// Sides returns one vertical quad per footprint edge, skipping zero-length edges.
func (b Body) Sides() []Quad {
	edges := b.Footprint.Edges()
	quads := make([]Quad, 0, len(edges))
	top := b.Top()
	for _, e := range edges {
		if e.A.AlmostEqual(e.B) {
			continue
		}
		quads = append(quads, Quad{A: e.A, B: e.B, Bottom: b.Bottom, Top: top})
	}
	return quads
}

// Quad is a vertical rectangle standing on segment AB between two elevations.
type Quad struct {
	A, B   geometry.Point2
	Bottom float64
	Top    float64
}

// ElevationAt returns the z of the 3D segment from->to where its plan view
// crosses the quad's base line. ok is false when the plan views do not properly cross.
func (q Quad) ElevationAt(from, to geometry.Point3) (float64, bool) {
	if !geometry.SegmentsIntersect(from.XY(), to.XY(), q.A, q.B) {
		return 0, false
	}
	_, t, _, ok := geometry.LineIntersection(from.XY(), to.XY(), q.A, q.B)
	if !ok {
		return 0, false
	}
	return from.Z + (to.Z-from.Z)*t, true
}

// Blocks reports whether the 3D segment from->to passes through the quad's interior.
func (q Quad) Blocks(from, to geometry.Point3) bool {
	z, ok := q.ElevationAt(from, to)
	return ok && z > q.Bottom+geometry.Epsilon && z < q.Top-geometry.Epsilon
}
