package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrient(t *testing.T) {
	a, b := Pt(0, 0), Pt(10, 0)

	require.Equal(t, CounterClockwise, Orient(a, b, Pt(5, 5)))
	require.Equal(t, Clockwise, Orient(a, b, Pt(5, -5)))
	require.Equal(t, Collinear, Orient(a, b, Pt(20, 0)))
	require.Equal(t, Collinear, Orient(a, b, Pt(5, 1e-12)))
}

func TestSegmentsIntersect(t *testing.T) {
	tests := []struct {
		name       string
		a, b, c, d Point2
		want       bool
	}{
		{"crossing", Pt(0, 0), Pt(10, 10), Pt(0, 10), Pt(10, 0), true},
		{"disjoint", Pt(0, 0), Pt(1, 1), Pt(5, 5), Pt(6, 7), false},
		{"shared endpoint", Pt(0, 0), Pt(10, 0), Pt(10, 0), Pt(10, 10), false},
		{"t junction", Pt(0, 0), Pt(10, 0), Pt(5, 0), Pt(5, 10), false},
		{"collinear overlap", Pt(0, 0), Pt(10, 0), Pt(5, 0), Pt(15, 0), false},
		{"parallel", Pt(0, 0), Pt(10, 0), Pt(0, 1), Pt(10, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SegmentsIntersect(tt.a, tt.b, tt.c, tt.d))
			require.Equal(t, tt.want, SegmentsIntersect(tt.c, tt.d, tt.a, tt.b))
		})
	}
}

func TestSegmentsTouch(t *testing.T) {
	require.True(t, SegmentsTouch(Pt(0, 0), Pt(10, 0), Pt(10, 0), Pt(10, 10)))
	require.True(t, SegmentsTouch(Pt(0, 0), Pt(10, 0), Pt(5, 0), Pt(15, 0)))
	require.True(t, SegmentsTouch(Pt(0, 0), Pt(10, 0), Pt(5, 0), Pt(5, 10)))
	require.False(t, SegmentsTouch(Pt(0, 0), Pt(10, 0), Pt(11, 0), Pt(15, 0)))
	require.False(t, SegmentsTouch(Pt(0, 0), Pt(10, 0), Pt(0, 1), Pt(10, 1)))
}

func TestPerpendicularFoot(t *testing.T) {
	p, ok := PerpendicularFoot(Pt(0, 5), Pt(10, 5), Pt(3, 0))
	require.True(t, ok)
	require.True(t, p.AlmostEqual(Pt(3, 5)))

	// The foot may fall outside the segment; the line is infinite.
	p, ok = PerpendicularFoot(Pt(0, 0), Pt(1, 1), Pt(4, 0))
	require.True(t, ok)
	require.True(t, p.AlmostEqual(Pt(2, 2)))

	_, ok = PerpendicularFoot(Pt(1, 1), Pt(1, 1), Pt(4, 0))
	require.False(t, ok)
}

func TestLineIntersection(t *testing.T) {
	p, tAB, uCD, ok := LineIntersection(Pt(0, 0), Pt(10, 0), Pt(5, -5), Pt(5, 5))
	require.True(t, ok)
	require.True(t, p.AlmostEqual(Pt(5, 0)))
	require.InDelta(t, 0.5, tAB, Epsilon)
	require.InDelta(t, 0.5, uCD, Epsilon)

	_, _, _, ok = LineIntersection(Pt(0, 0), Pt(10, 0), Pt(0, 1), Pt(10, 1))
	require.False(t, ok)
}

func TestPolygonArea(t *testing.T) {
	sq := Rect(0, 0, 10, 10).ToPolygon()
	require.InDelta(t, 100, sq.Area(), Epsilon)
	require.Greater(t, sq.SignedArea(), 0.0)
	require.Less(t, sq.Reversed().SignedArea(), 0.0)
	require.True(t, sq.Valid())

	require.False(t, Polygon{Pt(0, 0), Pt(1, 1)}.Valid())
	require.False(t, Polygon{Pt(0, 0), Pt(1, 1), Pt(2, 2)}.Valid())
}

func TestPolygonCentroidAndContains(t *testing.T) {
	sq := Rect(10, 10, 10, 10).ToPolygon()
	require.True(t, sq.Centroid().AlmostEqual(Pt(15, 15)))
	require.True(t, sq.Contains(Pt(15, 15)))
	require.False(t, sq.Contains(Pt(25, 15)))

	tri := Polygon{Pt(0, 0), Pt(6, 0), Pt(0, 6)}
	require.True(t, tri.Centroid().AlmostEqual(Pt(2, 2)))
}

func TestLinesCross(t *testing.T) {
	sq := Rect(0, 0, 10, 10).ToPolygon()

	require.True(t, sq.LinesCross([]Edge{{Pt(-5, 5), Pt(5, 5)}}))
	// Inside only: no boundary breach.
	require.False(t, sq.LinesCross([]Edge{{Pt(2, 2), Pt(8, 8)}}))
	// Resting on the boundary does not count.
	require.False(t, sq.LinesCross([]Edge{{Pt(0, 0), Pt(10, 0)}}))
}

func TestRectangle(t *testing.T) {
	r := Rect(0, 0, 10, 5)
	assert.Equal(t, 10.0, r.Width())
	assert.Equal(t, 5.0, r.Height())
	assert.True(t, r.Center().AlmostEqual(Pt(5, 2.5)))
	assert.True(t, r.Intersects(Rect(9, 4, 5, 5)))
	assert.False(t, r.Intersects(Rect(11, 0, 5, 5)))

	assert.True(t, r.SegmentIntersects(Pt(-5, 2), Pt(15, 2)))
	assert.True(t, r.SegmentIntersects(Pt(1, 1), Pt(2, 2)))
	assert.False(t, r.SegmentIntersects(Pt(-5, -2), Pt(15, -2)))
}

func TestMultiPolygonArea(t *testing.T) {
	m := MultiPolygon{Rings: []Ring{
		{Points: Rect(0, 0, 10, 10).ToPolygon()},
		{Points: Rect(2, 2, 2, 2).ToPolygon().Reversed(), IsHole: true},
	}}
	require.InDelta(t, 96, m.Area(), Epsilon)
	require.True(t, m.Contains(Pt(1, 1)))
	require.False(t, m.Contains(Pt(3, 3)))

	_, ok := m.Polygon()
	require.False(t, ok)

	require.True(t, Single(Polygon{Pt(0, 0), Pt(1, 1)}).Empty())
}

func TestPointFinite(t *testing.T) {
	require.True(t, Pt(1, 2).IsFinite())
	require.False(t, Pt(math.NaN(), 2).IsFinite())
	require.False(t, Pt3(1, 2, math.Inf(1)).IsFinite())
}
