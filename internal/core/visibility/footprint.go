package visibility

import (
	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/shadow"
)

// constrainFootprint cuts away the parts of the target footprint that walls
// crossing it separate from the target's centre. Walls that do not reach the
// target's elevation span are ignored.
func constrainFootprint(t Target, walls []shadow.Wall, clip *clipper.Clipper) geometry.MultiPolygon {
	fp := t.Footprint
	whole := geometry.Single(fp)

	var cutting []geometry.Edge
	for _, w := range walls {
		if w.Limited && (w.Top < t.Bottom || w.Bottom > t.Top) {
			continue
		}
		if fp.LinesCross([]geometry.Edge{w.Segment()}) {
			cutting = append(cutting, w.Segment())
		}
	}
	if len(cutting) == 0 {
		return whole
	}

	center := fp.Centroid()
	if !fp.Contains(center) {
		return whole
	}
	reach := los.Sweep(center, cutting, fp.Bounds().Pad(1))
	if !reach.Valid() {
		return whole
	}
	constrained := clip.Intersect(whole, geometry.Single(reach))
	if constrained.Empty() {
		return whole
	}
	return constrained
}

// breaches reports whether any edge of sight properly crosses the boundary of m.
// Only edges touching m's bounding box are tested.
func breaches(sight, m geometry.MultiPolygon) bool {
	box := m.Bounds()
	var edges []geometry.Edge
	for _, e := range sight.Edges() {
		if box.SegmentIntersects(e.A, e.B) {
			edges = append(edges, e)
		}
	}
	if len(edges) == 0 {
		return false
	}
	for _, r := range m.Rings {
		if r.Points.LinesCross(edges) {
			return true
		}
	}
	return false
}
