package visibility

import (
	"github.com/zeusync/sightline/internal/core/geometry"
)

// centerVisible reports whether the single sight line from the viewer to the
// target's centre is clear. The centre must lie inside the raw line of sight,
// which only unlimited walls shape, and the 3D segment must not pass strictly
// through any limited wall or blocking body side.
func centerVisible(sc *Scene) bool {
	eye := sc.Viewer()
	center := sc.Center()

	raw := sc.RawLOS()
	if raw.Empty() || !raw.Contains(center.XY()) {
		return false
	}

	for _, w := range sc.Query.Walls {
		if !w.Limited {
			if geometry.SegmentsIntersect(eye.XY(), center.XY(), w.A, w.B) {
				return false
			}
			continue
		}
		if w.Quad().Blocks(eye, center) {
			return false
		}
	}
	for _, b := range sc.Bodies {
		for _, side := range b.Sides() {
			if side.Blocks(eye, center) {
				return false
			}
		}
	}
	return true
}
