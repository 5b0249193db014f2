package los

import (
	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/shadow"
)

// Plane is the shadowed line of sight on one horizontal plane of a target.
type Plane struct {
	Elevation float64
	LOS       geometry.MultiPolygon
}

// Assembler subtracts occluder shadows from a raw line of sight.
type Assembler struct {
	clip    *clipper.Clipper
	shadows *shadow.Builder
	log     log.Log
}

func NewAssembler(clip *clipper.Clipper, shadows *shadow.Builder, logger log.Log) *Assembler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Assembler{clip: clip, shadows: shadows, log: logger}
}

func (a *Assembler) Clipper() *clipper.Clipper { return a.clip }

// Assemble returns raw minus the union of shadows. Without shadows raw comes
// back untouched and the clipper is not called.
func (a *Assembler) Assemble(raw geometry.MultiPolygon, shadows []geometry.Polygon) geometry.MultiPolygon {
	if len(shadows) == 0 {
		return raw
	}
	return a.clip.Difference(raw, a.clip.UnionAll(shadows))
}

// Elevations picks the target planes worth testing from viewerZ. A flat target
// has only its top. A viewer below the target looks at the bottom, one above it
// at the top, and one level with it (bounds included) at both.
func Elevations(viewerZ, bottom, top float64) []float64 {
	if geometry.AlmostEqual(top, bottom) {
		return []float64{top}
	}
	between := viewerZ <= top && viewerZ >= bottom
	var out []float64
	if between || viewerZ < bottom {
		out = append(out, bottom)
	}
	if between || viewerZ > top {
		out = append(out, top)
	}
	return out
}

// ForTarget assembles the shadowed line of sight for every plane Elevations
// selects. When two planes receive the same shadows the assembly is done once
// and only the top plane is kept.
func (a *Assembler) ForTarget(
	raw geometry.MultiPolygon,
	walls []shadow.Wall,
	bodies []shadow.Body,
	origin geometry.Point3,
	bottom, top float64,
) []Plane {
	elevations := Elevations(origin.Z, bottom, top)
	planes := make([]Plane, 0, len(elevations))

	var prev []geometry.Polygon
	for i, z := range elevations {
		shadows := a.shadows.Shadows(walls, bodies, origin, z)
		if i > 0 && samePolygons(prev, shadows) {
			planes[len(planes)-1].Elevation = z
			continue
		}
		planes = append(planes, Plane{Elevation: z, LOS: a.Assemble(raw, shadows)})
		prev = shadows
	}

	if len(planes) == 2 && planes[0].LOS.Equal(planes[1].LOS) {
		planes = planes[1:]
	}

	a.log.Debug("shadowed line of sight assembled",
		log.Point("origin", origin.X, origin.Y),
		log.Float64("origin_z", origin.Z),
		log.Int("planes", len(planes)),
	)
	return planes
}

func samePolygons(a, b []geometry.Polygon) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
