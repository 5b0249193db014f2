package visibility

import (
	"math"

	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/observability/log"
)

// TwoDimensional measures the target footprint against the shadowed line of
// sight on the target's top and bottom planes, keeping the better plane.
type TwoDimensional struct {
	assembler *los.Assembler
	log       log.Log
}

var _ AreaStrategy = (*TwoDimensional)(nil)

func NewTwoDimensional(assembler *los.Assembler, logger log.Log) *TwoDimensional {
	if logger == nil {
		logger = log.Nop()
	}
	return &TwoDimensional{assembler: assembler, log: logger}
}

func (s *TwoDimensional) Name() string { return string(TwoDimensionalKind) }

func (s *TwoDimensional) Breach(sc *Scene) bool {
	footprint := sc.Footprint()
	for _, p := range sc.Planes(s.assembler) {
		if breaches(p.LOS, footprint) {
			return true
		}
	}
	return false
}

func (s *TwoDimensional) Percent(sc *Scene) float64 {
	clip := s.assembler.Clipper()
	footprint := sc.Footprint()
	total := clip.Area(footprint)
	if total <= geometry.Epsilon {
		return 0
	}

	best := 0.0
	for _, p := range sc.Planes(s.assembler) {
		if p.LOS.Empty() {
			continue
		}
		seen := clip.Area(clip.Intersect(footprint, p.LOS))
		pct := math.Min(1, math.Max(0, seen/total))
		s.log.Debug("plane measured",
			log.String("target", sc.Query.Target.ID),
			log.Float64("elevation", p.Elevation),
			log.Float64("percent", pct),
		)
		best = math.Max(best, pct)
	}
	return best
}
