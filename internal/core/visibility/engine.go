package visibility

import (
	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/observability/log"
)

// centerThreshold splits the policies the centre shortcut can settle alone:
// below it a visible centre is enough, at or above it an occluded centre disqualifies.
const centerThreshold = 0.5

// Engine evaluates queries. It keeps no state between calls and is safe for
// concurrent use.
type Engine struct {
	strategy AreaStrategy
	clip     *clipper.Clipper
	log      log.Log
}

// NewEngine returns an Engine measuring area with strategy. clip must be the
// clipper the strategy was built with.
func NewEngine(strategy AreaStrategy, clip *clipper.Clipper, logger log.Log) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if clip == nil {
		clip = clipper.New(clipper.DefaultScale, clipper.WithLogger(logger))
	}
	return &Engine{strategy: strategy, clip: clip, log: logger}
}

func (e *Engine) Strategy() AreaStrategy { return e.strategy }

// ComputeVisibility decides whether the viewer sees the target:
//
//  1. a visible centre settles thresholds below one half;
//  2. an occluded centre settles thresholds of one half and above;
//  3. a zero threshold is met by any breach of the target boundary;
//  4. otherwise the visible fraction is measured and compared with the
//     threshold, inclusive within geometry.Epsilon.
//
// Invalid queries yield false with a zero percentage.
func (e *Engine) ComputeVisibility(q Query) Result {
	if err := q.Validate(); err != nil {
		e.log.Debug("query rejected", log.String("target", q.Target.ID), log.Error(err))
		return Result{HasLOS: false, PercentVisible: percent(0), Reason: ReasonInvalidQuery}
	}

	sc := newScene(q, e.clip)
	threshold := q.Policy.PercentArea

	center := centerVisible(sc)
	if center && threshold < centerThreshold {
		return e.decided(q, Result{HasLOS: true, Reason: ReasonCenterVisible})
	}
	if !center && threshold >= centerThreshold {
		return e.decided(q, Result{HasLOS: false, Reason: ReasonCenterOccluded})
	}

	if threshold == 0 && e.strategy.Breach(sc) {
		return e.decided(q, Result{HasLOS: true, Reason: ReasonBoundaryBreach})
	}

	pct := e.strategy.Percent(sc)
	has := !geometry.AlmostZero(pct) && (pct > threshold || geometry.AlmostEqual(pct, threshold))
	return e.decided(q, Result{HasLOS: has, PercentVisible: percent(pct), Reason: ReasonArea})
}

func (e *Engine) decided(q Query, r Result) Result {
	if e.log.Enabled(log.LevelDebug) {
		fields := []log.Field{
			log.String("viewer", q.Viewer.ID),
			log.String("target", q.Target.ID),
			log.String("strategy", e.strategy.Name()),
			log.Stringer("reason", r.Reason),
			log.Bool("has_los", r.HasLOS),
		}
		if r.PercentVisible != nil {
			fields = append(fields, log.Float64("percent", *r.PercentVisible))
		}
		e.log.Debug("visibility decided", fields...)
	}
	return r
}
