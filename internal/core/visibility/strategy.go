package visibility

import (
	"fmt"
	"strings"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/observability/log"
	"github.com/zeusync/sightline/internal/core/shadow"
)

// AreaStrategy measures how much of a target is seen once the centre shortcuts
// have not decided.
type AreaStrategy interface {
	Name() string
	// Breach reports whether the line of sight reaches into the target at all,
	// using a cheaper test than Percent where the strategy has one.
	Breach(sc *Scene) bool
	// Percent returns the visible fraction of the target in [0, 1].
	Percent(sc *Scene) float64
}

type StrategyKind string

const (
	TwoDimensionalKind   StrategyKind = "2d"
	ThreeDimensionalKind StrategyKind = "3d"
)

func ParseStrategyKind(s string) (StrategyKind, error) {
	switch StrategyKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", TwoDimensionalKind, "area2d":
		return TwoDimensionalKind, nil
	case ThreeDimensionalKind, "area3d":
		return ThreeDimensionalKind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// NewStrategy builds the strategy named by kind.
func NewStrategy(kind StrategyKind, clip *clipper.Clipper, shadows *shadow.Builder, logger log.Log) (AreaStrategy, error) {
	switch kind {
	case TwoDimensionalKind:
		return NewTwoDimensional(los.NewAssembler(clip, shadows, logger), logger), nil
	case ThreeDimensionalKind:
		return NewThreeDimensional(clip, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, kind)
	}
}
