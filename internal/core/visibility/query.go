// Package visibility decides whether a viewer sees a target and how much of it.
//
// ComputeVisibility is a pure function of its Query: every occluder, policy
// scalar and bound comes in through the query and nothing is kept between calls.
package visibility

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/shadow"
)

type FieldOfView = los.FieldOfView

type Viewer struct {
	ID       string
	Position geometry.Point3
	FOV      *FieldOfView
}

// Target is a prism standing on Footprint between Bottom and Top.
type Target struct {
	ID        string
	Footprint geometry.Polygon
	Bottom    float64
	Top       float64
}

// Center is the footprint centroid at mid height.
func (t Target) Center() geometry.Point3 {
	return t.Footprint.Centroid().To3((t.Bottom + t.Top) / 2)
}

// Policy holds the caller's thresholds. PercentArea is the fraction of the
// target that must be seen, in [0, 1].
type Policy struct {
	PercentArea     float64
	LiveBodiesBlock bool
	DeadBodiesBlock bool
	DeadHalfHeight  bool
}

// Query is a read-only snapshot of everything one visibility check needs.
// RawLOS is optional; when it is not a valid polygon the engine sweeps one from
// the walls blocking at the viewer's elevation inside Bounds.
type Query struct {
	Viewer Viewer
	Target Target
	Walls  []shadow.Wall
	Bodies []shadow.Body
	RawLOS geometry.Polygon
	Bounds geometry.Rectangle
	Policy Policy
}

// Validate reports why q cannot be evaluated, or nil.
func (q Query) Validate() error {
	pa := q.Policy.PercentArea
	switch {
	case math.IsNaN(pa) || pa < 0 || pa > 1:
		return fmt.Errorf("%w: percent area %v outside [0, 1]", ErrInvalidQuery, pa)
	case !q.Viewer.Position.IsFinite():
		return fmt.Errorf("%w: viewer position is not finite", ErrInvalidQuery)
	case !q.Target.Footprint.IsFinite():
		return fmt.Errorf("%w: target footprint is not finite", ErrInvalidQuery)
	case !q.Target.Footprint.Valid():
		return fmt.Errorf("%w: target footprint has no area", ErrInvalidQuery)
	case math.IsNaN(q.Target.Bottom) || math.IsNaN(q.Target.Top) || q.Target.Top < q.Target.Bottom:
		return fmt.Errorf("%w: target elevation [%v, %v]", ErrInvalidQuery, q.Target.Bottom, q.Target.Top)
	}
	return nil
}

type Reason uint8

const (
	ReasonInvalidQuery Reason = iota
	ReasonCenterVisible
	ReasonCenterOccluded
	ReasonBoundaryBreach
	ReasonArea
)

func (r Reason) String() string {
	switch r {
	case ReasonCenterVisible:
		return "center-visible"
	case ReasonCenterOccluded:
		return "center-occluded"
	case ReasonBoundaryBreach:
		return "boundary-breach"
	case ReasonArea:
		return "area"
	default:
		return "invalid-query"
	}
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(b []byte) error {
	for _, c := range []Reason{ReasonInvalidQuery, ReasonCenterVisible, ReasonCenterOccluded, ReasonBoundaryBreach, ReasonArea} {
		if c.String() == string(b) {
			*r = c
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", b)
}

// Result is the verdict. PercentVisible is nil when a shortcut decided without
// measuring area.
type Result struct {
	HasLOS         bool     `json:"has_los"`
	PercentVisible *float64 `json:"percent_visible,omitempty"`
	Reason         Reason   `json:"reason"`
}

func (r Result) String() string {
	b, _ := json.Marshal(r)
	return string(b)
}

func percent(v float64) *float64 { return &v }
