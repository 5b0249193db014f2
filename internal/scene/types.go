package scene

import (
	"github.com/zeusync/sightline/internal/core/geometry"
	"github.com/zeusync/sightline/internal/core/los"
	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
)

// Point2 is written as [x, y].
type Point2 [2]float64

func (p Point2) point() geometry.Point2 { return geometry.Pt(p[0], p[1]) }

// Point3 is written as [x, y, z].
type Point3 [3]float64

func (p Point3) point() geometry.Point3 { return geometry.Pt3(p[0], p[1], p[2]) }

// Ring is a closed polygon written as a list of points.
type Ring []Point2

func (r Ring) polygon() geometry.Polygon {
	if len(r) == 0 {
		return nil
	}
	p := make(geometry.Polygon, len(r))
	for i, v := range r {
		p[i] = v.point()
	}
	return p
}

type Box struct {
	Min Point2 `json:"min" yaml:"min"`
	Max Point2 `json:"max" yaml:"max"`
}

func (b *Box) rectangle() geometry.Rectangle {
	if b == nil {
		return geometry.Rectangle{}
	}
	return geometry.Rectangle{Min: b.Min.point(), Max: b.Max.point()}
}

// Wall spans every elevation unless both Bottom and Top are set.
type Wall struct {
	ID     string   `json:"id,omitempty" yaml:"id,omitempty"`
	A      Point2   `json:"a" yaml:"a"`
	B      Point2   `json:"b" yaml:"b"`
	Bottom *float64 `json:"bottom,omitempty" yaml:"bottom,omitempty"`
	Top    *float64 `json:"top,omitempty" yaml:"top,omitempty"`
}

func (w Wall) wall() shadow.Wall {
	sw := shadow.Wall{ID: w.ID, A: w.A.point(), B: w.B.point()}
	if w.Bottom != nil && w.Top != nil {
		sw.Bottom, sw.Top, sw.Limited = *w.Bottom, *w.Top, true
	}
	return sw
}

type Body struct {
	ID        string  `json:"id,omitempty" yaml:"id,omitempty"`
	Footprint Ring    `json:"footprint" yaml:"footprint"`
	Bottom    float64 `json:"bottom" yaml:"bottom"`
	Height    float64 `json:"height" yaml:"height"`
	Class     string  `json:"class,omitempty" yaml:"class,omitempty"`
}

func (b Body) body() (shadow.Body, error) {
	class, err := shadow.ParseBodyClass(b.Class)
	if err != nil {
		return shadow.Body{}, err
	}
	return shadow.Body{
		ID:        b.ID,
		Footprint: b.Footprint.polygon(),
		Bottom:    b.Bottom,
		Height:    b.Height,
		Class:     class,
	}, nil
}

type Viewer struct {
	ID       string           `json:"id" yaml:"id"`
	Position Point3           `json:"position" yaml:"position"`
	FOV      *los.FieldOfView `json:"fov,omitempty" yaml:"fov,omitempty"`
}

func (v Viewer) viewer() visibility.Viewer {
	return visibility.Viewer{ID: v.ID, Position: v.Position.point(), FOV: v.FOV}
}

type Target struct {
	ID        string  `json:"id" yaml:"id"`
	Footprint Ring    `json:"footprint" yaml:"footprint"`
	Bottom    float64 `json:"bottom" yaml:"bottom"`
	Top       float64 `json:"top" yaml:"top"`
}

func (t Target) target() visibility.Target {
	return visibility.Target{ID: t.ID, Footprint: t.Footprint.polygon(), Bottom: t.Bottom, Top: t.Top}
}

// Check asks whether Viewer sees Target. PercentArea overrides the policy
// threshold and RawLOS replaces the swept line of sight.
type Check struct {
	Viewer      string   `json:"viewer" yaml:"viewer"`
	Target      string   `json:"target" yaml:"target"`
	PercentArea *float64 `json:"percent_area,omitempty" yaml:"percent_area,omitempty"`
	RawLOS      Ring     `json:"raw_los,omitempty" yaml:"raw_los,omitempty"`
}

// Evaluation is the verdict for one check.
type Evaluation struct {
	Viewer string `json:"viewer"`
	Target string `json:"target"`
	visibility.Result
}
