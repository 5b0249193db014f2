package scene

import (
	"github.com/zeusync/sightline/internal/core/visibility"
)

const (
	defaultViewerID = "viewer"
	defaultTargetID = "target"
)

// Request is a self-contained single check: one viewer, one target and the
// occluders around them.
type Request struct {
	Bounds      *Box     `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Walls       []Wall   `json:"walls,omitempty" yaml:"walls,omitempty"`
	Bodies      []Body   `json:"bodies,omitempty" yaml:"bodies,omitempty"`
	Viewer      Viewer   `json:"viewer" yaml:"viewer"`
	Target      Target   `json:"target" yaml:"target"`
	PercentArea *float64 `json:"percent_area,omitempty" yaml:"percent_area,omitempty"`
	RawLOS      Ring     `json:"raw_los,omitempty" yaml:"raw_los,omitempty"`
}

// Document wraps r as a one-check scene.
func (r Request) Document() *Document {
	if r.Viewer.ID == "" {
		r.Viewer.ID = defaultViewerID
	}
	if r.Target.ID == "" {
		r.Target.ID = defaultTargetID
	}
	return &Document{
		Bounds:  r.Bounds,
		Walls:   r.Walls,
		Bodies:  r.Bodies,
		Viewers: []Viewer{r.Viewer},
		Targets: []Target{r.Target},
		Checks: []Check{{
			Viewer:      r.Viewer.ID,
			Target:      r.Target.ID,
			PercentArea: r.PercentArea,
			RawLOS:      r.RawLOS,
		}},
	}
}

// Query validates r and converts it.
func (r Request) Query(policy visibility.Policy) (visibility.Query, error) {
	doc := r.Document()
	if err := doc.Validate(); err != nil {
		return visibility.Query{}, err
	}
	queries, _, err := doc.Queries(policy)
	if err != nil {
		return visibility.Query{}, err
	}
	return queries[0], nil
}
