// Package scene reads scene snapshots, the walls, bodies, viewers and targets
// of one moment, and turns their checks into visibility queries.
package scene

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
	"github.com/zeusync/sightline/pkg/concurrent"
)

var (
	ErrSceneInvalid  = errors.New("invalid scene")
	ErrUnknownViewer = errors.New("unknown viewer")
	ErrUnknownTarget = errors.New("unknown target")
)

//go:embed scene.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

type Format uint8

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatOf guesses the format from a file name; anything but .json is YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is one scene snapshot. When Checks is empty every viewer is checked
// against every target. Bounds default to the extent of the scene.
type Document struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Bounds  *Box     `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Walls   []Wall   `json:"walls,omitempty" yaml:"walls,omitempty"`
	Bodies  []Body   `json:"bodies,omitempty" yaml:"bodies,omitempty"`
	Viewers []Viewer `json:"viewers" yaml:"viewers"`
	Targets []Target `json:"targets" yaml:"targets"`
	Checks  []Check  `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// Decode parses and validates a scene.
func Decode(data []byte, format Format) (*Document, error) {
	unmarshal := yaml.Unmarshal
	if format == FormatJSON {
		unmarshal = json.Unmarshal
	}

	var raw any
	if err := unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSceneInvalid, err)
	}
	if err := validateSchema(gojsonschema.NewGoLoader(raw)); err != nil {
		return nil, err
	}

	var doc Document
	if err := unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSceneInvalid, err)
	}
	doc.assignIDs()
	if err := doc.validateRefs(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads a scene file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	doc, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadAll reads every path concurrently. Documents keep the order of paths.
func LoadAll(paths ...string) ([]*Document, error) {
	docs := make([]*Document, len(paths))
	idx := make([]int, len(paths))
	for i := range idx {
		idx[i] = i
	}
	err := concurrent.Concurrent(idx, func(i int) error {
		doc, err := Load(paths[i])
		if err != nil {
			return err
		}
		docs[i] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Validate checks a document built in code against the same rules Decode applies.
func (d *Document) Validate() error {
	d.assignIDs()
	if err := validateSchema(gojsonschema.NewGoLoader(d)); err != nil {
		return err
	}
	return d.validateRefs()
}

// Fingerprint hashes the canonical JSON form of the document. Two documents
// with the same fingerprint describe the same scene.
func (d *Document) Fingerprint() uint64 {
	b, err := json.Marshal(d)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

// Pairs returns the document's checks, or every viewer and target pair when
// it lists none.
func (d *Document) Pairs() []Check {
	if len(d.Checks) > 0 {
		return d.Checks
	}
	pairs := make([]Check, 0, len(d.Viewers)*len(d.Targets))
	for _, v := range d.Viewers {
		for _, t := range d.Targets {
			if v.ID != t.ID {
				pairs = append(pairs, Check{Viewer: v.ID, Target: t.ID})
			}
		}
	}
	return pairs
}

// Queries builds one query per pair. policy supplies the threshold for checks
// that carry none.
func (d *Document) Queries(policy visibility.Policy) ([]visibility.Query, []Check, error) {
	viewers := make(map[string]Viewer, len(d.Viewers))
	for _, v := range d.Viewers {
		viewers[v.ID] = v
	}
	targets := make(map[string]Target, len(d.Targets))
	for _, t := range d.Targets {
		targets[t.ID] = t
	}

	walls := make([]shadow.Wall, 0, len(d.Walls))
	for _, w := range d.Walls {
		walls = append(walls, w.wall())
	}
	bodies := make([]shadow.Body, 0, len(d.Bodies))
	for _, b := range d.Bodies {
		sb, err := b.body()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: body %s: %w", ErrSceneInvalid, b.ID, err)
		}
		bodies = append(bodies, sb)
	}

	pairs := d.Pairs()
	queries := make([]visibility.Query, 0, len(pairs))
	for _, c := range pairs {
		v, ok := viewers[c.Viewer]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownViewer, c.Viewer)
		}
		t, ok := targets[c.Target]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTarget, c.Target)
		}
		p := policy
		if c.PercentArea != nil {
			p.PercentArea = *c.PercentArea
		}
		queries = append(queries, visibility.Query{
			Viewer: v.viewer(),
			Target: t.target(),
			Walls:  walls,
			Bodies: bodies,
			RawLOS: c.RawLOS.polygon(),
			Bounds: d.Bounds.rectangle(),
			Policy: p,
		})
	}
	return queries, pairs, nil
}

// Evaluate runs every check of doc on up to workers goroutines.
func Evaluate(ctx context.Context, e *visibility.Engine, doc *Document, policy visibility.Policy, workers int) ([]Evaluation, error) {
	queries, pairs, err := doc.Queries(policy)
	if err != nil {
		return nil, err
	}
	results, err := e.ComputeBatch(ctx, queries, workers)
	if err != nil {
		return nil, err
	}
	out := make([]Evaluation, len(results))
	for i, r := range results {
		out[i] = Evaluation{Viewer: pairs[i].Viewer, Target: pairs[i].Target, Result: r}
	}
	return out, nil
}

// assignIDs names anonymous walls and bodies. Names derive from position and
// geometry so that decoding the same document twice yields the same ids.
func (d *Document) assignIDs() {
	for i := range d.Walls {
		if w := &d.Walls[i]; w.ID == "" {
			w.ID = stableID(fmt.Sprintf("wall/%d/%v/%v", i, w.A, w.B))
		}
	}
	for i := range d.Bodies {
		if b := &d.Bodies[i]; b.ID == "" {
			b.ID = stableID(fmt.Sprintf("body/%d/%v", i, b.Footprint))
		}
	}
}

func stableID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (d *Document) validateRefs() error {
	var errs []error
	if b := d.Bounds; b != nil && (b.Max[0] <= b.Min[0] || b.Max[1] <= b.Min[1]) {
		errs = append(errs, fmt.Errorf("bounds %v..%v are empty", b.Min, b.Max))
	}

	viewers := make(map[string]struct{}, len(d.Viewers))
	for _, v := range d.Viewers {
		if _, dup := viewers[v.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate viewer %q", v.ID))
		}
		viewers[v.ID] = struct{}{}
	}
	targets := make(map[string]struct{}, len(d.Targets))
	for _, t := range d.Targets {
		if _, dup := targets[t.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate target %q", t.ID))
		}
		if t.Top < t.Bottom {
			errs = append(errs, fmt.Errorf("target %q top %v below bottom %v", t.ID, t.Top, t.Bottom))
		}
		targets[t.ID] = struct{}{}
	}
	for _, w := range d.Walls {
		if w.Bottom != nil && w.Top != nil && *w.Top < *w.Bottom {
			errs = append(errs, fmt.Errorf("wall %q top %v below bottom %v", w.ID, *w.Top, *w.Bottom))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSceneInvalid, errors.Join(errs...))
	}

	for _, c := range d.Checks {
		if _, ok := viewers[c.Viewer]; !ok {
			return fmt.Errorf("%w: %w: %q", ErrSceneInvalid, ErrUnknownViewer, c.Viewer)
		}
		if _, ok := targets[c.Target]; !ok {
			return fmt.Errorf("%w: %w: %q", ErrSceneInvalid, ErrUnknownTarget, c.Target)
		}
	}
	return nil
}

func validateSchema(doc gojsonschema.JSONLoader) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile scene schema: %w", err)
	}
	result, err := schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSceneInvalid, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrSceneInvalid, strings.Join(msgs, "; "))
	}
	return nil
}
