package scene

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/sightline/internal/core/clipper"
	"github.com/zeusync/sightline/internal/core/shadow"
	"github.com/zeusync/sightline/internal/core/visibility"
)

const courtyardYAML = `
name: courtyard
bounds: {min: [-1000, -1000], max: [1000, 1000]}
walls:
  - {a: [-100, 5], b: [100, 5], bottom: 0, top: 6}
  - {id: far, a: [-100, 500], b: [100, 500]}
bodies:
  - {id: guard, footprint: [[40, 40], [42, 40], [42, 42], [40, 42]], height: 2, class: dead}
viewers:
  - {id: archer, position: [15, 0, 9]}
targets:
  - {id: goblin, footprint: [[10, 10], [20, 10], [20, 20], [10, 20]]}
checks:
  - {viewer: archer, target: goblin, percent_area: 0.5}
  - {viewer: archer, target: goblin, percent_area: 0.6}
`

func newEngine(t *testing.T) *visibility.Engine {
	t.Helper()
	clip := clipper.New(clipper.DefaultScale)
	strategy, err := visibility.NewStrategy(visibility.TwoDimensionalKind, clip, shadow.NewBuilder(shadow.DefaultMaxThrow, nil, nil), nil)
	require.NoError(t, err)
	return visibility.NewEngine(strategy, clip, nil)
}

func TestDecodeYAML(t *testing.T) {
	doc, err := Decode([]byte(courtyardYAML), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, "courtyard", doc.Name)
	require.Len(t, doc.Walls, 2)
	require.NotEmpty(t, doc.Walls[0].ID)
	require.Equal(t, "far", doc.Walls[1].ID)

	again, err := Decode([]byte(courtyardYAML), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, doc.Walls[0].ID, again.Walls[0].ID, "generated ids are stable")
	require.Equal(t, doc.Fingerprint(), again.Fingerprint())

	queries, pairs, err := doc.Queries(visibility.Policy{})
	require.NoError(t, err)
	require.Len(t, queries, 2)
	require.Equal(t, "archer", pairs[0].Viewer)

	q := queries[0]
	require.Equal(t, 0.5, q.Policy.PercentArea)
	require.True(t, q.Walls[0].Limited)
	require.False(t, q.Walls[1].Limited)
	require.Equal(t, shadow.Dead, q.Bodies[0].Class)
	require.Equal(t, 1000.0, q.Bounds.Max.X)
}

func TestFingerprintFollowsContent(t *testing.T) {
	doc, err := Decode([]byte(courtyardYAML), FormatYAML)
	require.NoError(t, err)

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	fromJSON, err := Decode(b, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, doc.Fingerprint(), fromJSON.Fingerprint())

	fromJSON.Walls[1].A[0] = -99
	require.NotEqual(t, doc.Fingerprint(), fromJSON.Fingerprint())
}

func TestEvaluate(t *testing.T) {
	doc, err := Decode([]byte(courtyardYAML), FormatYAML)
	require.NoError(t, err)

	got, err := Evaluate(context.Background(), newEngine(t), doc, visibility.Policy{}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.True(t, got[0].HasLOS)
	require.InDelta(t, 0.5, *got[0].PercentVisible, 1e-9)
	require.False(t, got[1].HasLOS)
	require.Equal(t, "goblin", got[1].Target)

	line, err := json.Marshal(got[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"viewer":"archer","target":"goblin","has_los":true,"percent_visible":0.5,"reason":"area"}`, string(line))
}

func TestPairsWithoutChecks(t *testing.T) {
	doc := &Document{
		Viewers: []Viewer{{ID: "a"}, {ID: "b"}},
		Targets: []Target{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	}
	pairs := doc.Pairs()
	require.Len(t, pairs, 4)
	for _, p := range pairs {
		assert.NotEqual(t, p.Viewer, p.Target)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{"not yaml", "viewers: [", ErrSceneInvalid},
		{"empty", "", ErrSceneInvalid},
		{"missing targets", "viewers: [{id: a, position: [0, 0, 0]}]", ErrSceneInvalid},
		{"unknown field", courtyardYAML + "lights: []\n", ErrSceneInvalid},
		{"wall with only a top", `
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]
walls: [{a: [0, 0], b: [1, 1], top: 3}]`, ErrSceneInvalid},
		{"short footprint", `
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0]]}]`, ErrSceneInvalid},
		{"bad body class", `
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]
bodies: [{footprint: [[0, 0], [1, 0], [1, 1]], height: 1, class: ghost}]`, ErrSceneInvalid},
		{"duplicate viewer", `
viewers: [{id: a, position: [0, 0, 0]}, {id: a, position: [1, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]`, ErrSceneInvalid},
		{"unknown viewer", `
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]
checks: [{viewer: b, target: t}]`, ErrUnknownViewer},
		{"unknown target", `
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]
checks: [{viewer: a, target: u}]`, ErrUnknownTarget},
		{"empty bounds", `
bounds: {min: [0, 0], max: [0, 10]}
viewers: [{id: a, position: [0, 0, 0]}]
targets: [{id: t, footprint: [[0, 0], [1, 0], [1, 1]]}]`, ErrSceneInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), FormatYAML)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "courtyard.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(courtyardYAML), 0o600))

	doc, err := Decode([]byte(courtyardYAML), FormatYAML)
	require.NoError(t, err)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "courtyard.json")
	require.NoError(t, os.WriteFile(jsonPath, b, 0o600))

	docs, err := LoadAll(jsonPath, yamlPath)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, docs[0].Fingerprint(), docs[1].Fingerprint())

	_, err = LoadAll(yamlPath, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestRequestQuery(t *testing.T) {
	threshold := 0.25
	r := Request{
		Walls:       []Wall{{A: Point2{-100, 5}, B: Point2{100, 5}}},
		Viewer:      Viewer{Position: Point3{0, 0, 0}},
		Target:      Target{Footprint: Ring{{-5, 10}, {5, 10}, {5, 20}, {-5, 20}}},
		PercentArea: &threshold,
	}
	q, err := r.Query(visibility.Policy{LiveBodiesBlock: true})
	require.NoError(t, err)
	require.Equal(t, "viewer", q.Viewer.ID)
	require.Equal(t, "target", q.Target.ID)
	require.Equal(t, 0.25, q.Policy.PercentArea)
	require.True(t, q.Policy.LiveBodiesBlock)

	res := newEngine(t).ComputeVisibility(q)
	require.False(t, res.HasLOS)

	r.Target.Footprint = r.Target.Footprint[:2]
	_, err = r.Query(visibility.Policy{})
	require.ErrorIs(t, err, ErrSceneInvalid)
}
