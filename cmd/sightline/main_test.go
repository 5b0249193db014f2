package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/sightline/internal/scene"
)

const scenario = `
bounds: {min: [-1000, -1000], max: [1000, 1000]}
walls:
  - {a: [-100, 5], b: [100, 5]}
viewers:
  - {id: scout, position: [0, 0, 0]}
targets:
  - {id: crate, footprint: [[-5, 10], [5, 10], [5, 20], [-5, 20]]}
  - {id: barrel, footprint: [[-5, -20], [5, -20], [5, -10], [-5, -10]]}
`

func TestEval(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(scenario), 0o600))
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("percent_area: 0.25\nlog: {level: silent}\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"eval", "-config", configPath, "-scene", scenePath}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var crate, barrel scene.Evaluation
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &crate))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &barrel))
	require.Equal(t, "crate", crate.Target)
	require.False(t, crate.HasLOS)
	require.Equal(t, "barrel", barrel.Target)
	require.True(t, barrel.HasLOS)
}

func TestRunRejects(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, run(context.Background(), nil, &out))
	require.Error(t, run(context.Background(), []string{"paint"}, &out))
	require.Error(t, run(context.Background(), []string{"eval", "-config", "", "-scene", ""}, &out))
	require.Error(t, run(context.Background(), []string{"eval", "missing.yaml"}, &out))
}
