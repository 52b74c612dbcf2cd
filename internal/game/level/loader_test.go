package level

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validJSON = `{
  "spawnPoints": [
    {"x": 100, "y": 200},
    {"x": 300, "y": 400},
    {"x": 500, "y": 120}
  ],
  "walls": [
    {"x": 0, "y": 0, "width": 800, "height": 16}
  ]
}`

const validYAML = `
spawn_points:
  - x: 100
    y: 200
  - x: 300
    y: 400
walls:
  - x: 0
    y: 0
    width: 800
    height: 16
`

func TestLoadFromJSON(t *testing.T) {
	lvl, err := LoadFromJSON([]byte(validJSON))
	require.NoError(t, err)
	assert.Len(t, lvl.SpawnPoints, 3)
	assert.Equal(t, SpawnDef{X: 100, Y: 200}, lvl.SpawnPoints[0])
	require.Len(t, lvl.Walls, 1)
	assert.Equal(t, 800.0, lvl.Walls[0].Width)
}

func TestLoadFromJSON_Invalid(t *testing.T) {
	_, err := LoadFromJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestLoadFromYAML(t *testing.T) {
	lvl, err := LoadFromYAML([]byte(validYAML))
	require.NoError(t, err)
	assert.Len(t, lvl.SpawnPoints, 2)
	assert.Equal(t, SpawnDef{X: 300, Y: 400}, lvl.SpawnPoints[1])
	assert.Len(t, lvl.Walls, 1)
}

func TestLoadFromFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "floor.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(validJSON), 0o600))
	lvl, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, lvl.SpawnPoints, 3)

	yamlPath := filepath.Join(dir, "floor.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(validYAML), 0o600))
	lvl, err = LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, lvl.SpawnPoints, 2)
}

func TestLoadFromFile_UnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floor.txt")
	require.NoError(t, os.WriteFile(path, []byte(validJSON), 0o600))
	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported level file extension")
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate_NoSpawnPoints(t *testing.T) {
	lvl := &Level{}
	err := lvl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spawn points")
}

func TestValidate_DuplicateSpawnCoordinates(t *testing.T) {
	lvl := &Level{SpawnPoints: []SpawnDef{{X: 1, Y: 2}, {X: 1, Y: 2}}}
	err := lvl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate spawn point")
}

func TestValidate_BadWall(t *testing.T) {
	lvl := &Level{
		SpawnPoints: []SpawnDef{{X: 1, Y: 2}},
		Walls:       []Wall{{X: 0, Y: 0, Width: 0, Height: 10}},
	}
	assert.Error(t, lvl.Validate())
}
