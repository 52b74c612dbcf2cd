package level

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlLevelFile is the YAML representation of a level document. The shipped
// assets are JSON, but hand-authored levels follow the YAML content
// convention used elsewhere in the project.
type yamlLevelFile struct {
	SpawnPoints []yamlSpawn `yaml:"spawn_points"`
	Walls       []yamlWall  `yaml:"walls"`
}

type yamlSpawn struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type yamlWall struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// LoadFromFile reads and validates a level document, dispatching on the
// file extension (.json, .yaml, .yml).
//
// Precondition: path must point to a valid level file.
// Postcondition: Returns a validated Level or a non-nil error.
func LoadFromFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadFromJSON(data)
	case ".yaml", ".yml":
		return LoadFromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported level file extension %q", filepath.Ext(path))
	}
}

// LoadFromJSON parses and validates a level from JSON bytes.
//
// Precondition: data must be valid JSON conforming to the level schema.
// Postcondition: Returns a validated Level or a non-nil error.
func LoadFromJSON(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parsing level JSON: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("validating level: %w", err)
	}
	return &lvl, nil
}

// LoadFromYAML parses and validates a level from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the level schema.
// Postcondition: Returns a validated Level or a non-nil error.
func LoadFromYAML(data []byte) (*Level, error) {
	var file yamlLevelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing level YAML: %w", err)
	}

	lvl := &Level{
		SpawnPoints: make([]SpawnDef, 0, len(file.SpawnPoints)),
		Walls:       make([]Wall, 0, len(file.Walls)),
	}
	for _, sp := range file.SpawnPoints {
		lvl.SpawnPoints = append(lvl.SpawnPoints, SpawnDef{X: sp.X, Y: sp.Y})
	}
	for _, w := range file.Walls {
		lvl.Walls = append(lvl.Walls, Wall{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height})
	}

	if err := lvl.Validate(); err != nil {
		return nil, fmt.Errorf("validating level: %w", err)
	}
	return lvl, nil
}
