// Package level provides loading and validation of static level data:
// the spawn point definitions and wall geometry a floor is built from.
package level

import (
	"fmt"
)

// SpawnDef is a predefined world coordinate usable as a player's
// starting position.
type SpawnDef struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Wall is an axis-aligned collision rectangle. The coordinator does not
// collide against walls itself; they are carried for the rendering client.
type Wall struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Level is the load-once level document.
type Level struct {
	SpawnPoints []SpawnDef `json:"spawnPoints"`
	Walls       []Wall     `json:"walls"`
}

// Validate checks the level invariants.
//
// Spawn points are matched structurally by coordinate pair downstream, so
// duplicate coordinates in source data are rejected here rather than
// tolerated as an ambiguity.
//
// Postcondition: Returns nil if the level is usable, or a non-nil error.
func (l *Level) Validate() error {
	if len(l.SpawnPoints) == 0 {
		return fmt.Errorf("level has no spawn points")
	}

	seen := make(map[[2]float64]bool, len(l.SpawnPoints))
	for _, sp := range l.SpawnPoints {
		key := [2]float64{sp.X, sp.Y}
		if seen[key] {
			return fmt.Errorf("duplicate spawn point at (%v, %v)", sp.X, sp.Y)
		}
		seen[key] = true
	}

	for i, w := range l.Walls {
		if w.Width <= 0 || w.Height <= 0 {
			return fmt.Errorf("wall %d has non-positive size %vx%v", i, w.Width, w.Height)
		}
	}

	return nil
}
