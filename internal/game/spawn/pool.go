// Package spawn manages the fixed pool of player spawn positions.
package spawn

import (
	"math/rand/v2"
	"sync"

	"github.com/cory-johannsen/raccoons/internal/game/level"
)

// Point is one spawn position with an occupied flag. Points are created once
// at pool construction and live for the life of the process.
//
// Source data identifies points structurally by coordinate pair; the pool
// additionally assigns each point a stable index so that release is
// unambiguous even if duplicate coordinates ever slip into an asset.
type Point struct {
	X float64
	Y float64

	index    int
	occupied bool
}

// Pool is the fixed set of spawn points. All methods are safe for
// concurrent use.
type Pool struct {
	mu     sync.Mutex
	points []*Point
	intN   func(n int) int
}

// NewPool creates a Pool from level spawn definitions.
//
// Precondition: defs should come from a validated level (unique coordinates).
// Postcondition: Returns a Pool with every point free.
func NewPool(defs []level.SpawnDef) *Pool {
	p := &Pool{
		points: make([]*Point, 0, len(defs)),
		intN:   rand.IntN,
	}
	for i, def := range defs {
		p.points = append(p.points, &Point{X: def.X, Y: def.Y, index: i})
	}
	return p
}

// Allocate selects uniformly at random among the currently free points,
// marks it occupied, and returns it.
//
// Postcondition: Returns (point, true) with the point marked occupied, or
// (nil, false) when no point is free.
func (p *Pool) Allocate() (*Point, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	free := make([]*Point, 0, len(p.points))
	for _, pt := range p.points {
		if !pt.occupied {
			free = append(free, pt)
		}
	}
	if len(free) == 0 {
		return nil, false
	}

	pt := free[p.intN(len(free))]
	pt.occupied = true
	return pt, true
}

// Release marks the point free again. A nil point, an already-free point,
// or a point from another pool is a no-op, not an error: disconnect paths
// may release sessions that never obtained a spawn.
func (p *Pool) Release(pt *Point) {
	if pt == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pt.index < 0 || pt.index >= len(p.points) || p.points[pt.index] != pt {
		return
	}
	pt.occupied = false
}

// Free returns the number of currently unoccupied points.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, pt := range p.points {
		if !pt.occupied {
			n++
		}
	}
	return n
}

// Size returns the total number of points in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.points)
}
