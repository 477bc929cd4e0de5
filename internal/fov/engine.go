package fov

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samdwyer/deepdive/internal/logger"
	"github.com/samdwyer/deepdive/internal/world"
)

// DefaultRadius is the standard view radius in tiles.
const DefaultRadius = 20

// Engine tracks what the observer has ever seen, currently sees, or has
// never observed on one grid. Per-tile state lives in a flat slice parallel
// to the grid's tile sequence.
//
// State machine per tile: Unseen -> Visible -> Seen -> Visible -> ...
// A tile never returns to Unseen once it has been visible.
type Engine struct {
	grid      *world.Grid
	state     []Visibility
	radius    int
	last      *world.Point
	revealAll bool
	cache     *losCache
	log       *logrus.Entry
}

// NewEngine creates an engine for the given grid with every tile Unseen.
func NewEngine(grid *world.Grid, radius int) *Engine {
	e := &Engine{
		radius: radius,
		cache:  newLosCache(),
		log:    logger.WithComponent("fov"),
	}
	e.Reset(grid)
	return e
}

// Reset points the engine at a (possibly new) grid, clears all visibility
// back to Unseen, and drains the LOS cache.
func (e *Engine) Reset(grid *world.Grid) {
	e.grid = grid
	e.state = make([]Visibility, grid.Width*grid.Height)
	e.last = nil
	e.InvalidateLOS()
}

// RestoreState points the engine at a grid and adopts a previously captured
// visibility sequence, as happens when re-entering a visited depth.
func (e *Engine) RestoreState(grid *world.Grid, states []Visibility) error {
	if len(states) != grid.Width*grid.Height {
		return fmt.Errorf("fov: visibility length %d does not match %dx%d grid",
			len(states), grid.Width, grid.Height)
	}
	e.grid = grid
	e.state = make([]Visibility, len(states))
	copy(e.state, states)
	e.last = nil
	e.InvalidateLOS()
	return nil
}

// StateOf returns the visibility state at the given coordinate. With debug
// reveal active every in-bounds tile reads as Visible; the stored state is
// left untouched so disabling the overlay restores the true view.
func (e *Engine) StateOf(x, y int) Visibility {
	if !e.grid.InBounds(x, y) {
		panic(fmt.Sprintf("fov: coordinate (%d,%d) outside %dx%d grid", x, y, e.grid.Width, e.grid.Height))
	}
	if e.revealAll {
		return Visible
	}
	return e.state[y*e.grid.Width+x]
}

// Snapshot returns a copy of the per-tile visibility sequence.
func (e *Engine) Snapshot() []Visibility {
	out := make([]Visibility, len(e.state))
	copy(out, e.state)
	return out
}

// SetRevealAll toggles the debug overlay that reports every tile Visible.
func (e *Engine) SetRevealAll(on bool) {
	e.revealAll = on
}

// RevealAll reports whether the debug overlay is active.
func (e *Engine) RevealAll() bool {
	return e.revealAll
}

// Radius returns the view radius.
func (e *Engine) Radius() int {
	return e.radius
}

// NeedsRecompute reports whether a Recompute for this observer position
// would change anything: the observer moved, or the map was marked dirty.
func (e *Engine) NeedsRecompute(observer world.Point) bool {
	return e.last == nil || *e.last != observer
}

// MarkDirty forces the next Recompute to run a full-grid pass, used after a
// visibility-affecting map mutation such as a door toggle.
func (e *Engine) MarkDirty() {
	e.last = nil
}

// InvalidateLOS drains the line-of-sight cache. Cache statistics are logged
// before reset so hit rates stay observable across level transitions.
func (e *Engine) InvalidateLOS() {
	hits, misses, size := e.CacheStats()
	if hits+misses > 0 {
		e.log.WithFields(logrus.Fields{
			"hits":    hits,
			"misses":  misses,
			"entries": size,
		}).Debug("LOS cache invalidated")
	}
	e.cache.clear()
}

// CacheStats returns LOS cache hits, misses, and entry count.
func (e *Engine) CacheStats() (hits, misses uint64, size int) {
	return e.cache.hits, e.cache.misses, e.cache.len()
}

// LineOfSight reports whether an unobstructed line connects a and b. The
// target tile itself never blocks: the wall you are looking at is visible.
// Results are memoized under the normalized pair key, which makes the
// predicate symmetric by construction.
func (e *Engine) LineOfSight(a, b world.Point) bool {
	if clear, ok := e.cache.lookup(a, b); ok {
		return clear
	}
	clear := e.traceLine(a, b)
	e.cache.store(a, b, clear)
	return clear
}

// traceLine walks a Bresenham line from a to b, failing when a
// sight-blocking tile is crossed before the target.
func (e *Engine) traceLine(a, b world.Point) bool {
	x, y := a.X, a.Y
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)

	sx := -1
	if a.X < b.X {
		sx = 1
	}
	sy := -1
	if a.Y < b.Y {
		sy = 1
	}

	err := dx - dy
	for {
		if e.grid.InBounds(x, y) && e.grid.At(x, y).BlocksSight() {
			if x != b.X || y != b.Y {
				return false
			}
		}
		if x == b.X && y == b.Y {
			return true
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// Recompute re-evaluates visibility for the given observer position. The
// first pass after a reset scans the whole grid; afterwards only the union
// of the old and new view regions is touched. Tiles in view get promoted to
// Visible, tiles that dropped out of view demote to Seen, and everything
// else is untouched.
func (e *Engine) Recompute(observer world.Point) {
	if !e.grid.InBounds(observer.X, observer.Y) {
		panic(fmt.Sprintf("fov: observer (%d,%d) outside %dx%d grid",
			observer.X, observer.Y, e.grid.Width, e.grid.Height))
	}

	minX, minY := 0, 0
	maxX, maxY := e.grid.Width-1, e.grid.Height-1
	if e.last != nil {
		// Bounding box of the union of the old and new view circles.
		minX = max(0, min(e.last.X-e.radius, observer.X-e.radius))
		maxX = min(e.grid.Width-1, max(e.last.X+e.radius, observer.X+e.radius))
		minY = max(0, min(e.last.Y-e.radius, observer.Y-e.radius))
		maxY = min(e.grid.Height-1, max(e.last.Y+e.radius, observer.Y+e.radius))
	}

	radiusSq := e.radius * e.radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := world.Point{X: x, Y: y}
			idx := y*e.grid.Width + x
			if observer.DistSq(p) <= radiusSq && e.LineOfSight(observer, p) {
				e.state[idx] = Visible
			} else if e.state[idx] == Visible {
				e.state[idx] = Seen
			}
		}
	}

	pos := observer
	e.last = &pos
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
