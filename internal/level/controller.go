package level

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/deepdive/internal/fov"
	"github.com/samdwyer/deepdive/internal/gamedata"
	"github.com/samdwyer/deepdive/internal/logger"
	"github.com/samdwyer/deepdive/internal/telemetry"
	"github.com/samdwyer/deepdive/internal/world"
)

// ErrInvalidTransition signals a transition request against the depth-range
// rules, such as ascending from the surface. Reported, never fatal.
var ErrInvalidTransition = errors.New("level: invalid transition")

// Direction is a requested depth transition.
type Direction int

const (
	// DirectionUp ascends toward depth 0.
	DirectionUp Direction = iota
	// DirectionDown descends toward world.MaxDepth.
	DirectionDown
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// arrival selects where the observer spawns after entering a depth.
type arrival int

const (
	arriveAtUpStair arrival = iota
	arriveAtDownStair
	arriveAtCenter
)

// depthSeedStride spreads per-depth seeds apart so adjacent depths never
// share generation randomness.
const depthSeedStride = 0x51_7C_C1_B7_27_22_0A95

// Options configures a controller.
type Options struct {
	Width     int
	Height    int
	FOVRadius int
	Seed      int64
}

// Controller owns the live depth: its grid, stairs, observer position, and
// visibility engine. It sequences generation or restoration on every depth
// transition and snapshots the departing level into the store.
type Controller struct {
	store  *Store
	biomes *gamedata.BiomeRegistry
	engine *fov.Engine

	width, height int
	seed          int64
	regenCount    int

	depth    int
	grid     *world.Grid
	stairs   world.Stairs
	biome    string
	observer world.Point

	log *logrus.Entry
}

// NewController creates a controller and enters depth 0, restoring it from
// the store when a loaded save already holds it.
func NewController(ctx context.Context, store *Store, biomes *gamedata.BiomeRegistry, opts Options) (*Controller, error) {
	if opts.Width <= 0 {
		opts.Width = world.DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = world.DefaultHeight
	}
	if opts.FOVRadius <= 0 {
		opts.FOVRadius = fov.DefaultRadius
	}

	c := &Controller{
		store:  store,
		biomes: biomes,
		width:  opts.Width,
		height: opts.Height,
		seed:   opts.Seed,
		log:    logger.WithComponent("level"),
	}
	if err := c.enterDepth(ctx, 0, arriveAtCenter, opts.FOVRadius); err != nil {
		return nil, err
	}
	return c, nil
}

// CurrentDepth returns the depth the observer is on.
func (c *Controller) CurrentDepth() int { return c.depth }

// Grid returns the live grid.
func (c *Controller) Grid() *world.Grid { return c.grid }

// Stairs returns the live level's stair positions.
func (c *Controller) Stairs() world.Stairs { return c.stairs }

// Biome returns the live level's biome ID.
func (c *Controller) Biome() string { return c.biome }

// ObserverPosition returns the observer's grid coordinate.
func (c *Controller) ObserverPosition() world.Point { return c.observer }

// Engine returns the visibility engine bound to the live grid.
func (c *Controller) Engine() *fov.Engine { return c.engine }

// Store returns the snapshot store backing this controller.
func (c *Controller) Store() *Store { return c.store }

// StandingOnStair reports whether the observer stands on a stair tile and,
// if so, which direction it leads.
func (c *Controller) StandingOnStair() (Direction, bool) {
	switch c.grid.At(c.observer.X, c.observer.Y) {
	case world.TileStairUp:
		return DirectionUp, true
	case world.TileStairDown:
		return DirectionDown, true
	default:
		return 0, false
	}
}

// RequestTransition moves the observer one depth in the given direction.
// The departing level's tiles, stairs, and visibility are snapshotted; the
// target is restored from the store or generated on a miss. Requests past
// the depth range return ErrInvalidTransition and change nothing.
func (c *Controller) RequestTransition(ctx context.Context, dir Direction) error {
	tracer := telemetry.Tracer("level")
	ctx, span := tracer.Start(ctx, "level.transition")
	defer span.End()

	var target int
	switch dir {
	case DirectionUp:
		if c.depth == 0 {
			return fmt.Errorf("%w: already at the surface", ErrInvalidTransition)
		}
		target = c.depth - 1
	case DirectionDown:
		if c.depth >= world.MaxDepth {
			return fmt.Errorf("%w: already at maximum depth %d", ErrInvalidTransition, world.MaxDepth)
		}
		target = c.depth + 1
	default:
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidTransition, dir)
	}

	c.store.Capture(c.depth, c.grid, c.stairs, c.biome, c.engine.Snapshot())

	spawn := arriveAtUpStair
	if dir == DirectionUp {
		spawn = arriveAtDownStair
	}
	if err := c.enterDepth(ctx, target, spawn, c.engine.Radius()); err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("transition.direction", dir.String()),
		attribute.Int("transition.depth", c.depth),
		attribute.String("transition.biome", c.biome),
		attribute.String("session.id", c.store.SessionID().String()),
	)
	return nil
}

// Regenerate discards the current depth and generates it afresh with a new
// sub-seed. Visibility resets to Unseen. Debug entry point.
func (c *Controller) Regenerate(ctx context.Context) error {
	c.regenCount++
	grid, stairs, biome, err := c.generateDepth(ctx, c.depth)
	if err != nil {
		return err
	}
	c.grid = grid
	c.stairs = stairs
	c.biome = biome
	c.engine.Reset(grid)
	c.placeObserver(arriveAtCenter)
	c.store.Capture(c.depth, c.grid, c.stairs, c.biome, c.engine.Snapshot())
	c.engine.Recompute(c.observer)
	c.log.WithFields(logrus.Fields{"depth": c.depth, "biome": c.biome}).Info("level regenerated")
	return nil
}

// MoveObserver shifts the observer by a delta if the target tile is
// walkable, recomputing visibility only when the position actually changed.
func (c *Controller) MoveObserver(dx, dy int) bool {
	next := c.observer.Add(dx, dy)
	if !c.grid.InBounds(next.X, next.Y) || !c.grid.At(next.X, next.Y).IsWalkable() {
		return false
	}
	c.observer = next
	if c.engine.NeedsRecompute(c.observer) {
		c.engine.Recompute(c.observer)
	}
	return true
}

// ToggleDoor flips a door tile between open and closed. Door state changes
// map geometry as far as sight is concerned, so the LOS cache is drained
// and visibility recomputed.
func (c *Controller) ToggleDoor(x, y int) bool {
	if !c.grid.InBounds(x, y) {
		return false
	}
	switch c.grid.At(x, y) {
	case world.TileDoorOpen:
		c.grid.Set(x, y, world.TileDoorClosed)
	case world.TileDoorClosed:
		c.grid.Set(x, y, world.TileDoorOpen)
	default:
		return false
	}
	c.engine.InvalidateLOS()
	c.engine.MarkDirty()
	c.engine.Recompute(c.observer)
	return true
}

// enterDepth makes a depth live: restore its snapshot if visited, otherwise
// generate it, then place the observer and rebuild visibility.
func (c *Controller) enterDepth(ctx context.Context, depth int, spawn arrival, radius int) error {
	if snap, ok := c.store.Restore(depth); ok {
		grid, err := world.NewGridFromTiles(snap.Width, snap.Height, snap.Tiles)
		if err != nil {
			return fmt.Errorf("restoring depth %d: %w", depth, err)
		}
		c.depth = depth
		c.grid = grid
		c.stairs = snap.Stairs
		c.biome = snap.Biome
		if c.engine == nil {
			c.engine = fov.NewEngine(grid, radius)
		}
		if err := c.engine.RestoreState(grid, snap.Visibility); err != nil {
			return fmt.Errorf("restoring depth %d: %w", depth, err)
		}
		c.placeObserver(spawn)
		c.engine.Recompute(c.observer)
		c.log.WithFields(logrus.Fields{"depth": depth, "biome": c.biome}).Info("level restored")
		return nil
	}

	grid, stairs, biome, err := c.generateDepth(ctx, depth)
	if err != nil {
		return err
	}
	c.depth = depth
	c.grid = grid
	c.stairs = stairs
	c.biome = biome
	if c.engine == nil {
		c.engine = fov.NewEngine(grid, radius)
	} else {
		c.engine.Reset(grid)
	}
	c.placeObserver(spawn)
	c.store.Capture(depth, c.grid, c.stairs, c.biome, c.engine.Snapshot())
	c.engine.Recompute(c.observer)
	c.log.WithFields(logrus.Fields{"depth": depth, "biome": biome}).Info("level generated")
	return nil
}

// generateDepth produces a fresh level for a depth, substituting the simple
// fallback layout when the generator exhausts its retry budget.
func (c *Controller) generateDepth(ctx context.Context, depth int) (*world.Grid, world.Stairs, string, error) {
	biome, err := c.biomes.ForDepth(depth)
	if err != nil {
		return nil, world.Stairs{}, "", err
	}

	seed := c.seed + int64(depth)*depthSeedStride + int64(c.regenCount)
	grid, stairs, err := world.Generate(ctx, c.width, c.height, biome.GenParams(depth), seed)
	if errors.Is(err, world.ErrGenerationFailed) {
		c.log.WithFields(logrus.Fields{"depth": depth, "biome": biome.ID}).
			Warn("generation failed, substituting fallback room")
		rng := rand.New(rand.NewSource(seed))
		grid, stairs = world.GenerateFallback(c.width, c.height, depth, rng)
	} else if err != nil {
		return nil, world.Stairs{}, "", err
	}
	return grid, stairs, biome.ID, nil
}

// placeObserver puts the observer next to the appropriate stair, or at the
// nearest walkable tile to the map center when no stair suits.
func (c *Controller) placeObserver(spawn arrival) {
	target := world.Point{X: c.grid.Width / 2, Y: c.grid.Height / 2}
	switch spawn {
	case arriveAtUpStair:
		if c.stairs.Up != nil {
			target = *c.stairs.Up
		}
	case arriveAtDownStair:
		if c.stairs.Down != nil {
			target = *c.stairs.Down
		}
	}

	if pos, ok := c.grid.NearbyWalkable(target, 10); ok {
		c.observer = pos
		return
	}
	// Degenerate map; take the first walkable tile anywhere.
	for p := range c.grid.WalkablePositions() {
		c.observer = p
		return
	}
	c.observer = target
}
