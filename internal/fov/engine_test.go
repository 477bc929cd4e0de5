package fov

import (
	"testing"

	"github.com/samdwyer/deepdive/internal/world"
)

// roomGrid builds a 10x10 grid that is all wall except a 6x6 interior floor
// room spanning (2,2)-(7,7).
func roomGrid() *world.Grid {
	g := world.NewGrid(10, 10, world.TileWall)
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			g.Set(x, y, world.TileFloor)
		}
	}
	return g
}

func TestRecomputeLitRoom(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)
	center := world.Point{X: 4, Y: 4}

	e.Recompute(center)

	// Every floor tile is visible: radius 20 exceeds the room extent and
	// nothing obstructs an interior line.
	for y := 2; y < 8; y++ {
		for x := 2; x < 8; x++ {
			if got := e.StateOf(x, y); got != Visible {
				t.Errorf("floor (%d,%d) = %v, want visible", x, y, got)
			}
		}
	}

	// Walls directly bounding the room show their near face.
	if got := e.StateOf(4, 1); got != Visible {
		t.Errorf("bounding wall (4,1) = %v, want visible", got)
	}
	if got := e.StateOf(1, 4); got != Visible {
		t.Errorf("bounding wall (1,4) = %v, want visible", got)
	}

	// The far corner hides behind the wall ring.
	if got := e.StateOf(0, 0); got != Unseen {
		t.Errorf("corner (0,0) = %v, want unseen", got)
	}
}

func TestRecomputeStableInSmallRoom(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)

	e.Recompute(world.Point{X: 4, Y: 4})
	before := e.Snapshot()

	// The whole room stays in view after a one-tile move, so the visible
	// set must not change.
	e.Recompute(world.Point{X: 5, Y: 4})
	after := e.Snapshot()

	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("tile %d changed from %v to %v after a move inside the lit room",
				i, before[i], after[i])
		}
	}
}

func TestRecomputeSkippedWithoutMovement(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)
	center := world.Point{X: 4, Y: 4}

	if !e.NeedsRecompute(center) {
		t.Error("fresh engine should need a recompute")
	}
	e.Recompute(center)
	if e.NeedsRecompute(center) {
		t.Error("unchanged observer position should not need a recompute")
	}
	if !e.NeedsRecompute(center.Add(1, 0)) {
		t.Error("moved observer should need a recompute")
	}

	e.MarkDirty()
	if !e.NeedsRecompute(center) {
		t.Error("MarkDirty should force a recompute")
	}
}

func TestLineOfSightSymmetry(t *testing.T) {
	g := roomGrid()
	g.Set(5, 4, world.TileWall) // an obstruction inside the room
	e := NewEngine(g, 20)

	points := []world.Point{
		{X: 2, Y: 2}, {X: 7, Y: 7}, {X: 2, Y: 7}, {X: 7, Y: 2},
		{X: 3, Y: 4}, {X: 7, Y: 4}, {X: 4, Y: 6},
	}
	for _, a := range points {
		for _, b := range points {
			if e.LineOfSight(a, b) != e.LineOfSight(b, a) {
				t.Errorf("LineOfSight(%v,%v) != LineOfSight(%v,%v)", a, b, b, a)
			}
		}
	}
}

func TestLineOfSightTargetWallVisible(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)

	// Looking at a bounding wall succeeds; looking through it does not.
	if !e.LineOfSight(world.Point{X: 4, Y: 4}, world.Point{X: 4, Y: 1}) {
		t.Error("the wall being looked at should be visible")
	}
	if e.LineOfSight(world.Point{X: 4, Y: 4}, world.Point{X: 4, Y: 0}) {
		t.Error("tiles beyond a wall should be hidden")
	}
}

func TestVisibilityNeverRegressesToUnseen(t *testing.T) {
	g := world.NewGrid(30, 10, world.TileWall)
	for x := 1; x < 29; x++ {
		g.Set(x, 5, world.TileFloor)
	}
	e := NewEngine(g, 5)

	e.Recompute(world.Point{X: 2, Y: 5})
	if got := e.StateOf(6, 5); got != Visible {
		t.Fatalf("tile (6,5) = %v, want visible", got)
	}

	// Walk far enough that the early corridor leaves the view radius.
	for x := 3; x < 28; x++ {
		e.Recompute(world.Point{X: x, Y: 5})
	}

	if got := e.StateOf(2, 5); got != Seen {
		t.Errorf("tile (2,5) = %v, want seen after leaving view", got)
	}
	for x := 1; x < 29; x++ {
		if e.StateOf(x, 5) == Unseen {
			t.Errorf("tile (%d,5) regressed to unseen", x)
		}
	}
}

func TestRadiusZero(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 0)
	e.Recompute(world.Point{X: 4, Y: 4})

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			want := Unseen
			if x == 4 && y == 4 {
				want = Visible
			}
			if got := e.StateOf(x, y); got != want {
				t.Errorf("radius 0: (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRevealAllOverlayIdempotent(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 3)
	e.Recompute(world.Point{X: 4, Y: 4})
	before := e.Snapshot()

	e.SetRevealAll(true)
	if got := e.StateOf(0, 0); got != Visible {
		t.Errorf("reveal all: (0,0) = %v, want visible", got)
	}

	e.SetRevealAll(false)
	after := e.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("tile %d changed from %v to %v across a reveal toggle", i, before[i], after[i])
		}
	}
	if got := e.StateOf(0, 0); got != Unseen {
		t.Errorf("after toggle: (0,0) = %v, want unseen", got)
	}
}

func TestDoorTogglesSight(t *testing.T) {
	// A corridor with a closed door halfway along it.
	g := world.NewGrid(9, 3, world.TileWall)
	for x := 1; x < 8; x++ {
		g.Set(x, 1, world.TileFloor)
	}
	g.Set(4, 1, world.TileDoorClosed)

	e := NewEngine(g, 10)
	observer := world.Point{X: 1, Y: 1}
	e.Recompute(observer)

	if got := e.StateOf(4, 1); got != Visible {
		t.Errorf("the door itself = %v, want visible", got)
	}
	if got := e.StateOf(6, 1); got != Unseen {
		t.Errorf("tile beyond closed door = %v, want unseen", got)
	}

	// Open the door: geometry changed, so the cache is drained and the
	// next recompute runs a full pass.
	g.Set(4, 1, world.TileDoorOpen)
	e.InvalidateLOS()
	e.MarkDirty()
	e.Recompute(observer)

	if got := e.StateOf(6, 1); got != Visible {
		t.Errorf("tile beyond open door = %v, want visible", got)
	}
}

func TestCacheStats(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)
	a := world.Point{X: 3, Y: 3}
	b := world.Point{X: 6, Y: 6}

	e.LineOfSight(a, b)
	e.LineOfSight(b, a) // normalized pair key: this must hit

	hits, misses, size := e.CacheStats()
	if misses != 1 || hits != 1 || size != 1 {
		t.Errorf("stats = %d hits, %d misses, %d entries; want 1, 1, 1", hits, misses, size)
	}

	e.InvalidateLOS()
	hits, misses, size = e.CacheStats()
	if hits != 0 || misses != 0 || size != 0 {
		t.Error("InvalidateLOS should reset cache and counters")
	}
}

func TestRestoreState(t *testing.T) {
	g := roomGrid()
	e := NewEngine(g, 20)
	e.Recompute(world.Point{X: 4, Y: 4})
	captured := e.Snapshot()

	e2 := NewEngine(g, 20)
	if err := e2.RestoreState(g, captured); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	restored := e2.Snapshot()
	for i := range captured {
		if captured[i] != restored[i] {
			t.Fatalf("tile %d = %v after restore, want %v", i, restored[i], captured[i])
		}
	}

	if err := e2.RestoreState(g, captured[:10]); err == nil {
		t.Error("expected error restoring a mismatched visibility length")
	}
}
