package world

import "testing"

func TestGridBoundsPanic(t *testing.T) {
	g := NewGrid(10, 10, TileWall)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds access")
		}
	}()
	g.At(10, 0)
}

func TestGridSetGet(t *testing.T) {
	g := NewGrid(5, 4, TileWall)
	g.Set(3, 2, TileFloor)

	if got := g.At(3, 2); got != TileFloor {
		t.Errorf("At(3,2) = %v, want floor", got)
	}
	if got := g.At(2, 3); got != TileWall {
		t.Errorf("At(2,3) = %v, want wall", got)
	}
}

func TestNewGridFromTilesLengthMismatch(t *testing.T) {
	if _, err := NewGridFromTiles(4, 4, make([]Tile, 15)); err == nil {
		t.Fatal("expected error for short tile slice")
	}
}

func TestWalkablePositionsRestartable(t *testing.T) {
	g := NewGrid(6, 6, TileWall)
	g.Set(1, 1, TileFloor)
	g.Set(4, 2, TileStairDown)
	g.Set(2, 4, TileWater) // not walkable

	count := func() int {
		n := 0
		for range g.WalkablePositions() {
			n++
		}
		return n
	}

	if got := count(); got != 2 {
		t.Errorf("first pass found %d walkable tiles, want 2", got)
	}
	// The sequence must be restartable, not a one-shot iterator.
	if got := count(); got != 2 {
		t.Errorf("second pass found %d walkable tiles, want 2", got)
	}
}

func TestNearbyWalkableRingOrder(t *testing.T) {
	g := NewGrid(9, 9, TileWall)
	g.Set(4, 4, TileFloor) // at center
	g.Set(7, 4, TileFloor) // further out

	pos, ok := g.NearbyWalkable(Point{X: 4, Y: 4}, 5)
	if !ok {
		t.Fatal("expected to find a walkable tile")
	}
	if pos != (Point{X: 4, Y: 4}) {
		t.Errorf("found %v, want the radius-0 tile (4,4)", pos)
	}

	// Remove the center tile; the ring search must now reach the far one.
	g.Set(4, 4, TileWall)
	pos, ok = g.NearbyWalkable(Point{X: 4, Y: 4}, 5)
	if !ok {
		t.Fatal("expected to find the distant walkable tile")
	}
	if pos != (Point{X: 7, Y: 4}) {
		t.Errorf("found %v, want (7,4)", pos)
	}

	// Nothing within a tight radius.
	if _, ok := g.NearbyWalkable(Point{X: 0, Y: 0}, 2); ok {
		t.Error("expected no walkable tile within radius 2 of the corner")
	}
}

func TestWallFaceAt(t *testing.T) {
	g := NewGrid(3, 3, TileWall)
	g.Set(1, 1, TileFloor)

	if face := g.WallFaceAt(1, 0); face != WallFaceSide {
		t.Errorf("wall above floor: face = %v, want side", face)
	}
	if face := g.WallFaceAt(1, 2); face != WallFaceTop {
		t.Errorf("wall below floor: face = %v, want top", face)
	}
	if face := g.WallFaceAt(1, 1); face != WallFaceNone {
		t.Errorf("floor tile: face = %v, want none", face)
	}
}

func TestChecksumTracksTiles(t *testing.T) {
	a := NewGrid(8, 8, TileWall)
	b := NewGrid(8, 8, TileWall)

	if a.Checksum() != b.Checksum() {
		t.Error("identical grids should share a checksum")
	}

	b.Set(3, 3, TileFloor)
	if a.Checksum() == b.Checksum() {
		t.Error("differing grids should not share a checksum")
	}

	if got := ChecksumTiles(a.Width, a.Height, a.Tiles()); got != a.Checksum() {
		t.Error("ChecksumTiles should match Grid.Checksum for the same data")
	}
}

func TestTilePredicates(t *testing.T) {
	walkable := []Tile{TileFloor, TileStairUp, TileStairDown, TileDoorOpen}
	for _, tile := range walkable {
		if !tile.IsWalkable() {
			t.Errorf("%v should be walkable", tile)
		}
	}
	blocked := []Tile{TileWall, TileWater, TileDoorClosed}
	for _, tile := range blocked {
		if tile.IsWalkable() {
			t.Errorf("%v should not be walkable", tile)
		}
	}

	if !TileWall.BlocksSight() || !TileDoorClosed.BlocksSight() {
		t.Error("walls and closed doors must block sight")
	}
	if TileWater.BlocksSight() || TileDoorOpen.BlocksSight() {
		t.Error("water and open doors must not block sight")
	}
}
