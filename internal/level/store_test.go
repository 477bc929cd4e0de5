package level

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/deepdive/internal/fov"
	"github.com/samdwyer/deepdive/internal/world"
)

func testLevel(t *testing.T) (*world.Grid, world.Stairs, []fov.Visibility) {
	t.Helper()
	g := world.NewGrid(8, 6, world.TileWall)
	for y := 1; y < 5; y++ {
		for x := 1; x < 7; x++ {
			g.Set(x, y, world.TileFloor)
		}
	}
	g.Set(2, 2, world.TileStairUp)
	g.Set(5, 3, world.TileStairDown)
	stairs := world.Stairs{
		Up:   &world.Point{X: 2, Y: 2},
		Down: &world.Point{X: 5, Y: 3},
	}

	vis := make([]fov.Visibility, 8*6)
	for i := range vis {
		vis[i] = fov.Visibility(i % 3)
	}
	return g, stairs, vis
}

func TestStoreCaptureRestore(t *testing.T) {
	store := NewStore()
	g, stairs, vis := testLevel(t)

	store.Capture(3, g, stairs, "caverns", vis)
	require.Equal(t, 1, store.Len())

	snap, ok := store.Restore(3)
	require.True(t, ok)
	assert.Equal(t, 3, snap.Depth)
	assert.Equal(t, g.Width, snap.Width)
	assert.Equal(t, g.Height, snap.Height)
	assert.Equal(t, g.Tiles(), snap.Tiles)
	assert.Equal(t, "caverns", snap.Biome)
	assert.Equal(t, vis, snap.Visibility)
	assert.Equal(t, g.Checksum(), snap.Checksum)
	require.NotNil(t, snap.Stairs.Up)
	assert.Equal(t, world.Point{X: 2, Y: 2}, *snap.Stairs.Up)
	require.NotNil(t, snap.Stairs.Down)
	assert.Equal(t, world.Point{X: 5, Y: 3}, *snap.Stairs.Down)
}

func TestStoreRestoreMiss(t *testing.T) {
	store := NewStore()
	_, ok := store.Restore(7)
	assert.False(t, ok, "unvisited depth should miss")
}

func TestStoreCaptureOverwrites(t *testing.T) {
	store := NewStore()
	g, stairs, vis := testLevel(t)

	store.Capture(1, g, stairs, "caverns", vis)
	g.Set(1, 1, world.TileWater)
	store.Capture(1, g, stairs, "stygian-pool", vis)

	require.Equal(t, 1, store.Len())
	snap, ok := store.Restore(1)
	require.True(t, ok)
	assert.Equal(t, "stygian-pool", snap.Biome)
	assert.Equal(t, world.TileWater, snap.Tiles[1*g.Width+1])
}

func TestStoreCopiesDoNotAlias(t *testing.T) {
	store := NewStore()
	g, stairs, vis := testLevel(t)
	store.Capture(0, g, stairs, "caverns", vis)

	// Mutating the live level after capture must not bleed into the store.
	g.Set(3, 3, world.TileWater)
	vis[0] = fov.Visible

	snap, ok := store.Restore(0)
	require.True(t, ok)
	assert.Equal(t, world.TileFloor, snap.Tiles[3*g.Width+3])
	assert.Equal(t, fov.Unseen, snap.Visibility[0])

	// Mutating a restored copy must not bleed back either.
	snap.Tiles[0] = world.TileFloor
	again, _ := store.Restore(0)
	assert.Equal(t, world.TileWall, again.Tiles[0])
}

func TestSaveFileRoundTrip(t *testing.T) {
	store := NewStore()
	g, stairs, vis := testLevel(t)
	store.Capture(0, g, stairs, "caverns", vis)
	g2 := g.Clone()
	g2.Set(6, 4, world.TileDoorClosed)
	store.Capture(1, g2, stairs, "underglade", vis)

	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, store.SaveFile(path))

	loaded, err := LoadStore(path)
	require.NoError(t, err)
	assert.Equal(t, store.SessionID(), loaded.SessionID())
	require.Equal(t, 2, loaded.Len())

	for _, depth := range []int{0, 1} {
		want, _ := store.Restore(depth)
		got, ok := loaded.Restore(depth)
		require.True(t, ok, "depth %d missing after load", depth)
		assert.Equal(t, want, got, "depth %d", depth)
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	_, err := LoadStore(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadStore(path)
	assert.Error(t, err)
}

func TestLoadStoreRejectsBadChecksum(t *testing.T) {
	g, stairs, vis := testLevel(t)
	file := saveFile{
		SessionID: "b2c3b7de-9a35-4f0a-8df6-02b1a5d5e1aa",
		SavedAt:   time.Now().UTC(),
		Levels: []Snapshot{{
			Depth:      0,
			Width:      g.Width,
			Height:     g.Height,
			Tiles:      g.Tiles(),
			Stairs:     stairs,
			Biome:      "caverns",
			Visibility: vis,
			Checksum:   g.Checksum() + 1,
		}},
	}
	data, err := json.Marshal(file)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = LoadStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestLoadStoreRejectsTruncatedTiles(t *testing.T) {
	g, stairs, vis := testLevel(t)
	file := saveFile{
		SessionID: "b2c3b7de-9a35-4f0a-8df6-02b1a5d5e1aa",
		SavedAt:   time.Now().UTC(),
		Levels: []Snapshot{{
			Depth:      0,
			Width:      g.Width,
			Height:     g.Height,
			Tiles:      g.Tiles()[:10],
			Stairs:     stairs,
			Biome:      "caverns",
			Visibility: vis,
			Checksum:   g.Checksum(),
		}},
	}
	data, err := json.Marshal(file)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = LoadStore(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tile count")
}
