package world

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/cespare/xxhash/v2"
)

// Grid is a fixed-size 2D map stored as a flat tile slice indexed by
// y*Width+x. Width and Height never change after construction.
type Grid struct {
	Width  int
	Height int
	tiles  []Tile
}

// NewGrid creates a grid with every tile set to fill.
func NewGrid(width, height int, fill Tile) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("world: invalid grid dimensions %dx%d", width, height))
	}
	tiles := make([]Tile, width*height)
	if fill != TileWall {
		for i := range tiles {
			tiles[i] = fill
		}
	}
	return &Grid{Width: width, Height: height, tiles: tiles}
}

// NewGridFromTiles reconstructs a grid from a flat tile sequence, as stored
// in a level snapshot. The slice is copied.
func NewGridFromTiles(width, height int, tiles []Tile) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("world: invalid grid dimensions %dx%d", width, height)
	}
	if len(tiles) != width*height {
		return nil, fmt.Errorf("world: tile count %d does not match %dx%d grid", len(tiles), width, height)
	}
	g := &Grid{Width: width, Height: height, tiles: make([]Tile, len(tiles))}
	copy(g.tiles, tiles)
	return g, nil
}

// index converts coordinates to a flat index, panicking on out-of-range
// access. Out-of-bounds lookups are caller bugs, not recoverable conditions.
func (g *Grid) index(x, y int) int {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		panic(fmt.Sprintf("world: coordinate (%d,%d) outside %dx%d grid", x, y, g.Width, g.Height))
	}
	return y*g.Width + x
}

// At returns the tile at the given position. Panics if out of bounds.
func (g *Grid) At(x, y int) Tile {
	return g.tiles[g.index(x, y)]
}

// Set replaces the tile at the given position. Panics if out of bounds.
func (g *Grid) Set(x, y int, t Tile) {
	g.tiles[g.index(x, y)] = t
}

// InBounds reports whether the coordinate lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Tiles returns a copy of the flat tile sequence for snapshotting.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, tiles: make([]Tile, len(g.tiles))}
	copy(c.tiles, g.tiles)
	return c
}

// WalkablePositions yields every walkable coordinate in row-major order.
// The sequence is lazy and can be ranged over more than once.
func (g *Grid) WalkablePositions() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				if g.tiles[y*g.Width+x].IsWalkable() {
					if !yield(Point{X: x, Y: y}) {
						return
					}
				}
			}
		}
	}
}

// CountWalkable returns the number of walkable tiles.
func (g *Grid) CountWalkable() int {
	n := 0
	for _, t := range g.tiles {
		if t.IsWalkable() {
			n++
		}
	}
	return n
}

// NearbyWalkable searches outward from center in expanding rings (Chebyshev
// radius 0, 1, 2, ...) and returns the first walkable tile found. Ties within
// a ring resolve in row-major scan order. Returns false if no walkable tile
// exists within maxRadius.
func (g *Grid) NearbyWalkable(center Point, maxRadius int) (Point, bool) {
	for radius := 0; radius <= maxRadius; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				// Only the ring boundary; inner tiles were covered already.
				if max(abs(dx), abs(dy)) != radius {
					continue
				}
				x, y := center.X+dx, center.Y+dy
				if g.InBounds(x, y) && g.At(x, y).IsWalkable() {
					return Point{X: x, Y: y}, true
				}
			}
		}
	}
	return Point{}, false
}

// WallFaceAt returns the render hint for a wall tile: side face when open
// floor sits directly below it (greater y), top face otherwise.
func (g *Grid) WallFaceAt(x, y int) WallFace {
	if g.At(x, y) != TileWall {
		return WallFaceNone
	}
	if y+1 < g.Height && g.At(x, y+1).IsWalkable() {
		return WallFaceSide
	}
	return WallFaceTop
}

// Checksum returns an xxhash digest of the grid dimensions and tile
// sequence. Two grids with equal checksums generated the same layout.
func (g *Grid) Checksum() uint64 {
	d := xxhash.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[0:8], uint64(g.Width))
	binary.LittleEndian.PutUint64(dims[8:16], uint64(g.Height))
	d.Write(dims[:])
	buf := make([]byte, len(g.tiles))
	for i, t := range g.tiles {
		buf[i] = byte(t)
	}
	d.Write(buf)
	return d.Sum64()
}

// ChecksumTiles hashes a raw tile sequence the same way Checksum does, for
// verifying persisted snapshots without rebuilding a grid.
func ChecksumTiles(width, height int, tiles []Tile) uint64 {
	d := xxhash.New()
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[0:8], uint64(width))
	binary.LittleEndian.PutUint64(dims[8:16], uint64(height))
	d.Write(dims[:])
	buf := make([]byte, len(tiles))
	for i, t := range tiles {
		buf[i] = byte(t)
	}
	d.Write(buf)
	return d.Sum64()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
