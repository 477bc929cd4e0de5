// Package world provides the grid map, tile categories, and map generation.
package world

// Tile represents a single map tile category.
type Tile uint8

const (
	// TileWall is an impassable, vision-blocking wall. Zero value on purpose:
	// a freshly allocated grid is solid rock.
	TileWall Tile = iota
	// TileFloor is open, walkable ground.
	TileFloor
	// TileWater is impassable but does not block vision.
	TileWater
	// TileStairUp leads to the previous depth.
	TileStairUp
	// TileStairDown leads to the next depth.
	TileStairDown
	// TileDoorClosed is a shut door: impassable and vision-blocking.
	TileDoorClosed
	// TileDoorOpen is an open door: walkable and see-through.
	TileDoorOpen
)

// IsWalkable returns true if an observer may occupy the tile.
func (t Tile) IsWalkable() bool {
	switch t {
	case TileFloor, TileStairUp, TileStairDown, TileDoorOpen:
		return true
	default:
		return false
	}
}

// BlocksSight returns true if the tile stops a line of sight crossing it.
// Water is impassable but clear; doors depend on their open/closed state.
func (t Tile) BlocksSight() bool {
	return t == TileWall || t == TileDoorClosed
}

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	switch t {
	case TileWall:
		return '#'
	case TileFloor:
		return '.'
	case TileWater:
		return '~'
	case TileStairUp:
		return '<'
	case TileStairDown:
		return '>'
	case TileDoorClosed:
		return '+'
	case TileDoorOpen:
		return '\''
	default:
		return '?'
	}
}

// String returns a human-readable tile name.
func (t Tile) String() string {
	switch t {
	case TileWall:
		return "wall"
	case TileFloor:
		return "floor"
	case TileWater:
		return "water"
	case TileStairUp:
		return "stair-up"
	case TileStairDown:
		return "stair-down"
	case TileDoorClosed:
		return "door-closed"
	case TileDoorOpen:
		return "door-open"
	default:
		return "unknown"
	}
}

// WallFace classifies a wall tile for the renderer: walls with open floor
// directly below them show their side face, the rest show their top.
type WallFace uint8

const (
	// WallFaceNone means the tile is not a wall.
	WallFaceNone WallFace = iota
	// WallFaceTop is a wall with no floor directly below it.
	WallFaceTop
	// WallFaceSide is a wall with floor directly below it.
	WallFaceSide
)
