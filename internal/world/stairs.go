package world

// MaxDepth is the deepest level of the dungeon. Depth 0 is the surface
// level and carries no up-stair; MaxDepth carries no down-stair.
const MaxDepth = 50

// Stairs holds the stair positions for one level. A nil entry means the
// depth-range rule places no stair of that kind on the level.
type Stairs struct {
	Up   *Point `json:"up,omitempty"`
	Down *Point `json:"down,omitempty"`
}

// NeedsUpStair reports whether a level at the given depth gets an up-stair.
func NeedsUpStair(depth int) bool {
	return depth > 0
}

// NeedsDownStair reports whether a level at the given depth gets a down-stair.
func NeedsDownStair(depth int) bool {
	return depth < MaxDepth
}

// Clone returns a deep copy so snapshots never alias live stair positions.
func (s Stairs) Clone() Stairs {
	var c Stairs
	if s.Up != nil {
		up := *s.Up
		c.Up = &up
	}
	if s.Down != nil {
		down := *s.Down
		c.Down = &down
	}
	return c
}
