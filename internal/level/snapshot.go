// Package level provides the per-depth snapshot store and the controller
// that sequences transitions between depths.
package level

import (
	"github.com/samdwyer/deepdive/internal/fov"
	"github.com/samdwyer/deepdive/internal/world"
)

// Snapshot is the frozen state of one visited depth: the generated map, its
// stair positions, the biome it was generated with, and the visibility
// state at the moment of departure. Capturing again for the same depth
// overwrites the previous snapshot.
type Snapshot struct {
	Depth      int              `json:"depth"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Tiles      []world.Tile     `json:"tiles"`
	Stairs     world.Stairs     `json:"stairs"`
	Biome      string           `json:"biome"`
	Visibility []fov.Visibility `json:"visibility"`
	// Checksum covers dimensions plus the tile sequence; verified when the
	// snapshot is loaded back from disk.
	Checksum uint64 `json:"checksum"`
}

// clone deep-copies the snapshot so live state and stored state never alias.
func (s Snapshot) clone() Snapshot {
	c := s
	c.Tiles = make([]world.Tile, len(s.Tiles))
	copy(c.Tiles, s.Tiles)
	c.Visibility = make([]fov.Visibility, len(s.Visibility))
	copy(c.Visibility, s.Visibility)
	c.Stairs = s.Stairs.Clone()
	return c
}
