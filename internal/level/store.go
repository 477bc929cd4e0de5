package level

import (
	"github.com/google/uuid"

	"github.com/samdwyer/deepdive/internal/fov"
	"github.com/samdwyer/deepdive/internal/world"
)

// Store caches one snapshot per visited depth for the lifetime of a
// session. Restoring a miss is normal control flow: the caller generates a
// fresh level instead.
type Store struct {
	sessionID uuid.UUID
	snapshots map[int]Snapshot
}

// NewStore creates an empty store with a fresh session identifier.
func NewStore() *Store {
	return &Store{
		sessionID: uuid.New(),
		snapshots: make(map[int]Snapshot),
	}
}

// SessionID returns the session identifier carried into saves and traces.
func (s *Store) SessionID() uuid.UUID {
	return s.sessionID
}

// Capture stores or overwrites the snapshot for a depth. Inputs are copied;
// the caller's grid and visibility slice stay untouched and unaliased.
func (s *Store) Capture(depth int, grid *world.Grid, stairs world.Stairs, biome string, visibility []fov.Visibility) {
	vis := make([]fov.Visibility, len(visibility))
	copy(vis, visibility)

	s.snapshots[depth] = Snapshot{
		Depth:      depth,
		Width:      grid.Width,
		Height:     grid.Height,
		Tiles:      grid.Tiles(),
		Stairs:     stairs.Clone(),
		Biome:      biome,
		Visibility: vis,
		Checksum:   grid.Checksum(),
	}
}

// Restore returns a copy of the snapshot for a depth, or false if the depth
// has not been visited this session.
func (s *Store) Restore(depth int) (Snapshot, bool) {
	snap, ok := s.snapshots[depth]
	if !ok {
		return Snapshot{}, false
	}
	return snap.clone(), true
}

// Len returns the number of depths visited so far.
func (s *Store) Len() int {
	return len(s.snapshots)
}
