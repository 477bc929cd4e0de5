package level

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/samdwyer/deepdive/internal/world"
)

// saveFile is the on-disk representation of a session: one record per
// visited depth. Field layout must round-trip exactly.
type saveFile struct {
	SessionID string     `json:"sessionId"`
	SavedAt   time.Time  `json:"savedAt"`
	Levels    []Snapshot `json:"levels"`
}

// SaveFile writes every snapshot in the store to a JSON file. The write
// goes through a temp file and rename so a crash never leaves a truncated
// save behind.
func (s *Store) SaveFile(path string) error {
	levels := make([]Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		levels = append(levels, snap)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Depth < levels[j].Depth })

	data, err := json.MarshalIndent(saveFile{
		SessionID: s.sessionID.String(),
		SavedAt:   time.Now().UTC(),
		Levels:    levels,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode save file: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize save file: %w", err)
	}
	return nil
}

// LoadStore reads a save file back into a store, verifying each snapshot's
// tile checksum against its recorded value.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}

	var file saveFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse save file: %w", err)
	}

	sessionID, err := uuid.Parse(file.SessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session id in save file: %w", err)
	}

	store := &Store{sessionID: sessionID, snapshots: make(map[int]Snapshot, len(file.Levels))}
	for _, snap := range file.Levels {
		if len(snap.Tiles) != snap.Width*snap.Height {
			return nil, fmt.Errorf("depth %d: tile count %d does not match %dx%d",
				snap.Depth, len(snap.Tiles), snap.Width, snap.Height)
		}
		if len(snap.Visibility) != snap.Width*snap.Height {
			return nil, fmt.Errorf("depth %d: visibility count %d does not match %dx%d",
				snap.Depth, len(snap.Visibility), snap.Width, snap.Height)
		}
		if sum := world.ChecksumTiles(snap.Width, snap.Height, snap.Tiles); sum != snap.Checksum {
			return nil, fmt.Errorf("depth %d: checksum mismatch (file %d, computed %d)",
				snap.Depth, snap.Checksum, sum)
		}
		store.snapshots[snap.Depth] = snap
	}
	return store, nil
}
