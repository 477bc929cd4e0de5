// Package fov maintains per-tile visibility state and line-of-sight checks.
package fov

// Visibility is the three-valued per-tile visibility state.
type Visibility uint8

const (
	// Unseen means the tile has never been observed.
	Unseen Visibility = iota
	// Seen means the tile was observed before but is not in view now.
	Seen
	// Visible means the tile is currently in view.
	Visible
)

// String returns a human-readable state name.
func (v Visibility) String() string {
	switch v {
	case Unseen:
		return "unseen"
	case Seen:
		return "seen"
	case Visible:
		return "visible"
	default:
		return "invalid"
	}
}
