// Package game provides the turn-driven loop tying input, the level
// controller, and the renderer together.
package game

// Config holds game configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible dungeon
	// generation. A seed of 0 means a random seed will be generated.
	Seed int64

	// SavePath is the JSON save file for visited levels. Empty disables
	// persistence across sessions.
	SavePath string

	// Width and Height of generated levels in tiles. Zero means the
	// standard dimensions.
	Width  int
	Height int

	// FOVRadius is the observer's view radius in tiles. Zero means the
	// standard radius.
	FOVRadius int
}
