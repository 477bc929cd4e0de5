package world

import "math/rand"

// GenerateFallback builds the minimal guaranteed-valid layout used when
// Generate exhausts its retry budget: a single rectangular room with a
// one-tile wall border. Stairs still follow the depth-range rule.
func GenerateFallback(width, height, depth int, rng *rand.Rand) (*Grid, Stairs) {
	g := NewGrid(width, height, TileWall)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			g.Set(x, y, TileFloor)
		}
	}

	var stairs Stairs
	pick := func() Point {
		return Point{X: 1 + rng.Intn(width-2), Y: 1 + rng.Intn(height-2)}
	}
	if NeedsUpStair(depth) {
		up := pick()
		stairs.Up = &up
		g.Set(up.X, up.Y, TileStairUp)
	}
	if NeedsDownStair(depth) {
		down := pick()
		for stairs.Up != nil && down == *stairs.Up {
			down = pick()
		}
		stairs.Down = &down
		g.Set(down.X, down.Y, TileStairDown)
	}
	return g, stairs
}
