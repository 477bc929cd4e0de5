package world

// Point is a tile coordinate on the grid.
type Point struct {
	X, Y int
}

// Add returns the point offset by the given delta.
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// DistSq returns the squared Euclidean distance to another point.
// Comparisons against a squared radius stay in integer math.
func (p Point) DistSq(o Point) int {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Less orders points lexicographically (x first, then y).
func (p Point) Less(o Point) bool {
	if p.X != o.X {
		return p.X < o.X
	}
	return p.Y < o.Y
}

// cardinal neighbor offsets in a fixed order so traversals stay deterministic.
var cardinals = [4]Point{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
