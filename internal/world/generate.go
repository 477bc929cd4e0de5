package world

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/deepdive/internal/logger"
	"github.com/samdwyer/deepdive/internal/telemetry"
)

const (
	// DefaultWidth is the standard level width in tiles.
	DefaultWidth = 80
	// DefaultHeight is the standard level height in tiles.
	DefaultHeight = 50

	// maxGenAttempts bounds regeneration retries before giving up.
	maxGenAttempts = 5

	// Organic growth tuning. The frontier pick window keeps the blob growing
	// near recently added tiles; the compactness bias pulls it toward the
	// seed point so levels stay roughly round.
	frontierPickWindow = 8
	compactRadius      = 12
	compactBias        = 0.7
)

// ErrGenerationFailed signals that the retry budget ran out without
// producing a map that satisfies the connectivity and stair invariants.
// Callers substitute a fallback layout instead of propagating it.
var ErrGenerationFailed = errors.New("world: generation exhausted retry budget")

// GenParams controls the organic generation algorithm for one level.
type GenParams struct {
	// Biome identifies the palette and parameter set; recorded for logging
	// and snapshots, the algorithm itself is biome-agnostic.
	Biome string
	// Depth of the level being generated; drives stair placement.
	Depth int
	// TargetFloorMin/Max bound the organic blob size in tiles.
	TargetFloorMin int
	TargetFloorMax int
	// Divisions is the number of interior wall slices cut through the blob.
	Divisions int
	// Water enables carving a water pool.
	Water bool
	// DoorChance is the probability that a 1-wide doorway gets a door.
	DoorChance float64
}

// DefaultGenParams returns the caverns parameter set used when no biome
// registry is wired in (tests, fallback paths).
func DefaultGenParams(depth int) GenParams {
	return GenParams{
		Biome:          "caverns",
		Depth:          depth,
		TargetFloorMin: 300,
		TargetFloorMax: 400,
		Divisions:      3 + min(depth/5, 2),
		Water:          true,
		DoorChance:     0.3,
	}
}

// Generate produces a connected level for the given parameters. The same
// (width, height, params, seed) always yields an identical grid and stair
// layout. On retry-budget exhaustion it returns ErrGenerationFailed and the
// caller should fall back to GenerateFallback.
func Generate(ctx context.Context, width, height int, params GenParams, seed int64) (*Grid, Stairs, error) {
	tracer := telemetry.Tracer("world")
	ctx, span := tracer.Start(ctx, "world.generate")
	defer span.End()

	log := logger.WithComponent("worldgen")
	start := time.Now()

	type result struct {
		grid   *Grid
		stairs Stairs
	}

	attempt := 0
	res, err := backoff.Retry(ctx, func() (result, error) {
		// Each attempt draws from its own sub-seed so a failed layout is
		// never retried verbatim.
		rng := rand.New(rand.NewSource(attemptSeed(seed, attempt)))
		attempt++

		grid, stairs, err := generateAttempt(width, height, params, rng)
		if err != nil {
			log.WithField("attempt", attempt).WithError(err).Debug("generation attempt rejected")
			return result{}, err
		}
		return result{grid: grid, stairs: stairs}, nil
	}, backoff.WithBackOff(&backoff.ZeroBackOff{}), backoff.WithMaxTries(maxGenAttempts))

	if err != nil {
		span.RecordError(err)
		return nil, Stairs{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	span.SetAttributes(
		attribute.String("gen.biome", params.Biome),
		attribute.Int("gen.depth", params.Depth),
		attribute.Int("gen.attempts", attempt),
		attribute.Int("gen.floor_tiles", res.grid.CountWalkable()),
		attribute.Int64("gen.duration_ms", time.Since(start).Milliseconds()),
	)
	log.WithFields(logrus.Fields{
		"biome":    params.Biome,
		"depth":    params.Depth,
		"attempts": attempt,
		"walkable": res.grid.CountWalkable(),
	}).Debug("level generated")

	return res.grid, res.stairs, nil
}

// attemptSeed derives a per-attempt sub-seed from the level seed.
func attemptSeed(seed int64, attempt int) int64 {
	const stride = 0x5851F42D4C957F2D
	return seed + int64(attempt)*stride
}

// generateAttempt runs one pass of the organic algorithm: grow a blob of
// floor, slice it with interior walls, punch doorways, carve water, repair
// connectivity, then place stairs.
func generateAttempt(width, height int, params GenParams, rng *rand.Rand) (*Grid, Stairs, error) {
	g := NewGrid(width, height, TileWall)

	blob := growBlob(width, height, params, rng)
	if len(blob) < params.TargetFloorMin/2 {
		return nil, Stairs{}, fmt.Errorf("blob stalled at %d tiles", len(blob))
	}
	for _, p := range blob {
		g.Set(p.X, p.Y, TileFloor)
	}

	divisions := interiorDivisions(blob, params, rng)
	applyDivisions(g, divisions)
	punchDoorways(g, divisions, params.DoorChance, rng)

	if params.Water {
		carveWaterPool(g, blob, rng)
	}

	if err := repairConnectivity(g); err != nil {
		return nil, Stairs{}, err
	}

	stairs, err := placeStairs(g, params.Depth, rng)
	if err != nil {
		return nil, Stairs{}, err
	}

	if err := verifyConnected(g, stairs); err != nil {
		return nil, Stairs{}, err
	}
	return g, stairs, nil
}

// growBlob grows an organic region outward from the map center by repeated
// frontier expansion. The active set is kept as an insertion-ordered slice
// with a membership map alongside it; candidate order is therefore a pure
// function of the rng, never of map iteration order.
func growBlob(width, height int, params GenParams, rng *rand.Rand) []Point {
	center := Point{X: width / 2, Y: height / 2}

	order := []Point{center}
	member := map[Point]struct{}{center: {}}

	span := params.TargetFloorMax - params.TargetFloorMin
	if span < 1 {
		span = 1
	}
	target := params.TargetFloorMin + rng.Intn(span)

	stalls := 0
	for len(order) < target && stalls < target*4 {
		candidates := frontier(order, member, width, height)
		if len(candidates) == 0 {
			break
		}

		pick := candidates[rng.Intn(min(len(candidates), frontierPickWindow))]

		// Bias toward a compact, roughly circular shape.
		if pick.DistSq(center) < compactRadius*compactRadius || rng.Float64() < compactBias {
			order = append(order, pick)
			member[pick] = struct{}{}
			stalls = 0
		} else {
			stalls++
		}
	}
	return order
}

// frontier returns tiles adjacent to the blob, in blob insertion order,
// excluding the one-tile border of the map.
func frontier(order []Point, member map[Point]struct{}, width, height int) []Point {
	var out []Point
	seen := make(map[Point]struct{})
	for _, p := range order {
		for _, d := range cardinals {
			n := p.Add(d.X, d.Y)
			if n.X <= 0 || n.X >= width-1 || n.Y <= 0 || n.Y >= height-1 {
				continue
			}
			if _, ok := member[n]; ok {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// division is one interior wall slice through the blob's bounding box.
type division struct {
	start, end Point
	horizontal bool
}

// interiorDivisions picks wall slices across the blob's bounding box.
func interiorDivisions(blob []Point, params GenParams, rng *rand.Rand) []division {
	minX, minY := blob[0].X, blob[0].Y
	maxX, maxY := minX, minY
	for _, p := range blob {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	count := 2 + rng.Intn(3)
	if params.Divisions > 0 {
		count = min(count, params.Divisions)
	}

	var out []division
	for i := 0; i < count; i++ {
		horizontal := rng.Intn(2) == 0
		if horizontal {
			if maxY-minY <= 6 {
				continue
			}
			y := minY + 3 + rng.Intn(maxY-minY-6)
			out = append(out, division{start: Point{X: minX, Y: y}, end: Point{X: maxX, Y: y}, horizontal: true})
		} else {
			if maxX-minX <= 6 {
				continue
			}
			x := minX + 3 + rng.Intn(maxX-minX-6)
			out = append(out, division{start: Point{X: x, Y: minY}, end: Point{X: x, Y: maxY}, horizontal: false})
		}
	}
	return out
}

// applyDivisions turns floor back into wall along each division line.
func applyDivisions(g *Grid, divisions []division) {
	for _, d := range divisions {
		if d.horizontal {
			for x := d.start.X; x <= d.end.X; x++ {
				if g.InBounds(x, d.start.Y) && g.At(x, d.start.Y) == TileFloor {
					g.Set(x, d.start.Y, TileWall)
				}
			}
		} else {
			for y := d.start.Y; y <= d.end.Y; y++ {
				if g.InBounds(d.start.X, y) && g.At(d.start.X, y) == TileFloor {
					g.Set(d.start.X, y, TileWall)
				}
			}
		}
	}
}

// punchDoorways opens 1-3 tile gaps through each division. Single-tile
// gaps sometimes get an open door; multi-tile gaps stay bare so repair
// corridors and doors never fight over the same opening.
func punchDoorways(g *Grid, divisions []division, doorChance float64, rng *rand.Rand) {
	for _, d := range divisions {
		gaps := 1 + rng.Intn(2)
		for i := 0; i < gaps; i++ {
			width := 1 + rng.Intn(3)
			length := d.end.X - d.start.X
			if !d.horizontal {
				length = d.end.Y - d.start.Y
			}
			if length <= width+4 {
				continue
			}
			offset := 2 + rng.Intn(length-width-4)

			fill := TileFloor
			if width == 1 && rng.Float64() < doorChance {
				fill = TileDoorOpen
			}
			for j := 0; j < width; j++ {
				var x, y int
				if d.horizontal {
					x, y = d.start.X+offset+j, d.start.Y
				} else {
					x, y = d.start.X, d.start.Y+offset+j
				}
				if g.InBounds(x, y) {
					g.Set(x, y, fill)
				}
			}
		}
	}
}

// carveWaterPool converts a small patch of floor into water. Water is
// impassable, so it runs before connectivity repair.
func carveWaterPool(g *Grid, blob []Point, rng *rand.Rand) {
	if len(blob) == 0 {
		return
	}
	center := blob[rng.Intn(len(blob))]
	radius := 1 + rng.Intn(2)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if g.InBounds(x, y) && g.At(x, y) == TileFloor {
				g.Set(x, y, TileWater)
			}
		}
	}
}

// floodRegions returns every connected component of walkable tiles, each in
// deterministic discovery order, largest-first scan preserved by the caller.
func floodRegions(g *Grid) [][]Point {
	visited := make([]bool, g.Width*g.Height)
	var regions [][]Point

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			if visited[idx] || !g.At(x, y).IsWalkable() {
				continue
			}
			var region []Point
			stack := []Point{{X: x, Y: y}}
			visited[idx] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				region = append(region, p)
				for _, d := range cardinals {
					n := p.Add(d.X, d.Y)
					if !g.InBounds(n.X, n.Y) {
						continue
					}
					nidx := n.Y*g.Width + n.X
					if visited[nidx] || !g.At(n.X, n.Y).IsWalkable() {
						continue
					}
					visited[nidx] = true
					stack = append(stack, n)
				}
			}
			regions = append(regions, region)
		}
	}
	return regions
}

// repairConnectivity joins every secondary floor region to the largest one
// by carving an L-shaped corridor from the region's centroid to the nearest
// tile of the main region.
func repairConnectivity(g *Grid) error {
	for pass := 0; pass < 4; pass++ {
		regions := floodRegions(g)
		if len(regions) <= 1 {
			return nil
		}

		mainIdx := 0
		for i, r := range regions {
			if len(r) > len(regions[mainIdx]) {
				mainIdx = i
			}
		}

		for i, r := range regions {
			if i == mainIdx {
				continue
			}
			from := centroidOf(r)
			to := nearestIn(regions[mainIdx], from)
			carveCorridor(g, from, to)
		}
	}

	if regions := floodRegions(g); len(regions) > 1 {
		return fmt.Errorf("map still split into %d regions after repair", len(regions))
	}
	return nil
}

// centroidOf returns the region tile closest to the region's average point.
func centroidOf(region []Point) Point {
	var sx, sy int
	for _, p := range region {
		sx += p.X
		sy += p.Y
	}
	avg := Point{X: sx / len(region), Y: sy / len(region)}
	return nearestIn(region, avg)
}

// nearestIn returns the region point nearest to target, ties resolved by
// region order (which is deterministic).
func nearestIn(region []Point, target Point) Point {
	best := region[0]
	bestDist := best.DistSq(target)
	for _, p := range region[1:] {
		if d := p.DistSq(target); d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best
}

// carveCorridor cuts a horizontal-then-vertical tunnel of floor between two
// points, staying off the map border.
func carveCorridor(g *Grid, from, to Point) {
	x, y := from.X, from.Y
	for x != to.X {
		if x < to.X {
			x++
		} else {
			x--
		}
		carveFloor(g, x, y)
	}
	for y != to.Y {
		if y < to.Y {
			y++
		} else {
			y--
		}
		carveFloor(g, x, y)
	}
}

func carveFloor(g *Grid, x, y int) {
	if x > 0 && x < g.Width-1 && y > 0 && y < g.Height-1 {
		g.Set(x, y, TileFloor)
	}
}

// placeStairs picks stair tiles on plain floor per the depth-range rule.
// Stairs prefer some separation; after a bounded number of draws any pair of
// distinct floor tiles is accepted.
func placeStairs(g *Grid, depth int, rng *rand.Rand) (Stairs, error) {
	var floors []Point
	for p := range g.WalkablePositions() {
		if g.At(p.X, p.Y) == TileFloor {
			floors = append(floors, p)
		}
	}
	if len(floors) < 2 {
		return Stairs{}, fmt.Errorf("only %d floor tiles, cannot place stairs", len(floors))
	}

	var stairs Stairs
	if NeedsUpStair(depth) {
		up := floors[rng.Intn(len(floors))]
		stairs.Up = &up
		g.Set(up.X, up.Y, TileStairUp)
	}
	if NeedsDownStair(depth) {
		const minSeparationSq = 100
		var down Point
		for try := 0; ; try++ {
			down = floors[rng.Intn(len(floors))]
			if stairs.Up == nil {
				break
			}
			if down != *stairs.Up && (down.DistSq(*stairs.Up) >= minSeparationSq || try >= 20) {
				break
			}
		}
		stairs.Down = &down
		g.Set(down.X, down.Y, TileStairDown)
	}
	return stairs, nil
}

// verifyConnected confirms the walkable tiles form one component and that
// every placed stair sits inside it.
func verifyConnected(g *Grid, stairs Stairs) error {
	regions := floodRegions(g)
	if len(regions) != 1 {
		return fmt.Errorf("expected one walkable region, found %d", len(regions))
	}
	inMain := make(map[Point]struct{}, len(regions[0]))
	for _, p := range regions[0] {
		inMain[p] = struct{}{}
	}
	if stairs.Up != nil {
		if _, ok := inMain[*stairs.Up]; !ok {
			return errors.New("up-stair unreachable")
		}
	}
	if stairs.Down != nil {
		if _, ok := inMain[*stairs.Down]; !ok {
			return errors.New("down-stair unreachable")
		}
	}
	return nil
}
