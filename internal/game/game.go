package game

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/deepdive/internal/gamedata"
	"github.com/samdwyer/deepdive/internal/level"
	"github.com/samdwyer/deepdive/internal/logger"
	"github.com/samdwyer/deepdive/internal/telemetry"
	"github.com/samdwyer/deepdive/internal/ui"
)

// Game holds the entire game state.
type Game struct {
	cfg        Config
	screen     *ui.Screen
	renderer   *ui.Renderer
	biomes     *gamedata.BiomeRegistry
	store      *level.Store
	controller *level.Controller
	status     string
	running    bool
}

// New creates a new game instance. An existing save file at cfg.SavePath is
// loaded; a corrupt one is reported and replaced by a fresh session.
func New(cfg Config) (*Game, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	biomes, err := gamedata.LoadBiomeRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading biome registry: %w", err)
	}

	store := level.NewStore()
	if cfg.SavePath != "" {
		if _, statErr := os.Stat(cfg.SavePath); statErr == nil {
			loaded, loadErr := level.LoadStore(cfg.SavePath)
			if loadErr != nil {
				logger.WithComponent("game").WithError(loadErr).Warn("save file unusable, starting fresh")
			} else {
				store = loaded
			}
		}
	}

	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}

	return &Game{
		cfg:      cfg,
		screen:   screen,
		renderer: ui.NewRenderer(screen),
		biomes:   biomes,
		store:    store,
		running:  true,
	}, nil
}

// Run executes the main game loop.
func (g *Game) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("game")

	ctx, initSpan := tracer.Start(ctx, "game.init")
	controller, err := level.NewController(ctx, g.store, g.biomes, level.Options{
		Width:     g.cfg.Width,
		Height:    g.cfg.Height,
		FOVRadius: g.cfg.FOVRadius,
		Seed:      g.cfg.Seed,
	})
	if err != nil {
		initSpan.End()
		g.screen.Close()
		return fmt.Errorf("entering depth 0: %w", err)
	}
	g.controller = controller
	g.applyBiomeTint()
	initSpan.SetAttributes(
		attribute.Int64("game.seed", g.cfg.Seed),
		attribute.String("game.biome", controller.Biome()),
		attribute.String("session.id", g.store.SessionID().String()),
	)
	initSpan.End()

	for g.running {
		g.render()
		g.handleInput(ctx)
	}

	if g.cfg.SavePath != "" {
		g.saveSession()
	}
	g.screen.Close()
	return nil
}

// render draws the level, then a status line below the map.
func (g *Game) render() {
	c := g.controller
	g.renderer.Render(c.Grid(), c.Engine(), c.ObserverPosition())
	line := fmt.Sprintf("depth %d (%s)  @(%d,%d)", c.CurrentDepth(), c.Biome(),
		c.ObserverPosition().X, c.ObserverPosition().Y)
	if g.status != "" {
		line += "  " + g.status
	}
	g.renderer.RenderStatus(line, c.Grid().Height+1)
}

// handleInput processes a single input event.
func (g *Game) handleInput(ctx context.Context) {
	ev := g.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	g.status = ""

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false
		return

	case tcell.KeyUp:
		g.tryMove(0, -1)
		return
	case tcell.KeyDown:
		g.tryMove(0, 1)
		return
	case tcell.KeyLeft:
		g.tryMove(-1, 0)
		return
	case tcell.KeyRight:
		g.tryMove(1, 0)
		return
	}

	if ev.Key() != tcell.KeyRune {
		return
	}

	switch ev.Rune() {
	case 'q':
		g.running = false
	case 'h':
		g.tryMove(-1, 0)
	case 'j':
		g.tryMove(0, 1)
	case 'k':
		g.tryMove(0, -1)
	case 'l':
		g.tryMove(1, 0)
	case '>':
		g.tryTransition(ctx, level.DirectionDown)
	case '<':
		g.tryTransition(ctx, level.DirectionUp)
	case 'c':
		g.toggleAdjacentDoor()
	case '+':
		// Debug: transition without standing on a stair.
		g.forceTransition(ctx, level.DirectionDown)
	case '-':
		g.forceTransition(ctx, level.DirectionUp)
	case 'O':
		eng := g.controller.Engine()
		eng.SetRevealAll(!eng.RevealAll())
		g.status = fmt.Sprintf("reveal all: %v", eng.RevealAll())
	case 'L':
		hits, misses, size := g.controller.Engine().CacheStats()
		g.status = fmt.Sprintf("LOS cache: %d entries, %d hits, %d misses", size, hits, misses)
	case 'R':
		if err := g.controller.Regenerate(ctx); err != nil {
			g.status = fmt.Sprintf("regenerate failed: %v", err)
		} else {
			g.applyBiomeTint()
			g.status = "level regenerated"
		}
	case 'S':
		g.saveSession()
	}
}

// tryMove attempts to move the observer by the given delta.
func (g *Game) tryMove(dx, dy int) {
	g.controller.MoveObserver(dx, dy)
}

// tryTransition changes depth when the observer stands on a matching stair.
func (g *Game) tryTransition(ctx context.Context, dir level.Direction) {
	onStair, ok := g.controller.StandingOnStair()
	if !ok || onStair != dir {
		g.status = fmt.Sprintf("no %s stair here", dir)
		return
	}
	if err := g.controller.RequestTransition(ctx, dir); err != nil {
		g.status = err.Error()
		return
	}
	g.applyBiomeTint()
}

// forceTransition changes depth regardless of the observer's tile.
func (g *Game) forceTransition(ctx context.Context, dir level.Direction) {
	if err := g.controller.RequestTransition(ctx, dir); err != nil {
		g.status = err.Error()
		return
	}
	g.applyBiomeTint()
	g.status = fmt.Sprintf("forced %s to depth %d", dir, g.controller.CurrentDepth())
}

// toggleAdjacentDoor opens or closes the first door next to the observer.
func (g *Game) toggleAdjacentDoor() {
	pos := g.controller.ObserverPosition()
	offsets := [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	for _, d := range offsets {
		if g.controller.ToggleDoor(pos.X+d[0], pos.Y+d[1]) {
			g.status = "door toggled"
			return
		}
	}
	g.status = "no door adjacent"
}

// saveSession snapshots the live depth into the store and writes the save.
func (g *Game) saveSession() {
	if g.cfg.SavePath == "" {
		g.status = "persistence disabled"
		return
	}
	c := g.controller
	g.store.Capture(c.CurrentDepth(), c.Grid(), c.Stairs(), c.Biome(), c.Engine().Snapshot())
	if err := g.store.SaveFile(g.cfg.SavePath); err != nil {
		logger.WithComponent("game").WithError(err).Error("save failed")
		g.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	g.status = fmt.Sprintf("saved %d levels", g.store.Len())
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.screen != nil {
		g.screen.Close()
	}
}

// applyBiomeTint updates the renderer tint for the live biome.
func (g *Game) applyBiomeTint() {
	if biome := g.biomes.ByID(g.controller.Biome()); biome != nil {
		g.renderer.SetBiomeTint(biome.Tint)
	}
}
