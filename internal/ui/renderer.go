package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/samdwyer/deepdive/internal/fov"
	"github.com/samdwyer/deepdive/internal/world"
)

// Renderer draws the live level to the screen. It consumes only the core's
// read interfaces: tile category, wall-face hint, and visibility state.
type Renderer struct {
	screen *Screen
	tint   colorful.Color
}

// NewRenderer creates a renderer for the given screen with a neutral tint.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen, tint: colorful.Color{R: 1, G: 1, B: 1}}
}

// SetBiomeTint switches the color tint applied to tiles, usually on biome
// change. Invalid hex strings fall back to no tint.
func (r *Renderer) SetBiomeTint(hex string) {
	tint, err := colorful.Hex(hex)
	if err != nil {
		tint = colorful.Color{R: 1, G: 1, B: 1}
	}
	r.tint = tint
}

// Render draws the grid through the visibility engine, then the observer.
func (r *Renderer) Render(grid *world.Grid, eng *fov.Engine, observer world.Point) {
	r.screen.Clear()

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			state := eng.StateOf(x, y)
			if state == fov.Unseen {
				continue
			}
			tile := grid.At(x, y)
			r.screen.SetContent(x, y, tile.Rune(), r.tileStyle(grid, tile, x, y, state))
		}
	}

	observerStyle := tcell.StyleDefault.
		Foreground(tcell.ColorYellow).
		Bold(true)
	r.screen.SetContent(observer.X, observer.Y, '@', observerStyle)

	r.screen.Show()
}

// tileStyle picks a color for a tile: a base color per category, blended
// toward the biome tint, dimmed when the tile is only remembered.
func (r *Renderer) tileStyle(grid *world.Grid, tile world.Tile, x, y int, state fov.Visibility) tcell.Style {
	base := r.baseColor(grid, tile, x, y)
	blended := base.BlendRgb(r.tint, 0.35)
	if state == fov.Seen {
		// Remembered tiles render dimmed toward black.
		blended = blended.BlendRgb(colorful.Color{}, 0.65)
	}
	cr, cg, cb := blended.Clamped().RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(cr), int32(cg), int32(cb)))
}

func (r *Renderer) baseColor(grid *world.Grid, tile world.Tile, x, y int) colorful.Color {
	switch tile {
	case world.TileWall:
		if grid.WallFaceAt(x, y) == world.WallFaceSide {
			return colorful.Color{R: 0.55, G: 0.5, B: 0.45}
		}
		return colorful.Color{R: 0.35, G: 0.35, B: 0.35}
	case world.TileWater:
		return colorful.Color{R: 0.25, G: 0.45, B: 0.85}
	case world.TileStairUp, world.TileStairDown:
		return colorful.Color{R: 0.95, G: 0.9, B: 0.55}
	case world.TileDoorClosed, world.TileDoorOpen:
		return colorful.Color{R: 0.7, G: 0.5, B: 0.3}
	default:
		return colorful.Color{R: 0.6, G: 0.6, B: 0.6}
	}
}

// RenderStatus displays a message line below the map.
func (r *Renderer) RenderStatus(msg string, y int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for i, ch := range msg {
		r.screen.SetContent(i, y, ch, style)
	}
	r.screen.Show()
}
