package gamedata

import (
	"errors"
	"fmt"

	"github.com/samdwyer/deepdive/internal/world"
)

// BiomeDef defines a dungeon biome loaded from JSON: a named palette plus
// the generation parameter set applied to depths in its range.
type BiomeDef struct {
	ID          string  `json:"id"`          // Unique identifier (e.g., "caverns")
	Name        string  `json:"name"`        // Display name (e.g., "Caverns")
	Description string  `json:"description"` // Flavor text shown on entry
	MinDepth    int     `json:"minDepth"`    // Shallowest depth this biome appears at
	MaxDepth    int     `json:"maxDepth"`    // Deepest depth this biome appears at
	Tint        string  `json:"tint"`        // Hex color tint for rendering (e.g., "#8C7B6A")
	Water       bool    `json:"water"`       // Whether levels carve water pools
	Divisions   int     `json:"divisions"`   // Base number of interior wall slices
	DoorChance  float64 `json:"doorChance"`  // Chance a narrow doorway gets a door
}

// GenParams maps the biome definition onto generation parameters for one
// depth. Deeper levels within a biome get up to two extra wall divisions.
func (b *BiomeDef) GenParams(depth int) world.GenParams {
	return world.GenParams{
		Biome:          b.ID,
		Depth:          depth,
		TargetFloorMin: 300,
		TargetFloorMax: 400,
		Divisions:      b.Divisions + min(depth/5, 2),
		Water:          b.Water,
		DoorChance:     b.DoorChance,
	}
}

// BiomesFile represents the structure of biomes.json.
type BiomesFile struct {
	Biomes []BiomeDef `json:"biomes"`
}

// LoadBiomes loads biome definitions from the embedded biomes.json file.
func LoadBiomes() ([]BiomeDef, error) {
	file, err := Load[BiomesFile]("biomes.json")
	if err != nil {
		return nil, err
	}
	return file.Biomes, nil
}

// BiomeRegistry holds loaded biome definitions and resolves which biome a
// depth belongs to.
type BiomeRegistry struct {
	biomes []BiomeDef
}

// NewBiomeRegistry creates a registry from loaded biome definitions.
func NewBiomeRegistry(biomes []BiomeDef) *BiomeRegistry {
	return &BiomeRegistry{biomes: biomes}
}

// LoadBiomeRegistry loads and creates a registry from the embedded biomes.json.
func LoadBiomeRegistry() (*BiomeRegistry, error) {
	biomes, err := LoadBiomes()
	if err != nil {
		return nil, err
	}
	if len(biomes) == 0 {
		return nil, errors.New("no biomes loaded from biomes.json")
	}
	return NewBiomeRegistry(biomes), nil
}

// MustLoadBiomeRegistry loads a registry, panicking on error.
func MustLoadBiomeRegistry() *BiomeRegistry {
	registry, err := LoadBiomeRegistry()
	if err != nil {
		panic(err)
	}
	return registry
}

// Count returns the number of biome definitions.
func (r *BiomeRegistry) Count() int {
	return len(r.biomes)
}

// ByID returns the biome with the given ID, or nil if not found.
func (r *BiomeRegistry) ByID(id string) *BiomeDef {
	for i := range r.biomes {
		if r.biomes[i].ID == id {
			return &r.biomes[i]
		}
	}
	return nil
}

// ForDepth picks the biome for a depth. When several biomes cover the same
// depth the choice rotates by depth, so the same depth always resolves to
// the same biome within a dataset.
func (r *BiomeRegistry) ForDepth(depth int) (*BiomeDef, error) {
	var candidates []*BiomeDef
	for i := range r.biomes {
		if depth >= r.biomes[i].MinDepth && depth <= r.biomes[i].MaxDepth {
			candidates = append(candidates, &r.biomes[i])
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no biome covers depth %d", depth)
	}
	return candidates[depth%len(candidates)], nil
}
