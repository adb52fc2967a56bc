// Package dextest provides a small, real-data roster for tests.
package dextest

import (
	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/types"
)

// Version is the game version group the fixture learnsets are keyed by.
const Version = "scarlet-violet"

type entry struct {
	id                        int
	name                      string
	ts                        []types.Type
	stats                     [6]int
	color, shape, habitat     string
	legendary, mythical, baby bool
	tags                      []string
	evolution                 []types.EvolutionEdge
}

var roster = []entry{
	{id: 1, name: "bulbasaur", ts: []types.Type{types.Grass, types.Poison}, stats: [6]int{45, 49, 49, 65, 65, 45},
		color: "green", shape: "quadruped", habitat: "grassland",
		evolution: []types.EvolutionEdge{
			{From: "bulbasaur", To: "ivysaur", Condition: "level-up (min level 16)"},
			{From: "ivysaur", To: "venusaur", Condition: "level-up (min level 32)"},
		}},
	{id: 6, name: "charizard", ts: []types.Type{types.Fire, types.Flying}, stats: [6]int{78, 84, 78, 109, 85, 100},
		color: "red", shape: "upright", habitat: "mountain"},
	{id: 25, name: "pikachu", ts: []types.Type{types.Electric}, stats: [6]int{35, 55, 40, 50, 50, 90},
		color: "yellow", shape: "quadruped", habitat: "forest", tags: []string{"priority-user"},
		evolution: []types.EvolutionEdge{
			{From: "pichu", To: "pikachu", Condition: "level-up (high friendship)"},
			{From: "pikachu", To: "raichu", Condition: "use-item (thunder-stone)"},
		}},
	{id: 36, name: "clefable", ts: []types.Type{types.Fairy}, stats: [6]int{95, 70, 73, 95, 90, 60},
		color: "pink", shape: "upright", habitat: "mountain", tags: []string{"cleric"}},
	{id: 94, name: "gengar", ts: []types.Type{types.Ghost, types.Poison}, stats: [6]int{60, 65, 60, 130, 75, 110},
		color: "purple", shape: "upright", habitat: "cave", tags: []string{"status-spreader"}},
	{id: 130, name: "gyarados", ts: []types.Type{types.Water, types.Flying}, stats: [6]int{95, 125, 79, 60, 100, 81},
		color: "blue", shape: "squiggle", habitat: "waters-edge", tags: []string{"setup-sweeper"}},
	{id: 143, name: "snorlax", ts: []types.Type{types.Normal}, stats: [6]int{160, 110, 65, 65, 110, 30},
		color: "black", shape: "upright", habitat: "mountain"},
	{id: 150, name: "mewtwo", ts: []types.Type{types.Psychic}, stats: [6]int{106, 110, 90, 154, 90, 130},
		color: "purple", shape: "upright", habitat: "rare", legendary: true},
	{id: 151, name: "mew", ts: []types.Type{types.Psychic}, stats: [6]int{100, 100, 100, 100, 100, 100},
		color: "pink", shape: "upright", habitat: "rare", mythical: true},
	{id: 172, name: "pichu", ts: []types.Type{types.Electric}, stats: [6]int{20, 40, 15, 35, 35, 60},
		color: "yellow", shape: "quadruped", habitat: "forest", baby: true},
	{id: 227, name: "skarmory", ts: []types.Type{types.Steel, types.Flying}, stats: [6]int{65, 80, 140, 40, 70, 70},
		color: "gray", shape: "wings", habitat: "rough-terrain", tags: []string{"hazard-setter", "phazer"}},
	{id: 445, name: "garchomp", ts: []types.Type{types.Dragon, types.Ground}, stats: [6]int{108, 130, 95, 80, 85, 102},
		color: "blue", shape: "upright", tags: []string{"hazard-setter", "setup-sweeper"}},
	{id: 598, name: "ferrothorn", ts: []types.Type{types.Grass, types.Steel}, stats: [6]int{74, 94, 131, 54, 116, 20},
		color: "gray", shape: "ball", tags: []string{"hazard-setter"}},
}

// Profiles returns fresh copies of the fixture roster with derived fields
// filled in.
func Profiles() []*types.CreatureProfile {
	out := make([]*types.CreatureProfile, 0, len(roster))
	for _, e := range roster {
		s := e.stats
		p := &types.CreatureProfile{
			Identity: types.Identity{
				ID:          e.id,
				Name:        e.name,
				Types:       append([]types.Type(nil), e.ts...),
				IsLegendary: e.legendary,
				IsMythical:  e.mythical,
				IsBaby:      e.baby,
				Color:       e.color,
				Shape:       e.shape,
				Habitat:     e.habitat,
			},
			BaseStats: types.BaseStats{
				HP: s[0], Attack: s[1], Defense: s[2], SpecialAttack: s[3], SpecialDefense: s[4], Speed: s[5],
			},
			Moves: map[string]types.VersionMoves{
				Version:        {Machine: []string{"protect"}, StrategicTags: e.tags},
				"sword-shield": {Machine: []string{"protect", "rest"}},
			},
			Locations: map[string][]string{
				"scarlet": {"south-province-area-one"},
				"violet":  {"south-province-area-two"},
			},
			Evolution: types.Evolution{Paths: e.evolution},
			Lore:      map[string]string{"scarlet": "Fixture entry for " + e.name + "."},
		}
		out = append(out, p)
	}
	if err := dex.Prepare(nil, out); err != nil {
		panic(err)
	}
	return out
}

// Store returns a MemoryStore over Profiles.
func Store() *dex.MemoryStore {
	return dex.NewMemoryStore(Profiles())
}
