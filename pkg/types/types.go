// Package types defines core types for the dexbot research assistant.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is an elemental category governing offense and defense multipliers.
type Type string

const (
	Normal   Type = "normal"
	Fire     Type = "fire"
	Water    Type = "water"
	Electric Type = "electric"
	Grass    Type = "grass"
	Ice      Type = "ice"
	Fighting Type = "fighting"
	Poison   Type = "poison"
	Ground   Type = "ground"
	Flying   Type = "flying"
	Psychic  Type = "psychic"
	Bug      Type = "bug"
	Rock     Type = "rock"
	Ghost    Type = "ghost"
	Dragon   Type = "dragon"
	Dark     Type = "dark"
	Steel    Type = "steel"
	Fairy    Type = "fairy"
)

var allTypes = []Type{
	Normal, Fire, Water, Electric, Grass, Ice, Fighting, Poison, Ground,
	Flying, Psychic, Bug, Rock, Ghost, Dragon, Dark, Steel, Fairy,
}

// AllTypes returns the closed type universe in canonical order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Index returns the canonical position of t, or -1 if t is not a known type.
func (t Type) Index() int {
	for i, known := range allTypes {
		if known == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t belongs to the type universe.
func (t Type) Valid() bool {
	return t.Index() >= 0
}

// ParseType normalizes s ("Fire", " fire ") into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown type %q", s)
	}
	return t, nil
}

// SortTypes orders ts in canonical order, in place.
func SortTypes(ts []Type) {
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].Index() < ts[j].Index()
	})
}

// BaseStats are the six fixed combat attributes of a creature.
type BaseStats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special-attack"`
	SpecialDefense int `json:"special-defense"`
	Speed          int `json:"speed"`
}

// Total returns the base stat total.
func (s BaseStats) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpecialAttack + s.SpecialDefense + s.Speed
}

// Tiers are pure functions of base stats, derived once at load time.
type Tiers struct {
	SpeedTier       string   `json:"speed_tier"`       // fast, medium, slow
	AttackFocus     string   `json:"attack_focus"`     // physical, special, balanced
	DefenseCategory string   `json:"defense_category"` // bulky, average, fragile
	BSTTier         string   `json:"bst_tier"`         // very_high .. very_low
	Roles           []string `json:"roles"`            // sorted, deduplicated
}

// Identity describes who a creature is.
type Identity struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Genus       string   `json:"genus,omitempty"`
	Types       []Type   `json:"types"`
	IsLegendary bool     `json:"is_legendary"`
	IsMythical  bool     `json:"is_mythical"`
	IsBaby      bool     `json:"is_baby"`
	Color       string   `json:"color,omitempty"`
	Shape       string   `json:"shape,omitempty"`
	Habitat     string   `json:"habitat,omitempty"`
	HeightM     float64  `json:"height_m,omitempty"`
	WeightKg    float64  `json:"weight_kg,omitempty"`
	EggGroups   []string `json:"egg_groups,omitempty"`
}

// DefenseProfile buckets attacking types by combined multiplier. Neutral is omitted.
type DefenseProfile struct {
	ImmuneTo  []Type `json:"immune_to"`
	Resists4x []Type `json:"resists_4x"`
	Resists2x []Type `json:"resists_2x"`
	WeakTo2x  []Type `json:"weak_to_2x"`
	WeakTo4x  []Type `json:"weak_to_4x"`
}

// OffenseProfile buckets defending types hit by any of the creature's own types.
type OffenseProfile struct {
	SuperEffectiveAgainst   []Type `json:"super_effective_against"`
	NotVeryEffectiveAgainst []Type `json:"not_very_effective_against"`
	NoEffectAgainst         []Type `json:"no_effect_against"`
}

// LevelMove is a move learned at a given level.
type LevelMove struct {
	Level int      `json:"level"`
	Moves []string `json:"moves"`
}

// VersionMoves is the learnset for a single game version group.
type VersionMoves struct {
	LevelUp       []LevelMove `json:"level_up,omitempty"`
	Machine       []string    `json:"machine,omitempty"`
	Tutor         []string    `json:"tutor,omitempty"`
	Egg           []string    `json:"egg,omitempty"`
	StrategicTags []string    `json:"strategic_tags,omitempty"`
}

// EvolutionEdge is one (from, to, condition) step of an evolution graph.
type EvolutionEdge struct {
	From      string `json:"from_pokemon"`
	To        string `json:"to_pokemon"`
	Condition string `json:"condition"`
}

// Evolution is the fragment of the evolution graph a profile carries.
type Evolution struct {
	EvolvesFrom string          `json:"evolves_from,omitempty"`
	Paths       []EvolutionEdge `json:"paths,omitempty"`
}

// CreatureProfile is the full structured record of one roster entry.
type CreatureProfile struct {
	Identity  Identity                `json:"identity"`
	BaseStats BaseStats               `json:"base_stats"`
	Tiers     Tiers                   `json:"tiers"`
	Defense   DefenseProfile          `json:"type_defenses"`
	Offense   OffenseProfile          `json:"type_offenses"`
	Abilities []string                `json:"abilities,omitempty"`
	Moves     map[string]VersionMoves `json:"moves,omitempty"`     // keyed by version group
	Locations map[string][]string     `json:"locations,omitempty"` // keyed by game version
	Evolution Evolution               `json:"evolution"`
	Lore      map[string]string       `json:"lore,omitempty"` // dex entry per version
}

// Key returns the lowercased lookup key of the profile.
func (p *CreatureProfile) Key() string {
	return NormalizeName(p.Identity.Name)
}

// HasType reports whether the creature has type t.
func (p *CreatureProfile) HasType(t Type) bool {
	for _, own := range p.Identity.Types {
		if own == t {
			return true
		}
	}
	return false
}

// NormalizeName lowercases and trims a creature name for keyed lookups.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
