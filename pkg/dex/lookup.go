package dex

import (
	"context"
	"errors"
	"strings"

	"github.com/cpunion/dexbot/pkg/types"
)

// Group selects a section of a profile.
type Group string

const (
	GroupSummary   Group = "summary"
	GroupBattle    Group = "battle_profile"
	GroupMoves     Group = "moves"
	GroupEcology   Group = "ecology"
	GroupLore      Group = "lore"
	GroupEvolution Group = "evolution"
)

// AllGroups lists the recognized data groups.
func AllGroups() []Group {
	return []Group{GroupSummary, GroupBattle, GroupMoves, GroupEcology, GroupLore, GroupEvolution}
}

// ParseGroup accepts a group name; "battle" is an alias for battle_profile.
func ParseGroup(s string) (Group, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "battle" {
		return GroupBattle, true
	}
	for _, g := range AllGroups() {
		if string(g) == s {
			return g, true
		}
	}
	return "", false
}

// LookupOptions controls which sections a lookup returns.
type LookupOptions struct {
	Groups      []Group // empty means summary only
	GameVersion string  // narrows moves and encounter locations
}

// Summary is the identity section of a profile.
type Summary struct {
	types.Identity
}

// BattleProfile is the battle section of a profile.
type BattleProfile struct {
	BaseStats types.BaseStats      `json:"base_stats"`
	Tiers     types.Tiers          `json:"tiers"`
	Defense   types.DefenseProfile `json:"type_defenses"`
	Offense   types.OffenseProfile `json:"type_offenses"`
	Abilities []string             `json:"abilities,omitempty"`
	Evolution types.Evolution      `json:"evolution"`
}

// Ecology is the habitat section of a profile.
type Ecology struct {
	Habitat            string              `json:"habitat"`
	EncounterLocations map[string][]string `json:"encounter_locations"`
}

// EvolutionInfo is the evolution section of a profile: the whole line,
// the edges leaving the looked-up species and the raw graph fragment.
type EvolutionInfo struct {
	EvolvesFrom string                `json:"evolves_from,omitempty"`
	Line        []string              `json:"line"`
	Next        []types.EvolutionEdge `json:"next,omitempty"`
	Paths       []types.EvolutionEdge `json:"paths,omitempty"`
}

// LookupEntry is the per-name result of Lookup. Exactly one of Err or the
// requested sections is set.
type LookupEntry struct {
	Name      string                        `json:"name"`
	Summary   *Summary                      `json:"summary,omitempty"`
	Battle    *BattleProfile                `json:"battle_profile,omitempty"`
	Moves     map[string]types.VersionMoves `json:"moves,omitempty"`
	Ecology   *Ecology                      `json:"ecology,omitempty"`
	Lore      map[string]string             `json:"lore,omitempty"`
	Evolution *EvolutionInfo                `json:"evolution,omitempty"`
	Error     string                        `json:"error,omitempty"`

	Err error `json:"-"`
}

// Found reports whether the entry carries data.
func (e LookupEntry) Found() bool {
	return e.Err == nil
}

// Lookup returns an entry for every requested name, keyed by normalized
// name. Unknown names get an entry whose Err is a *NotFoundError. Other
// store failures abort the lookup.
func Lookup(ctx context.Context, s Store, names []string, opts LookupOptions) (map[string]LookupEntry, error) {
	groups := opts.Groups
	if len(groups) == 0 {
		groups = []Group{GroupSummary}
	}

	out := make(map[string]LookupEntry, len(names))
	for _, raw := range names {
		name := types.NormalizeName(raw)
		p, err := s.Get(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				out[name] = LookupEntry{Name: name, Error: "Pokemon not found", Err: err}
				continue
			}
			return nil, err
		}
		out[name] = project(p, groups, opts.GameVersion)
	}
	return out, nil
}

func project(p *types.CreatureProfile, groups []Group, version string) LookupEntry {
	e := LookupEntry{Name: p.Key()}
	for _, g := range groups {
		switch g {
		case GroupSummary:
			e.Summary = &Summary{Identity: p.Identity}
		case GroupBattle:
			e.Battle = &BattleProfile{
				BaseStats: p.BaseStats,
				Tiers:     p.Tiers,
				Defense:   p.Defense,
				Offense:   p.Offense,
				Abilities: p.Abilities,
				Evolution: p.Evolution,
			}
		case GroupMoves:
			e.Moves = filterByVersion(p.Moves, VersionGroupKey(version))
		case GroupEcology:
			e.Ecology = &Ecology{
				Habitat:            habitatOrUnknown(p.Identity.Habitat),
				EncounterLocations: filterByVersion(p.Locations, strings.ToLower(strings.TrimSpace(version))),
			}
		case GroupLore:
			e.Lore = p.Lore
		case GroupEvolution:
			e.Evolution = evolutionInfo(p)
		}
	}
	return e
}

func evolutionInfo(p *types.CreatureProfile) *EvolutionInfo {
	name := p.Key()
	info := &EvolutionInfo{
		EvolvesFrom: p.Evolution.EvolvesFrom,
		Line:        EvolutionLine(p.Evolution),
		Next:        NextEvolutions(p.Evolution, name),
		Paths:       p.Evolution.Paths,
	}
	if info.EvolvesFrom == "" {
		for _, e := range p.Evolution.Paths {
			if e.To == name {
				info.EvolvesFrom = e.From
				break
			}
		}
	}
	if len(info.Line) == 0 {
		info.Line = []string{name}
	}
	return info
}

// VersionGroupKey normalizes "Scarlet Violet" to "scarlet-violet".
func VersionGroupKey(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "-")
}

func filterByVersion[V any](m map[string]V, key string) map[string]V {
	if key == "" {
		return m
	}
	out := map[string]V{}
	if v, ok := m[key]; ok {
		out[key] = v
	}
	return out
}

func habitatOrUnknown(h string) string {
	if h == "" {
		return "Unknown"
	}
	return h
}
