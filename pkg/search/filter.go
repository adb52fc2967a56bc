package search

import (
	"strconv"
	"strings"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/matchup"
	"github.com/cpunion/dexbot/pkg/types"
)

// filter is a validated, normalized Criteria.
type filter struct {
	includeTypes, excludeTypes       []types.Type
	roles                            []string
	speed, focus, defense, bst       []string
	tags                             []string
	version                          string
	resists, immunities, excludeWeak []types.Type
	legendary, mythical, baby        *bool
	shapes, colors, habitats         []string
	limit                            int
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func compile(c Criteria) (*filter, error) {
	f := &filter{legendary: c.IsLegendary, mythical: c.IsMythical, baby: c.IsBaby}
	var err error

	typeLists := []struct {
		field string
		in    []string
		out   *[]types.Type
	}{
		{"include_types", c.IncludeTypes, &f.includeTypes},
		{"exclude_types", c.ExcludeTypes, &f.excludeTypes},
		{"required_resists", c.RequiredResists, &f.resists},
		{"required_immunities", c.RequiredImmunities, &f.immunities},
		{"exclude_weaknesses", c.ExcludeWeaknesses, &f.excludeWeak},
	}
	for _, l := range typeLists {
		for _, v := range l.in {
			t, perr := types.ParseType(v)
			if perr != nil {
				return nil, &InvalidCriteriaError{Field: l.field, Value: v}
			}
			*l.out = append(*l.out, t)
		}
	}

	for _, v := range c.IncludeRoles {
		role, ok := matchup.RoleFromSlug(v)
		if !ok {
			return nil, &InvalidCriteriaError{Field: "include_roles", Value: v}
		}
		f.roles = append(f.roles, role)
	}

	enumLists := []struct {
		field string
		in    []string
		vocab []string
		out   *[]string
		fix   func(string) string
	}{
		{"speed_tiers", c.SpeedTiers, matchup.SpeedTiers, &f.speed, norm},
		{"attack_focus", c.AttackFocus, matchup.AttackFocuses, &f.focus, norm},
		{"defense_categories", c.DefenseCategories, matchup.DefenseCategories, &f.defense, norm},
		{"base_stat_tier", c.BSTTiers, matchup.BSTTiers, &f.bst, func(s string) string {
			return strings.NewReplacer("-", "_", " ", "_").Replace(norm(s))
		}},
		{"strategic_tags", c.StrategicTags, StrategicTags, &f.tags, norm},
		{"shape", c.Shapes, Shapes, &f.shapes, norm},
		{"color", c.Colors, Colors, &f.colors, norm},
		{"habitat", c.Habitats, Habitats, &f.habitats, norm},
	}
	for _, l := range enumLists {
		if *l.out, err = validateEnum(l.field, l.in, l.vocab, l.fix); err != nil {
			return nil, err
		}
	}

	if c.GameVersion != "" {
		f.version = dex.VersionGroupKey(c.GameVersion)
		if !contains(VersionGroups, f.version) {
			return nil, &InvalidCriteriaError{Field: "game_version", Value: c.GameVersion}
		}
	}

	switch {
	case c.Limit < 0:
		return nil, &InvalidCriteriaError{Field: "limit", Value: strconv.Itoa(c.Limit)}
	case c.Limit == 0:
		f.limit = DefaultLimit
	case c.Limit > MaxLimit:
		f.limit = MaxLimit
	default:
		f.limit = c.Limit
	}
	return f, nil
}

func validateEnum(field string, in, vocab []string, fix func(string) string) ([]string, error) {
	var out []string
	for _, v := range in {
		n := fix(v)
		if !contains(vocab, n) {
			return nil, &InvalidCriteriaError{Field: field, Value: v}
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *filter) match(p *types.CreatureProfile) bool {
	id := p.Identity
	if len(f.includeTypes) > 0 && !anyType(p, f.includeTypes) {
		return false
	}
	if anyType(p, f.excludeTypes) {
		return false
	}
	if len(f.roles) > 0 && !anyOf(p.Tiers.Roles, f.roles) {
		return false
	}
	if !inSet(f.speed, p.Tiers.SpeedTier) ||
		!inSet(f.focus, p.Tiers.AttackFocus) ||
		!inSet(f.defense, p.Tiers.DefenseCategory) ||
		!inSet(f.bst, p.Tiers.BSTTier) {
		return false
	}
	// tags without a version cannot be evaluated and are ignored
	if len(f.tags) > 0 && f.version != "" {
		if !anyOf(p.Moves[f.version].StrategicTags, f.tags) {
			return false
		}
	}
	d := p.Defense
	for _, t := range f.resists {
		if !hasType(d.Resists2x, t) && !hasType(d.Resists4x, t) {
			return false
		}
	}
	for _, t := range f.immunities {
		if !hasType(d.ImmuneTo, t) {
			return false
		}
	}
	for _, t := range f.excludeWeak {
		if hasType(d.WeakTo2x, t) || hasType(d.WeakTo4x, t) {
			return false
		}
	}
	if !flag(f.legendary, id.IsLegendary) || !flag(f.mythical, id.IsMythical) || !flag(f.baby, id.IsBaby) {
		return false
	}
	return inSet(f.shapes, id.Shape) && inSet(f.colors, id.Color) && inSet(f.habitats, id.Habitat)
}

func anyType(p *types.CreatureProfile, ts []types.Type) bool {
	for _, t := range ts {
		if p.HasType(t) {
			return true
		}
	}
	return false
}

func hasType(ts []types.Type, t types.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func anyOf(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

// inSet is true for an empty set.
func inSet(set []string, v string) bool {
	return len(set) == 0 || contains(set, v)
}

func flag(want *bool, have bool) bool {
	return want == nil || *want == have
}
