package matchup

import (
	"sort"

	"github.com/cpunion/dexbot/pkg/types"
)

// Speed tiers.
const (
	SpeedFast   = "fast"
	SpeedMedium = "medium"
	SpeedSlow   = "slow"
)

// Attack focus values.
const (
	FocusPhysical = "physical"
	FocusSpecial  = "special"
	FocusBalanced = "balanced"
)

// Defense categories.
const (
	DefenseBulky   = "bulky"
	DefenseAverage = "average"
	DefenseFragile = "fragile"
)

// Base stat total tiers.
const (
	BSTVeryHigh = "very_high"
	BSTHigh     = "high"
	BSTMedium   = "medium"
	BSTLow      = "low"
	BSTVeryLow  = "very_low"
)

// Role names.
const (
	RolePhysicalWall          = "Physical Wall"
	RoleSpecialWall           = "Special Wall"
	RoleFastPhysicalSweeper   = "Fast Physical Sweeper"
	RoleFastSpecialSweeper    = "Fast Special Sweeper"
	RoleBulkyPhysicalAttacker = "Bulky Physical Attacker"
	RoleBulkySpecialAttacker  = "Bulky Special Attacker"
	RoleOffensivePivot        = "Offensive Pivot"
	RoleDefensivePivot        = "Defensive Pivot"
)

// SpeedTiers, AttackFocuses, DefenseCategories and BSTTiers enumerate the
// recognized tier values.
var (
	SpeedTiers        = []string{SpeedFast, SpeedMedium, SpeedSlow}
	AttackFocuses     = []string{FocusPhysical, FocusSpecial, FocusBalanced}
	DefenseCategories = []string{DefenseBulky, DefenseAverage, DefenseFragile}
	BSTTiers          = []string{BSTVeryHigh, BSTHigh, BSTMedium, BSTLow, BSTVeryLow}
)

type rolePredicate struct {
	name string
	ok   func(s types.BaseStats) bool
}

// roles are independent predicates; a creature may satisfy any number of them.
var roles = []rolePredicate{
	{RolePhysicalWall, func(s types.BaseStats) bool { return s.Defense >= 100 && s.HP >= 85 }},
	{RoleSpecialWall, func(s types.BaseStats) bool { return s.SpecialDefense >= 100 && s.HP >= 85 }},
	{RoleFastPhysicalSweeper, func(s types.BaseStats) bool { return s.Speed >= 100 && s.Attack >= 100 }},
	{RoleFastSpecialSweeper, func(s types.BaseStats) bool { return s.Speed >= 100 && s.SpecialAttack >= 100 }},
	{RoleBulkyPhysicalAttacker, func(s types.BaseStats) bool { return s.Attack >= 110 && s.HP >= 80 && s.Defense >= 80 }},
	{RoleBulkySpecialAttacker, func(s types.BaseStats) bool {
		return s.SpecialAttack >= 110 && s.HP >= 80 && s.SpecialDefense >= 80
	}},
	{RoleOffensivePivot, func(s types.BaseStats) bool { return s.Speed >= 90 && (s.Attack >= 95 || s.SpecialAttack >= 95) }},
	{RoleDefensivePivot, func(s types.BaseStats) bool {
		return s.HP >= 80 && s.Defense >= 80 && s.SpecialDefense >= 80 && s.Speed >= 60
	}},
}

// RoleNames returns every recognized role name.
func RoleNames() []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.name
	}
	return out
}

// SpeedTier classifies speed.
func SpeedTier(speed int) string {
	switch {
	case speed >= 100:
		return SpeedFast
	case speed >= 70:
		return SpeedMedium
	default:
		return SpeedSlow
	}
}

// AttackFocus compares physical and special attack.
func AttackFocus(s types.BaseStats) string {
	diff := s.Attack - s.SpecialAttack
	switch {
	case diff >= 20:
		return FocusPhysical
	case diff <= -20:
		return FocusSpecial
	default:
		return FocusBalanced
	}
}

// DefenseCategory classifies the mean of both defenses.
func DefenseCategory(s types.BaseStats) string {
	avg := float64(s.Defense+s.SpecialDefense) / 2
	switch {
	case avg >= 90:
		return DefenseBulky
	case avg >= 60:
		return DefenseAverage
	default:
		return DefenseFragile
	}
}

// BSTTier classifies the base stat total.
func BSTTier(s types.BaseStats) string {
	total := s.Total()
	switch {
	case total >= 600:
		return BSTVeryHigh
	case total >= 500:
		return BSTHigh
	case total >= 400:
		return BSTMedium
	case total >= 300:
		return BSTLow
	default:
		return BSTVeryLow
	}
}

// Roles returns the sorted set of every role whose predicate s satisfies.
func Roles(s types.BaseStats) []string {
	out := []string{}
	for _, r := range roles {
		if r.ok(s) {
			out = append(out, r.name)
		}
	}
	sort.Strings(out)
	return out
}

// Derive computes all stat-based tiers.
func Derive(s types.BaseStats) types.Tiers {
	return types.Tiers{
		SpeedTier:       SpeedTier(s.Speed),
		AttackFocus:     AttackFocus(s),
		DefenseCategory: DefenseCategory(s),
		BSTTier:         BSTTier(s),
		Roles:           Roles(s),
	}
}
