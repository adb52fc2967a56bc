// Package matchup derives a single creature's defensive and offensive type
// profile and its stat-based tiers.
package matchup

import (
	"fmt"

	"github.com/cpunion/dexbot/pkg/typechart"
	"github.com/cpunion/dexbot/pkg/types"
)

// Analyzer computes matchup profiles against a type chart.
type Analyzer struct {
	chart *typechart.Chart
}

// New creates an analyzer. A nil chart means the standard chart.
func New(chart *typechart.Chart) *Analyzer {
	if chart == nil {
		chart = typechart.Default()
	}
	return &Analyzer{chart: chart}
}

// Chart returns the chart the analyzer reads from.
func (a *Analyzer) Chart() *typechart.Chart {
	return a.chart
}

func checkTypes(own []types.Type) error {
	if len(own) == 0 || len(own) > 2 {
		return fmt.Errorf("a creature has 1-2 types, got %d", len(own))
	}
	for _, t := range own {
		if !t.Valid() {
			return &typechart.InvalidTypeError{Type: t}
		}
	}
	return nil
}

// Multipliers returns the combined defensive multiplier for every attacking type.
func (a *Analyzer) Multipliers(own []types.Type) (map[types.Type]float64, error) {
	if err := checkTypes(own); err != nil {
		return nil, err
	}
	out := make(map[types.Type]float64, len(types.AllTypes()))
	for _, atk := range types.AllTypes() {
		m, err := a.chart.CombinedDefenseMultiplier(atk, own)
		if err != nil {
			return nil, err
		}
		out[atk] = m
	}
	return out, nil
}

// Defense buckets every attacking type by its combined multiplier against own.
// Neutral (1x) types appear in no bucket. Buckets keep canonical type order.
func (a *Analyzer) Defense(own []types.Type) (types.DefenseProfile, error) {
	mult, err := a.Multipliers(own)
	if err != nil {
		return types.DefenseProfile{}, err
	}

	p := types.DefenseProfile{
		ImmuneTo:  []types.Type{},
		Resists4x: []types.Type{},
		Resists2x: []types.Type{},
		WeakTo2x:  []types.Type{},
		WeakTo4x:  []types.Type{},
	}
	for _, atk := range types.AllTypes() {
		switch mult[atk] {
		case 0:
			p.ImmuneTo = append(p.ImmuneTo, atk)
		case 0.25:
			p.Resists4x = append(p.Resists4x, atk)
		case 0.5:
			p.Resists2x = append(p.Resists2x, atk)
		case 2:
			p.WeakTo2x = append(p.WeakTo2x, atk)
		case 4:
			p.WeakTo4x = append(p.WeakTo4x, atk)
		}
	}
	return p, nil
}

// Offense returns, for the union of own's STAB types, which defending types
// are hit super effectively, not very effectively, or not at all. Only
// membership is kept, so a type can appear in more than one bucket when the
// two STAB types disagree.
func (a *Analyzer) Offense(own []types.Type) (types.OffenseProfile, error) {
	if err := checkTypes(own); err != nil {
		return types.OffenseProfile{}, err
	}

	var super, notVery, none [18]bool
	for _, atk := range own {
		for _, def := range types.AllTypes() {
			switch a.chart.MustEffectiveness(atk, def) {
			case typechart.SuperEffective:
				super[def.Index()] = true
			case typechart.NotVeryEffective:
				notVery[def.Index()] = true
			case typechart.NoEffect:
				none[def.Index()] = true
			}
		}
	}

	return types.OffenseProfile{
		SuperEffectiveAgainst:   collect(super),
		NotVeryEffectiveAgainst: collect(notVery),
		NoEffectAgainst:         collect(none),
	}, nil
}

func collect(set [18]bool) []types.Type {
	out := []types.Type{}
	for _, t := range types.AllTypes() {
		if set[t.Index()] {
			out = append(out, t)
		}
	}
	return out
}

// Profile fills the derived fields of p (tiers and both type profiles).
func (a *Analyzer) Profile(p *types.CreatureProfile) error {
	def, err := a.Defense(p.Identity.Types)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Identity.Name, err)
	}
	off, err := a.Offense(p.Identity.Types)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Identity.Name, err)
	}
	p.Defense = def
	p.Offense = off
	p.Tiers = Derive(p.BaseStats)
	return nil
}
