// Package team aggregates matchup profiles across a team of creatures.
package team

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/types"
)

// Summary counts memberships across the team. Duplicated members count once
// per occurrence.
type Summary struct {
	Size              int                `json:"size"`
	Types             map[types.Type]int `json:"types"`
	SpeedDistribution map[string]int     `json:"speed_distribution"`
	RoleDistribution  map[string]int     `json:"role_distribution"`
}

// OffenseAnalysis describes super-effective coverage.
type OffenseAnalysis struct {
	CoverageMap        map[types.Type][]string `json:"coverage_map"`
	CoverageGaps       []types.Type            `json:"coverage_gaps"`
	CoverageRedundancy map[types.Type]int      `json:"coverage_redundancy"`
}

// DefenseAnalysis describes shared weaknesses and resistances.
type DefenseAnalysis struct {
	TopThreats         map[types.Type]float64 `json:"top_threats"`
	SharedWeaknesses   map[types.Type]int     `json:"shared_weaknesses"`
	CoverageGaps       []types.Type           `json:"coverage_gaps"`
	ResistancesSummary map[types.Type]int     `json:"resistances_summary"`
	// CriticalWeaknesses are types at least half the team is weak to.
	CriticalWeaknesses []types.Type `json:"critical_weaknesses"`
}

// MemberProfile is the per-member slice of a profile used by the analysis.
type MemberProfile struct {
	Types      []types.Type         `json:"types"`
	Roles      []string             `json:"roles"`
	SpeedTier  string               `json:"speed_tier"`
	Offense    types.OffenseProfile `json:"offense"`
	Defense    types.DefenseProfile `json:"defense"`
	Vulnerable Vulnerability        `json:"vulnerability"`
}

// Vulnerability tallies one member's weaknesses against its resistances
// and immunities.
type Vulnerability struct {
	Weaknesses  int `json:"weaknesses"`
	Resistances int `json:"resistances"`
	Net         int `json:"net"`
}

// StatSummary describes the spread of base stat totals and speed.
type StatSummary struct {
	MeanBST     float64 `json:"mean_bst"`
	MedianBST   float64 `json:"median_bst"`
	MaxBST      float64 `json:"max_bst"`
	MeanSpeed   float64 `json:"mean_speed"`
	MedianSpeed float64 `json:"median_speed"`
	MaxSpeed    float64 `json:"max_speed"`
}

// Analysis is the full team report.
type Analysis struct {
	TeamSummary     Summary                  `json:"team_summary"`
	OffenseAnalysis OffenseAnalysis          `json:"offense_analysis"`
	DefenseAnalysis DefenseAnalysis          `json:"defense_analysis"`
	StatSummary     *StatSummary             `json:"stat_summary,omitempty"`
	Profiles        map[string]MemberProfile `json:"pokemon_profiles"`
	// Missing lists requested names absent from the roster. They take no
	// part in the aggregation.
	Missing []string `json:"missing,omitempty"`
}

// Analyzer looks team members up in a Store.
type Analyzer struct {
	store  dex.Store
	logger *zap.Logger
}

// New creates a team analyzer.
func New(store dex.Store, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{store: store, logger: logger}
}

// Analyze resolves names and aggregates their profiles. An empty team is an
// error; unknown members are reported in Missing.
func (a *Analyzer) Analyze(ctx context.Context, names []string) (*Analysis, error) {
	if len(names) == 0 {
		return nil, errors.New("team is empty")
	}
	var members []*types.CreatureProfile
	var missing []string
	for _, name := range names {
		p, err := a.store.Get(ctx, name)
		if errors.Is(err, dex.ErrNotFound) {
			missing = append(missing, types.NormalizeName(name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("look up %s: %w", name, err)
		}
		members = append(members, p)
	}
	if len(missing) > 0 {
		a.logger.Warn("team members not found", zap.Strings("names", missing))
	}
	out := Aggregate(members)
	out.Missing = missing
	return out, nil
}

// Aggregate computes the team report for already resolved members.
func Aggregate(members []*types.CreatureProfile) *Analysis {
	out := &Analysis{
		TeamSummary: Summary{
			Size:              len(members),
			Types:             map[types.Type]int{},
			SpeedDistribution: map[string]int{},
			RoleDistribution:  map[string]int{},
		},
		OffenseAnalysis: OffenseAnalysis{
			CoverageMap:        map[types.Type][]string{},
			CoverageRedundancy: map[types.Type]int{},
		},
		DefenseAnalysis: DefenseAnalysis{
			TopThreats:         map[types.Type]float64{},
			SharedWeaknesses:   map[types.Type]int{},
			ResistancesSummary: map[types.Type]int{},
		},
		Profiles: map[string]MemberProfile{},
	}
	weakCount := map[types.Type]int{}
	resisted := map[types.Type]bool{}

	for _, p := range members {
		name := p.Key()
		d := p.Defense

		for _, bucket := range [][]types.Type{d.Resists2x, d.Resists4x, d.ImmuneTo} {
			for _, t := range bucket {
				out.DefenseAnalysis.ResistancesSummary[t]++
				resisted[t] = true
			}
		}
		for _, t := range d.WeakTo2x {
			weakCount[t]++
			out.DefenseAnalysis.TopThreats[t] = max(out.DefenseAnalysis.TopThreats[t], 2)
		}
		for _, t := range d.WeakTo4x {
			weakCount[t]++
			out.DefenseAnalysis.TopThreats[t] = 4
		}

		for _, t := range p.Identity.Types {
			out.TeamSummary.Types[t]++
		}
		for _, r := range p.Tiers.Roles {
			out.TeamSummary.RoleDistribution[r]++
		}
		out.TeamSummary.SpeedDistribution[p.Tiers.SpeedTier]++

		for _, t := range p.Offense.SuperEffectiveAgainst {
			out.OffenseAnalysis.CoverageMap[t] = append(out.OffenseAnalysis.CoverageMap[t], name)
		}

		weak := len(d.WeakTo2x) + len(d.WeakTo4x)
		res := len(d.Resists2x) + len(d.Resists4x) + len(d.ImmuneTo)
		out.Profiles[name] = MemberProfile{
			Types:      p.Identity.Types,
			Roles:      p.Tiers.Roles,
			SpeedTier:  p.Tiers.SpeedTier,
			Offense:    p.Offense,
			Defense:    d,
			Vulnerable: Vulnerability{Weaknesses: weak, Resistances: res, Net: res - weak},
		}
	}

	for t, members := range out.OffenseAnalysis.CoverageMap {
		if len(members) > 1 {
			out.OffenseAnalysis.CoverageRedundancy[t] = len(members)
		}
	}
	for t, n := range weakCount {
		if n > 1 {
			out.DefenseAnalysis.SharedWeaknesses[t] = n
		}
	}

	out.OffenseAnalysis.CoverageGaps = []types.Type{}
	out.DefenseAnalysis.CoverageGaps = []types.Type{}
	out.DefenseAnalysis.CriticalWeaknesses = []types.Type{}
	for _, t := range types.AllTypes() {
		if len(out.OffenseAnalysis.CoverageMap[t]) == 0 {
			out.OffenseAnalysis.CoverageGaps = append(out.OffenseAnalysis.CoverageGaps, t)
		}
		if !resisted[t] {
			out.DefenseAnalysis.CoverageGaps = append(out.DefenseAnalysis.CoverageGaps, t)
		}
		if len(members) > 0 && weakCount[t]*2 >= len(members) {
			out.DefenseAnalysis.CriticalWeaknesses = append(out.DefenseAnalysis.CriticalWeaknesses, t)
		}
	}
	sort.SliceStable(out.DefenseAnalysis.CriticalWeaknesses, func(i, j int) bool {
		ci := weakCount[out.DefenseAnalysis.CriticalWeaknesses[i]]
		cj := weakCount[out.DefenseAnalysis.CriticalWeaknesses[j]]
		return ci > cj
	})

	out.StatSummary = summarizeStats(members)
	return out
}

func summarizeStats(members []*types.CreatureProfile) *StatSummary {
	if len(members) == 0 {
		return nil
	}
	bst := make(stats.Float64Data, len(members))
	speed := make(stats.Float64Data, len(members))
	for i, p := range members {
		bst[i] = float64(p.BaseStats.Total())
		speed[i] = float64(p.BaseStats.Speed)
	}
	// errors are only returned for empty input, ruled out above
	var s StatSummary
	s.MeanBST, _ = bst.Mean()
	s.MedianBST, _ = bst.Median()
	s.MaxBST, _ = bst.Max()
	s.MeanSpeed, _ = speed.Mean()
	s.MedianSpeed, _ = speed.Median()
	s.MaxSpeed, _ = speed.Max()
	return &s
}
