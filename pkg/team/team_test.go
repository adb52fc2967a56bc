package team

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dexbot/pkg/dex/dextest"
	"github.com/cpunion/dexbot/pkg/matchup"
	"github.com/cpunion/dexbot/pkg/types"
)

func TestAnalyzeDefense(t *testing.T) {
	a := New(dextest.Store(), nil)
	got, err := a.Analyze(context.Background(), []string{"charizard", "gyarados"})
	require.NoError(t, err)

	d := got.DefenseAnalysis
	assert.Equal(t, map[types.Type]int{types.Rock: 2, types.Electric: 2}, d.SharedWeaknesses)
	assert.Equal(t, map[types.Type]float64{types.Rock: 4, types.Electric: 4, types.Water: 2}, d.TopThreats)
	assert.Equal(t, []types.Type{
		types.Normal, types.Electric, types.Ice, types.Poison, types.Flying,
		types.Psychic, types.Rock, types.Ghost, types.Dragon, types.Dark,
	}, d.CoverageGaps)
	assert.Equal(t, 2, d.ResistancesSummary[types.Ground])
	assert.Equal(t, 1, d.ResistancesSummary[types.Grass])
	assert.Equal(t, []types.Type{types.Electric, types.Rock, types.Water}, d.CriticalWeaknesses)
}

func TestAnalyzeOffenseAndSummary(t *testing.T) {
	a := New(dextest.Store(), nil)
	got, err := a.Analyze(context.Background(), []string{"charizard", "gyarados"})
	require.NoError(t, err)

	o := got.OffenseAnalysis
	assert.Equal(t, []string{"charizard", "gyarados"}, o.CoverageMap[types.Grass])
	assert.Equal(t, []string{"gyarados"}, o.CoverageMap[types.Rock])
	assert.Equal(t, map[types.Type]int{types.Grass: 2, types.Bug: 2, types.Fighting: 2}, o.CoverageRedundancy)
	for _, gap := range o.CoverageGaps {
		assert.Empty(t, o.CoverageMap[gap])
	}
	assert.NotContains(t, o.CoverageGaps, types.Steel)

	s := got.TeamSummary
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, map[types.Type]int{types.Fire: 1, types.Flying: 2, types.Water: 1}, s.Types)
	assert.Equal(t, map[string]int{matchup.SpeedFast: 1, matchup.SpeedMedium: 1}, s.SpeedDistribution)
	assert.Equal(t, map[string]int{
		matchup.RoleFastSpecialSweeper: 1,
		matchup.RoleOffensivePivot:     1,
		matchup.RoleSpecialWall:        1,
	}, s.RoleDistribution)

	require.NotNil(t, got.StatSummary)
	want := StatSummary{MeanBST: 537, MedianBST: 537, MaxBST: 540, MeanSpeed: 90.5, MedianSpeed: 90.5, MaxSpeed: 100}
	if diff := cmp.Diff(want, *got.StatSummary); diff != "" {
		t.Fatalf("stat summary mismatch (-want +got):\n%s", diff)
	}

	v := got.Profiles["gyarados"].Vulnerable
	assert.Equal(t, 2, v.Weaknesses)
	assert.Equal(t, v.Resistances-v.Weaknesses, v.Net)
}

func TestDuplicatesCountTwice(t *testing.T) {
	a := New(dextest.Store(), nil)
	got, err := a.Analyze(context.Background(), []string{"charizard", "Charizard"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.TeamSummary.Size)
	assert.Equal(t, 2, got.TeamSummary.Types[types.Fire])
	assert.Equal(t, 2, got.DefenseAnalysis.SharedWeaknesses[types.Water])
	assert.Equal(t, 2, got.OffenseAnalysis.CoverageRedundancy[types.Grass])
	assert.Len(t, got.Profiles, 1)
}

func TestMissingMembersAreReported(t *testing.T) {
	a := New(dextest.Store(), nil)
	got, err := a.Analyze(context.Background(), []string{"charizard", "MissingNo", "gyarados"})
	require.NoError(t, err)
	assert.Equal(t, []string{"missingno"}, got.Missing)
	assert.Equal(t, 2, got.TeamSummary.Size)

	got, err = a.Analyze(context.Background(), []string{"missingno"})
	require.NoError(t, err)
	assert.Zero(t, got.TeamSummary.Size)
	assert.Nil(t, got.StatSummary)
	assert.Len(t, got.OffenseAnalysis.CoverageGaps, len(types.AllTypes()))
	assert.Empty(t, got.DefenseAnalysis.CriticalWeaknesses)

	_, err = a.Analyze(context.Background(), nil)
	require.Error(t, err)
}
