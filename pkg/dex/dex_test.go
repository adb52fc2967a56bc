package dex_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/dex/dextest"
	"github.com/cpunion/dexbot/pkg/types"
)

func TestLookupReportsEveryName(t *testing.T) {
	ctx := context.Background()
	got, err := dex.Lookup(ctx, dextest.Store(), []string{" Pikachu ", "missingno"}, dex.LookupOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	pika := got["pikachu"]
	require.True(t, pika.Found())
	require.NotNil(t, pika.Summary)
	assert.Equal(t, []types.Type{types.Electric}, pika.Summary.Types)
	assert.Nil(t, pika.Battle, "summary is the default group")

	miss := got["missingno"]
	assert.False(t, miss.Found())
	assert.Equal(t, "Pokemon not found", miss.Error)
	assert.True(t, errors.Is(miss.Err, dex.ErrNotFound))
	var nf *dex.NotFoundError
	require.True(t, errors.As(miss.Err, &nf))
	assert.Equal(t, "missingno", nf.Name)
}

func TestLookupGroupsAndVersion(t *testing.T) {
	ctx := context.Background()
	opts := dex.LookupOptions{
		Groups:      []dex.Group{dex.GroupBattle, dex.GroupMoves, dex.GroupEcology},
		GameVersion: "Scarlet",
	}
	got, err := dex.Lookup(ctx, dextest.Store(), []string{"garchomp"}, opts)
	require.NoError(t, err)
	e := got["garchomp"]
	require.NotNil(t, e.Battle)
	assert.Equal(t, 600, e.Battle.BaseStats.Total())
	assert.Nil(t, e.Summary)

	// "scarlet" is not a version group key, so the moves map narrows to nothing
	assert.Empty(t, e.Moves)
	require.NotNil(t, e.Ecology)
	assert.Equal(t, "Unknown", e.Ecology.Habitat)
	assert.Equal(t, map[string][]string{"scarlet": {"south-province-area-one"}}, e.Ecology.EncounterLocations)

	opts.GameVersion = "Scarlet Violet"
	got, err = dex.Lookup(ctx, dextest.Store(), []string{"garchomp"}, opts)
	require.NoError(t, err)
	require.Contains(t, got["garchomp"].Moves, dextest.Version)
	assert.Len(t, got["garchomp"].Moves, 1)
}

func TestParseGroup(t *testing.T) {
	g, ok := dex.ParseGroup("battle")
	require.True(t, ok)
	assert.Equal(t, dex.GroupBattle, g)
	g, ok = dex.ParseGroup(" Lore ")
	require.True(t, ok)
	assert.Equal(t, dex.GroupLore, g)
	_, ok = dex.ParseGroup("stats")
	assert.False(t, ok)
}

func TestMemoryStoreBulkOrder(t *testing.T) {
	all, err := dextest.Store().Bulk(context.Background())
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Identity.ID, all[i].Identity.ID)
	}
}

func TestDecodeRosterDerivesFields(t *testing.T) {
	const roster = `[{"identity":{"id":1,"name":"Bulbasaur","types":["grass","poison"]},
		"base_stats":{"hp":45,"attack":49,"defense":49,"special-attack":65,"special-defense":65,"speed":45}}]`
	ps, err := dex.DecodeRoster(strings.NewReader(roster), nil)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "bulbasaur", ps[0].Identity.Name)
	assert.Equal(t, "low", ps[0].Tiers.BSTTier)
	assert.Contains(t, ps[0].Defense.WeakTo2x, types.Psychic)

	_, err = dex.DecodeRoster(strings.NewReader(`[{"identity":{"id":2,"name":"x","types":["shadow"]}}]`), nil)
	require.Error(t, err)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := dex.OpenSQLStore(":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	want := dextest.Profiles()
	require.NoError(t, s.Import(ctx, want))
	// re-import is an upsert
	require.NoError(t, s.Import(ctx, want[:2]))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)

	got, err := s.Get(ctx, "Skarmory")
	require.NoError(t, err)
	var skarmory *types.CreatureProfile
	for _, p := range want {
		if p.Key() == "skarmory" {
			skarmory = p
		}
	}
	if diff := cmp.Diff(skarmory, got); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Get(ctx, "missingno")
	assert.True(t, errors.Is(err, dex.ErrNotFound))

	all, err := s.Bulk(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(want))
	assert.Equal(t, "bulbasaur", all[0].Key())
	assert.Equal(t, "ferrothorn", all[len(all)-1].Key())

	entries, err := dex.Lookup(ctx, s, []string{"mew"}, dex.LookupOptions{})
	require.NoError(t, err)
	assert.True(t, entries["mew"].Summary.IsMythical)
}

func TestLookupEvolutionGroup(t *testing.T) {
	ctx := context.Background()
	got, err := dex.Lookup(ctx, dextest.Store(), []string{"Pikachu", "bulbasaur", "charizard"},
		dex.LookupOptions{Groups: []dex.Group{dex.GroupEvolution}})
	require.NoError(t, err)

	pika := got["pikachu"].Evolution
	require.NotNil(t, pika)
	assert.Nil(t, got["pikachu"].Summary)
	assert.Equal(t, "pichu", pika.EvolvesFrom)
	assert.Equal(t, []string{"pichu", "pikachu", "raichu"}, pika.Line)
	assert.Equal(t, []types.EvolutionEdge{{From: "pikachu", To: "raichu", Condition: "use-item (thunder-stone)"}}, pika.Next)
	assert.Len(t, pika.Paths, 2)

	bulba := got["bulbasaur"].Evolution
	require.NotNil(t, bulba)
	assert.Empty(t, bulba.EvolvesFrom)
	assert.Equal(t, []string{"bulbasaur", "ivysaur", "venusaur"}, bulba.Line)
	require.Len(t, bulba.Next, 1)
	assert.Equal(t, "ivysaur", bulba.Next[0].To)

	// Single-stage species form a line of one.
	zard := got["charizard"].Evolution
	require.NotNil(t, zard)
	assert.Equal(t, []string{"charizard"}, zard.Line)
	assert.Empty(t, zard.Next)

	g, ok := dex.ParseGroup(" Evolution ")
	assert.True(t, ok)
	assert.Equal(t, dex.GroupEvolution, g)
}

func TestEvolutionLine(t *testing.T) {
	ev := types.Evolution{Paths: []types.EvolutionEdge{
		{From: "eevee", To: "vaporeon", Condition: "use-item (water-stone)"},
		{From: "eevee", To: "jolteon", Condition: "use-item (thunder-stone)"},
		{From: "eevee", To: "flareon", Condition: "use-item (fire-stone)"},
	}}
	assert.Equal(t, []string{"eevee", "vaporeon", "jolteon", "flareon"}, dex.EvolutionLine(ev))
	assert.Len(t, dex.NextEvolutions(ev, "Eevee"), 3)
	assert.Empty(t, dex.NextEvolutions(ev, "vaporeon"))

	cyclic := types.Evolution{Paths: []types.EvolutionEdge{{From: "a", To: "b"}, {From: "b", To: "a"}}}
	assert.Equal(t, []string{"a", "b"}, dex.EvolutionLine(cyclic))
	assert.Empty(t, dex.EvolutionLine(types.Evolution{}))
}
