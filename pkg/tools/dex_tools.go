// Package tools provides ADK-compatible tools for creature research agents.
package tools

import (
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/search"
	"github.com/cpunion/dexbot/pkg/team"
	"github.com/cpunion/dexbot/pkg/types"
)

// Tool names exposed to execution agents.
const (
	GetCreatureProfilesName = "get_creature_profiles"
	SearchCreaturesName     = "search_creatures"
	AnalyseTeamName         = "analyse_team"
)

// DexToolset provides roster lookup, search and team analysis tools.
type DexToolset struct {
	store  dex.Store
	search *search.Engine
	team   *team.Analyzer
	logger *zap.Logger
}

// NewDexToolset creates a toolset over store. searchOpts configure the
// engine behind search_creatures.
func NewDexToolset(store dex.Store, logger *zap.Logger, searchOpts ...search.Option) *DexToolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DexToolset{
		store:  store,
		search: search.NewEngine(store, logger, searchOpts...),
		team:   team.New(store, logger),
		logger: logger,
	}
}

// --- Get Creature Profiles Tool ---

// GetCreatureProfilesInput is the input.
type GetCreatureProfilesInput struct {
	Names []string `json:"names"`
	// One or more of: summary, battle_profile, moves, ecology, lore, evolution. Defaults to summary.
	DataGroups []string `json:"data_groups,omitempty"`
	// Version group such as "scarlet-violet"; narrows moves and encounter locations.
	GameVersion string `json:"game_version,omitempty"`
}

// GetCreatureProfilesOutput is the output.
type GetCreatureProfilesOutput struct {
	Profiles map[string]dex.LookupEntry `json:"profiles"`
	NotFound []string                   `json:"not_found,omitempty"`
}

// GetCreatureProfiles runs the lookup behind the tool.
func (ts *DexToolset) GetCreatureProfiles(ctx tool.Context, input GetCreatureProfilesInput) (GetCreatureProfilesOutput, error) {
	if len(input.Names) == 0 {
		return GetCreatureProfilesOutput{}, fmt.Errorf("names is required")
	}
	opts := dex.LookupOptions{GameVersion: input.GameVersion}
	for _, g := range input.DataGroups {
		group, ok := dex.ParseGroup(g)
		if !ok {
			continue
		}
		opts.Groups = append(opts.Groups, group)
	}

	entries, err := dex.Lookup(ctx, ts.store, input.Names, opts)
	if err != nil {
		return GetCreatureProfilesOutput{}, err
	}
	out := GetCreatureProfilesOutput{Profiles: entries}
	for _, name := range input.Names {
		key := types.NormalizeName(name)
		if e, ok := entries[key]; ok && !e.Found() {
			out.NotFound = append(out.NotFound, key)
		}
	}
	return out, nil
}

// GetCreatureProfilesTool creates the profile lookup tool.
func (ts *DexToolset) GetCreatureProfilesTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: GetCreatureProfilesName,
		Description: "Get details on creatures you already know by name. " +
			"Choose data_groups (summary, battle_profile, moves, ecology, lore, evolution) and optionally a game_version.",
	}, ts.GetCreatureProfiles)
}

// --- Search Creatures Tool ---

// SearchCreaturesOutput is the output.
type SearchCreaturesOutput struct {
	Results []search.Summary `json:"results"`
	Count   int              `json:"count"`
	Table   string           `json:"table"`
}

// SearchCreatures runs the search behind the tool.
func (ts *DexToolset) SearchCreatures(ctx tool.Context, input search.Criteria) (SearchCreaturesOutput, error) {
	rows, err := ts.search.Search(ctx, input)
	if err != nil {
		return SearchCreaturesOutput{}, err
	}
	return SearchCreaturesOutput{Results: rows, Count: len(rows), Table: search.FormatTable(rows)}, nil
}

// SearchCreaturesTool creates the search tool.
func (ts *DexToolset) SearchCreaturesTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: SearchCreaturesName,
		Description: "Find creatures by criteria when you do not have names: types, roles " +
			"(physical-wall, fast-special-sweeper, ...), speed/attack/defense/base stat tiers, " +
			"required resistances or immunities, excluded weaknesses, strategic tags (needs game_version), " +
			"legendary/mythical/baby flags, shape, color and habitat. Returns at most 100 rows.",
	}, ts.SearchCreatures)
}

// --- Analyse Team Tool ---

// AnalyseTeamInput is the input.
type AnalyseTeamInput struct {
	Names []string `json:"names"`
}

// AnalyseTeamOutput is the output.
type AnalyseTeamOutput struct {
	Analysis *team.Analysis `json:"analysis"`
}

// AnalyseTeam runs the team analysis behind the tool.
func (ts *DexToolset) AnalyseTeam(ctx tool.Context, input AnalyseTeamInput) (AnalyseTeamOutput, error) {
	a, err := ts.team.Analyze(ctx, input.Names)
	if err != nil {
		return AnalyseTeamOutput{}, err
	}
	return AnalyseTeamOutput{Analysis: a}, nil
}

// AnalyseTeamTool creates the team analysis tool.
func (ts *DexToolset) AnalyseTeamTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: AnalyseTeamName,
		Description: "Analyse how a team of creatures works together: offensive coverage and gaps, " +
			"shared weaknesses, top threats and resistances.",
	}, ts.AnalyseTeam)
}

// AllTools returns all dex tools.
func (ts *DexToolset) AllTools() ([]tool.Tool, error) {
	profilesTool, err := ts.GetCreatureProfilesTool()
	if err != nil {
		return nil, err
	}

	searchTool, err := ts.SearchCreaturesTool()
	if err != nil {
		return nil, err
	}

	teamTool, err := ts.AnalyseTeamTool()
	if err != nil {
		return nil, err
	}

	return []tool.Tool{
		profilesTool,
		searchTool,
		teamTool,
	}, nil
}
