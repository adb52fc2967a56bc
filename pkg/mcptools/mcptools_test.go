package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/dex/dextest"
	"github.com/cpunion/dexbot/pkg/search"
	"github.com/cpunion/dexbot/pkg/types"
)

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestDefinitions(t *testing.T) {
	store := dextest.Store()
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
		props    []string
	}{
		{NewProfilesTool(store).Definition(), "get_creature_profiles", []string{"names"}, []string{"names", "data_groups", "game_version"}},
		{NewSearchTool(store, nil).Definition(), "search_creatures", nil, []string{"include_types", "include_roles", "is_legendary", "limit"}},
		{NewTeamTool(store, nil).Definition(), "analyse_team", []string{"names"}, []string{"names"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.def.Name)
			for _, p := range tt.props {
				assert.Contains(t, tt.def.InputSchema.Properties, p)
			}
			for _, r := range tt.required {
				assert.Contains(t, tt.def.InputSchema.Required, r)
			}
		})
	}
}

func TestProfilesTool(t *testing.T) {
	tool := NewProfilesTool(dextest.Store())

	result := call(t, tool.Handle, map[string]any{
		"names":        []any{"Gyarados", "missingno"},
		"data_groups":  []any{"battle"},
		"game_version": "scarlet-violet",
	})
	require.False(t, result.IsError, resultText(result))

	var entries map[string]dex.LookupEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &entries))
	require.NotNil(t, entries["gyarados"].Battle)
	assert.Equal(t, []types.Type{types.Electric}, entries["gyarados"].Battle.Defense.WeakTo4x)
	assert.Equal(t, "Pokemon not found", entries["missingno"].Error)

	result = call(t, tool.Handle, map[string]any{})
	assert.True(t, result.IsError)
}

func TestSearchTool(t *testing.T) {
	tool := NewSearchTool(dextest.Store(), nil)

	result := call(t, tool.Handle, map[string]any{
		"include_roles": []any{"special-wall"},
		"limit":         2,
	})
	require.False(t, result.IsError, resultText(result))
	text := resultText(result)
	assert.Contains(t, text, "Found 2 creatures")
	assert.Contains(t, text, "gyarados")
	assert.Contains(t, text, "snorlax")
	assert.NotContains(t, text, "mew ")

	result = call(t, tool.Handle, map[string]any{"include_types": []any{"ice"}})
	assert.False(t, result.IsError)
	assert.Equal(t, "No creatures match these criteria.", resultText(result))

	result = call(t, tool.Handle, map[string]any{"speed_tiers": []any{"ludicrous"}})
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(result), "ludicrous")

	result = call(t, tool.Handle, map[string]any{"is_legendary": "yes"})
	assert.True(t, result.IsError)
}

func TestSearchToolDefaultLimit(t *testing.T) {
	tool := NewSearchTool(dextest.Store(), nil, search.WithDefaultLimit(1))
	result := call(t, tool.Handle, map[string]any{"include_types": []any{"fire", "grass"}})
	require.False(t, result.IsError, resultText(result))
	text := resultText(result)
	assert.Contains(t, text, "Found 1 creatures")
	assert.Contains(t, text, "bulbasaur")
	assert.NotContains(t, text, "charizard")
}

func TestTeamTool(t *testing.T) {
	tool := NewTeamTool(dextest.Store(), nil)

	result := call(t, tool.Handle, map[string]any{"names": []any{"charizard", "gyarados"}})
	require.False(t, result.IsError, resultText(result))
	var got struct {
		Defense struct {
			Critical []types.Type `json:"critical_weaknesses"`
		} `json:"defense_analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &got))
	assert.Equal(t, []types.Type{types.Electric, types.Rock, types.Water}, got.Defense.Critical)

	result = call(t, tool.Handle, map[string]any{"names": []any{}})
	assert.True(t, result.IsError)
}

func TestNewServer(t *testing.T) {
	assert.NotNil(t, NewServer(dextest.Store(), "test", nil))
}
