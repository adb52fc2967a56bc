package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cpunion/dexbot/pkg/dex"
)

// ProfilesTool handles the get_creature_profiles MCP tool.
type ProfilesTool struct {
	store dex.Store
}

// NewProfilesTool creates a ProfilesTool.
func NewProfilesTool(store dex.Store) *ProfilesTool {
	return &ProfilesTool{store: store}
}

// Definition returns the MCP tool definition for get_creature_profiles.
func (t *ProfilesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_creature_profiles",
		mcp.WithDescription("Get details on creatures you already know by name."),
		mcp.WithArray("names",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Creature names to look up"),
		),
		mcp.WithArray("data_groups",
			mcp.WithStringItems(),
			mcp.Description("Sections to return: summary, battle_profile, moves, ecology, lore, evolution (default: summary)"),
		),
		mcp.WithString("game_version",
			mcp.Description("Version group such as scarlet-violet; narrows moves and encounter locations"),
		),
	)
}

// Handle processes the get_creature_profiles tool call.
func (t *ProfilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := req.GetStringSlice("names", nil)
	if len(names) == 0 {
		return mcp.NewToolResultError("'names' is required"), nil
	}

	opts := dex.LookupOptions{GameVersion: req.GetString("game_version", "")}
	for _, g := range req.GetStringSlice("data_groups", nil) {
		if group, ok := dex.ParseGroup(g); ok {
			opts.Groups = append(opts.Groups, group)
		}
	}

	entries, err := dex.Lookup(ctx, t.store, names, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	return jsonResult(entries), nil
}
