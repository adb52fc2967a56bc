package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/matchup"
	"github.com/cpunion/dexbot/pkg/search"
)

// SearchTool handles the search_creatures MCP tool.
type SearchTool struct {
	engine *search.Engine
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store dex.Store, logger *zap.Logger, opts ...search.Option) *SearchTool {
	return &SearchTool{engine: search.NewEngine(store, logger, opts...)}
}

func stringList(name, desc string) mcp.ToolOption {
	return mcp.WithArray(name, mcp.WithStringItems(), mcp.Description(desc))
}

func roleSlugs() string {
	names := matchup.RoleNames()
	slugs := make([]string, len(names))
	for i, n := range names {
		slugs[i] = matchup.RoleSlug(n)
	}
	return strings.Join(slugs, ", ")
}

// Definition returns the MCP tool definition for search_creatures.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("search_creatures",
		mcp.WithDescription("Find creatures matching every given criterion when you do not have names. "+
			"Lists within one criterion match any of their values."),
		stringList("include_types", "Has at least one of these types"),
		stringList("exclude_types", "Has none of these types"),
		stringList("include_roles", "Battle roles: "+roleSlugs()),
		stringList("speed_tiers", "fast, medium, slow"),
		stringList("attack_focus", "physical, special, balanced"),
		stringList("defense_categories", "bulky, average, fragile"),
		stringList("base_stat_tier", "very_high, high, medium, low, very_low"),
		stringList("strategic_tags", "Move tags such as hazard-setter or pivot; requires game_version"),
		mcp.WithString("game_version", mcp.Description("Version group such as scarlet-violet")),
		stringList("required_resists", "Resists every one of these attacking types"),
		stringList("required_immunities", "Immune to every one of these attacking types"),
		stringList("exclude_weaknesses", "Not weak to any of these attacking types"),
		mcp.WithBoolean("is_legendary", mcp.Description("Legendary status")),
		mcp.WithBoolean("is_mythical", mcp.Description("Mythical status")),
		mcp.WithBoolean("is_baby", mcp.Description("Baby status")),
		stringList("shape", "Body shapes"),
		stringList("color", "Colors"),
		stringList("habitat", "Habitats"),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Max results (default: %d, max: %d)", search.DefaultLimit, search.MaxLimit))),
	)
}

// Handle processes the search_creatures tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var c search.Criteria
	if err := decodeArgs(req, &c); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	rows, err := t.engine.Search(ctx, c)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("No creatures match these criteria."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %d creatures:\n\n%s", len(rows), search.FormatTable(rows))), nil
}
