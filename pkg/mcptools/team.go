package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/team"
)

// TeamTool handles the analyse_team MCP tool.
type TeamTool struct {
	analyzer *team.Analyzer
}

// NewTeamTool creates a TeamTool.
func NewTeamTool(store dex.Store, logger *zap.Logger) *TeamTool {
	return &TeamTool{analyzer: team.New(store, logger)}
}

// Definition returns the MCP tool definition for analyse_team.
func (t *TeamTool) Definition() mcp.Tool {
	return mcp.NewTool("analyse_team",
		mcp.WithDescription("Analyse how a team works together: coverage and gaps, shared weaknesses, "+
			"top threats and resistances."),
		mcp.WithArray("names",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Team member names; duplicates count once per occurrence"),
		),
	)
}

// Handle processes the analyse_team tool call.
func (t *TeamTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := req.GetStringSlice("names", nil)
	if len(names) == 0 {
		return mcp.NewToolResultError("'names' is required"), nil
	}
	a, err := t.analyzer.Analyze(ctx, names)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("team analysis failed: %v", err)), nil
	}
	return jsonResult(a), nil
}
