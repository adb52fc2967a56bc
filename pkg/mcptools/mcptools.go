// Package mcptools exposes the analysis engine as MCP tools.
//
// Each tool follows the same pattern:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Domain failures are returned as tool error results so the calling model
// can correct its arguments.
package mcptools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/cpunion/dexbot/pkg/dex"
	"github.com/cpunion/dexbot/pkg/search"
)

// ServerName is reported to MCP clients.
const ServerName = "dexbot"

// NewServer registers the analysis tools on a new MCP server.
func NewServer(store dex.Store, version string, logger *zap.Logger, searchOpts ...search.Option) *server.MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	profilesTool := NewProfilesTool(store)
	s.AddTool(profilesTool.Definition(), profilesTool.Handle)

	searchTool := NewSearchTool(store, logger, searchOpts...)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	teamTool := NewTeamTool(store, logger)
	s.AddTool(teamTool.Definition(), teamTool.Handle)

	return s
}

// ServeStdio serves the analysis tools over stdin/stdout until the client
// disconnects.
func ServeStdio(store dex.Store, version string, logger *zap.Logger, searchOpts ...search.Option) error {
	return server.ServeStdio(NewServer(store, version, logger, searchOpts...))
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// decodeArgs converts the raw argument map into a typed struct.
func decodeArgs(req mcp.CallToolRequest, v any) error {
	data, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
