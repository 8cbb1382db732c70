package mcp

import (
	"context"
	"encoding/json"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// VersionToolName is the name of the built-in connectivity check tool.
const VersionToolName = "get_version"

type versionInfo struct {
	common.BuildInfo
	Tools int `json:"tools"`
}

// VersionTool returns the mcp.Tool definition for get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool(VersionToolName,
		mcp.WithDescription("Get GenVR MCP server version and the number of generation tools. Use this to verify connectivity."),
	)
}

// VersionToolHandler reports build info and the registry size.
func VersionToolHandler(reg *Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(versionInfo{
			BuildInfo: common.Info(),
			Tools:     reg.Len(),
		})
		if err != nil {
			return errorResult("failed to marshal version info"), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(out))},
		}, nil
	}
}
