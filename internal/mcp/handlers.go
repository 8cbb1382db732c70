package mcp

import (
	"bytes"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// successResult renders a remote payload as pretty JSON text. Object payloads
// are also attached as structured content.
func successResult(payload json.RawMessage) *mcp.CallToolResult {
	text := string(payload)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err == nil {
		text = pretty.String()
	}
	if len(payload) == 0 {
		text = "null"
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}

	var object map[string]any
	if json.Unmarshal(payload, &object) == nil && object != nil {
		result.StructuredContent = object
	}
	return result
}
