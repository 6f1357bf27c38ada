package mcp

// In-process testing: CallTool invokes a tool handler directly, bypassing
// the stdio transport.
//
//	server, _ := mcp.NewServer(cfg, grep.NewProvider())
//	resultJSON, err := server.CallTool("text_search", map[string]any{
//	    "pattern": "ServeHTTP",
//	})

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool runs a tool and returns its text content. Error responses are
// returned as Go errors carrying the response text.
func (s *Server) CallTool(ctx context.Context, toolName string, params map[string]any) (string, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult
	switch toolName {
	case ToolTextSearch:
		result, err = s.handleTextSearch(ctx, req)
	default:
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}
	if err != nil {
		return "", err
	}

	if result == nil || len(result.Content) == 0 {
		return "", nil
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("unexpected content type %T", result.Content[0])
	}
	if result.IsError {
		return "", fmt.Errorf("MCP error: %s", text.Text)
	}
	return text.Text, nil
}
