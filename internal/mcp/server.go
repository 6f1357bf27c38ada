// Package mcp exposes the text search over the Model Context Protocol
package mcp

import (
	"context"
	"fmt"
	"runtime"
	rtdebug "runtime/debug"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/textsearch/internal/config"
	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/search"
	"github.com/standardbeagle/textsearch/internal/version"
)

// ToolTextSearch is the name of the search tool
const ToolTextSearch = "text_search"

// Server serves text_search over MCP. Each call runs its own search.
type Server struct {
	cfg       *config.Config
	provider  search.Provider
	fileUtils search.FileUtils
	server    *mcp.Server
}

// NewServer creates a server searching with provider under cfg's defaults
func NewServer(cfg *config.Config, provider search.Provider) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	s := &Server{
		cfg:       cfg,
		provider:  provider,
		fileUtils: search.OSFileUtils{},
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "textsearch",
		Version: version.Version,
	}, nil)
	s.registerTools()

	debug.LogMCP("MCP server initialized for %s", cfg.Project.Root)
	return s, nil
}

func (s *Server) registerTools() {
	stringList := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Type:        "array",
			Items:       &jsonschema.Schema{Type: "string"},
			Description: desc,
		}
	}

	s.server.AddTool(&mcp.Tool{
		Name:        ToolTextSearch,
		Description: "Search file contents under one or more folders, like grep or rg. Honors .gitignore, skips binary files and answers with the matching lines grouped per file plus a completion saying whether the result limit was hit.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"pattern": {
					Type:        "string",
					Description: "Text to search for. Literal unless is_regex is true.",
				},
				"folders": stringList("Folders to search, absolute or relative to the project root. Defaults to the project root."),
				"is_regex": {
					Type:        "boolean",
					Description: "Treat pattern as a regular expression (RE2 syntax)",
				},
				"case_sensitive": {
					Type:        "boolean",
					Description: "Match case exactly. Searches ignore case by default.",
				},
				"word_match": {
					Type:        "boolean",
					Description: "Only match whole words",
				},
				"multiline": {
					Type:        "boolean",
					Description: "Let a regex match span lines",
				},
				"include": stringList("Glob patterns a file must match, relative to its folder (e.g. \"src/**/*.go\"). Replaces the configured includes."),
				"exclude": stringList("Glob patterns to skip, relative to the folder (e.g. \"**/testdata\"). Added to the configured excludes."),
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of matches to return",
				},
				"before_context": {
					Type:        "integer",
					Description: "Lines of context before each match",
				},
				"after_context": {
					Type:        "integer",
					Description: "Lines of context after each match",
				},
				"encoding": {
					Type:        "string",
					Description: "File encoding, e.g. utf8, utf16le, shiftjis, windows1252",
				},
			},
			Required: []string{"pattern"},
		},
	}, s.handleTextSearch)
}

// recoverFromPanic turns a panic in a handler into an error response
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			debug.LogMCP("PANIC RECOVERED in %s: %v\n%s", operation, r, rtdebug.Stack())

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			debug.LogMCP("Memory stats - Alloc: %d KB, Sys: %d KB, NumGC: %d", m.Alloc/1024, m.Sys/1024, m.NumGC)

			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()

	result, err = handler()
	if err != nil {
		debug.LogMCP("Error in %s: %v", operation, err)
		return createSmartErrorResponse(operation, err, map[string]any{
			"operation": operation,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
	return result, nil
}

// Start serves over stdio until ctx is canceled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t, used for in-process clients
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}
