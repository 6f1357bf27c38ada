package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/search"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// TextSearchResponse is the text_search result payload
type TextSearchResponse struct {
	Matches      []searchtypes.FileMatch `json:"matches"`
	TotalMatches int                     `json:"total_matches"`
	Completion   searchtypes.Completion  `json:"completion"`
	Warnings     []UnknownField          `json:"warnings,omitempty"`
}

func (s *Server) handleTextSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params TextSearchParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createSmartErrorResponse(ToolTextSearch, fmt.Errorf("invalid parameters: %w", err), map[string]any{
			"correct_format": `{"pattern": "needle", "folders": ["src"], "is_regex": false}`,
		})
	}

	if err := params.Validate(); err != nil {
		return createSmartErrorResponse(ToolTextSearch, err, map[string]any{
			"pattern":  params.Pattern,
			"is_regex": params.IsRegex,
		})
	}

	return s.recoverFromPanic(ToolTextSearch, func() (*mcp.CallToolResult, error) {
		resp, err := s.runSearch(ctx, params)
		if err != nil {
			return createSmartErrorResponse(ToolTextSearch, err, map[string]any{
				"pattern":  params.Pattern,
				"is_regex": params.IsRegex,
			})
		}
		return createJSONResponse(resp)
	})
}

// runSearch answers one tool call. Batches are accumulated in arrival order.
func (s *Server) runSearch(ctx context.Context, params TextSearchParams) (*TextSearchResponse, error) {
	query := s.buildQuery(params)
	debug.LogMCP("text_search %q over %d folder(s)", params.Pattern, len(query.FolderQueries))

	manager := search.NewManager(query, s.provider, s.fileUtils,
		search.WithMaxBatchWeight(s.cfg.Batch.MaxWeight),
		search.WithBatchTimeout(s.cfg.Batch.Timeout()),
	)

	resp := &TextSearchResponse{
		Matches:  []searchtypes.FileMatch{},
		Warnings: params.Warnings,
	}
	completion, err := manager.Search(ctx, func(batch []searchtypes.FileMatch) {
		resp.Matches = append(resp.Matches, batch...)
	})
	if err != nil {
		return nil, err
	}

	resp.Completion = completion
	for _, m := range resp.Matches {
		resp.TotalMatches += m.NumMatches()
	}
	return resp, nil
}

// buildQuery lays the call's arguments over the configured defaults
func (s *Server) buildQuery(params TextSearchParams) searchtypes.Query {
	cfg := *s.cfg
	if params.Include != nil {
		cfg.Include = make(glob.Expression, len(params.Include))
		for _, p := range params.Include {
			cfg.Include[p] = glob.Bool(true)
		}
	}
	if len(params.Exclude) > 0 {
		extra := make(glob.Expression, len(params.Exclude))
		for _, p := range params.Exclude {
			extra[p] = glob.Bool(true)
		}
		cfg.Exclude = glob.Merge(s.cfg.Exclude, extra)
	}
	if params.MaxResults != nil {
		cfg.Search.MaxResults = *params.MaxResults
	}
	if params.BeforeContext > 0 {
		cfg.Search.BeforeContext = params.BeforeContext
	}
	if params.AfterContext > 0 {
		cfg.Search.AfterContext = params.AfterContext
	}
	if params.Encoding != "" {
		cfg.Search.Encoding = params.Encoding
	}

	query := cfg.BuildQuery(searchtypes.PatternInfo{
		Pattern:         params.Pattern,
		IsRegExp:        params.IsRegex,
		IsCaseSensitive: params.CaseSensitive,
		IsWordMatch:     params.WordMatch,
		IsMultiline:     params.Multiline,
	}, params.Folders)

	// an explicit zero is a real budget, not "unlimited"
	if params.MaxResults != nil && *params.MaxResults == 0 {
		query.MaxResults = searchtypes.IntPtr(0)
	}
	return query
}
