package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
)

// createJSONResponse wraps data as the text content of a tool result
func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse reports err inside the result with IsError set, so the
// calling model sees the failure and can correct its arguments
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	response, marshalErr := createJSONResponse(map[string]any{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

// createSmartErrorResponse is createErrorResponse plus suggestions derived
// from the error and the call's arguments
func createSmartErrorResponse(operation string, err error, context map[string]any) (*mcp.CallToolResult, error) {
	errorData := map[string]any{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	var searchErr *tserrors.SearchError
	if errors.As(err, &searchErr) {
		errorData["code"] = searchErr.Code.String()
	}
	if suggestions := generateErrorSuggestions(err, context); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}
	if len(context) > 0 {
		errorData["context"] = context
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

var regexChars = []string{"|", "+", "*", "?", "^", "$", "[", "]", "{", "}", "(", ")"}

func generateErrorSuggestions(err error, context map[string]any) []string {
	var suggestions []string
	pattern, _ := context["pattern"].(string)
	isRegex, _ := context["is_regex"].(bool)

	var searchErr *tserrors.SearchError
	var fileErr *tserrors.FileError
	switch {
	case err.Error() == "pattern is required":
		suggestions = append(suggestions, "Provide a search pattern like 'func main' or 'TODO'")

	case errors.As(err, &fileErr):
		suggestions = append(suggestions, "Folders are resolved against the project root; pass an absolute path or check the folder exists")

	case errors.As(err, &searchErr):
		switch searchErr.Code {
		case tserrors.CodeRegexParseError:
			suggestions = append(suggestions, "Patterns use RE2 syntax: lookarounds and backreferences are not supported")
			suggestions = append(suggestions, "Set \"is_regex\": false to search for the text literally")
		case tserrors.CodeGlobParseError:
			suggestions = append(suggestions, "Check include/exclude globs for unbalanced brackets or braces")
		case tserrors.CodeUnknownEncoding:
			suggestions = append(suggestions, "Use an encoding name like utf8, utf16le, shiftjis or windows1252")
		case tserrors.CodeCanceled:
			suggestions = append(suggestions, "The search was canceled before it finished. Narrow it with folders or include globs.")
		}
	}

	if pattern != "" && !isRegex {
		for _, char := range regexChars {
			if strings.Contains(pattern, char) {
				suggestions = append(suggestions, fmt.Sprintf("Pattern contains '%s' - add \"is_regex\": true if it is meant as a regular expression", char))
				break
			}
		}
	}
	return suggestions
}

func getOperationHelp(operation string) string {
	helpMap := map[string]string{
		ToolTextSearch: "Searches file contents. Literal by default; set is_regex for RE2 regular expressions. include/exclude take globs relative to each folder.",
	}
	return helpMap[operation]
}
