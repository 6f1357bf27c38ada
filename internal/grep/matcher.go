package grep

import (
	"fmt"
	"regexp"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// compilePattern builds the regular expression for a query. Literal
// patterns are quoted, word matching adds \b boundaries and multiline
// queries let ^ and $ match at line breaks.
func compilePattern(q searchtypes.TextSearchQuery) (*regexp.Regexp, error) {
	if q.Pattern == "" {
		return nil, tserrors.NewSearchError(tserrors.CodeInvalidLiteral, q.Pattern, fmt.Errorf("empty search pattern"))
	}

	pattern := q.Pattern
	if !q.IsRegExp {
		pattern = regexp.QuoteMeta(pattern)
	}
	if q.IsWordMatch {
		pattern = `\b(?:` + pattern + `)\b`
	}

	flags := ""
	if q.IsMultiline {
		flags += "m"
	}
	if !q.IsCaseSensitive {
		flags += "i"
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, tserrors.NewSearchError(tserrors.CodeRegexParseError, q.Pattern, err)
	}
	return re, nil
}
