package glob

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
)

// SiblingFunc reports whether a file with the given name exists next to the
// path being tested. It may block on a directory listing.
type SiblingFunc func(name string) bool

// ParsedExpression tests a path relative to the search root. basename may be
// empty, in which case it is derived from path. hasSibling may be nil, in
// which case sibling clauses never match.
type ParsedExpression func(path, basename string, hasSibling SiblingFunc) bool

// ParseFunc compiles an expression
type ParseFunc func(Expression) (ParsedExpression, error)

type siblingEntry struct {
	pattern string
	when    string
}

// Parse compiles expr with doublestar semantics. A pattern matches a path
// when it matches the path itself or any of its parent directories, so
// "**/node_modules" excludes everything below a node_modules directory.
// Plain patterns are checked first, then sibling clauses in key order.
func Parse(expr Expression) (ParsedExpression, error) {
	var plain []string
	var siblings []siblingEntry

	for pattern, c := range expr {
		if !doublestar.ValidatePattern(pattern) {
			return nil, tserrors.NewSearchError(tserrors.CodeGlobParseError, pattern, fmt.Errorf("invalid glob pattern"))
		}
		switch {
		case c.IsSibling():
			siblings = append(siblings, siblingEntry{pattern: pattern, when: c.When})
		case c.Enabled:
			plain = append(plain, pattern)
		}
	}
	sort.Strings(plain)
	sort.Slice(siblings, func(i, j int) bool { return siblings[i].pattern < siblings[j].pattern })

	return func(p, basename string, hasSibling SiblingFunc) bool {
		p = filepath.ToSlash(p)
		if basename == "" {
			basename = path.Base(p)
		}

		for _, pattern := range plain {
			if MatchPath(pattern, p) {
				return true
			}
		}

		if hasSibling == nil {
			return false
		}
		for _, s := range siblings {
			if !MatchPath(s.pattern, p) {
				continue
			}
			if hasSibling(SiblingName(s.when, basename)) {
				return true
			}
		}
		return false
	}, nil
}

// MatchPath matches a /-separated relative path, or any of its parent
// directories, against pattern.
func MatchPath(pattern, p string) bool {
	if doublestar.MatchUnvalidated(pattern, p) {
		return true
	}
	for i := len(p) - 1; i > 0; i-- {
		if p[i] == '/' && doublestar.MatchUnvalidated(pattern, p[:i]) {
			return true
		}
	}
	return false
}

// SiblingName expands the first $(basename) in when with basename minus its extension
func SiblingName(when, basename string) string {
	name := strings.TrimSuffix(basename, path.Ext(basename))
	return strings.Replace(when, BasenamePlaceholder, name, 1)
}
