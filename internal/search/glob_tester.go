package search

import (
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// Disposition is the outcome of an inclusion test. It is either decided
// immediately or pending on sibling directory listings, in which case
// Resolve may block.
type Disposition struct {
	included bool
	resolve  func() bool
}

// Pending reports whether Resolve may have to list a directory
func (d Disposition) Pending() bool {
	return d.resolve != nil
}

// Resolve returns whether the path is included
func (d Disposition) Resolve() bool {
	if d.resolve != nil {
		return d.resolve()
	}
	return d.included
}

// QueryGlobTester combines a query's global include/exclude expressions with
// one folder's overrides. Folder entries win on key collision. Paths are
// relative to the folder root.
type QueryGlobTester struct {
	excludeExpression glob.Expression
	parsedExclude     glob.ParsedExpression
	parsedInclude     glob.ParsedExpression
	siblingExcludes   bool
}

// NewQueryGlobTester compiles the effective expressions for folderQuery.
// parse defaults to glob.Parse.
func NewQueryGlobTester(query searchtypes.Query, folderQuery searchtypes.FolderQuery, parse glob.ParseFunc) (*QueryGlobTester, error) {
	if parse == nil {
		parse = glob.Parse
	}

	t := &QueryGlobTester{
		excludeExpression: glob.Merge(query.ExcludePattern, folderQuery.ExcludePattern),
	}
	if t.excludeExpression == nil {
		t.excludeExpression = glob.Expression{}
	}
	t.siblingExcludes = glob.HasSiblingClauses(t.excludeExpression)

	var err error
	if t.parsedExclude, err = parse(t.excludeExpression); err != nil {
		return nil, err
	}

	// An empty include expression includes nothing, so only a missing one is skipped
	if include := glob.Merge(query.IncludePattern, folderQuery.IncludePattern); include != nil {
		if t.parsedInclude, err = parse(include); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MatchesExcludesSync reports whether the exclude expression matches.
// hasSibling must not block.
func (t *QueryGlobTester) MatchesExcludesSync(path, basename string, hasSibling glob.SiblingFunc) bool {
	return t.parsedExclude != nil && t.parsedExclude(path, basename, hasSibling)
}

// IncludedInQuerySync reports whether path passes the exclude and include
// expressions. hasSibling must not block.
func (t *QueryGlobTester) IncludedInQuerySync(path, basename string, hasSibling glob.SiblingFunc) bool {
	if t.MatchesExcludesSync(path, basename, hasSibling) {
		return false
	}
	if t.parsedInclude != nil && !t.parsedInclude(path, basename, hasSibling) {
		return false
	}
	return true
}

// IncludedInQuery is IncludedInQuerySync for a hasSibling that may block on
// a directory listing. Without sibling exclude clauses the answer is decided
// at once and hasSibling is never called. Otherwise the disposition is
// pending and inclusion is only tested once exclusion resolves false.
func (t *QueryGlobTester) IncludedInQuery(path, basename string, hasSibling glob.SiblingFunc) Disposition {
	if !t.siblingExcludes {
		return Disposition{included: t.IncludedInQuerySync(path, basename, nil)}
	}
	return Disposition{resolve: func() bool {
		return t.IncludedInQuerySync(path, basename, hasSibling)
	}}
}

// HasSiblingExcludeClauses reports whether IncludedInQuery can return a
// pending disposition.
func (t *QueryGlobTester) HasSiblingExcludeClauses() bool {
	return t.siblingExcludes
}
