package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

func TestQueryGlobTester_FolderOverridesGlobal(t *testing.T) {
	query := searchtypes.Query{
		ExcludePattern: glob.Expression{"**/*.log": glob.Bool(true), "**/dist": glob.Bool(true)},
	}
	folder := searchtypes.FolderQuery{
		Folder:         "/root",
		ExcludePattern: glob.Expression{"**/dist": glob.Bool(false)},
	}

	tester, err := NewQueryGlobTester(query, folder, nil)
	require.NoError(t, err)

	assert.True(t, tester.MatchesExcludesSync("app.log", "", nil))
	assert.False(t, tester.MatchesExcludesSync("dist/out.js", "", nil), "folder entry disables the global one")
	assert.True(t, tester.IncludedInQuerySync("dist/out.js", "", nil))
	assert.False(t, tester.IncludedInQuerySync("logs/app.log", "", nil))
}

func TestQueryGlobTester_Includes(t *testing.T) {
	t.Run("no include expression includes everything", func(t *testing.T) {
		tester, err := NewQueryGlobTester(searchtypes.Query{}, searchtypes.FolderQuery{Folder: "/r"}, nil)
		require.NoError(t, err)
		assert.True(t, tester.IncludedInQuerySync("any/file.txt", "", nil))
	})

	t.Run("empty include expression includes nothing", func(t *testing.T) {
		tester, err := NewQueryGlobTester(searchtypes.Query{IncludePattern: glob.Expression{}}, searchtypes.FolderQuery{Folder: "/r"}, nil)
		require.NoError(t, err)
		assert.False(t, tester.IncludedInQuerySync("any/file.txt", "", nil))
	})

	t.Run("folder include merges with global", func(t *testing.T) {
		query := searchtypes.Query{IncludePattern: glob.Expression{"src/**": glob.Bool(true)}}
		folder := searchtypes.FolderQuery{Folder: "/r", IncludePattern: glob.Expression{"docs/**": glob.Bool(true)}}
		tester, err := NewQueryGlobTester(query, folder, nil)
		require.NoError(t, err)

		assert.True(t, tester.IncludedInQuerySync("src/a.go", "", nil))
		assert.True(t, tester.IncludedInQuerySync("docs/a.md", "", nil))
		assert.False(t, tester.IncludedInQuerySync("test/a.go", "", nil))
	})

	t.Run("exclusion wins over inclusion", func(t *testing.T) {
		query := searchtypes.Query{
			IncludePattern: glob.Expression{"src/**": glob.Bool(true)},
			ExcludePattern: glob.Expression{"**/*_gen.go": glob.Bool(true)},
		}
		tester, err := NewQueryGlobTester(query, searchtypes.FolderQuery{Folder: "/r"}, nil)
		require.NoError(t, err)
		assert.False(t, tester.IncludedInQuerySync("src/x_gen.go", "", nil))
	})
}

func TestQueryGlobTester_SiblingClauses(t *testing.T) {
	mixed := searchtypes.Query{ExcludePattern: glob.Expression{
		"**/*.js":  glob.Sibling("$(basename).ts"),
		"**/*.log": glob.Bool(true),
	}}
	tester, err := NewQueryGlobTester(mixed, searchtypes.FolderQuery{Folder: "/r"}, nil)
	require.NoError(t, err)
	assert.True(t, tester.HasSiblingExcludeClauses())

	calls := 0
	hasSibling := func(name string) bool {
		calls++
		return name == "app.ts"
	}

	d := tester.IncludedInQuery("src/app.js", "app.js", hasSibling)
	require.True(t, d.Pending())
	assert.Equal(t, 0, calls, "pending dispositions are lazy")
	assert.False(t, d.Resolve())
	assert.Equal(t, 1, calls)

	assert.True(t, tester.IncludedInQuery("src/util.js", "util.js", hasSibling).Resolve())
	assert.False(t, tester.IncludedInQuery("build.log", "build.log", hasSibling).Resolve())

	plain := searchtypes.Query{ExcludePattern: glob.Expression{"**/*.log": glob.Bool(true), "**/tmp": glob.Bool(false)}}
	tester, err = NewQueryGlobTester(plain, searchtypes.FolderQuery{Folder: "/r"}, nil)
	require.NoError(t, err)
	assert.False(t, tester.HasSiblingExcludeClauses())

	d = tester.IncludedInQuery("src/app.js", "app.js", func(string) bool {
		t.Fatal("sibling check must not run without sibling clauses")
		return false
	})
	assert.False(t, d.Pending())
	assert.True(t, d.Resolve())
}

func TestQueryGlobTester_ParseError(t *testing.T) {
	_, err := NewQueryGlobTester(searchtypes.Query{ExcludePattern: glob.Expression{"[": glob.Bool(true)}}, searchtypes.FolderQuery{Folder: "/r"}, nil)
	assert.Error(t, err)
}
