package pathutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{"simple relative path", "/home/user/project/src/main.go", "/home/user/project", "src/main.go"},
		{"nested relative path", "/home/user/project/internal/search/manager.go", "/home/user/project", "internal/search/manager.go"},
		{"root level file", "/home/user/project/README.md", "/home/user/project", "README.md"},
		{"same directory", "/home/user/project", "/home/user/project", "."},
		{"unclean root", "/home/user/project/a.go", "/home/user/project/", "a.go"},
		{"already relative path", "src/main.go", "/home/user/project", "src/main.go"},
		{"outside root", "/other/location/file.go", "/home/user/project", "/other/location/file.go"},
		{"sibling with dotted name", "/home/user/..project/a.go", "/home/user", "..project/a.go"},
		{"empty root directory", "/home/user/project/file.go", "", "/home/user/project/file.go"},
		{"empty absolute path", "", "/home/user/project", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRelative(filepath.FromSlash(tt.absPath), filepath.FromSlash(tt.rootDir))
			assert.Equal(t, tt.expected, filepath.ToSlash(got))
		})
	}
}

func TestToRelativeAny(t *testing.T) {
	roots := []string{"/work/api", "/work/web"}

	assert.Equal(t, "main.go", ToRelativeAny("/work/api/main.go", roots))
	assert.Equal(t, filepath.FromSlash("src/app.ts"), ToRelativeAny("/work/web/src/app.ts", roots))
	assert.Equal(t, "/work/docs/a.md", ToRelativeAny("/work/docs/a.md", roots))
	assert.Equal(t, "/work/api/main.go", ToRelativeAny("/work/api/main.go", nil))
}

func TestToRelativeFileMatches(t *testing.T) {
	ranges := searchtypes.SingleRange(searchtypes.OneLineRange(3, 0, 4))
	input := []searchtypes.FileMatch{
		{
			Path: "/home/user/project/src/main.go",
			Results: []searchtypes.Result{
				searchtypes.NewMatch("", ranges, searchtypes.Preview{Text: "func main", Matches: ranges}),
			},
		},
		{Path: "/home/user/other/x.go"},
	}

	got := ToRelativeFileMatches(input, "/home/user/project")
	require.Len(t, got, 2)
	assert.Equal(t, filepath.FromSlash("src/main.go"), got[0].Path)
	assert.Equal(t, input[0].Results, got[0].Results)
	assert.Equal(t, "/home/user/other/x.go", got[1].Path)

	assert.Equal(t, "/home/user/project/src/main.go", input[0].Path, "input is not modified")
	assert.Empty(t, ToRelativeFileMatches(nil, "/home/user/project"))
}
