package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestMergeConfigs_ExclusionsMerge(t *testing.T) {
	base := &Config{
		Exclude: glob.Expression{
			"**/node_modules": glob.Bool(true),
			"**/vendor":       glob.Bool(true),
		},
	}
	project := &Config{
		Exclude: glob.Expression{
			"**/dist":   glob.Bool(true),
			"**/vendor": glob.Bool(false),
		},
	}

	merged := mergeConfigs(base, project)

	assert.Equal(t, glob.Expression{
		"**/node_modules": glob.Bool(true),
		"**/vendor":       glob.Bool(false),
		"**/dist":         glob.Bool(true),
	}, merged.Exclude, "project entries win on the same pattern")
}

func TestMergeConfigs_IncludeOverride(t *testing.T) {
	base := &Config{Include: glob.Expression{"docs/**": glob.Bool(true)}}

	merged := mergeConfigs(base, &Config{Include: glob.Expression{"src/**": glob.Bool(true)}})
	assert.Equal(t, glob.Expression{"src/**": glob.Bool(true)}, merged.Include)

	merged = mergeConfigs(base, &Config{})
	assert.Equal(t, base.Include, merged.Include, "a project without includes inherits the global ones")
}

func TestLoadWithRoot(t *testing.T) {
	home := t.TempDir()
	root := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadWithRoot(root)
		require.NoError(t, err)
		assert.Equal(t, root, cfg.Project.Root)
		assert.Equal(t, DefaultMaxResults, cfg.Search.MaxResults)
	})

	writeFile(t, filepath.Join(home, FileName), `
search {
    max_results 10
}
exclude "**/global-only"
`)

	t.Run("global only", func(t *testing.T) {
		cfg, err := LoadWithRoot(root)
		require.NoError(t, err)
		assert.Equal(t, root, cfg.Project.Root, "the global file never moves the root")
		assert.Equal(t, 10, cfg.Search.MaxResults)
		assert.Contains(t, cfg.Exclude, "**/global-only")
	})

	writeFile(t, filepath.Join(root, FileName), `
search {
    max_results 20
}
exclude "**/project-only"
`)

	t.Run("project over global", func(t *testing.T) {
		cfg, err := LoadWithRoot(root)
		require.NoError(t, err)
		assert.Equal(t, root, cfg.Project.Root)
		assert.Equal(t, 20, cfg.Search.MaxResults)
		assert.Contains(t, cfg.Exclude, "**/global-only")
		assert.Contains(t, cfg.Exclude, "**/project-only")
	})

	writeFile(t, filepath.Join(root, FileName), "search {\n    max_file_size \"huge\"\n}\n")

	t.Run("invalid project file", func(t *testing.T) {
		_, err := LoadWithRoot(root)
		assert.Error(t, err)
	})
}

func TestEnrichExclusionsWithBuildArtifacts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"compilerOptions": {"outDir": "./out"}}`)

	cfg := Default(root)
	cfg.Exclude = glob.Expression{"**/out": glob.Bool(false)}
	cfg.EnrichExclusionsWithBuildArtifacts()
	assert.Equal(t, glob.Bool(false), cfg.Exclude["**/out"], "configured patterns keep their clause")

	cfg.Exclude = nil
	cfg.EnrichExclusionsWithBuildArtifacts()
	assert.Equal(t, glob.Expression{"**/out": glob.Bool(true)}, cfg.Exclude)
}

func TestBuildQuery(t *testing.T) {
	root := filepath.FromSlash("/work/project")
	cfg := Default(root)
	cfg.Include = glob.Expression{"src/**": glob.Bool(true)}
	cfg.Search.MaxResults = 100
	cfg.Search.BeforeContext = 2
	cfg.Search.Encoding = "latin1"
	cfg.IgnoreFiles.UseGlobal = false
	cfg.Search.FollowSymlinks = false

	pattern := searchtypes.PatternInfo{Pattern: "needle", IsCaseSensitive: true}
	q := cfg.BuildQuery(pattern, []string{"pkg", filepath.FromSlash("/other/../abs")})

	assert.Equal(t, pattern, q.ContentPattern)
	assert.Equal(t, cfg.Include, q.IncludePattern)
	assert.Equal(t, cfg.Exclude, q.ExcludePattern)
	require.NotNil(t, q.MaxResults)
	assert.Equal(t, 100, *q.MaxResults)
	assert.Equal(t, 2, q.BeforeContext)
	assert.Equal(t, &searchtypes.PreviewOptions{MatchLines: 1, CharsPerLine: DefaultCharsPerLine}, q.PreviewOptions)

	require.Len(t, q.FolderQueries, 2)
	fq := q.FolderQueries[0]
	assert.Equal(t, filepath.Join(root, "pkg"), fq.Folder)
	assert.Equal(t, "pkg", fq.FolderName)
	assert.Equal(t, "latin1", fq.FileEncoding)
	assert.False(t, fq.DisregardIgnoreFiles)
	assert.True(t, fq.DisregardGlobalIgnoreFiles)
	assert.True(t, fq.IgnoreSymlinks)
	assert.Equal(t, filepath.FromSlash("/abs"), q.FolderQueries[1].Folder)
}

func TestBuildQuery_Defaults(t *testing.T) {
	cfg := Default("/work")
	cfg.Search.MaxResults = 0
	cfg.Search.Preview.MatchLines = 0

	q := cfg.BuildQuery(searchtypes.PatternInfo{Pattern: "x"}, nil)
	assert.Nil(t, q.MaxResults, "zero means unlimited")
	assert.Nil(t, q.PreviewOptions)
	require.Len(t, q.FolderQueries, 1)
	assert.Equal(t, filepath.Clean("/work"), q.FolderQueries[0].Folder)
}
