package grep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeTree creates files under a fresh temp dir from rel path -> content
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

type collected struct {
	mu      sync.Mutex
	results []searchtypes.Result
}

func (c *collected) report(r searchtypes.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// paths returns the distinct reported paths relative to root, sorted
func (c *collected) paths(root string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.results {
		rel, _ := filepath.Rel(root, r.Path)
		rel = filepath.ToSlash(rel)
		if !seen[rel] {
			seen[rel] = true
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out
}

func (c *collected) matchCount() int {
	n := 0
	for _, r := range c.results {
		n += r.Size()
	}
	return n
}

func literal(pattern string) searchtypes.TextSearchQuery {
	return searchtypes.TextSearchQuery{Pattern: pattern}
}

func options(root string) searchtypes.TextSearchOptions {
	return searchtypes.TextSearchOptions{Folder: root, UseIgnoreFiles: true}
}

func run(t *testing.T, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions) (*collected, *searchtypes.Completion) {
	t.Helper()
	c := &collected{}
	p := NewProvider(WithWorkers(1), WithGlobalIgnoreFile(""))
	completion, err := p.ProvideTextSearchResults(context.Background(), query, opts, c.report)
	require.NoError(t, err)
	require.NotNil(t, completion)
	return c, completion
}

func TestProvider_LiteralMatches(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "first line\nNeedle and needle\nlast line\n",
	})

	c, completion := run(t, literal("needle"), options(root))
	assert.False(t, completion.LimitHit)
	require.Len(t, c.results, 1)

	r := c.results[0]
	assert.Equal(t, filepath.Join(root, "a.txt"), r.Path)
	assert.False(t, r.Ranges.Single)
	assert.Equal(t, []searchtypes.Range{
		searchtypes.OneLineRange(1, 0, 6),
		searchtypes.OneLineRange(1, 11, 17),
	}, r.Ranges.Ranges)
	assert.Equal(t, "Needle and needle", r.Preview.Text)
	assert.NoError(t, r.Validate())
}

func TestProvider_CaseSensitiveAndWord(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "Needle\nneedles\nneedle\n",
	})

	c, _ := run(t, searchtypes.TextSearchQuery{Pattern: "needle", IsCaseSensitive: true, IsWordMatch: true}, options(root))
	require.Len(t, c.results, 1)
	assert.Equal(t, searchtypes.OneLineRange(2, 0, 6), c.results[0].Ranges.Ranges[0])
	assert.True(t, c.results[0].Ranges.Single)
}

func TestProvider_RegexAndErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "func main() {}\nfunc helper() {}\n"})

	c, _ := run(t, searchtypes.TextSearchQuery{Pattern: `func \w+\(`, IsRegExp: true}, options(root))
	assert.Len(t, c.results, 2)

	p := NewProvider(WithWorkers(1), WithGlobalIgnoreFile(""))
	_, err := p.ProvideTextSearchResults(context.Background(), searchtypes.TextSearchQuery{Pattern: "(", IsRegExp: true}, options(root), func(searchtypes.Result) {})
	var searchErr *tserrors.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, tserrors.CodeRegexParseError, searchErr.Code)

	_, err = p.ProvideTextSearchResults(context.Background(), literal(""), options(root), func(searchtypes.Result) {})
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, tserrors.CodeInvalidLiteral, searchErr.Code)
}

func TestProvider_UTF16Columns(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "é😀 needle\n"})

	c, _ := run(t, literal("needle"), options(root))
	require.Len(t, c.results, 1)
	assert.Equal(t, searchtypes.OneLineRange(0, 4, 10), c.results[0].Ranges.Ranges[0])
}

func TestProvider_Multiline(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x foo\nbar y\nbaz\n"})

	c, _ := run(t, searchtypes.TextSearchQuery{Pattern: `foo\nbar`, IsRegExp: true, IsMultiline: true}, options(root))
	require.Len(t, c.results, 1)
	r := c.results[0]
	assert.Equal(t, searchtypes.NewRange(0, 2, 1, 3), r.Ranges.Ranges[0])
	assert.Equal(t, "x foo\nbar y", r.Preview.Text)
	assert.Equal(t, searchtypes.NewRange(0, 2, 1, 3), r.Preview.Matches.Ranges[0])
}

func TestProvider_IgnoreFiles(t *testing.T) {
	files := map[string]string{
		".gitignore":       "*.log\nbuild/\n!keep.log\n",
		"src/main.go":      "needle",
		"src/.gitignore":   "gen_*.go\n",
		"src/gen_a.go":     "needle",
		"app.log":          "needle",
		"keep.log":         "needle",
		"build/out.txt":    "needle",
		"docs/build/x.txt": "needle",
	}
	root := writeTree(t, files)

	c, _ := run(t, literal("needle"), options(root))
	assert.Equal(t, []string{"keep.log", "src/main.go"}, c.paths(root))

	opts := options(root)
	opts.UseIgnoreFiles = false
	c, _ = run(t, literal("needle"), opts)
	assert.Len(t, c.paths(root), 6)
}

func TestProvider_GlobalIgnoreFile(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "needle", "b.tmp": "needle"})
	global := filepath.Join(t.TempDir(), "ignore")
	require.NoError(t, os.WriteFile(global, []byte("*.tmp\n"), 0o644))

	opts := options(root)
	opts.UseGlobalIgnoreFiles = true

	c := &collected{}
	_, err := NewProvider(WithWorkers(1), WithGlobalIgnoreFile(global)).ProvideTextSearchResults(context.Background(), literal("needle"), opts, c.report)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, c.paths(root))
}

func TestProvider_IncludesAndExcludes(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.go":          "needle",
		"src/a_test.go":     "needle",
		"src/vendor/v.go":   "needle",
		"docs/readme.md":    "needle",
		"node_modules/x.js": "needle",
	})

	opts := options(root)
	opts.Includes = []string{"src/**", "docs"}
	opts.Excludes = []string{"**/*_test.go", "**/vendor"}

	c, _ := run(t, literal("needle"), opts)
	assert.Equal(t, []string{"docs/readme.md", "src/a.go"}, c.paths(root))
}

func TestProvider_ContextLines(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "zero\none\nneedle\nthree\nfour\nneedle\nsix\nseven\n",
	})

	opts := options(root)
	opts.BeforeContext = 1
	opts.AfterContext = 1
	c, _ := run(t, literal("needle"), opts)

	type line struct {
		match bool
		n     int
	}
	var got []line
	for _, r := range c.results {
		if r.IsMatch() {
			got = append(got, line{true, r.Ranges.Ranges[0].StartLine})
		} else {
			got = append(got, line{false, r.LineNumber})
		}
	}
	assert.Equal(t, []line{
		{false, 1}, {true, 2}, {false, 3}, {false, 4}, {true, 5}, {false, 6},
	}, got)
	assert.Equal(t, "three", c.results[2].Text)
}

func TestProvider_MaxResults(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "needle needle\n",
		"b.txt": "needle needle\n",
		"c.txt": "needle needle\n",
	})

	opts := options(root)
	opts.MaxResults = searchtypes.IntPtr(3)
	c, completion := run(t, literal("needle"), opts)

	assert.True(t, completion.LimitHit)
	assert.Equal(t, 3, c.matchCount())

	opts.MaxResults = searchtypes.IntPtr(6)
	c, completion = run(t, literal("needle"), opts)
	assert.False(t, completion.LimitHit)
	assert.Equal(t, 6, c.matchCount())
}

func TestProvider_SkipsBinaryAndLargeFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"data.bin":  "needle",
		"blob":      "needle\x00\x01\x02",
		"big.txt":   "needle padding padding padding",
		"small.txt": "needle",
	})

	opts := options(root)
	opts.MaxFileSize = 10
	c, _ := run(t, literal("needle"), opts)
	assert.Equal(t, []string{"small.txt"}, c.paths(root))
}

func TestProvider_Encodings(t *testing.T) {
	utf16 := []byte{0xFF, 0xFE}
	for _, r := range "x needle" {
		utf16 = append(utf16, byte(r), 0)
	}
	root := writeTree(t, map[string]string{
		"utf16.txt":  string(utf16),
		"latin1.txt": "caf\xe9 needle",
	})

	c, _ := run(t, literal("needle"), options(root))
	var utf16Result *searchtypes.Result
	for i := range c.results {
		if filepath.Base(c.results[i].Path) == "utf16.txt" {
			utf16Result = &c.results[i]
		}
	}
	require.NotNil(t, utf16Result, "a UTF-16 file with a byte order mark is text")
	assert.Equal(t, searchtypes.OneLineRange(0, 2, 8), utf16Result.Ranges.Ranges[0])

	opts := options(root)
	opts.Includes = []string{"latin1.txt"}
	opts.Encoding = "windows1252"
	c, _ = run(t, literal("needle"), opts)
	require.Len(t, c.results, 1)
	assert.Equal(t, "café needle", c.results[0].Preview.Text)
	assert.Equal(t, searchtypes.OneLineRange(0, 5, 11), c.results[0].Ranges.Ranges[0])

	opts.Encoding = "no-such-encoding"
	_, err := NewProvider().ProvideTextSearchResults(context.Background(), literal("needle"), opts, func(searchtypes.Result) {})
	var searchErr *tserrors.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, tserrors.CodeUnknownEncoding, searchErr.Code)
}

func TestProvider_PCRE2Message(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "needle"})
	opts := options(root)
	opts.Extensions = map[string]any{searchtypes.ExtensionUsePCRE2: true}

	_, completion := run(t, literal("needle"), opts)
	require.Len(t, completion.Messages, 1)
	assert.Equal(t, searchtypes.MessageInformation, completion.Messages[0].Type)
}

func TestProvider_Symlinks(t *testing.T) {
	root := writeTree(t, map[string]string{"real/a.txt": "needle"})
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// a cycle back to the root
	require.NoError(t, os.Symlink(root, filepath.Join(root, "real", "loop")))

	c, _ := run(t, literal("needle"), options(root))
	assert.Equal(t, []string{"real/a.txt"}, c.paths(root))

	opts := options(root)
	opts.FollowSymlinks = true
	c, _ = run(t, literal("needle"), opts)
	assert.Len(t, c.results, 1, "the linked directory resolves to one already visited")
}

func TestProvider_Canceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "needle"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reported := 0
	_, err := NewProvider().ProvideTextSearchResults(ctx, literal("needle"), options(root), func(searchtypes.Result) { reported++ })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, reported)
}

func TestProvider_MissingFolder(t *testing.T) {
	_, err := NewProvider().ProvideTextSearchResults(context.Background(), literal("x"), options(filepath.Join(t.TempDir(), "missing")), func(searchtypes.Result) {})
	var fileErr *tserrors.FileError
	assert.True(t, errors.As(err, &fileErr))
}
