package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// FileName is the per-project (and per-user, in the home directory) config file
const FileName = ".textsearch.kdl"

// Defaults shared by the config file parser and the CLI flags
const (
	DefaultMaxResults     = 20000
	DefaultMaxFileSize    = 10 * 1024 * 1024
	DefaultCharsPerLine   = 1000
	DefaultBatchMaxWeight = 512
	DefaultBatchTimeoutMs = 4000
)

type Config struct {
	Version             int
	Project             Project
	Search              Search
	Batch               Batch
	IgnoreFiles         IgnoreFiles
	ExcludeBuildOutputs bool
	Include             glob.Expression
	Exclude             glob.Expression
}

type Project struct {
	Root string
	Name string
}

type Search struct {
	MaxResults     int   // 0 = unlimited
	MaxFileSize    int64 // bytes, 0 = unlimited
	BeforeContext  int
	AfterContext   int
	UsePCRE2       bool
	FollowSymlinks bool
	Encoding       string
	Workers        int // files searched concurrently per folder, 0 = auto-detect
	Preview        Preview
}

// Preview bounds the preview text attached to each match
type Preview struct {
	MatchLines   int
	CharsPerLine int
}

// Batch tunes progress delivery
type Batch struct {
	MaxWeight int // file matches per progress callback once ramped up
	TimeoutMs int // failsafe flush of a partial batch
}

// IgnoreFiles selects which ignore files the filesystem provider honors
type IgnoreFiles struct {
	Use       bool // .gitignore / .ignore inside the searched folders
	UseGlobal bool // the user's git excludes file
	UseParent bool // ignore files above the folder, up to the repository root
}

// Timeout is the batch failsafe as a duration
func (b Batch) Timeout() time.Duration {
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// Default returns the built-in configuration for root
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Search: Search{
			MaxResults:     DefaultMaxResults,
			MaxFileSize:    DefaultMaxFileSize,
			FollowSymlinks: true,
			Preview: Preview{
				MatchLines:   1,
				CharsPerLine: DefaultCharsPerLine,
			},
		},
		Batch: Batch{
			MaxWeight: DefaultBatchMaxWeight,
			TimeoutMs: DefaultBatchTimeoutMs,
		},
		IgnoreFiles: IgnoreFiles{
			Use:       true,
			UseGlobal: true,
			UseParent: true,
		},
		ExcludeBuildOutputs: true,
		Exclude:             defaultExclusions(),
	}
}

func defaultExclusions() glob.Expression {
	expr := make(glob.Expression)
	for _, p := range []string{
		"**/.git",
		"**/.svn",
		"**/.hg",
		"**/node_modules",
		"**/bower_components",
		"**/__pycache__",
		"**/*.min.js",
		"**/*.min.css",
		"**/.DS_Store",
		"**/Thumbs.db",
	} {
		expr[p] = glob.Bool(true)
	}
	return expr
}

// Load reads the configuration for the current directory
func Load() (*Config, error) {
	return LoadWithRoot("")
}

// LoadWithRoot reads ~/.textsearch.kdl and rootDir/.textsearch.kdl and
// merges them, the project file winning. Missing files fall back to the
// defaults.
func LoadWithRoot(rootDir string) (*Config, error) {
	searchDir := rootDir
	if searchDir == "" {
		searchDir = "."
	}
	absRoot, err := filepath.Abs(searchDir)
	if err != nil {
		absRoot = searchDir
	}

	var base *Config
	if home, err := os.UserHomeDir(); err == nil && home != absRoot {
		cfg, err := LoadKDL(home)
		if err != nil {
			debug.LogConfig("ignoring unreadable global config: %v", err)
		} else if cfg != nil {
			base = cfg
		}
	}

	project, err := LoadKDL(absRoot)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case base != nil && project != nil:
		cfg = mergeConfigs(base, project)
	case project != nil:
		cfg = project
	case base != nil:
		cfg = base
		cfg.Project.Root = absRoot
		cfg.Project.Name = filepath.Base(absRoot)
	default:
		cfg = Default(absRoot)
	}

	if cfg.ExcludeBuildOutputs {
		cfg.EnrichExclusionsWithBuildArtifacts()
	}
	return cfg, nil
}

// mergeConfigs lays a project config over a base config. Exclusions are
// combined, with project entries winning on the same pattern; a project
// include expression replaces the base one.
func mergeConfigs(base, project *Config) *Config {
	merged := *project
	merged.Exclude = glob.Merge(base.Exclude, project.Exclude)
	if project.Include == nil && base.Include != nil {
		merged.Include = base.Include
	}
	return &merged
}

// EnrichExclusionsWithBuildArtifacts adds the output directories declared by
// the project's build configuration to the exclude expression. Patterns the
// user already configured keep their clause.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}

	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if len(detected) == 0 {
		return
	}
	if c.Exclude == nil {
		c.Exclude = make(glob.Expression)
	}
	for _, p := range detected {
		if _, ok := c.Exclude[p]; !ok {
			c.Exclude[p] = glob.Bool(true)
		}
	}
	debug.LogConfig("excluding %d detected build output pattern(s)", len(detected))
}

// BuildQuery turns the configuration into a query for pattern over folders.
// Relative folders resolve against the project root; no folders means the
// project root itself.
func (c *Config) BuildQuery(pattern searchtypes.PatternInfo, folders []string) searchtypes.Query {
	if len(folders) == 0 {
		folders = []string{c.Project.Root}
	}

	query := searchtypes.Query{
		IncludePattern: c.Include,
		ExcludePattern: c.Exclude,
		ContentPattern: pattern,
		MaxFileSize:    c.Search.MaxFileSize,
		UsePCRE2:       c.Search.UsePCRE2,
		BeforeContext:  c.Search.BeforeContext,
		AfterContext:   c.Search.AfterContext,
	}
	if c.Search.MaxResults > 0 {
		query.MaxResults = searchtypes.IntPtr(c.Search.MaxResults)
	}
	if c.Search.Preview.MatchLines > 0 && c.Search.Preview.CharsPerLine > 0 {
		query.PreviewOptions = &searchtypes.PreviewOptions{
			MatchLines:   c.Search.Preview.MatchLines,
			CharsPerLine: c.Search.Preview.CharsPerLine,
		}
	}

	for _, f := range folders {
		if !filepath.IsAbs(f) {
			f = filepath.Join(c.Project.Root, f)
		}
		f = filepath.Clean(f)
		query.FolderQueries = append(query.FolderQueries, searchtypes.FolderQuery{
			Folder:                     f,
			FolderName:                 filepath.Base(f),
			FileEncoding:               c.Search.Encoding,
			DisregardIgnoreFiles:       !c.IgnoreFiles.Use,
			DisregardGlobalIgnoreFiles: !c.IgnoreFiles.UseGlobal,
			DisregardParentIgnoreFiles: !c.IgnoreFiles.UseParent,
			IgnoreSymlinks:             !c.Search.FollowSymlinks,
		})
	}
	return query
}
