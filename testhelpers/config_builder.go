package testhelpers

import (
	"github.com/standardbeagle/textsearch/internal/config"
	"github.com/standardbeagle/textsearch/internal/glob"
)

// TestConfigBuilder provides a fluent API for building test configs that do
// not depend on the machine running the tests: the user's global ignore
// file and build output detection are off.
// Usage:
//
//	cfg := testhelpers.NewTestConfigBuilder(projectPath).
//		WithExclusions("**/vendor").
//		WithSiblingExclusion("**/*.js", "$(basename).ts").
//		WithMaxResults(10).
//		Build()
type TestConfigBuilder struct {
	cfg *config.Config
}

// NewTestConfigBuilder creates a config builder for a project path
func NewTestConfigBuilder(projectRoot string) *TestConfigBuilder {
	cfg := config.Default(projectRoot)
	cfg.Project.Name = "test-project"
	cfg.IgnoreFiles.UseGlobal = false
	cfg.ExcludeBuildOutputs = false
	cfg.Search.Workers = 1
	return &TestConfigBuilder{cfg: cfg}
}

// WithExclusions adds plain exclusion patterns
func (b *TestConfigBuilder) WithExclusions(patterns ...string) *TestConfigBuilder {
	for _, p := range patterns {
		b.cfg.Exclude[p] = glob.Bool(true)
	}
	return b
}

// WithSiblingExclusion excludes pattern when the sibling named by when exists
func (b *TestConfigBuilder) WithSiblingExclusion(pattern, when string) *TestConfigBuilder {
	b.cfg.Exclude[pattern] = glob.Sibling(when)
	return b
}

// WithIncludePatterns sets the include patterns, replacing any set before
func (b *TestConfigBuilder) WithIncludePatterns(patterns ...string) *TestConfigBuilder {
	b.cfg.Include = make(glob.Expression, len(patterns))
	for _, p := range patterns {
		b.cfg.Include[p] = glob.Bool(true)
	}
	return b
}

// WithMaxResults sets the result budget, 0 meaning unlimited
func (b *TestConfigBuilder) WithMaxResults(n int) *TestConfigBuilder {
	b.cfg.Search.MaxResults = n
	return b
}

// WithContext sets the context lines reported around matches
func (b *TestConfigBuilder) WithContext(before, after int) *TestConfigBuilder {
	b.cfg.Search.BeforeContext = before
	b.cfg.Search.AfterContext = after
	return b
}

// WithoutIgnoreFiles disables every kind of ignore file
func (b *TestConfigBuilder) WithoutIgnoreFiles() *TestConfigBuilder {
	b.cfg.IgnoreFiles = config.IgnoreFiles{}
	return b
}

// Build returns the config. Each call returns the same instance.
func (b *TestConfigBuilder) Build() *config.Config {
	return b.cfg
}
