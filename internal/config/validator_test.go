package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/glob"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root"},
		Search: Search{
			MaxResults: 10,
			Preview:    Preview{MatchLines: 1},
		},
	}

	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))

	assert.Equal(t, max(1, runtime.NumCPU()-1), cfg.Search.Workers)
	assert.Equal(t, DefaultBatchMaxWeight, cfg.Batch.MaxWeight)
	assert.Equal(t, DefaultBatchTimeoutMs, cfg.Batch.TimeoutMs)
	assert.Equal(t, DefaultCharsPerLine, cfg.Search.Preview.CharsPerLine)
	assert.Equal(t, "utf8", cfg.Search.Encoding)
}

func TestValidateAndSetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Search.Workers = 3
	cfg.Batch.MaxWeight = 7

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.Equal(t, 7, cfg.Batch.MaxWeight)
}

func TestValidateAndSetDefaults_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }, "project"},
		{"negative max results", func(c *Config) { c.Search.MaxResults = -1 }, "search"},
		{"negative file size", func(c *Config) { c.Search.MaxFileSize = -1 }, "search"},
		{"negative context", func(c *Config) { c.Search.AfterContext = -2 }, "search"},
		{"negative workers", func(c *Config) { c.Search.Workers = -1 }, "search"},
		{"negative preview", func(c *Config) { c.Search.Preview.CharsPerLine = -1 }, "search"},
		{"unknown encoding", func(c *Config) { c.Search.Encoding = "klingon" }, "search"},
		{"negative batch weight", func(c *Config) { c.Batch.MaxWeight = -1 }, "batch"},
		{"negative batch timeout", func(c *Config) { c.Batch.TimeoutMs = -1 }, "batch"},
		{"bad include", func(c *Config) { c.Include = glob.Expression{"[": glob.Bool(true)} }, "include"},
		{"bad exclude", func(c *Config) { c.Exclude = glob.Expression{"a/[": glob.Bool(true)} }, "exclude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/test/root")
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			var cfgErr *tserrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateAndSetDefaults_ReportsEverySection(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Search.MaxResults = -1
	cfg.Batch.TimeoutMs = -1
	cfg.Exclude = glob.Expression{"[": glob.Bool(true)}
	cfg.Search.Workers = 0

	err := ValidateConfig(cfg)
	var multi *tserrors.MultiError
	require.ErrorAs(t, err, &multi)
	require.Equal(t, 3, multi.Len())

	var fields []string
	for _, e := range multi.Errors {
		var cfgErr *tserrors.ConfigError
		require.ErrorAs(t, e, &cfgErr)
		fields = append(fields, cfgErr.Field)
	}
	assert.Equal(t, []string{"search", "batch", "exclude"}, fields)
	assert.Contains(t, err.Error(), "3 errors: ")
	assert.Equal(t, 0, cfg.Search.Workers, "defaults are not applied to an invalid config")
}

func TestValidateAndSetDefaults_KnownEncoding(t *testing.T) {
	cfg := Default("/test/root")
	cfg.Search.Encoding = "shiftjis"
	assert.NoError(t, ValidateConfig(cfg))
}
