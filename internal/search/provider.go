package search

import (
	"context"
	"os"

	"github.com/standardbeagle/textsearch/internal/encoding"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// Provider finds matches for one folder. It must call report zero or more
// times before returning, stop promptly once ctx is canceled, and never call
// report after it returns. report is safe for concurrent use. A nil
// completion is treated as {LimitHit: false}.
type Provider interface {
	ProvideTextSearchResults(ctx context.Context, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions, report func(searchtypes.Result)) (*searchtypes.Completion, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions, report func(searchtypes.Result)) (*searchtypes.Completion, error)

// ProvideTextSearchResults calls f
func (f ProviderFunc) ProvideTextSearchResults(ctx context.Context, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions, report func(searchtypes.Result)) (*searchtypes.Completion, error) {
	return f(ctx, query, opts, report)
}

// FileUtils is the filesystem surface the manager needs
type FileUtils interface {
	// ReadDir lists the entry names of dir
	ReadDir(dir string) ([]string, error)
	// ToCanonicalName normalizes an encoding name for the provider
	ToCanonicalName(enc string) string
}

// OSFileUtils implements FileUtils on the local filesystem
type OSFileUtils struct{}

// ReadDir lists the entry names of dir
func (OSFileUtils) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// ToCanonicalName normalizes an encoding name for the provider
func (OSFileUtils) ToCanonicalName(enc string) string {
	return encoding.ToCanonicalName(enc)
}
