// Package testhelpers provides shared utilities for testing textsearch
package testhelpers

import (
	"context"
	"sync"

	"github.com/standardbeagle/textsearch/internal/encoding"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// ProviderCall records one invocation of a ScriptedProvider
type ProviderCall struct {
	Query   searchtypes.TextSearchQuery
	Options searchtypes.TextSearchOptions
}

// ScriptedProvider replays a fixed list of results per folder.
// Usage:
//
//	p := testhelpers.NewScriptedProvider().
//		WithResults("/root", testhelpers.LineMatch("/root/a.txt", 0, "foo", 0, 3)).
//		WithCompletion("/root", &searchtypes.Completion{LimitHit: true})
type ScriptedProvider struct {
	mu          sync.Mutex
	results     map[string][]searchtypes.Result
	completions map[string]*searchtypes.Completion
	errors      map[string]error
	calls       []ProviderCall

	// StopOnCancel makes the provider stop reporting once ctx is canceled
	// and return ctx.Err(). By default it keeps reporting, like a provider
	// with results already in flight.
	StopOnCancel bool

	// WaitForCancel makes the provider block after reporting until ctx is done
	WaitForCancel bool
}

// NewScriptedProvider creates an empty scripted provider
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{
		results:     make(map[string][]searchtypes.Result),
		completions: make(map[string]*searchtypes.Completion),
		errors:      make(map[string]error),
	}
}

// WithResults appends results to report for folder
func (p *ScriptedProvider) WithResults(folder string, results ...searchtypes.Result) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[folder] = append(p.results[folder], results...)
	return p
}

// WithCompletion sets the completion returned for folder
func (p *ScriptedProvider) WithCompletion(folder string, c *searchtypes.Completion) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions[folder] = c
	return p
}

// WithError makes the provider fail for folder after reporting its results
func (p *ScriptedProvider) WithError(folder string, err error) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors[folder] = err
	return p
}

// ProvideTextSearchResults reports the scripted results for opts.Folder
func (p *ScriptedProvider) ProvideTextSearchResults(ctx context.Context, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions, report func(searchtypes.Result)) (*searchtypes.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, ProviderCall{Query: query, Options: opts})
	results := append([]searchtypes.Result(nil), p.results[opts.Folder]...)
	completion := p.completions[opts.Folder]
	err := p.errors[opts.Folder]
	p.mu.Unlock()

	for _, r := range results {
		if p.StopOnCancel && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		report(r)
	}

	if err != nil {
		return nil, err
	}
	if p.WaitForCancel {
		<-ctx.Done()
		if p.StopOnCancel {
			return nil, ctx.Err()
		}
	}
	return completion, nil
}

// Calls returns every recorded invocation
func (p *ScriptedProvider) Calls() []ProviderCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProviderCall(nil), p.calls...)
}

// LineMatch builds a single-range match on one line
func LineMatch(path string, line int, text string, startColumn, endColumn int) searchtypes.Result {
	return searchtypes.NewTextMatch(path, text, searchtypes.SingleRange(searchtypes.OneLineRange(line, startColumn, endColumn)), nil)
}

// MultiMatch builds a match with several ranges on one line. cols holds
// start/end column pairs.
func MultiMatch(path string, line int, text string, cols ...[2]int) searchtypes.Result {
	ranges := make([]searchtypes.Range, len(cols))
	for i, c := range cols {
		ranges[i] = searchtypes.OneLineRange(line, c[0], c[1])
	}
	return searchtypes.NewTextMatch(path, text, searchtypes.RangeList(ranges...), nil)
}

// MapFileUtils serves directory listings from a map and counts ReadDir calls
type MapFileUtils struct {
	mu    sync.Mutex
	dirs  map[string][]string
	errs  map[string]error
	calls map[string]int
}

// NewMapFileUtils creates a MapFileUtils from dir -> entry names
func NewMapFileUtils(dirs map[string][]string) *MapFileUtils {
	if dirs == nil {
		dirs = make(map[string][]string)
	}
	return &MapFileUtils{dirs: dirs, errs: make(map[string]error), calls: make(map[string]int)}
}

// WithError makes ReadDir fail for dir
func (f *MapFileUtils) WithError(dir string, err error) *MapFileUtils {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[dir] = err
	return f
}

// ReadDir returns the configured listing for dir
func (f *MapFileUtils) ReadDir(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[dir]++
	if err := f.errs[dir]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.dirs[dir]...), nil
}

// ToCanonicalName normalizes an encoding name
func (f *MapFileUtils) ToCanonicalName(enc string) string {
	return encoding.ToCanonicalName(enc)
}

// ReadDirCalls returns how often dir was listed
func (f *MapFileUtils) ReadDirCalls(dir string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[dir]
}

// TotalReadDirCalls returns how often any directory was listed
func (f *MapFileUtils) TotalReadDirCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
