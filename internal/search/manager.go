// Package search fans a text query out to a provider, one call per folder,
// and turns the raw result stream into filtered, budgeted, batched file
// matches.
package search

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/textsearch/internal/batch"
	"github.com/standardbeagle/textsearch/internal/debug"
	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// Manager runs a query against a provider. Every folder query gets its own
// provider call; results from all folders share one result budget and one
// cancellation scope. A Manager may run Search more than once; each call
// starts from a fresh budget.
type Manager struct {
	query     searchtypes.Query
	provider  Provider
	fileUtils FileUtils
	opts      managerOptions
}

// NewManager creates a manager. A nil fileUtils uses the local filesystem.
func NewManager(query searchtypes.Query, provider Provider, fileUtils FileUtils, opts ...Option) *Manager {
	if fileUtils == nil {
		fileUtils = OSFileUtils{}
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		query:     query,
		provider:  provider,
		fileUtils: fileUtils,
		opts:      o,
	}
}

// run holds the state of one Search call. mu guards the budget and the
// collector; every accepted result goes through them in one critical section.
type run struct {
	m      *Manager
	cancel context.CancelFunc

	mu          sync.Mutex
	collector   *ResultsCollector
	limitHit    bool
	resultCount int
}

// Search runs the query. onProgress receives batches of file matches while
// the search runs; it is never called after Search returns. The first folder
// failure fails the whole search, batches already delivered stay delivered.
func (m *Manager) Search(ctx context.Context, onProgress func([]searchtypes.FileMatch)) (searchtypes.Completion, error) {
	folders := m.query.FolderQueries
	if len(folders) == 0 {
		return searchtypes.Completion{LimitHit: false}, nil
	}

	testers := make([]*QueryGlobTester, len(folders))
	for i, fq := range folders {
		tester, err := NewQueryGlobTester(m.query, fq, m.opts.parse)
		if err != nil {
			return searchtypes.Completion{}, m.wrapError(err)
		}
		testers[i] = tester
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var batchOpts []batch.Option
	if m.opts.batchTimeout > 0 {
		batchOpts = append(batchOpts, batch.WithTimeout(m.opts.batchTimeout))
	}
	r := &run{
		m:         m,
		cancel:    cancel,
		collector: NewResultsCollector(onProgress, m.opts.maxBatchWeight, batchOpts...),
	}

	debug.LogSearch("searching %d folder(s) for %q", len(folders), m.query.ContentPattern.Pattern)

	completions := make([]*searchtypes.Completion, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	for i := range folders {
		g.Go(func() error {
			c, err := r.searchInFolder(gctx, i, folders[i], testers[i])
			completions[i] = c
			return err
		})
	}

	if err := g.Wait(); err != nil {
		r.mu.Lock()
		r.collector.Stop()
		r.mu.Unlock()
		debug.LogSearch("search failed: %v", err)
		return searchtypes.Completion{}, m.wrapError(err)
	}

	r.mu.Lock()
	r.collector.Flush()
	limitHit := r.limitHit
	count := r.resultCount
	r.mu.Unlock()

	var messages searchtypes.Messages
	for _, c := range completions {
		if c == nil {
			continue
		}
		limitHit = limitHit || c.LimitHit
		messages = append(messages, c.Messages...)
	}

	debug.LogSearch("search complete: %d result(s), limitHit=%v", count, limitHit)
	return searchtypes.Completion{LimitHit: limitHit, Messages: messages}, nil
}

func (r *run) searchInFolder(ctx context.Context, idx int, fq searchtypes.FolderQuery, tester *QueryGlobTester) (*searchtypes.Completion, error) {
	siblings := newSiblingCache(r.m.fileUtils)

	var resolver *orderedResolver
	if tester.HasSiblingExcludeClauses() {
		resolver = newOrderedResolver(r.m.opts.queueSize, r.isLimitHit, func(result searchtypes.Result) {
			r.accept(result, idx)
		})
	}

	report := func(result searchtypes.Result) {
		if err := result.Validate(); err != nil {
			debug.LogSearch("INVALID - %v", err)
			return
		}

		rel, ok := relativePath(fq.Folder, result.Path)
		if !ok {
			return
		}

		dir := filepath.Dir(result.Path)
		disposition := tester.IncludedInQuery(rel, path.Base(rel), siblings.hasSibling(dir))
		if disposition.Pending() {
			siblings.prefetch(dir)
			resolver.enqueue(result, disposition)
			return
		}
		if disposition.Resolve() {
			r.accept(result, idx)
		}
	}

	query := searchtypes.NewTextSearchQuery(r.m.query.ContentPattern)
	completion, err := r.m.provider.ProvideTextSearchResults(ctx, query, r.m.optionsForFolder(fq), report)

	if resolver != nil {
		resolver.closeAndWait()
	}
	siblings.wait()

	// A provider that reports the cancellation we triggered on hitting the
	// budget has still finished normally.
	if err != nil && errors.Is(err, context.Canceled) && r.isLimitHit() {
		debug.LogSearch("folder %s stopped at the result limit", fq.Folder)
		err = nil
	}
	if err != nil {
		debug.LogSearch("folder %s failed: %v", fq.Folder, err)
	}
	return completion, err
}

// accept applies the result budget and forwards the result to the collector
func (r *run) accept(result searchtypes.Result, folderIdx int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limitHit {
		return
	}

	maxResults := r.m.query.MaxResults
	if result.IsMatch() && maxResults != nil && r.resultCount+result.Size() > *maxResults {
		r.limitHit = true
		r.cancel()
		result = result.Truncate(*maxResults - r.resultCount)
		debug.LogSearch("result limit %d hit", *maxResults)
	}

	size := result.Size()
	r.resultCount += size
	if size > 0 || !result.IsMatch() {
		r.collector.Add(result, folderIdx)
	}
}

func (r *run) isLimitHit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limitHit
}

// optionsForFolder builds the provider options for one folder
func (m *Manager) optionsForFolder(fq searchtypes.FolderQuery) searchtypes.TextSearchOptions {
	opts := searchtypes.TextSearchOptions{
		Folder:               fq.Folder,
		Includes:             glob.ResolvePatternsForProvider(m.query.IncludePattern, fq.IncludePattern),
		Excludes:             glob.ResolvePatternsForProvider(m.query.ExcludePattern, fq.ExcludePattern),
		UseIgnoreFiles:       !fq.DisregardIgnoreFiles,
		UseGlobalIgnoreFiles: !fq.DisregardGlobalIgnoreFiles,
		UseParentIgnoreFiles: !fq.DisregardParentIgnoreFiles,
		FollowSymlinks:       !fq.IgnoreSymlinks,
		MaxResults:           m.query.MaxResults,
		PreviewOptions:       m.query.PreviewOptions,
		MaxFileSize:          m.query.MaxFileSize,
		BeforeContext:        m.query.BeforeContext,
		AfterContext:         m.query.AfterContext,
		Extensions: map[string]any{
			searchtypes.ExtensionUsePCRE2: m.query.UsePCRE2,
		},
	}
	if fq.FileEncoding != "" {
		opts.Encoding = m.fileUtils.ToCanonicalName(fq.FileEncoding)
	}
	return opts
}

func (m *Manager) wrapError(err error) error {
	var searchErr *tserrors.SearchError
	if errors.As(err, &searchErr) {
		return err
	}
	code := tserrors.CodeProviderError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		code = tserrors.CodeCanceled
	}
	return tserrors.NewSearchError(code, m.query.ContentPattern.Pattern, err)
}

// relativePath returns p relative to folder with / separators. Paths equal
// to the folder itself are rejected.
func relativePath(folder, p string) (string, bool) {
	rel, err := filepath.Rel(folder, p)
	if err != nil || rel == "." || rel == "" {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

type pendingResult struct {
	result      searchtypes.Result
	disposition Disposition
}

// orderedResolver resolves pending dispositions one at a time, in the order
// they were reported, so results for a path keep their emission order.
type orderedResolver struct {
	mu     sync.Mutex
	closed bool
	queue  chan pendingResult
	done   chan struct{}
}

func newOrderedResolver(size int, skip func() bool, accept func(searchtypes.Result)) *orderedResolver {
	r := &orderedResolver{
		queue: make(chan pendingResult, size),
		done:  make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		for p := range r.queue {
			if skip() {
				continue
			}
			if p.disposition.Resolve() {
				accept(p.result)
			}
		}
	}()
	return r
}

func (r *orderedResolver) enqueue(result searchtypes.Result, d Disposition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.queue <- pendingResult{result: result, disposition: d}
}

func (r *orderedResolver) closeAndWait() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}
