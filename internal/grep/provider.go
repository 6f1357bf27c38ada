// Package grep is a search provider that walks a folder on the local
// filesystem and matches file contents with Go regular expressions.
package grep

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"
	xencoding "golang.org/x/text/encoding"

	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/encoding"
	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

const pcre2Unsupported = "PCRE2 is not available, the pattern was run with RE2 syntax"

// Provider searches one folder per call. It is safe for concurrent use.
type Provider struct {
	workers          int
	globalIgnoreFile *string
}

// NewProvider creates a filesystem provider
func NewProvider(opts ...Option) *Provider {
	p := &Provider{workers: defaultWorkers()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// folderSearch is the state of one ProvideTextSearchResults call
type folderSearch struct {
	opts   searchtypes.TextSearchOptions
	query  searchtypes.TextSearchQuery
	re     *regexp.Regexp
	enc    xencoding.Encoding
	sniff  bool
	cancel context.CancelFunc

	mu         sync.Mutex
	report     func(searchtypes.Result)
	count      int
	limitHit   bool
	unreadable int
}

// ProvideTextSearchResults walks opts.Folder and reports every match.
// Results of one file are reported together and in line order.
func (p *Provider) ProvideTextSearchResults(ctx context.Context, query searchtypes.TextSearchQuery, opts searchtypes.TextSearchOptions, report func(searchtypes.Result)) (*searchtypes.Completion, error) {
	re, err := compilePattern(query)
	if err != nil {
		return nil, err
	}

	var enc xencoding.Encoding
	if !encoding.IsUTF8(opts.Encoding) {
		enc, err = encoding.Lookup(opts.Encoding)
		if err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(opts.Folder)
	if err != nil {
		return nil, tserrors.NewFileError("stat", opts.Folder, err)
	}
	if !info.IsDir() {
		return nil, tserrors.NewFileError("search", opts.Folder, fmt.Errorf("not a directory"))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &folderSearch{
		opts:   opts,
		query:  query,
		re:     re,
		enc:    enc,
		sniff:  enc == nil,
		cancel: cancel,
		report: report,
	}

	debug.LogProvider("searching %s for %q (%d workers)", opts.Folder, query.Pattern, p.workers)

	files := make(chan string, p.workers*4)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(files)
		return s.walk(gctx, p.rootIgnores(opts), files)
	})
	for range p.workers {
		g.Go(func() error {
			for file := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.searchFile(gctx, file); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err = g.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && !(s.limitHit && errors.Is(err, context.Canceled)) {
		debug.LogProvider("search of %s stopped: %v", opts.Folder, err)
		return nil, err
	}

	completion := &searchtypes.Completion{LimitHit: s.limitHit}
	if opts.UsePCRE2() {
		completion.Messages = append(completion.Messages, searchtypes.Message{Text: pcre2Unsupported, Type: searchtypes.MessageInformation})
	}
	if s.unreadable > 0 {
		completion.Messages = append(completion.Messages, searchtypes.Message{
			Text: fmt.Sprintf("%d file(s) in %s could not be read", s.unreadable, opts.Folder),
			Type: searchtypes.MessageWarning,
		})
	}
	debug.LogProvider("search of %s done: %d result(s), limitHit=%v", opts.Folder, s.count, s.limitHit)
	return completion, nil
}

// rootIgnores collects the rules that apply before the folder's own ignore files
func (p *Provider) rootIgnores(opts searchtypes.TextSearchOptions) ignoreRules {
	var rules ignoreRules
	if opts.UseGlobalIgnoreFiles {
		file := globalIgnoreFile()
		if p.globalIgnoreFile != nil {
			file = *p.globalIgnoreFile
		}
		rules = rules.with(loadGlobalIgnores(file, opts.Folder))
	}
	if opts.UseParentIgnoreFiles {
		rules = rules.with(loadParentIgnores(opts.Folder))
	}
	return rules
}

func (s *folderSearch) walk(ctx context.Context, rules ignoreRules, files chan<- string) error {
	visited := make(map[string]bool)
	return s.walkDir(ctx, s.opts.Folder, rules, visited, files)
}

func (s *folderSearch) walkDir(ctx context.Context, dir string, rules ignoreRules, visited map[string]bool, files chan<- string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		debug.LogProvider("skipping unresolvable directory %s: %v", dir, err)
		return nil
	}
	if visited[resolved] {
		debug.LogProvider("cycle detected, skipping %s -> %s", dir, resolved)
		return nil
	}
	visited[resolved] = true

	if s.opts.UseIgnoreFiles {
		rules = rules.with(loadDirIgnores(dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.markUnreadable(dir, err)
		return nil
	}

	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()

		if entry.Type()&fs.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				continue
			}
			info, err := os.Stat(p)
			if err != nil {
				continue
			}
			isDir = info.IsDir()
			if !isDir && !info.Mode().IsRegular() {
				continue
			}
		} else if !isDir && !entry.Type().IsRegular() {
			continue
		}

		if isDir && entry.Name() == ".git" {
			continue
		}
		rel := s.relative(p)
		if rules.ignored(p, isDir) || matchesAny(s.opts.Excludes, rel) {
			continue
		}

		if isDir {
			if err := s.walkDir(ctx, p, rules, visited, files); err != nil {
				return err
			}
			continue
		}

		if len(s.opts.Includes) > 0 && !matchesAny(s.opts.Includes, rel) {
			continue
		}
		if hasBinaryExtension(p) {
			continue
		}

		select {
		case files <- p:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *folderSearch) relative(p string) string {
	rel, err := filepath.Rel(s.opts.Folder, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if glob.MatchPath(pattern, rel) {
			return true
		}
	}
	return false
}

func (s *folderSearch) searchFile(ctx context.Context, file string) error {
	info, err := os.Stat(file)
	if err != nil {
		s.markUnreadable(file, err)
		return nil
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		debug.LogProvider("skipping %s: %d bytes exceeds the size limit", file, info.Size())
		return nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		s.markUnreadable(file, err)
		return nil
	}
	if s.sniff && looksBinary(data) {
		return nil
	}

	text, err := decode(data, s.enc)
	if err != nil {
		s.markUnreadable(file, err)
		return nil
	}

	doc := newDocument(text)
	var matches []lineMatch
	if s.query.IsMultiline {
		matches = findMultilineMatches(s.re, doc, file, s.opts.PreviewOptions)
	} else {
		matches = findLineMatches(s.re, doc, file, s.opts.PreviewOptions)
	}
	if len(matches) == 0 {
		return nil
	}
	return s.emit(ctx, withContext(doc, file, matches, s.opts.BeforeContext, s.opts.AfterContext))
}

// emit reports the results of one file, applying the folder's result budget
func (s *folderSearch) emit(ctx context.Context, results []searchtypes.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		if s.limitHit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		budget := s.opts.MaxResults
		if r.IsMatch() && budget != nil && s.count+r.Size() > *budget {
			s.limitHit = true
			s.cancel()
			r = r.Truncate(*budget - s.count)
			if r.Size() == 0 {
				return nil
			}
		}
		s.count += r.Size()
		s.report(r)
	}
	return nil
}

func (s *folderSearch) markUnreadable(p string, err error) {
	debug.LogProvider("cannot read %s: %v", p, err)
	s.mu.Lock()
	s.unreadable++
	s.mu.Unlock()
}
