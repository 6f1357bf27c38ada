package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/textsearch/internal/config"
	"github.com/standardbeagle/textsearch/internal/grep"
	"github.com/standardbeagle/textsearch/internal/search"
	"github.com/standardbeagle/textsearch/internal/searchtypes"
	"github.com/standardbeagle/textsearch/internal/watch"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search for PATTERN in the given folders (default: the project root)",
		ArgsUsage: "PATTERN [FOLDER...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "regex", Aliases: []string{"E"}, Usage: "Treat PATTERN as an RE2 regular expression"},
			&cli.BoolFlag{Name: "case-sensitive", Aliases: []string{"s"}, Usage: "Match case exactly"},
			&cli.BoolFlag{Name: "word", Aliases: []string{"w"}, Usage: "Only match whole words"},
			&cli.BoolFlag{Name: "multiline", Aliases: []string{"U"}, Usage: "Let matches span lines"},
			&cli.IntFlag{Name: "max-results", Aliases: []string{"m"}, Usage: "Stop after this many matches (0 reports only whether anything matched)"},
			&cli.IntFlag{Name: "context", Aliases: []string{"C"}, Usage: "Lines of context around each match"},
			&cli.IntFlag{Name: "before", Aliases: []string{"B"}, Usage: "Lines of context before each match"},
			&cli.IntFlag{Name: "after", Aliases: []string{"A"}, Usage: "Lines of context after each match"},
			&cli.StringFlag{Name: "encoding", Usage: "File encoding (utf8, utf16le, shiftjis, windows1252, ...)"},
			&cli.Int64Flag{Name: "max-filesize", Usage: "Skip files larger than this many bytes"},
			&cli.BoolFlag{Name: "no-ignore", Usage: "Do not honor .gitignore and .ignore files"},
			&cli.BoolFlag{Name: "no-follow", Usage: "Do not follow symbolic links"},
			&cli.BoolFlag{Name: "pcre2", Usage: "Request the PCRE2 engine when the provider supports it"},
			&cli.BoolFlag{Name: "json", Aliases: []string{"j"}, Usage: "Write one JSON object per batch and a final completion line"},
			&cli.BoolFlag{Name: "absolute", Usage: "Print absolute paths"},
			&cli.BoolFlag{Name: "watch", Usage: "Search again whenever files under the folders change"},
		},
		Action: searchAction,
	}
}

func searchAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("search requires a PATTERN")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applySearchFlags(c, cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	pattern := searchtypes.PatternInfo{
		Pattern:         c.Args().First(),
		IsRegExp:        c.Bool("regex"),
		IsCaseSensitive: c.Bool("case-sensitive"),
		IsWordMatch:     c.Bool("word"),
		IsMultiline:     c.Bool("multiline"),
	}
	query := cfg.BuildQuery(pattern, c.Args().Tail())
	if c.IsSet("max-results") && c.Int("max-results") == 0 {
		query.MaxResults = searchtypes.IntPtr(0)
	}

	roots := make([]string, len(query.FolderQueries))
	for i, fq := range query.FolderQueries {
		roots[i] = fq.Folder
	}

	s := &searcher{
		query:    query,
		provider: grep.NewProvider(grep.WithWorkers(cfg.Search.Workers)),
		opts: []search.Option{
			search.WithMaxBatchWeight(cfg.Batch.MaxWeight),
			search.WithBatchTimeout(cfg.Batch.Timeout()),
		},
		out: &printer{
			w:        c.App.Writer,
			jsonMode: c.Bool("json"),
			roots:    roots,
			absolute: c.Bool("absolute"),
		},
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.Bool("watch") {
		return s.run(ctx)
	}
	return s.watch(ctx, roots, watchExcludes(cfg))
}

// applySearchFlags overrides configured search settings with the flags the
// user actually passed
func applySearchFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("max-results") {
		cfg.Search.MaxResults = c.Int("max-results")
	}
	if c.IsSet("context") {
		cfg.Search.BeforeContext = c.Int("context")
		cfg.Search.AfterContext = c.Int("context")
	}
	if c.IsSet("before") {
		cfg.Search.BeforeContext = c.Int("before")
	}
	if c.IsSet("after") {
		cfg.Search.AfterContext = c.Int("after")
	}
	if c.IsSet("encoding") {
		cfg.Search.Encoding = c.String("encoding")
	}
	if c.IsSet("max-filesize") {
		cfg.Search.MaxFileSize = c.Int64("max-filesize")
	}
	if c.Bool("no-ignore") {
		cfg.IgnoreFiles = config.IgnoreFiles{}
	}
	if c.Bool("no-follow") {
		cfg.Search.FollowSymlinks = false
	}
	if c.Bool("pcre2") {
		cfg.Search.UsePCRE2 = true
	}
}

// watchExcludes lists the unconditional exclude patterns, the ones a
// directory watcher can apply without listing siblings
func watchExcludes(cfg *config.Config) []string {
	var patterns []string
	for p, clause := range cfg.Exclude {
		if clause.Enabled && !clause.IsSibling() {
			patterns = append(patterns, p)
		}
	}
	sort.Strings(patterns)
	return patterns
}

// searcher runs one query, possibly repeatedly in watch mode
type searcher struct {
	query    searchtypes.Query
	provider search.Provider
	opts     []search.Option
	out      *printer
}

func (s *searcher) run(ctx context.Context) error {
	s.out.reset()
	manager := search.NewManager(s.query, s.provider, search.OSFileUtils{}, s.opts...)
	completion, err := manager.Search(ctx, s.out.printBatch)
	if err != nil {
		return err
	}
	s.out.printCompletion(completion)
	return nil
}

func (s *searcher) watch(ctx context.Context, roots, excludes []string) error {
	w, err := watch.New(roots, watch.WithExcludes(excludes))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	rerun := make(chan int, 1)
	err = w.Start(func(changes []watch.Change) {
		select {
		case rerun <- len(changes):
		default:
		}
	})
	if err != nil {
		return err
	}

	if err := s.run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("search failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-rerun:
			if !s.out.jsonMode {
				fmt.Fprintf(s.out.w, "--- %d change(s), searching again\n", n)
			}
			if err := s.run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("search failed: %v", err)
			}
		}
	}
}
