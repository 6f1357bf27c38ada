// Command textsearch searches file contents across folders and serves the
// same search over MCP.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/textsearch/internal/config"
	"github.com/standardbeagle/textsearch/internal/debug"
	"github.com/standardbeagle/textsearch/internal/glob"
	"github.com/standardbeagle/textsearch/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "textsearch",
		Usage:                  "Search file contents across folders with glob filters and .gitignore support",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root: where .textsearch.kdl is read and relative folders resolve",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Only search files matching glob patterns (replaces configured includes)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching glob patterns (added to configured excludes)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug output to stderr",
			},
			&cli.StringFlag{
				Name:   "debug-log-dir",
				Usage:  "Write debug output to a timestamped file in this directory",
				Hidden: true,
			},
		},
		Before: setupDebug,
		After: func(c *cli.Context) error {
			return debug.Close()
		},
		Commands: []*cli.Command{
			searchCommand(),
			{
				Name:   "mcp",
				Usage:  "Start the MCP server (text_search tool) over stdio",
				Action: mcpCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					return nil
				},
			},
		},
	}
}

func setupDebug(c *cli.Context) error {
	if dir := c.String("debug-log-dir"); dir != "" {
		path, err := debug.OpenLogFile(dir)
		if err != nil {
			return err
		}
		os.Setenv("DEBUG", "1")
		fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
		return nil
	}
	if c.Bool("debug") {
		os.Setenv("DEBUG", "1")
		debug.SetOutput(c.App.ErrWriter)
	}
	return nil
}

// loadConfig reads the configuration for --root and applies global flag
// overrides before validating it
func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		root = abs
	}

	cfg, err := config.LoadWithRoot(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Include = patternExpression(includes)
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = glob.Merge(cfg.Exclude, patternExpression(excludes))
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func patternExpression(patterns []string) glob.Expression {
	expr := make(glob.Expression, len(patterns))
	for _, p := range patterns {
		expr[p] = glob.Bool(true)
	}
	return expr
}
