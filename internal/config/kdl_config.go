package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/textsearch/internal/debug"
	tserrors "github.com/standardbeagle/textsearch/internal/errors"
	"github.com/standardbeagle/textsearch/internal/glob"
)

// LoadKDL loads dir/.textsearch.kdl. It returns nil, nil when the file does
// not exist.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, FileName)

	content, err := os.ReadFile(kdlPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, tserrors.NewFileError("read", kdlPath, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	cfg, err := parseKDL(string(content), absDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kdlPath, err)
	}

	// a relative root is relative to the directory holding the file
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(absDir, cfg.Project.Root)
	}
	cfg.Project.Root = filepath.Clean(cfg.Project.Root)
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}

	debug.LogConfig("loaded %s", kdlPath)
	return cfg, nil
}

// parseKDL builds a Config from the file content, starting from the defaults
// for root. The first exclude node replaces the default exclusions; later
// ones add to it.
func parseKDL(content, root string) (*Config, error) {
	cfg := Default(root)
	cfg.Project.Name = ""

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, tserrors.NewConfigError("kdl", "", err)
	}

	excludeSeen := false
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "search":
			if err := parseSearchSection(cfg, n); err != nil {
				return nil, err
			}
		case "batch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_weight":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxWeight = v
					}
				case "timeout_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.TimeoutMs = v
					}
				}
			}
		case "ignore_files":
			for _, cn := range n.Children {
				b, ok := firstBoolArg(cn)
				if !ok {
					continue
				}
				switch nodeName(cn) {
				case "use":
					cfg.IgnoreFiles.Use = b
				case "use_global":
					cfg.IgnoreFiles.UseGlobal = b
				case "use_parent":
					cfg.IgnoreFiles.UseParent = b
				}
			}
		case "exclude_build_outputs":
			if b, ok := firstBoolArg(n); ok {
				cfg.ExcludeBuildOutputs = b
			}
		case "include":
			if cfg.Include == nil {
				cfg.Include = make(glob.Expression)
			}
			addPatterns(cfg.Include, n)
		case "exclude":
			if !excludeSeen {
				cfg.Exclude = make(glob.Expression)
				excludeSeen = true
			}
			addPatterns(cfg.Exclude, n)
		}
	}

	return cfg, nil
}

func parseSearchSection(cfg *Config, n *document.Node) error {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "max_results":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxResults = v
			}
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				sz, err := parseSize(s)
				if err != nil {
					return tserrors.NewConfigError("search.max_file_size", s, err)
				}
				cfg.Search.MaxFileSize = sz
			}
		case "before_context":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.BeforeContext = v
			}
		case "after_context":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.AfterContext = v
			}
		case "context":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.BeforeContext = v
				cfg.Search.AfterContext = v
			}
		case "use_pcre2":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.UsePCRE2 = b
			}
		case "follow_symlinks":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Search.FollowSymlinks = b
			}
		case "encoding":
			if s, ok := firstStringArg(cn); ok {
				cfg.Search.Encoding = s
			}
		case "workers":
			if v, ok := firstIntArg(cn); ok {
				cfg.Search.Workers = v
			}
		case "preview":
			for _, pn := range cn.Children {
				switch nodeName(pn) {
				case "match_lines":
					if v, ok := firstIntArg(pn); ok {
						cfg.Search.Preview.MatchLines = v
					}
				case "chars_per_line":
					if v, ok := firstIntArg(pn); ok {
						cfg.Search.Preview.CharsPerLine = v
					}
				}
			}
		}
	}
	return nil
}

// addPatterns adds the string arguments of an include/exclude node to expr.
// A when="..." property turns them into sibling clauses and enabled=false
// keeps the pattern but switches it off.
func addPatterns(expr glob.Expression, n *document.Node) {
	clause := glob.Bool(true)
	if when, ok := propString(n, "when"); ok && when != "" {
		clause = glob.Sibling(when)
	} else if enabled, ok := propBool(n, "enabled"); ok {
		clause = glob.Bool(enabled)
	}
	for _, p := range collectStringArgs(n) {
		expr[p] = clause
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func propString(n *document.Node, key string) (string, bool) {
	if n.Properties == nil {
		return "", false
	}
	if v, ok := n.Properties[key]; ok {
		if s, ok2 := v.Value.(string); ok2 {
			return s, true
		}
	}
	return "", false
}

func propBool(n *document.Node, key string) (bool, bool) {
	if n.Properties == nil {
		return false, false
	}
	if v, ok := n.Properties[key]; ok {
		if b, ok2 := v.Value.(bool); ok2 {
			return b, true
		}
	}
	return false, false
}

// collectStringArgs reads inline arguments (exclude "a" "b") or, failing
// that, a block of children (exclude { "a"; "b" })
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	numStr := s
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
