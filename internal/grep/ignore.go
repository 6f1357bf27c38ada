package grep

import (
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/textsearch/internal/debug"
)

// ignoreFileNames are read in every directory when ignore files are honored
var ignoreFileNames = []string{".gitignore", ".ignore"}

// ignoreRule is one line of an ignore file, scoped to the directory the
// file lives in.
type ignoreRule struct {
	base     string // absolute directory the rule is relative to
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool
}

// ignoreRules is an ordered rule list. Later rules override earlier ones,
// so rules from deeper directories are appended after their parents'.
type ignoreRules []ignoreRule

// parseIgnoreLine turns one ignore file line into a rule. Blank lines and
// comments yield ok=false.
func parseIgnoreLine(base, line string) (ignoreRule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	r := ignoreRule{base: base}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\`) {
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") {
		// a slash anywhere but the end anchors the pattern to its base
		r.anchored = true
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return ignoreRule{}, false
	}
	r.pattern = line
	return r, true
}

func parseIgnore(base string, rd io.Reader) (ignoreRules, error) {
	var rules ignoreRules
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		if r, ok := parseIgnoreLine(base, scanner.Text()); ok {
			rules = append(rules, r)
		}
	}
	return rules, scanner.Err()
}

// loadIgnoreFile reads the rules of one file. A missing file has no rules.
func loadIgnoreFile(file, base string) ignoreRules {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	rules, err := parseIgnore(base, f)
	if err != nil {
		debug.LogProvider("failed to read ignore file %s: %v", file, err)
	}
	return rules
}

// loadDirIgnores reads every ignore file directly inside dir
func loadDirIgnores(dir string) ignoreRules {
	var rules ignoreRules
	for _, name := range ignoreFileNames {
		rules = append(rules, loadIgnoreFile(filepath.Join(dir, name), dir)...)
	}
	return rules
}

// loadParentIgnores reads the ignore files of the ancestors of root, up to
// and including the directory holding .git. Outermost rules come first.
// Outside a repository there are none.
func loadParentIgnores(root string) ignoreRules {
	var dirs []string
	dir := filepath.Dir(root)
	if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
		return nil
	}
	for {
		dirs = append(dirs, dir)
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// not inside a repository
			return nil
		}
		dir = parent
	}

	var rules ignoreRules
	for i := len(dirs) - 1; i >= 0; i-- {
		rules = append(rules, loadDirIgnores(dirs[i])...)
	}
	return rules
}

// globalIgnoreFile is git's default user level excludes file
func globalIgnoreFile() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "git", "ignore")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "git", "ignore")
}

// loadGlobalIgnores reads a user level excludes file, scoped to root
func loadGlobalIgnores(file, root string) ignoreRules {
	if file == "" {
		return nil
	}
	return loadIgnoreFile(file, root)
}

// with returns rules extended by more without touching the receiver's
// backing array, so sibling directories never see each other's rules.
func (rs ignoreRules) with(more ignoreRules) ignoreRules {
	if len(more) == 0 {
		return rs
	}
	out := make(ignoreRules, 0, len(rs)+len(more))
	out = append(out, rs...)
	return append(out, more...)
}

// ignored reports whether the absolute path p is ignored
func (rs ignoreRules) ignored(p string, isDir bool) bool {
	ignored := false
	for _, r := range rs {
		if r.dirOnly && !isDir {
			continue
		}
		if r.matches(p) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r ignoreRule) matches(p string) bool {
	rel, err := filepath.Rel(r.base, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}

	if r.anchored {
		ok, _ := doublestar.Match(r.pattern, rel)
		return ok
	}
	ok, _ := doublestar.Match(r.pattern, path.Base(rel))
	return ok
}
