// Package pathutil converts the absolute paths carried by search results into
// paths relative to a search root for display.
//
// Providers and the search manager work with absolute paths only. Relative
// paths are produced at output boundaries: CLI output, JSON lines written by
// the CLI, and anything else a person reads.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/textsearch/internal/searchtypes"
)

// ToRelative converts an absolute path to one relative to rootDir.
// The path is returned unchanged when it is already relative, when either
// argument is empty, or when it lies outside rootDir.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	relPath, err := filepath.Rel(filepath.Clean(rootDir), absPath)
	if err != nil {
		// different volumes on Windows
		return absPath
	}
	if isOutside(relPath) {
		return absPath
	}
	return relPath
}

// ToRelativeAny relativizes absPath against the first root that contains it.
// With several search folders this keeps each match relative to its own folder.
func ToRelativeAny(absPath string, roots []string) string {
	for _, root := range roots {
		if rel := ToRelative(absPath, root); rel != absPath {
			return rel
		}
	}
	return absPath
}

// ToRelativeFileMatches returns a copy of matches whose paths are relative to
// the first containing root. The input slice is not modified.
func ToRelativeFileMatches(matches []searchtypes.FileMatch, roots ...string) []searchtypes.FileMatch {
	if len(matches) == 0 {
		return matches
	}

	converted := make([]searchtypes.FileMatch, len(matches))
	copy(converted, matches)
	for i := range converted {
		converted[i].Path = ToRelativeAny(converted[i].Path, roots)
	}
	return converted
}

func isOutside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
