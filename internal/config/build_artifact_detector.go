package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BuildArtifactDetector finds build output directories declared by a
// project's build configuration. The searches exclude them so generated
// copies of the sources do not show up as duplicate matches.
type BuildArtifactDetector struct {
	projectRoot string
}

// NewBuildArtifactDetector creates a detector for projectRoot
func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns "**/<dir>" exclude patterns, sorted and
// without duplicates
func (d *BuildArtifactDetector) DetectOutputDirectories() []string {
	var dirs []string
	dirs = append(dirs, d.packageJSONOutputs()...)
	dirs = append(dirs, d.tsconfigOutputs()...)
	dirs = append(dirs, d.viteOutputs()...)
	dirs = append(dirs, d.cargoOutputs()...)
	dirs = append(dirs, d.pyprojectOutputs()...)

	patterns := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if p, ok := outputPattern(dir); ok {
			patterns = append(patterns, p)
		}
	}
	sort.Strings(patterns)
	return DeduplicatePatterns(patterns)
}

// outputPattern normalizes a configured directory ("./dist/", "build") into
// an exclude pattern. Directories outside the project are skipped.
func outputPattern(dir string) (string, bool) {
	dir = strings.Trim(strings.TrimSpace(dir), "\"'")
	dir = filepath.ToSlash(filepath.Clean(dir))
	dir = strings.TrimPrefix(dir, "./")
	if dir == "" || dir == "." || dir == ".." || strings.HasPrefix(dir, "../") || strings.HasPrefix(dir, "/") {
		return "", false
	}
	return "**/" + dir, true
}

func (d *BuildArtifactDetector) readJSON(name string) map[string]any {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, name))
	if err != nil {
		return nil
	}
	var v map[string]any
	if json.Unmarshal(data, &v) != nil {
		return nil
	}
	return v
}

func (d *BuildArtifactDetector) readTOML(name string) map[string]any {
	data, err := os.ReadFile(filepath.Join(d.projectRoot, name))
	if err != nil {
		return nil
	}
	var v map[string]any
	if toml.Unmarshal(data, &v) != nil {
		return nil
	}
	return v
}

// lookup walks nested string-keyed maps
func lookup(m map[string]any, keys ...string) (any, bool) {
	var cur any = m
	for _, k := range keys {
		next, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = next[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func lookupString(m map[string]any, keys ...string) (string, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// packageJSONOutputs reads --outDir flags in npm scripts and build.outDir
func (d *BuildArtifactDetector) packageJSONOutputs() []string {
	pkg := d.readJSON("package.json")
	if pkg == nil {
		return nil
	}

	var dirs []string
	if scripts, ok := pkg["scripts"].(map[string]any); ok {
		for _, script := range scripts {
			s, ok := script.(string)
			if !ok {
				continue
			}
			fields := strings.Fields(s)
			for i, f := range fields {
				switch {
				case (f == "--outDir" || f == "-outDir" || f == "--out-dir") && i+1 < len(fields):
					dirs = append(dirs, fields[i+1])
				case strings.HasPrefix(f, "--outDir="):
					dirs = append(dirs, strings.TrimPrefix(f, "--outDir="))
				}
			}
		}
	}
	if s, ok := lookupString(pkg, "build", "outDir"); ok {
		dirs = append(dirs, s)
	}
	return dirs
}

func (d *BuildArtifactDetector) tsconfigOutputs() []string {
	tsconfig := d.readJSON("tsconfig.json")
	if s, ok := lookupString(tsconfig, "compilerOptions", "outDir"); ok {
		return []string{s}
	}
	return nil
}

// viteOutputs looks for `outDir: 'dist'` in a vite config without
// evaluating it
func (d *BuildArtifactDetector) viteOutputs() []string {
	var dirs []string
	for _, name := range []string{"vite.config.js", "vite.config.ts", "vite.config.mjs"} {
		data, err := os.ReadFile(filepath.Join(d.projectRoot, name))
		if err != nil {
			continue
		}
		content := string(data)
		idx := strings.Index(content, "outDir")
		if idx == -1 {
			continue
		}
		rest := content[idx+len("outDir"):]
		colon := strings.Index(rest, ":")
		if colon == -1 {
			continue
		}
		rest = strings.TrimSpace(rest[colon+1:])
		if rest == "" || (rest[0] != '\'' && rest[0] != '"' && rest[0] != '`') {
			continue
		}
		quote := rest[0]
		if end := strings.IndexByte(rest[1:], quote); end > 0 {
			dirs = append(dirs, rest[1:end+1])
		}
	}
	return dirs
}

// cargoOutputs reads a custom target directory from .cargo/config.toml or the
// release profile. The default target/ is only excluded when Cargo.toml exists.
func (d *BuildArtifactDetector) cargoOutputs() []string {
	cargo := d.readTOML("Cargo.toml")
	if cargo == nil {
		return nil
	}

	dirs := []string{"target"}
	if s, ok := lookupString(cargo, "profile", "release", "target-dir"); ok {
		dirs = append(dirs, s)
	}
	if s, ok := lookupString(d.readTOML(filepath.Join(".cargo", "config.toml")), "build", "target-dir"); ok {
		dirs = append(dirs, s)
	}
	return dirs
}

func (d *BuildArtifactDetector) pyprojectOutputs() []string {
	pyproject := d.readTOML("pyproject.toml")
	if pyproject == nil {
		return nil
	}

	var dirs []string
	if s, ok := lookupString(pyproject, "tool", "poetry", "build", "target-dir"); ok {
		dirs = append(dirs, s)
	}
	if s, ok := lookupString(pyproject, "tool", "hatch", "build", "directory"); ok {
		dirs = append(dirs, s)
	}
	return dirs
}

// DeduplicatePatterns removes duplicate patterns, keeping the first of each
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
