package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildArtifactDetector_JavaScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{
  "scripts": {
    "build": "tsc --outDir lib",
    "bundle": "esbuild src/index.ts --outDir=bundle"
  },
  "build": {"outDir": "dist"}
}`)
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"compilerOptions": {"outDir": "./dist/"}}`)
	writeFile(t, filepath.Join(root, "vite.config.ts"), "export default { build: { outDir: 'web-out' } }\n")

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Equal(t, []string{"**/bundle", "**/dist", "**/lib", "**/web-out"}, got)
}

func TestBuildArtifactDetector_TOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), "[package]\nname = \"demo\"\n")
	writeFile(t, filepath.Join(root, ".cargo", "config.toml"), "[build]\ntarget-dir = \"out/cargo\"\n")
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.hatch.build]\ndirectory = \"wheelhouse\"\n")

	got := NewBuildArtifactDetector(root).DetectOutputDirectories()
	assert.Equal(t, []string{"**/out/cargo", "**/target", "**/wheelhouse"}, got)
}

func TestBuildArtifactDetector_SkipsOutsideDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{"compilerOptions": {"outDir": "../elsewhere"}}`)
	writeFile(t, filepath.Join(root, "package.json"), `not json`)

	assert.Empty(t, NewBuildArtifactDetector(root).DetectOutputDirectories())
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DeduplicatePatterns([]string{"a", "b", "a"}))
}
