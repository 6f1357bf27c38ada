package version

import (
	"runtime/debug"
	"sync"
)

// Version is the current semantic version of textsearch
const Version = "0.1.0"

// Set at build time with -ldflags "-X .../internal/version.GitCommit=..."
var (
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns the version with the commit and build date
func FullInfo() string {
	return "textsearch " + Version + " (commit: " + Commit() + ", built: " + BuildDate + ")"
}

var (
	commit     string
	commitOnce sync.Once
)

// Commit returns GitCommit, or the VCS revision embedded by the Go toolchain
// when the binary was built without ldflags
func Commit() string {
	commitOnce.Do(func() {
		commit = GitCommit
		if commit != "unknown" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				commit = s.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		}
	})
	return commit
}
