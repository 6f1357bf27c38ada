// Package debug is the diagnostic logger shared by every textsearch package.
//
// Output is off unless the binary was built with EnableDebug=true or the
// process runs with DEBUG=1, and it is always off in quiet mode (the MCP
// server owns stdout/stdin and must not see stray text).
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/textsearch/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// Component names used as log prefixes
const (
	ComponentSearch   = "SEARCH"
	ComponentProvider = "PROVIDER"
	ComponentConfig   = "CONFIG"
	ComponentMCP      = "MCP"
	ComponentWatch    = "WATCH"
)

var (
	mu      sync.Mutex
	quiet   bool
	output  io.Writer
	logFile *os.File
)

// SetQuietMode suppresses all debug output regardless of EnableDebug.
func SetQuietMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enabled
}

// SetOutput directs debug output to w. A nil writer disables output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// OpenLogFile routes debug output to a timestamped file under dir (the
// system temp directory when dir is empty) and returns its path.
func OpenLogFile(dir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if dir == "" {
		dir = filepath.Join(os.TempDir(), "textsearch-debug-logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("debug-%s.log", time.Now().Format("2006-01-02T150405.000")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	output = f
	return path, nil
}

// Close closes the log file opened by OpenLogFile, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	output = nil
	return err
}

// Enabled reports whether debug output would currently be produced.
func Enabled() bool {
	mu.Lock()
	q := quiet
	mu.Unlock()
	if q {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

// Log writes one component-tagged line. A trailing newline is added when
// the formatted message lacks one.
func Log(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}

	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	fmt.Fprintf(output, "[DEBUG:%s] %s", component, msg)
}

// LogSearch logs search manager activity
func LogSearch(format string, args ...interface{}) {
	Log(ComponentSearch, format, args...)
}

// LogProvider logs search provider activity
func LogProvider(format string, args ...interface{}) {
	Log(ComponentProvider, format, args...)
}

// LogConfig logs configuration loading
func LogConfig(format string, args ...interface{}) {
	Log(ComponentConfig, format, args...)
}

// LogMCP logs MCP server activity
func LogMCP(format string, args ...interface{}) {
	Log(ComponentMCP, format, args...)
}

// LogWatch logs file watcher activity
func LogWatch(format string, args ...interface{}) {
	Log(ComponentWatch, format, args...)
}
