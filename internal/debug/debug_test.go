package debug

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveAndRestoreState saves the debug package state and returns a cleanup function
func saveAndRestoreState() func() {
	originalDebug := EnableDebug
	mu.Lock()
	originalQuiet := quiet
	originalOutput := output
	originalFile := logFile
	mu.Unlock()
	return func() {
		EnableDebug = originalDebug
		mu.Lock()
		quiet = originalQuiet
		output = originalOutput
		logFile = originalFile
		mu.Unlock()
	}
}

func TestEnabled(t *testing.T) {
	defer saveAndRestoreState()()
	t.Setenv("DEBUG", "")

	EnableDebug = "false"
	assert.False(t, Enabled())

	EnableDebug = "true"
	assert.True(t, Enabled())

	SetQuietMode(true)
	assert.False(t, Enabled(), "quiet mode wins over the build flag")
	SetQuietMode(false)

	EnableDebug = "invalid"
	assert.False(t, Enabled())

	t.Setenv("DEBUG", "1")
	assert.True(t, Enabled())
}

func TestLog(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetOutput(&buf)
	EnableDebug = "true"

	Log("TEST", "value=%d", 42)
	assert.Equal(t, "[DEBUG:TEST] value=42\n", buf.String())

	buf.Reset()
	Log("TEST", "already terminated\n")
	assert.Equal(t, "[DEBUG:TEST] already terminated\n", buf.String())
}

func TestLog_QuietMode(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetOutput(&buf)
	EnableDebug = "true"
	SetQuietMode(true)

	LogMCP("should not appear")
	assert.Empty(t, buf.String())
}

func TestLogHelpers(t *testing.T) {
	defer saveAndRestoreState()()
	EnableDebug = "true"

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
	}{
		{"LogSearch", LogSearch, "[DEBUG:SEARCH]"},
		{"LogProvider", LogProvider, "[DEBUG:PROVIDER]"},
		{"LogConfig", LogConfig, "[DEBUG:CONFIG]"},
		{"LogMCP", LogMCP, "[DEBUG:MCP]"},
		{"LogWatch", LogWatch, "[DEBUG:WATCH]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutput(&buf)

			tt.logFunc("message %s", "test")

			assert.True(t, strings.HasPrefix(buf.String(), tt.prefix))
			assert.Contains(t, buf.String(), "message test")
		})
	}
}

func TestConcurrentLogging(t *testing.T) {
	defer saveAndRestoreState()()

	var buf bytes.Buffer
	SetOutput(&buf)
	EnableDebug = "true"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			LogSearch("search from goroutine %d", id)
			LogProvider("provider from goroutine %d", id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "\n"))
}

func TestNoOutputWithNilWriter(t *testing.T) {
	defer saveAndRestoreState()()

	SetOutput(nil)
	EnableDebug = "true"

	// These should not panic, they should just do nothing
	Log("TEST", "test %s", "message")
	LogSearch("test %s", "message")
	LogWatch("test %s", "message")
}

func TestOpenLogFile(t *testing.T) {
	defer saveAndRestoreState()()

	logPath, err := OpenLogFile(t.TempDir())
	require.NoError(t, err)
	require.NotEmpty(t, logPath)

	EnableDebug = "true"
	LogSearch("Test log message")

	require.NoError(t, Close())
	require.NoError(t, Close(), "closing twice is a no-op")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG:SEARCH] Test log message")
}
