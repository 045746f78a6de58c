package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "console.log")

	logger, closeFn, err := NewDailyRotateLogger(Config{File: path, Level: "debug", Console: &console})
	require.NoError(t, err)
	logger.Debug("refresh scheduled")
	closeFn()

	entry := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(console.Bytes()), &entry))
	assert.Equal(t, "refresh scheduled", entry["msg"])
	assert.Equal(t, "debug", entry["level"])

	dat, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(dat), "refresh scheduled")
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, _, err := NewDailyRotateLogger(Config{Level: "chatty", Console: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestLoggerLevelFilters(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := NewDailyRotateLogger(Config{Level: "warn", Console: &console})
	require.NoError(t, err)
	logger.Info("hidden")
	closeFn()
	assert.Empty(t, console.String())
}

func TestCloseReleasesLogFile(t *testing.T) {
	if _, err := os.Stat("/proc/self/fd"); err != nil {
		t.Skip("needs /proc")
	}
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	path := filepath.Join(dir, "console.log")

	logger, closeFn, err := NewDailyRotateLogger(Config{File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info("opened")
	require.True(t, holdsFile(t, path))

	closeFn()
	assert.False(t, holdsFile(t, path))
}

func holdsFile(t *testing.T, path string) bool {
	t.Helper()
	fds, err := os.ReadDir("/proc/self/fd")
	require.NoError(t, err)
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name()))
		if err == nil && target == path {
			return true
		}
	}
	return false
}
