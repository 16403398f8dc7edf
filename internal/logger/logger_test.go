package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "editor.log")

	// MaxSize is in MB; 1MB is the smallest lumberjack allows.
	err := InitWithOptions(Options{
		Level: "debug",
		File: FileConfig{
			Path:       logFile,
			MaxSizeMB:  1,
			MaxBackups: 2,
			MaxAgeDays: 1,
		},
	})
	require.NoError(t, err)
	defer Sync()

	payload := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("node %d transformed: %s", i, payload)
	}
	Sync()

	_, err = os.Stat(logFile)
	require.NoError(t, err, "main log file should exist")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var rotated []string
	for _, e := range entries {
		if e.Name() != "editor.log" && strings.HasPrefix(e.Name(), "editor") {
			rotated = append(rotated, e.Name())
		}
	}
	assert.NotEmpty(t, rotated, "expected at least one rotated file")
	for _, name := range rotated {
		// lumberjack format: editor-YYYY-MM-DDTHH-MM-SS.SSS.log
		assert.Contains(t, name, "-20")
	}
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			require.NoError(t, InitWithOptions(Options{
				Level: tt.level,
				File:  FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1},
			}))

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)

			for _, exp := range tt.expected {
				assert.Contains(t, string(content), exp)
			}
			for _, exc := range tt.excluded {
				assert.NotContains(t, string(content), exc)
			}
		})
	}
}

func TestNamedComponent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "named.log")
	require.NoError(t, InitWithOptions(Options{
		Level: "info",
		File:  FileConfig{Path: logFile, MaxSizeMB: 1},
	}))

	Named("importer").Info("model imported")
	Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "importer")
	assert.Contains(t, string(content), "model imported")
}

func TestNoSinksIsNop(t *testing.T) {
	l, err := New(Options{Level: "debug"})
	require.NoError(t, err)
	l.Info("dropped") // must not panic
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/editor.log")

	assert.Equal(t, "/tmp/editor.log", cfg.Path)
	assert.Equal(t, 20, cfg.MaxSizeMB)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 14, cfg.MaxAgeDays)
	assert.True(t, cfg.Compress)
}
