package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blossom-ai/blossom-go/config"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
	}{
		{"console default", config.LogConfig{Level: "info", Format: "console"}},
		{"json debug", config.LogConfig{Level: "debug", Format: "json"}},
		{"unknown level falls back to info", config.LogConfig{Level: "verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := initLogger(tt.cfg)
			require.NotNil(t, logger)
			logger.Info("probe")
			_ = logger.Sync()
		})
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blossom.log")
	logger := initLogger(config.LogConfig{
		Level:          "info",
		Format:         "json",
		File:           path,
		FileMaxSizeMB:  1,
		FileMaxBackups: 1,
	})
	logger.Info("file probe")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file probe")
}

func TestPick(t *testing.T) {
	assert.Equal(t, "a", pick("a", "b"))
	assert.Equal(t, "b", pick("", "b"))
	assert.Equal(t, "", pick("", ""))
}

func TestTruncatePrompt(t *testing.T) {
	assert.Equal(t, "short", truncatePrompt("short"))

	long := ""
	for i := 0; i < 80; i++ {
		long += "x"
	}
	got := truncatePrompt(long)
	assert.LessOrEqual(t, len([]rune(got)), 60)
	assert.Equal(t, "…", string([]rune(got)[len([]rune(got))-1]))
}
