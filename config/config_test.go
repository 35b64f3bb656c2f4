package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 500, cfg.Limits.MaxCode)
	assert.Equal(t, 2000, cfg.Limits.MaxStack)
	assert.Equal(t, 11, cfg.Limits.MaxIdentLen)
	assert.Equal(t, 5, cfg.Limits.MaxNumberDigits)
	assert.False(t, cfg.Trace.EnableCodeListing)
	assert.False(t, cfg.Trace.EnableExecTrace)
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	assert.NotEmpty(t, path)
	assert.Equal(t, "pl0c.toml", filepath.Base(path))
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Limits.MaxCode = 1000
	cfg.Trace.EnableExecTrace = true
	cfg.Trace.OutputFile = "exec.trace"
	cfg.IO.InputFile = "in.txt"

	require.NoError(t, cfg.SaveTo(configPath))
	require.FileExists(t, configPath)

	loaded, err := LoadFrom(configPath)
	require.NoError(t, err)

	assert.Equal(t, 1000, loaded.Limits.MaxCode)
	assert.True(t, loaded.Trace.EnableExecTrace)
	assert.Equal(t, "exec.trace", loaded.Trace.OutputFile)
	assert.Equal(t, "in.txt", loaded.IO.InputFile)
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Limits.MaxCode)
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[limits]
max_code = "not a number"
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidTOML), 0644))

	_, err := LoadFrom(configPath)
	assert.Error(t, err)
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	require.NoError(t, cfg.SaveTo(configPath))
	assert.FileExists(t, configPath)
}
