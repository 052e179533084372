package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "griffond.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins_dir: /opt/plugins\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/plugins", cfg.PluginsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().RunnerPath, cfg.RunnerPath, "runner path should keep default")
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/no/such/file.yaml")
	assert.Error(t, err)
}

func TestLoadMalformedYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plugins_dir: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEnvVarOverridesLogLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadEnvVarOverridesFileValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "griffond.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))
	t.Setenv(LogLevelEnvVar, "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}
