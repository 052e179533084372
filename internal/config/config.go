// Package config loads griffond's daemon configuration from an optional
// YAML file, a log-level environment variable, and command-line flags, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LogLevelEnvVar overrides the configured log level when set.
const LogLevelEnvVar = "GRIFFOND_LOG_LEVEL"

// Config is griffond's daemon-wide configuration.
type Config struct {
	PluginsDir string `yaml:"plugins_dir"`
	RunnerPath string `yaml:"runner_path"`
	LogLevel   string `yaml:"log_level"`
}

// Default returns the configuration used when no file, flag, or
// environment override is present.
func Default() Config {
	return Config{
		PluginsDir: "./plugins",
		RunnerPath: "./griffon-runner",
		LogLevel:   "info",
	}
}

// Load starts from Default, merges path's YAML contents if path is
// non-empty, then applies the GRIFFOND_LOG_LEVEL environment override. An
// empty path skips the file; a named file that is missing or malformed is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if level := os.Getenv(LogLevelEnvVar); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}
