package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// envBindings maps config keys to the CODEMATE_* variables that override
// them, on top of whatever the files set.
var envBindings = map[string]string{
	"scheduler.max_concurrent": "CODEMATE_MAX_CONCURRENT",
	"bridge.timeout_seconds":   "CODEMATE_TIMEOUT_SECONDS",
	"logger.level":             "CODEMATE_LOG_LEVEL",
	"logger.encoding":          "CODEMATE_LOG_ENCODING",
	"workspace.root_dir":       "CODEMATE_ROOT",
	"workspace.output_dir":     "CODEMATE_OUTPUT_DIR",
}

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): environment, project config,
// global config, defaults. Missing files are not errors; malformed YAML
// returns an error.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	if err := mergeEnv(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.codemate/config.yaml
// Project: .codemate.yaml (relative to cwd)
func LoadDefault() (*Config, error) {
	globalPath, err := DefaultGlobalPath()
	if err != nil {
		return nil, err
	}
	return Load(globalPath, ".codemate.yaml")
}

// DefaultGlobalPath returns the conventional global config location.
func DefaultGlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".codemate", "config.yaml"), nil
}

// mergeConfigFile reads a YAML config file and merges it into the base
// config. Missing files are silently skipped; only keys present in the file
// overwrite the base.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := v.Unmarshal(base); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// mergeEnv applies CODEMATE_* overrides for the bound keys.
func mergeEnv(base *Config) error {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("codemate")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envVar := range envBindings {
		if err := v.BindEnv(key, envVar); err != nil {
			return fmt.Errorf("binding %s: %w", envVar, err)
		}
	}

	if err := v.Unmarshal(base); err != nil {
		return fmt.Errorf("decoding environment: %w", err)
	}
	return nil
}
