// Package config loads and persists lumin configuration.
//
// Configuration lives in a YAML file (.lumin.yaml by default). Every
// field has a sensible default so a missing file is not an error, and a
// handful of LUMIN_* environment variables override the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".lumin.yaml"

// Config holds all lumin configuration.
type Config struct {
	// Search defaults applied by the CLI when flags are not given.
	Search SearchConfig `yaml:"search"`

	// Traverse defaults.
	Traverse TraverseConfig `yaml:"traverse"`

	// View defaults.
	View ViewConfig `yaml:"view"`

	// Watch mode settings.
	Watch WatchConfig `yaml:"watch"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging"`
}

// SearchConfig configures content search defaults.
type SearchConfig struct {
	// MaxDepth bounds directory recursion. Zero means unlimited.
	MaxDepth int `yaml:"max_depth"`

	// Workers bounds how many files are searched concurrently.
	Workers int `yaml:"workers"`
}

// TraverseConfig configures traversal defaults.
type TraverseConfig struct {
	// IncludeBinary lists binary files alongside text files.
	IncludeBinary bool `yaml:"include_binary"`
}

// ViewConfig configures file viewing defaults.
type ViewConfig struct {
	// MaxSizeBytes rejects files larger than this. Zero means unlimited.
	MaxSizeBytes int64 `yaml:"max_size_bytes"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait after the last filesystem event
	// before re-running the search, e.g. "500ms".
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			MaxDepth: 20,
			Workers:  8,
		},
		Traverse: TraverseConfig{
			IncludeBinary: false,
		},
		View: ViewConfig{
			MaxSizeBytes: 10 * 1024 * 1024,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if lvl := os.Getenv("LUMIN_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if depth := os.Getenv("LUMIN_MAX_DEPTH"); depth != "" {
		if n, err := strconv.Atoi(depth); err == nil && n >= 0 {
			c.Search.MaxDepth = n
		}
	}
	if size := os.Getenv("LUMIN_VIEW_MAX_SIZE"); size != "" {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil && n >= 0 {
			c.View.MaxSizeBytes = n
		}
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("search.max_depth must not be negative")
	}
	if c.Search.Workers < 1 {
		return fmt.Errorf("search.workers must be at least 1")
	}
	if c.View.MaxSizeBytes < 0 {
		return fmt.Errorf("view.max_size_bytes must not be negative")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error")
	}
	return nil
}
