// Package config loads the editor configuration from a TOML file and
// watches it for changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/nib/internal/fetch"
)

// Config is the full editor configuration.
type Config struct {
	Editor EditorConfig `toml:"editor"`
	Fetch  FetchConfig  `toml:"fetch"`
	Log    LogConfig    `toml:"log"`
}

// EditorConfig covers host behavior.
type EditorConfig struct {
	// ScriptDir is where init.lua lives.
	ScriptDir string `toml:"script_dir"`

	// HistoryFile is the bbolt database for command history.
	HistoryFile string `toml:"history_file"`
}

// FetchConfig covers the tunable fetch admission knobs. The structural
// policy limits (URL length, body size, concurrency cap, timeout) are part
// of the subsystem contract and not configurable here.
type FetchConfig struct {
	// RateLimit is the number of fetch submissions admitted per minute.
	// 0 disables rate limiting.
	RateLimit int `toml:"rate_limit"`
}

// LogConfig covers diagnostics logging.
type LogConfig struct {
	// File receives log output. The terminal owns stdout, so logging to
	// it would corrupt the display.
	File string `toml:"file"`

	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	base := userDir()
	return Config{
		Editor: EditorConfig{
			ScriptDir:   base,
			HistoryFile: filepath.Join(base, "history.db"),
		},
		Fetch: FetchConfig{
			RateLimit: fetch.DefaultRateLimit,
		},
		Log: LogConfig{
			File:  filepath.Join(base, "nib.log"),
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults;
// a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validate rejects values that would misbehave silently later.
func (c *Config) validate() error {
	if c.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit must be >= 0, got %d", c.Fetch.RateLimit)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q not one of debug/info/warn/error", c.Log.Level)
	}
	return nil
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return filepath.Join(userDir(), "config.toml")
}

// userDir returns the per-user nib directory.
func userDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "nib")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nib")
}
