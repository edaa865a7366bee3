// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gemchat.
//
// Configuration lives in TOML at ~/.gemchat/config.toml, with built-in
// defaults and environment variable overrides. Missing file means defaults;
// a malformed file is an error so the user's intent is never half-applied.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gemchat/internal/gemini"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gemchat configuration.
type Config struct {
	Gemini  GeminiConfig  `toml:"gemini"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// GeminiConfig contains completion backend settings.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Usually supplied via the
	// GEMINI_API_KEY environment variable rather than the file.
	APIKey string `toml:"api_key"`
	// Tier selects the model tier: "flash" or "pro".
	Tier string `toml:"tier"`
	// EnableSearch turns on web-search grounding.
	EnableSearch bool `toml:"enable_search"`
	// EnableThinking turns on extended reasoning. Only the pro tier honors it.
	EnableThinking bool `toml:"enable_thinking"`
}

// StorageConfig contains session persistence settings.
type StorageConfig struct {
	// Path is the session database location (empty = ~/.gemchat/sessions.db).
	Path string `toml:"path"`
}

// LogConfig contains logging settings. The TUI owns the terminal, so logs
// always go to a file.
type LogConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `toml:"level"`
	// Path is the log file location (empty = ~/.gemchat/gemchat.log).
	Path string `toml:"path"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is the UI theme: "dark" or "light".
	Theme string `toml:"theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Tier:         string(gemini.TierFlash),
			EnableSearch: false,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the gemchat configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gemchat"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the default path. A missing file yields the
// defaults; environment overrides and validation apply either way.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Gemini.Tier == "" {
		c.Gemini.Tier = defaults.Gemini.Tier
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEMINI_API_KEY: overrides gemini.api_key
//   - GEMCHAT_TIER: overrides gemini.tier
//   - GEMCHAT_STORE: overrides storage.path
//   - GEMCHAT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if tier := os.Getenv("GEMCHAT_TIER"); tier != "" {
		c.Gemini.Tier = tier
	}
	if store := os.Getenv("GEMCHAT_STORE"); store != "" {
		c.Storage.Path = store
	}
	if level := os.Getenv("GEMCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Gemini.Tier) {
	case string(gemini.TierFlash), string(gemini.TierPro):
	default:
		return ValidationError{
			Field:   "gemini.tier",
			Message: fmt.Sprintf("invalid tier '%s', must be one of: flash, pro", c.Gemini.Tier),
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		}
	}

	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light":
	default:
		return ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		}
	}

	return nil
}

// =============================================================================
// SAVE / ACCESSORS
// =============================================================================

// Save writes the configuration to the default TOML path. The file is created
// 0600 since it may carry the API key.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to a specific file path.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# gemchat configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Tier returns the configured model tier as a typed value.
func (c *Config) Tier() gemini.Tier {
	return gemini.Tier(strings.ToLower(c.Gemini.Tier))
}

// Options returns the configured generation toggles.
func (c *Config) Options() gemini.Options {
	return gemini.Options{
		EnableSearch:   c.Gemini.EnableSearch,
		EnableThinking: c.Gemini.EnableThinking,
	}
}
