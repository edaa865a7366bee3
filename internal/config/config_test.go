// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/gemchat/internal/gemini"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// =============================================================================
// LOAD TESTS
// =============================================================================

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Gemini.Tier != "flash" {
		t.Errorf("Tier = %q, want %q", cfg.Gemini.Tier, "flash")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want %q", cfg.UI.Theme, "dark")
	}
}

func TestLoadFromPath_FileValuesApply(t *testing.T) {
	path := writeConfig(t, `
[gemini]
tier = "pro"
enable_search = true
enable_thinking = true

[log]
level = "debug"
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tier() != gemini.TierPro {
		t.Errorf("Tier = %q, want pro", cfg.Tier())
	}
	opts := cfg.Options()
	if !opts.EnableSearch || !opts.EnableThinking {
		t.Errorf("Options = %+v, want both toggles on", opts)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[gemini]
enable_search = true
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.Tier != "flash" {
		t.Errorf("Unset tier should default to flash, got %q", cfg.Gemini.Tier)
	}
	if !cfg.Gemini.EnableSearch {
		t.Error("Set values must survive default filling")
	}
}

func TestLoadFromPath_MalformedFileErrors(t *testing.T) {
	path := writeConfig(t, `[gemini`)

	if _, err := LoadFromPath(path); err == nil {
		t.Error("A malformed file must be an error, not silently defaulted")
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[gemini]
api_key = "from-file"
tier = "flash"
`)
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("GEMCHAT_TIER", "pro")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("APIKey = %q, env must win over the file", cfg.Gemini.APIKey)
	}
	if cfg.Tier() != gemini.TierPro {
		t.Errorf("Tier = %q, env must win over the file", cfg.Tier())
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"pro tier is valid", func(c *Config) { c.Gemini.Tier = "pro" }, false},
		{"unknown tier", func(c *Config) { c.Gemini.Tier = "ultra" }, true},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

// =============================================================================
// SAVE TESTS
// =============================================================================

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Gemini.Tier = "pro"
	cfg.Gemini.EnableThinking = true
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Gemini.Tier != "pro" || !loaded.Gemini.EnableThinking {
		t.Error("Config did not round-trip")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Config file mode = %o, want 0600", info.Mode().Perm())
	}
}
