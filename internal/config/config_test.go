package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMaskKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "short key",
			key:      "abc",
			expected: "****",
		},
		{
			name:     "exactly 8 chars",
			key:      "12345678",
			expected: "****",
		},
		{
			name:     "long key",
			key:      "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskKey(tt.key)
			if result != tt.expected {
				t.Errorf("maskKey(%q) = %q, want %q", tt.key, result, tt.expected)
			}
		})
	}
}

// useTempConfig points the package at a fresh directory and clears the
// environment variables that would otherwise leak into Load.
func useTempConfig(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	oldConfigDir := configDir
	oldConfigFile := configFile
	configDir = tmpDir
	configFile = filepath.Join(tmpDir, "config.json")
	current = nil
	t.Cleanup(func() {
		configDir = oldConfigDir
		configFile = oldConfigFile
		current = nil
	})

	for key, env := range envFallbacks {
		t.Setenv(env, "")
		t.Setenv("GEOCHAT_"+upper(key), "")
	}
	for _, key := range []string{"provider", "model", "max_model_calls", "tool_timeout_seconds"} {
		t.Setenv("GEOCHAT_"+upper(key), "")
	}

	// keep a stray .env in the working directory out of the test
	wd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	return tmpDir
}

func TestLoadDefaults(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.Provider, "openai")
	}
	if cfg.MaxModelCalls != 5 {
		t.Errorf("MaxModelCalls = %d, want 5", cfg.MaxModelCalls)
	}
	if cfg.STACCollection != "sentinel-2-l2a" {
		t.Errorf("STACCollection = %q, want sentinel-2-l2a", cfg.STACCollection)
	}
	if cfg.STACMaxItems != 100 {
		t.Errorf("STACMaxItems = %d, want 100", cfg.STACMaxItems)
	}
	if cfg.ToolTimeout() != 30*time.Second {
		t.Errorf("ToolTimeout() = %v, want 30s", cfg.ToolTimeout())
	}
}

func TestConfigLoadSave(t *testing.T) {
	useTempConfig(t)

	cfg := &Config{OpenAIKey: "test-key-12345", Model: "gpt-4o"}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	if cfg2.OpenAIKey != "test-key-12345" {
		t.Errorf("OpenAIKey = %q, want %q", cfg2.OpenAIKey, "test-key-12345")
	}
	if cfg2.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg2.Model, "gpt-4o")
	}
	// defaults still fill what the file leaves out
	if cfg2.MaxModelCalls != 5 {
		t.Errorf("MaxModelCalls = %d, want 5", cfg2.MaxModelCalls)
	}
}

func TestConfigSet(t *testing.T) {
	useTempConfig(t)

	tests := []struct {
		key   string
		value string
		check func(*Config) bool
	}{
		{"openai", "sk-openai-key", func(c *Config) bool { return c.OpenAIKey == "sk-openai-key" }},
		{"anthropic_api_key", "sk-ant-key", func(c *Config) bool { return c.AnthropicKey == "sk-ant-key" }},
		{"provider", "anthropic", func(c *Config) bool { return c.Provider == "anthropic" }},
		{"max_model_calls", "8", func(c *Config) bool { return c.MaxModelCalls == 8 }},
		{"tool_timeout_seconds", "12", func(c *Config) bool { return c.ToolTimeout() == 12*time.Second }},
		{"temperature", "0.5", func(c *Config) bool { return c.Temperature == 0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q) error = %v", tt.key, err)
			}
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set(%q, %q) not reflected in loaded config", tt.key, tt.value)
			}
		})
	}
}

func TestConfigSetErrors(t *testing.T) {
	useTempConfig(t)

	if err := Set("no_such_key", "x"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("Set(unknown) error = %v, want unknown config key", err)
	}
	if err := Set("max_model_calls", "many"); err == nil {
		t.Error("Set(max_model_calls, many) should fail")
	}
}

func TestConfigDelete(t *testing.T) {
	useTempConfig(t)

	if err := Set("model", "llama3.1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := Delete("model"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "" {
		t.Errorf("Model after delete = %q, want empty", cfg.Model)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	useTempConfig(t)

	if err := Set("openai", "sk-from-file-0000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-from-env-1111")
	t.Setenv("GEOCHAT_MAX_MODEL_CALLS", "3")
	current = nil

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAIKey != "sk-from-env-1111" {
		t.Errorf("OpenAIKey = %q, want env value", cfg.OpenAIKey)
	}
	if cfg.MaxModelCalls != 3 {
		t.Errorf("MaxModelCalls = %d, want 3", cfg.MaxModelCalls)
	}

	keys := ListKeys()
	if got := keys["openai_api_key"]; got != "sk-f...1111 (env)" {
		t.Errorf("ListKeys()[openai_api_key] = %q", got)
	}
}

func TestListKeysMasksSecrets(t *testing.T) {
	useTempConfig(t)

	if err := Set("anthropic", "sk-ant-abcdefgh1234"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := Set("stac_collection", "landsat-c2-l2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	keys := ListKeys()
	if keys["anthropic_api_key"] != "sk-a...1234" {
		t.Errorf("anthropic_api_key = %q, want masked", keys["anthropic_api_key"])
	}
	if keys["stac_collection"] != "landsat-c2-l2" {
		t.Errorf("stac_collection = %q", keys["stac_collection"])
	}
	if _, ok := keys["openai_api_key"]; ok {
		t.Error("unset key should not be listed")
	}
}

func TestProfilePaths(t *testing.T) {
	dir := useTempConfig(t)

	paths := ProfilePaths()
	if len(paths) != 2 {
		t.Fatalf("ProfilePaths() returned %d paths, want 2", len(paths))
	}
	if paths[1] != filepath.Join(dir, "profiles") {
		t.Errorf("global profile path = %q", paths[1])
	}
}
