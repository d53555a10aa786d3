package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Model service
	Provider      string  `json:"provider,omitempty" mapstructure:"provider"`
	Model         string  `json:"model,omitempty" mapstructure:"model"`
	BaseURL       string  `json:"base_url,omitempty" mapstructure:"base_url"`
	OpenAIKey     string  `json:"openai_api_key,omitempty" mapstructure:"openai_api_key"`
	AnthropicKey  string  `json:"anthropic_api_key,omitempty" mapstructure:"anthropic_api_key"`
	OpenRouterKey string  `json:"openrouter_api_key,omitempty" mapstructure:"openrouter_api_key"`
	Temperature   float64 `json:"temperature,omitempty" mapstructure:"temperature"`

	// Loop
	MaxModelCalls      int `json:"max_model_calls,omitempty" mapstructure:"max_model_calls"`
	ToolTimeoutSeconds int `json:"tool_timeout_seconds,omitempty" mapstructure:"tool_timeout_seconds"`

	// Geo services
	NominatimURL   string `json:"nominatim_url,omitempty" mapstructure:"nominatim_url"`
	OverpassURL    string `json:"overpass_url,omitempty" mapstructure:"overpass_url"`
	STACURL        string `json:"stac_url,omitempty" mapstructure:"stac_url"`
	STACCollection string `json:"stac_collection,omitempty" mapstructure:"stac_collection"`
	STACMaxItems   int    `json:"stac_max_items,omitempty" mapstructure:"stac_max_items"`
	SearchURL      string `json:"search_url,omitempty" mapstructure:"search_url"`
	UserAgent      string `json:"user_agent,omitempty" mapstructure:"user_agent"`

	// Runtime
	NATSURL    string `json:"nats_url,omitempty" mapstructure:"nats_url"`
	DataDir    string `json:"data_dir,omitempty" mapstructure:"data_dir"`
	LogLevel   string `json:"log_level,omitempty" mapstructure:"log_level"`
	LogFormat  string `json:"log_format,omitempty" mapstructure:"log_format"`
	ListenAddr string `json:"listen_addr,omitempty" mapstructure:"listen_addr"`
	Theme      string `json:"theme,omitempty" mapstructure:"theme"`
}

// ToolTimeout returns the per-call tool deadline
func (c *Config) ToolTimeout() time.Duration {
	if c.ToolTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}

// SessionDir returns where persisted sessions live
func (c *Config) SessionDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

var (
	configDir  string
	configFile string
	current    *Config
)

// aliases maps short names accepted by `config set` to canonical keys
var aliases = map[string]string{
	"openai":     "openai_api_key",
	"anthropic":  "anthropic_api_key",
	"openrouter": "openrouter_api_key",
	"nats":       "nats_url",
}

// secrets are masked when listed
var secrets = map[string]bool{
	"openai_api_key":     true,
	"anthropic_api_key":  true,
	"openrouter_api_key": true,
}

// envFallbacks are unprefixed variables honoured for well known keys
var envFallbacks = map[string]string{
	"openai_api_key":     "OPENAI_API_KEY",
	"anthropic_api_key":  "ANTHROPIC_API_KEY",
	"openrouter_api_key": "OPENROUTER_API_KEY",
	"nats_url":           "NATS_URL",
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	configDir = filepath.Join(home, ".config", "geochat")
	configFile = filepath.Join(configDir, "config.json")
}

func defaults() map[string]any {
	return map[string]any{
		"provider":             "openai",
		"model":                "",
		"base_url":             "",
		"openai_api_key":       "",
		"anthropic_api_key":    "",
		"openrouter_api_key":   "",
		"temperature":          0.0,
		"max_model_calls":      5,
		"tool_timeout_seconds": 30,
		"nominatim_url":        "https://nominatim.openstreetmap.org",
		"overpass_url":         "https://overpass-api.de/api/interpreter",
		"stac_url":             "https://earth-search.aws.element84.com/v1",
		"stac_collection":      "sentinel-2-l2a",
		"stac_max_items":       100,
		"search_url":           "https://api.duckduckgo.com",
		"user_agent":           "geochat/1.0",
		"nats_url":             "",
		"data_dir":             configDir,
		"log_level":            "info",
		"log_format":           "text",
		"listen_addr":          ":8080",
		"theme":                "default",
	}
}

// Keys returns every canonical config key, sorted
func Keys() []string {
	keys := make([]string, 0)
	for k := range defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("json")
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("GEOCHAT")
	v.AutomaticEnv()
	for key, env := range envFallbacks {
		_ = v.BindEnv(key, "GEOCHAT_"+upper(key), env)
	}
	return v
}

// Load resolves the effective config: defaults, then the config file, then
// environment (a .env file in the working directory is read first).
func Load() (*Config, error) {
	if current != nil {
		return current, nil
	}

	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	current = cfg
	return current, nil
}

// Get returns the current config, loading if necessary
func Get() *Config {
	if current == nil {
		if _, err := Load(); err != nil {
			current = &Config{}
		}
	}
	return current
}

// readFile returns only the values persisted in the config file
func readFile() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk
func Save(cfg *Config) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// force the next Load to merge env and defaults again
	current = nil
	return nil
}

// Canonical resolves an alias to its config key
func Canonical(key string) (string, error) {
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if _, ok := defaults()[key]; !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return key, nil
}

// Set updates a config value by key and persists it
func Set(key, value string) error {
	key, err := Canonical(key)
	if err != nil {
		return err
	}
	cfg, err := readFile()
	if err != nil {
		return err
	}
	if err := assign(cfg, key, value); err != nil {
		return err
	}
	return Save(cfg)
}

// Delete removes a config value from the file
func Delete(key string) error {
	key, err := Canonical(key)
	if err != nil {
		return err
	}
	cfg, err := readFile()
	if err != nil {
		return err
	}
	if err := assign(cfg, key, ""); err != nil {
		return err
	}
	return Save(cfg)
}

func assign(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "base_url":
		cfg.BaseURL = value
	case "openai_api_key":
		cfg.OpenAIKey = value
	case "anthropic_api_key":
		cfg.AnthropicKey = value
	case "openrouter_api_key":
		cfg.OpenRouterKey = value
	case "nominatim_url":
		cfg.NominatimURL = value
	case "overpass_url":
		cfg.OverpassURL = value
	case "stac_url":
		cfg.STACURL = value
	case "stac_collection":
		cfg.STACCollection = value
	case "search_url":
		cfg.SearchURL = value
	case "user_agent":
		cfg.UserAgent = value
	case "nats_url":
		cfg.NATSURL = value
	case "data_dir":
		cfg.DataDir = value
	case "log_level":
		cfg.LogLevel = value
	case "log_format":
		cfg.LogFormat = value
	case "listen_addr":
		cfg.ListenAddr = value
	case "theme":
		cfg.Theme = value
	case "temperature":
		f, err := parseFloat(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		cfg.Temperature = f
	case "max_model_calls", "tool_timeout_seconds", "stac_max_items":
		n, err := parseInt(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "max_model_calls":
			cfg.MaxModelCalls = n
		case "tool_timeout_seconds":
			cfg.ToolTimeoutSeconds = n
		default:
			cfg.STACMaxItems = n
		}
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Value returns the effective value of a key as a string
func Value(key string) (string, error) {
	key, err := Canonical(key)
	if err != nil {
		return "", err
	}
	v := newViper()
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return v.GetString(key), nil
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return configFile
}

// ProfilePaths returns where profile definitions are searched, project-local
// (.geochat/profiles) first, then global (~/.config/geochat/profiles).
func ProfilePaths() []string {
	paths := []string{}

	cwd, err := os.Getwd()
	if err == nil {
		paths = append(paths, filepath.Join(cwd, ".geochat", "profiles"))
	}

	paths = append(paths, filepath.Join(configDir, "profiles"))

	return paths
}

// ListKeys returns keys set in the file or environment (secrets masked)
func ListKeys() map[string]string {
	result := make(map[string]string)

	fileCfg, err := readFile()
	if err != nil {
		fileCfg = &Config{}
	}

	for _, key := range Keys() {
		fileVal := fileValue(fileCfg, key)
		envVal := ""
		if env, ok := envFallbacks[key]; ok && os.Getenv(env) != "" {
			envVal = os.Getenv(env)
		}
		if val := os.Getenv("GEOCHAT_" + upper(key)); val != "" {
			envVal = val
		}

		switch {
		case envVal != "":
			result[key] = display(key, envVal) + " (env)"
		case fileVal != "":
			result[key] = display(key, fileVal)
		}
	}
	return result
}

func fileValue(cfg *Config, key string) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	if val, ok := m[key]; ok {
		return fmt.Sprint(val)
	}
	return ""
}

func display(key, value string) string {
	if secrets[key] {
		return maskKey(value)
	}
	return value
}

// maskKey shows only first 4 and last 4 characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func upper(key string) string {
	return strings.ToUpper(key)
}

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
