package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(homeDir(), ".scribebot", "config.json")
}

// DataDir returns the scribebot data directory, creating it if needed.
func DataDir() string {
	dir := filepath.Join(homeDir(), ".scribebot")
	os.MkdirAll(dir, 0o755)
	return dir
}

// Load reads configuration from the default path, falling back to defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from a specific path. A missing file yields
// defaults; a present file must parse, carry no unknown keys and validate.
// Environment credentials override empty config values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if unknown := CheckUnknownFields(raw); len(unknown) > 0 {
		return cfg, fmt.Errorf("config has unknown fields: %s", strings.Join(unknown, ", "))
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("apply config: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes configuration to the default path.
func Save(cfg *Config) error {
	return SaveTo(cfg, ConfigPath())
}

// SaveTo writes configuration to a specific path.
func SaveTo(cfg *Config, path string) error {
	os.MkdirAll(filepath.Dir(path), 0o755)

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}

// applyDefaults restores defaults a config file zeroed out by omission.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Chat.APIBase == "" {
		cfg.Chat.APIBase = defaults.Chat.APIBase
	}
	if cfg.Chat.WSURL == "" {
		cfg.Chat.WSURL = defaults.Chat.WSURL
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = defaults.Agent.Model
	}
	if cfg.Agent.Temperature == 0 {
		cfg.Agent.Temperature = defaults.Agent.Temperature
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = defaults.Agent.MaxTokens
	}
	if cfg.Supervisor.SweepIntervalS == 0 {
		cfg.Supervisor.SweepIntervalS = defaults.Supervisor.SweepIntervalS
	}
}

func applyEnv(cfg *Config) {
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = os.Getenv("SCRIBEBOT_CHAT_API_KEY")
	}
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp"
	}
	return home
}
