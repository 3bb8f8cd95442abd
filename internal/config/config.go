// Package config loads and saves the CLI configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"etr/internal/api"
)

// Config holds the CLI configuration. Consumer credentials live in the
// keyring, not here.
type Config struct {
	// Sandbox selects the paper trading host.
	Sandbox bool `yaml:"sandbox"`
	// APIBaseURL overrides the broker host; normally derived from Sandbox.
	APIBaseURL string `yaml:"api_base_url,omitempty"`
	// AccountIDKey is the preferred active account, selected with
	// `etr accounts select`.
	AccountIDKey string `yaml:"account_id_key,omitempty"`
	// PollIntervalSeconds is the balance watch refresh interval.
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty"`
}

// BaseURL returns the effective broker host.
func (c *Config) BaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	if c.Sandbox {
		return api.SandboxBaseURL
	}
	return api.ProductionBaseURL
}

// PollInterval returns the configured watch interval, defaulting to 30s.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Path returns the config file path. Uses XDG_CONFIG_HOME if set,
// otherwise ~/.config/etr.
func Path() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "etr")
	} else {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config", "etr")
	}
	return filepath.Join(configDir, "config.yaml")
}

// Load reads the config file. A missing file yields the zero config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config file, creating parent directories with 0700.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
