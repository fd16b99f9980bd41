// Package config loads mergescore settings from YAML.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/mergescore/internal/score"
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds the settings shared by all subcommands.
type Config struct {
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// Seed is passed to providers that support deterministic sampling.
	Seed *int `yaml:"seed"`

	Timeout time.Duration `yaml:"timeout"`
	Redact  bool          `yaml:"redact"`

	Format string `yaml:"format"`
	FailOn string `yaml:"fail_on"`

	MetricsOut string `yaml:"metrics_out"`
	FixOut     string `yaml:"fix_out"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parse defaults: %w", err)
	}
	return cfg, nil
}

// Load overlays the YAML file at path on the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges. It is run again by the CLI after flag
// overrides are applied.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "md":
	default:
		return fmt.Errorf("format %q unknown: want json|md", c.Format)
	}
	if c.FailOn != "" {
		if _, err := score.ParseStatus(c.FailOn); err != nil {
			return fmt.Errorf("fail_on: %w", err)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v is out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}
