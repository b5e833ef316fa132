// Package config loads run defaults from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings a config file may provide. Command-line flags
// override them.
type Config struct {
	Prefix     string    `yaml:"prefix"`
	Length     int       `yaml:"length"`
	Start      uint64    `yaml:"start"`
	Checksum   string    `yaml:"checksum"`
	Comment    string    `yaml:"comment"`
	Unresolved string    `yaml:"unresolved"`
	Log        LogConfig `yaml:"log"`
}

// LogConfig controls diagnostics on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.Prefix == "" {
		c.Prefix = "SR"
	}
	if c.Checksum == "" {
		c.Checksum = "seguid"
	}
	if c.Comment == "" {
		c.Comment = "#"
	}
	if c.Unresolved == "" {
		c.Unresolved = "abort"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// LoadFile reads a YAML config file and fills unset keys with defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Length < 0 {
		return nil, fmt.Errorf("config %s: length must be >= 0", path)
	}
	cfg.defaults()
	return cfg, nil
}

// Load returns the defaults when path is empty, else LoadFile(path).
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
