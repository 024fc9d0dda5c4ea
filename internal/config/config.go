// Package config holds the solver configuration surface: search budget,
// objective policy and batch parallelism, loadable from a YAML file and
// overridable by flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntoineSebert/scheduling-solver/internal/engine"
)

// Config is the tool configuration.
type Config struct {
	TimeLimit time.Duration // wall-clock budget per solve
	NodeLimit int           // explored candidates per solve, 0 = unlimited
	Policy    string        // objective policy name
	Workers   int           // batch parallelism
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TimeLimit: 30 * time.Second,
		NodeLimit: 100000,
		Policy:    string(engine.PolicyMaximinSlack),
		Workers:   4,
	}
}

// yamlConfig is the file form; time_limit is a duration string.
type yamlConfig struct {
	TimeLimit string `yaml:"time_limit"`
	NodeLimit *int   `yaml:"node_limit"`
	Policy    string `yaml:"policy"`
	Workers   *int   `yaml:"workers"`
}

// Load overlays the file at path onto the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var f yamlConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.TimeLimit != "" {
		d, err := time.ParseDuration(f.TimeLimit)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: time_limit: %w", path, err)
		}
		cfg.TimeLimit = d
	}
	if f.NodeLimit != nil {
		cfg.NodeLimit = *f.NodeLimit
	}
	if f.Policy != "" {
		cfg.Policy = f.Policy
	}
	if f.Workers != nil {
		cfg.Workers = *f.Workers
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if _, err := engine.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("time limit %s must not be negative", c.TimeLimit)
	}
	if c.NodeLimit < 0 {
		return fmt.Errorf("node limit %d must not be negative", c.NodeLimit)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers %d must be positive", c.Workers)
	}
	return nil
}
