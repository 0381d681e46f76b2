package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API  APIConfig  `yaml:"api"`
	Sync SyncConfig `yaml:"sync"`
	Log  LogConfig  `yaml:"log"`
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url" env:"IRSIM_API_URL"`
	Token    string        `yaml:"token"    env:"IRSIM_API_TOKEN"`
	Timeout  time.Duration `yaml:"timeout"  env:"IRSIM_API_TIMEOUT"`
	Scenario string        `yaml:"scenario" env:"IRSIM_SCENARIO"`
}

type SyncConfig struct {
	Interval     time.Duration `yaml:"interval"      env:"IRSIM_SYNC_INTERVAL"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"IRSIM_SYNC_INITIAL_DELAY"`
	MaxBackoff   time.Duration `yaml:"max_backoff"   env:"IRSIM_SYNC_MAX_BACKOFF"`
}

type LogConfig struct {
	File string `yaml:"file" env:"IRSIM_LOG_FILE"`
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  "http://localhost:8000",
			Timeout:  10 * time.Second,
			Scenario: "advanced_phishing",
		},
		Sync: SyncConfig{
			Interval:     3 * time.Second,
			InitialDelay: 2 * time.Second,
			MaxBackoff:   30 * time.Second,
		},
		Log: LogConfig{
			File: "irsim.log",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies IRSIM_*
// environment overrides. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Scenario == "" {
		return errors.New("api.scenario is required")
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"api.timeout", c.API.Timeout},
		{"sync.interval", c.Sync.Interval},
		{"sync.initial_delay", c.Sync.InitialDelay},
		{"sync.max_backoff", c.Sync.MaxBackoff},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.d)
		}
	}
	if c.Sync.MaxBackoff < c.Sync.Interval {
		return fmt.Errorf("sync.max_backoff (%v) is shorter than sync.interval (%v)", c.Sync.MaxBackoff, c.Sync.Interval)
	}
	return nil
}
