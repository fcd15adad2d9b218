// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Controller ControllerConfig `yaml:"controller"`
	Playback   PlaybackConfig   `yaml:"playback"`
	Remote     RemoteConfig     `yaml:"remote"`
}

// CatalogConfig represents the catalog server connection.
type CatalogConfig struct {
	BaseURL   string `yaml:"base_url" validate:"required,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=0,lte=120000"`
}

// ControllerConfig represents browse/queue controller tuning.
type ControllerConfig struct {
	MetadataConcurrency int   `yaml:"metadata_concurrency" default:"8" validate:"gte=1,lte=64"`
	FenceStaleResults   *bool `yaml:"fence_stale_results" default:"true"`
	EventBuffer         int   `yaml:"event_buffer" default:"64" validate:"gte=1,lte=4096"`
}

// PlaybackConfig represents the playback device.
type PlaybackConfig struct {
	Type     string         `yaml:"type" default:"mpv" validate:"oneof=mpv null"`
	Settings map[string]any `yaml:"settings"`
}

// RemoteConfig represents the remote control server.
type RemoteConfig struct {
	Addr string `yaml:"addr" default:"127.0.0.1:7700" validate:"required,hostname_port"`
}

// Load loads configuration from a YAML file.
// An empty path skips the file, leaving environment variables and defaults.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DISCOGRAPHIC_CATALOG_URL"); v != "" {
		c.Catalog.BaseURL = v
	}
	if v := os.Getenv("DISCOGRAPHIC_REMOTE_ADDR"); v != "" {
		c.Remote.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// CatalogTimeout returns the catalog request timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutMs) * time.Millisecond
}

// FenceStale reports whether stale metadata results are dropped. Defaults to true.
func (c *Config) FenceStale() bool {
	if c.Controller.FenceStaleResults == nil {
		return true
	}
	return *c.Controller.FenceStaleResults
}
