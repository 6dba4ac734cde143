// Package config loads the viewer configuration from a YAML file with
// defaults for every key, and validates it on startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"qtab/datatable"
)

// Config holds all viewer configuration.
type Config struct {
	// Build is the default build files are opened with (default: -1, auto)
	Build int `yaml:"build"`

	Model datatable.Config `yaml:"model"`

	// Structures is an optional YAML file of extra WDBC structures
	Structures string `yaml:"structures"`

	Log LogConfig `yaml:"log"`

	// OpenDir is the directory the open dialog starts in
	OpenDir string `yaml:"open_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Build: datatable.BuildAuto,
		Model: datatable.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config load %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv.
const (
	EnvConfig    = "QTAB_CONFIG"
	EnvBuild     = "QTAB_BUILD"
	EnvLogLevel  = "QTAB_LOG_LEVEL"
	EnvLogFormat = "QTAB_LOG_FORMAT"
	EnvOpenDir   = "QTAB_OPEN_DIR"
)

// ApplyEnv overrides values with the QTAB_* environment variables that are
// set, then validates the result.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBuild); v != "" {
		build, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config env: %s=%q: %w", EnvBuild, v, err)
		}
		c.Build = build
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvOpenDir); v != "" {
		c.OpenDir = v
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// Validate checks all configuration values.
func (c *Config) Validate() error {
	var errs []string

	if c.Build < datatable.BuildAuto {
		errs = append(errs, fmt.Sprintf("build (%d) must be >= -1", c.Build))
	}
	if err := c.Model.Validate(); err != nil {
		errs = append(errs, "model: "+err.Error())
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}

	if c.OpenDir != "" {
		if fi, err := os.Stat(c.OpenDir); err != nil || !fi.IsDir() {
			errs = append(errs, fmt.Sprintf("open_dir %q is not a directory", c.OpenDir))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
