// Package config loads the manager's configuration from defaults, an
// optional YAML file, and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultInterface    = "wpan0"
	DefaultPort         = 49154
	DefaultHostName     = "otbr-server"
	DefaultVendor       = "OpenThread"
	DefaultModel        = "SLZB-OTBR"
	DefaultPollInterval = 30 * time.Second
	DefaultLogLevel     = "info"
)

// Environment variables honored for compatibility with existing
// deployments.
const (
	EnvHostName = "OTBR_HOSTNAME"
	EnvVendor   = "OTBR_VENDOR"
	EnvModel    = "OTBR_MODEL"
)

// Config is the manager's complete configuration.
type Config struct {
	// Interface is the mesh network interface.
	Interface string `yaml:"interface"`

	// Port is the fixed advertised border-agent port.
	Port int `yaml:"port"`

	// HostName is the advertised mDNS host, normalized to end in
	// ".local.".
	HostName string `yaml:"hostname"`

	// Vendor and Model are the optional vn/mn TXT properties.
	Vendor string `yaml:"vendor"`
	Model  string `yaml:"model"`

	// PollInterval is the reconciliation cycle period.
	PollInterval time.Duration `yaml:"poll_interval"`

	// EventLogPath enables the CBOR event log when non-empty.
	EventLogPath string `yaml:"event_log"`

	// LogLevel is the console log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interface:    DefaultInterface,
		Port:         DefaultPort,
		HostName:     DefaultHostName,
		Vendor:       DefaultVendor,
		Model:        DefaultModel,
		PollInterval: DefaultPollInterval,
		LogLevel:     DefaultLogLevel,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides, then
// normalization.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvHostName); v != "" {
		c.HostName = v
	}
	if v := os.Getenv(EnvVendor); v != "" {
		c.Vendor = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
}

// Normalize fills zero values with defaults and qualifies the host
// name with the ".local." domain suffix.
func (c *Config) Normalize() {
	if c.Interface == "" {
		c.Interface = DefaultInterface
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.HostName == "" {
		c.HostName = DefaultHostName
	}
	c.HostName = NormalizeHostName(c.HostName)
}

// Validate rejects configurations no component could run with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	return nil
}

// NormalizeHostName ensures the host name ends in ".local.".
func NormalizeHostName(host string) string {
	if !strings.HasSuffix(host, ".local") && !strings.HasSuffix(host, ".local.") {
		host += ".local"
	}
	if !strings.HasSuffix(host, ".") {
		host += "."
	}
	return host
}
