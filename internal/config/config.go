// Package config provides configuration management for the FTP server.
package config

import (
	"errors"
	"fmt"
	"time"
)

// FileConfig is the top-level wrapper for the shared configuration file.
// This allows several infodancer services to share a single config file.
type FileConfig struct {
	Server ServerConfig `toml:"server"`
	Ftpd   Config       `toml:"ftpd"`
}

// ServerConfig holds shared settings used by all services.
type ServerConfig struct {
	Hostname string `toml:"hostname"`
	Root     string `toml:"root"`
}

// Config holds the FTP-specific server configuration.
type Config struct {
	Hostname  string         `toml:"hostname"`
	LogLevel  string         `toml:"log_level"`
	Listen    string         `toml:"listen"`
	Root      string         `toml:"root"`
	UsersFile string         `toml:"users_file"`
	Data      DataConfig     `toml:"data"`
	Timeouts  TimeoutsConfig `toml:"timeouts"`
	Limits    LimitsConfig   `toml:"limits"`
	Metrics   MetricsConfig  `toml:"metrics"`
	Users     UsersConfig    `toml:"users"`
}

// DataConfig controls how active-mode data connections are originated.
type DataConfig struct {
	// SourcePort is the local port data connections are dialed from.
	// RFC 959 specifies port 20 for active mode.
	SourcePort int `toml:"source_port"`

	// Ephemeral selects an ephemeral source port instead of SourcePort.
	// This deviates from strict RFC 959 active mode but allows concurrent
	// transfers and running without privileges.
	Ephemeral bool `toml:"ephemeral"`
}

// TimeoutsConfig defines timeout durations.
type TimeoutsConfig struct {
	Connection string `toml:"connection"`
	Command    string `toml:"command"`
	Idle       string `toml:"idle"`
}

// LimitsConfig defines resource limits for the server.
type LimitsConfig struct {
	MaxSessions int `toml:"max_sessions"`
}

// MetricsConfig holds configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
	Path    string `toml:"path"`
}

// UsersConfig controls credential store behaviour.
type UsersConfig struct {
	// Watch reloads the credential file when it changes on disk.
	Watch bool `toml:"watch"`
}

// Default returns a Config with sensible default values.
func Default() Config {
	return Config{
		Hostname:  "localhost",
		LogLevel:  "info",
		Listen:    ":21",
		Root:      ".",
		UsersFile: "./ftpusers.csv",
		Data: DataConfig{
			SourcePort: 20,
		},
		Timeouts: TimeoutsConfig{
			Connection: "10m",
			Command:    "5m",
			Idle:       "30m",
		},
		Limits: LimitsConfig{
			MaxSessions: 10,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9121",
			Path:    "/metrics",
		},
	}
}

// Validate checks that the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Hostname == "" {
		return errors.New("hostname is required")
	}

	if c.Listen == "" {
		return errors.New("listen address is required")
	}

	if c.Root == "" {
		return errors.New("root directory is required")
	}

	if c.UsersFile == "" {
		return errors.New("users_file is required")
	}

	if c.Limits.MaxSessions <= 0 {
		return errors.New("max_sessions must be positive")
	}

	if c.Data.SourcePort < 0 || c.Data.SourcePort > 65535 {
		return fmt.Errorf("invalid data source port %d", c.Data.SourcePort)
	}

	if c.Timeouts.Connection != "" {
		if _, err := time.ParseDuration(c.Timeouts.Connection); err != nil {
			return fmt.Errorf("invalid connection timeout: %w", err)
		}
	}

	if c.Timeouts.Command != "" {
		if _, err := time.ParseDuration(c.Timeouts.Command); err != nil {
			return fmt.Errorf("invalid command timeout: %w", err)
		}
	}

	if c.Timeouts.Idle != "" {
		if _, err := time.ParseDuration(c.Timeouts.Idle); err != nil {
			return fmt.Errorf("invalid idle timeout: %w", err)
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return errors.New("metrics address is required when metrics are enabled")
		}
		if c.Metrics.Path == "" {
			return errors.New("metrics path is required when metrics are enabled")
		}
	}

	return nil
}

// DataSourcePort returns the source port for active-mode data connections.
// Returns 0 (ephemeral) when the ephemeral relaxation is enabled.
func (c *Config) DataSourcePort() int {
	if c.Data.Ephemeral {
		return 0
	}
	return c.Data.SourcePort
}

// ConnectionTimeout returns the connection timeout as a time.Duration.
// Returns 10 minutes if not configured or invalid.
func (c *TimeoutsConfig) ConnectionTimeout() time.Duration {
	if c.Connection == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(c.Connection)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// CommandTimeout returns the command timeout as a time.Duration.
// Returns 5 minutes if not configured or invalid.
func (c *TimeoutsConfig) CommandTimeout() time.Duration {
	if c.Command == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(c.Command)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// IdleTimeout returns the idle timeout as a time.Duration.
// Returns 30 minutes if not configured or invalid.
func (c *TimeoutsConfig) IdleTimeout() time.Duration {
	if c.Idle == "" {
		return 30 * time.Minute
	}
	d, err := time.ParseDuration(c.Idle)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}
