package config

import (
	"flag"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Flags holds command-line flag values.
type Flags struct {
	ConfigPath  string
	Hostname    string
	LogLevel    string
	Listen      string
	Root        string
	UsersFile   string
	MaxSessions int
	Ephemeral   bool
}

// ParseFlags parses command-line flags and returns a Flags struct.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigPath, "config", "./ftpd.toml", "Path to configuration file")
	flag.StringVar(&f.Hostname, "hostname", "", "Server hostname")
	flag.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.Listen, "listen", "", "Control listen address")
	flag.StringVar(&f.Root, "root", "", "Server root directory")
	flag.StringVar(&f.UsersFile, "users", "", "Path to credential CSV file")
	flag.IntVar(&f.MaxSessions, "max-sessions", 0, "Maximum concurrent control sessions")
	flag.BoolVar(&f.Ephemeral, "ephemeral-data-port", false, "Dial data connections from an ephemeral port instead of port 20")

	flag.Parse()
	return f
}

// Load parses a TOML configuration file and returns the Config.
// If the file does not exist, returns the default configuration.
// The loader reads from both [server] (shared settings) and [ftpd]
// (specific settings), with [ftpd] values taking precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig FileConfig
	if err := toml.Unmarshal(data, &fileConfig); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	// First merge shared server config into defaults
	cfg = mergeServerConfig(cfg, fileConfig.Server)

	// Then merge ftpd-specific config (takes precedence)
	cfg = mergeConfig(cfg, fileConfig.Ftpd)

	return cfg, nil
}

// ApplyFlags merges command-line flag values into the config.
// Non-zero/non-empty flag values override config file values.
func ApplyFlags(cfg Config, f *Flags) Config {
	if f.Hostname != "" {
		cfg.Hostname = f.Hostname
	}

	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	if f.Listen != "" {
		cfg.Listen = f.Listen
	}

	if f.Root != "" {
		cfg.Root = f.Root
	}

	if f.UsersFile != "" {
		cfg.UsersFile = f.UsersFile
	}

	if f.MaxSessions > 0 {
		cfg.Limits.MaxSessions = f.MaxSessions
	}

	if f.Ephemeral {
		cfg.Data.Ephemeral = true
	}

	return cfg
}

// LoadWithFlags loads configuration from the path specified in flags,
// then applies flag overrides.
func LoadWithFlags(f *Flags) (Config, error) {
	cfg, err := Load(f.ConfigPath)
	if err != nil {
		return cfg, err
	}
	return ApplyFlags(cfg, f), nil
}

// mergeServerConfig merges shared server settings into the config.
func mergeServerConfig(dst Config, src ServerConfig) Config {
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}

	if src.Root != "" {
		dst.Root = src.Root
	}

	return dst
}

// mergeConfig merges non-zero values from src into dst.
func mergeConfig(dst, src Config) Config {
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}

	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.Listen != "" {
		dst.Listen = src.Listen
	}

	if src.Root != "" {
		dst.Root = src.Root
	}

	if src.UsersFile != "" {
		dst.UsersFile = src.UsersFile
	}

	if src.Data.SourcePort > 0 {
		dst.Data.SourcePort = src.Data.SourcePort
	}

	if src.Data.Ephemeral {
		dst.Data.Ephemeral = true
	}

	if src.Timeouts.Connection != "" {
		dst.Timeouts.Connection = src.Timeouts.Connection
	}

	if src.Timeouts.Command != "" {
		dst.Timeouts.Command = src.Timeouts.Command
	}

	if src.Timeouts.Idle != "" {
		dst.Timeouts.Idle = src.Timeouts.Idle
	}

	if src.Limits.MaxSessions > 0 {
		dst.Limits.MaxSessions = src.Limits.MaxSessions
	}

	// Metrics: enabled is explicitly set (boolean), so merge if source set it
	if src.Metrics.Enabled {
		dst.Metrics.Enabled = src.Metrics.Enabled
	}

	if src.Metrics.Address != "" {
		dst.Metrics.Address = src.Metrics.Address
	}

	if src.Metrics.Path != "" {
		dst.Metrics.Path = src.Metrics.Path
	}

	if src.Users.Watch {
		dst.Users.Watch = true
	}

	return dst
}
