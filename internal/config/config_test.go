package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Hostname != "localhost" {
		t.Errorf("expected hostname 'localhost', got %q", cfg.Hostname)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level 'info', got %q", cfg.LogLevel)
	}

	if cfg.Listen != ":21" {
		t.Errorf("expected listen ':21', got %q", cfg.Listen)
	}

	if cfg.Root != "." {
		t.Errorf("expected root '.', got %q", cfg.Root)
	}

	if cfg.UsersFile != "./ftpusers.csv" {
		t.Errorf("expected users_file './ftpusers.csv', got %q", cfg.UsersFile)
	}

	if cfg.Data.SourcePort != 20 {
		t.Errorf("expected data source port 20, got %d", cfg.Data.SourcePort)
	}

	if cfg.Data.Ephemeral {
		t.Error("expected ephemeral data ports disabled by default")
	}

	if cfg.Limits.MaxSessions != 10 {
		t.Errorf("expected max_sessions 10, got %d", cfg.Limits.MaxSessions)
	}

	if cfg.Timeouts.Connection != "10m" {
		t.Errorf("expected connection timeout '10m', got %q", cfg.Timeouts.Connection)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty hostname",
			modify:  func(c *Config) { c.Hostname = "" },
			wantErr: true,
		},
		{
			name:    "empty listen address",
			modify:  func(c *Config) { c.Listen = "" },
			wantErr: true,
		},
		{
			name:    "empty root",
			modify:  func(c *Config) { c.Root = "" },
			wantErr: true,
		},
		{
			name:    "empty users file",
			modify:  func(c *Config) { c.UsersFile = "" },
			wantErr: true,
		},
		{
			name:    "zero max_sessions",
			modify:  func(c *Config) { c.Limits.MaxSessions = 0 },
			wantErr: true,
		},
		{
			name:    "negative max_sessions",
			modify:  func(c *Config) { c.Limits.MaxSessions = -1 },
			wantErr: true,
		},
		{
			name:    "data source port out of range",
			modify:  func(c *Config) { c.Data.SourcePort = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid connection timeout",
			modify:  func(c *Config) { c.Timeouts.Connection = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid command timeout",
			modify:  func(c *Config) { c.Timeouts.Command = "bogus" },
			wantErr: true,
		},
		{
			name:    "metrics enabled without address",
			modify:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "" },
			wantErr: true,
		},
		{
			name:    "metrics enabled without path",
			modify:  func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Path = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutAccessors(t *testing.T) {
	var tc TimeoutsConfig

	if got := tc.ConnectionTimeout(); got != 10*time.Minute {
		t.Errorf("ConnectionTimeout() = %v, want 10m", got)
	}

	if got := tc.CommandTimeout(); got != 5*time.Minute {
		t.Errorf("CommandTimeout() = %v, want 5m", got)
	}

	if got := tc.IdleTimeout(); got != 30*time.Minute {
		t.Errorf("IdleTimeout() = %v, want 30m", got)
	}

	tc = TimeoutsConfig{Connection: "1m", Command: "30s", Idle: "2h"}

	if got := tc.ConnectionTimeout(); got != time.Minute {
		t.Errorf("ConnectionTimeout() = %v, want 1m", got)
	}

	if got := tc.CommandTimeout(); got != 30*time.Second {
		t.Errorf("CommandTimeout() = %v, want 30s", got)
	}

	if got := tc.IdleTimeout(); got != 2*time.Hour {
		t.Errorf("IdleTimeout() = %v, want 2h", got)
	}
}

func TestDataSourcePort(t *testing.T) {
	cfg := Default()

	if got := cfg.DataSourcePort(); got != 20 {
		t.Errorf("DataSourcePort() = %d, want 20", got)
	}

	cfg.Data.Ephemeral = true
	if got := cfg.DataSourcePort(); got != 0 {
		t.Errorf("DataSourcePort() with ephemeral = %d, want 0", got)
	}
}
