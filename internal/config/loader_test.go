package config

import (
	"os"
	"path/filepath"
	"testing"
)

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ftpd.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}

	// Should return defaults
	expected := Default()
	if cfg.Hostname != expected.Hostname {
		t.Errorf("expected hostname %q, got %q", expected.Hostname, cfg.Hostname)
	}
	if cfg.Listen != expected.Listen {
		t.Errorf("expected listen %q, got %q", expected.Listen, cfg.Listen)
	}
}

func TestLoadValidTOML(t *testing.T) {
	content := `
[ftpd]
hostname = "ftp.example.com"
log_level = "debug"
listen = ":2121"
root = "/srv/ftp"
users_file = "/etc/ftpd/users.csv"

[ftpd.data]
source_port = 2020
ephemeral = true

[ftpd.limits]
max_sessions = 25

[ftpd.timeouts]
connection = "15m"
command = "2m"
idle = "45m"

[ftpd.metrics]
enabled = true
address = ":9121"
path = "/metrics"

[ftpd.users]
watch = true
`

	path := createTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hostname != "ftp.example.com" {
		t.Errorf("hostname = %q, want 'ftp.example.com'", cfg.Hostname)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want 'debug'", cfg.LogLevel)
	}

	if cfg.Listen != ":2121" {
		t.Errorf("listen = %q, want ':2121'", cfg.Listen)
	}

	if cfg.Root != "/srv/ftp" {
		t.Errorf("root = %q, want '/srv/ftp'", cfg.Root)
	}

	if cfg.UsersFile != "/etc/ftpd/users.csv" {
		t.Errorf("users_file = %q, want '/etc/ftpd/users.csv'", cfg.UsersFile)
	}

	if cfg.Data.SourcePort != 2020 {
		t.Errorf("data.source_port = %d, want 2020", cfg.Data.SourcePort)
	}

	if !cfg.Data.Ephemeral {
		t.Error("data.ephemeral = false, want true")
	}

	if cfg.Limits.MaxSessions != 25 {
		t.Errorf("limits.max_sessions = %d, want 25", cfg.Limits.MaxSessions)
	}

	if cfg.Timeouts.Connection != "15m" {
		t.Errorf("timeouts.connection = %q, want '15m'", cfg.Timeouts.Connection)
	}

	if !cfg.Metrics.Enabled {
		t.Error("metrics.enabled = false, want true")
	}

	if !cfg.Users.Watch {
		t.Error("users.watch = false, want true")
	}
}

func TestLoadSharedServerSection(t *testing.T) {
	content := `
[server]
hostname = "shared.example.com"
root = "/srv/shared"

[ftpd]
log_level = "warn"
`

	path := createTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hostname != "shared.example.com" {
		t.Errorf("hostname = %q, want shared value", cfg.Hostname)
	}

	if cfg.Root != "/srv/shared" {
		t.Errorf("root = %q, want shared value", cfg.Root)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("log_level = %q, want 'warn'", cfg.LogLevel)
	}
}

func TestLoadFtpdOverridesServer(t *testing.T) {
	content := `
[server]
hostname = "shared.example.com"
root = "/srv/shared"

[ftpd]
hostname = "ftp.example.com"
root = "/srv/ftp"
`

	path := createTempConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Hostname != "ftp.example.com" {
		t.Errorf("hostname = %q, want ftpd value to win", cfg.Hostname)
	}

	if cfg.Root != "/srv/ftp" {
		t.Errorf("root = %q, want ftpd value to win", cfg.Root)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := createTempConfig(t, "this is not [valid toml")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid TOML, got nil")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()

	f := &Flags{
		Hostname:    "flagged.example.com",
		LogLevel:    "debug",
		Listen:      ":2121",
		Root:        "/tmp/ftproot",
		UsersFile:   "/tmp/users.csv",
		MaxSessions: 3,
		Ephemeral:   true,
	}

	cfg = ApplyFlags(cfg, f)

	if cfg.Hostname != "flagged.example.com" {
		t.Errorf("hostname = %q, want flag value", cfg.Hostname)
	}

	if cfg.Listen != ":2121" {
		t.Errorf("listen = %q, want flag value", cfg.Listen)
	}

	if cfg.Root != "/tmp/ftproot" {
		t.Errorf("root = %q, want flag value", cfg.Root)
	}

	if cfg.UsersFile != "/tmp/users.csv" {
		t.Errorf("users_file = %q, want flag value", cfg.UsersFile)
	}

	if cfg.Limits.MaxSessions != 3 {
		t.Errorf("max_sessions = %d, want 3", cfg.Limits.MaxSessions)
	}

	if !cfg.Data.Ephemeral {
		t.Error("ephemeral = false, want true")
	}
}

func TestApplyFlagsEmptyKeepsConfig(t *testing.T) {
	cfg := Default()
	cfg.Hostname = "fromfile.example.com"

	cfg = ApplyFlags(cfg, &Flags{})

	if cfg.Hostname != "fromfile.example.com" {
		t.Errorf("hostname = %q, want config value preserved", cfg.Hostname)
	}
}
