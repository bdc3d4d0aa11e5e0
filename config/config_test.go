package config

import (
	"errors"
	"testing"
	"time"

	gtperr "gtpkit/internal/errors"
)

// ── ParseSSHSpec ─────────────────────────────────────────────────────

func TestParseSSHSpec(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantUser string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"full", "go@cluster.example.com:2222", "go", "cluster.example.com", 2222, false},
		{"no port", "root@gpu-box", "root", "gpu-box", 22, false},
		{"no user", "gpu-box:2200", "", "gpu-box", 2200, false},
		{"host only", "gpu-box.local", "", "gpu-box.local", 22, false},
		{"bad port", "user@host:999999", "", "", 0, true},
		{"empty", "", "", "", 0, true},
		{"colon only", ":", "", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, host, port, err := ParseSSHSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if user != tt.wantUser || host != tt.wantHost || port != tt.wantPort {
				t.Errorf("got (%q, %q, %d), want (%q, %q, %d)",
					user, host, port, tt.wantUser, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestApplySSHSpec(t *testing.T) {
	cfg := New()
	cfg.SSHSpec = "go@cluster:2022"
	if err := cfg.ApplySSHSpec(); err != nil {
		t.Fatal(err)
	}
	if !cfg.SSHEnabled || cfg.SSHUser != "go" || cfg.SSHHost != "cluster" || cfg.SSHPort != 2022 {
		t.Errorf("got %+v", cfg)
	}

	cfg = New()
	cfg.SSHSpec = "host:0"
	err := cfg.ApplySSHSpec()
	var ce *gtperr.ConfigError
	if !errors.As(err, &ce) || ce.Field != "ssh" {
		t.Errorf("bad spec: %v", err)
	}
}

// ── Modes and names ──────────────────────────────────────────────────

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		if got, ok := ParseMode(string(m)); !ok || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, ok)
		}
	}
	if _, ok := ParseMode("listen"); ok {
		t.Error("ParseMode accepted an unknown mode")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "engine"},
		{Config{Program: "/usr/games/gnugo"}, "gnugo"},
		{Config{Program: "/usr/games/gnugo", Engine: "gnugo-l1"}, "gnugo-l1"},
		{Config{Program: "gnugo", Engine: "x", EngineName: "black"}, "black"},
	}
	for _, tt := range tests {
		if got := tt.cfg.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	if cfg.Mode != ModeEngine {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if cfg.SSHPort != DefaultSSHPort || cfg.ConnectTimeout != DefaultConnTimeout {
		t.Errorf("SSH defaults = %d, %v", cfg.SSHPort, cfg.ConnectTimeout)
	}
	if cfg.MaxConnectAttempts != DefaultMaxConnectAttempts || cfg.GracePeriod != DefaultGracePeriod {
		t.Errorf("defaults = %d, %v", cfg.MaxConnectAttempts, cfg.GracePeriod)
	}
}

// ── Config.Validate ──────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func(mutate func(*Config)) Config {
		cfg := New()
		mutate(cfg)
		return *cfg
	}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "engine mode",
			cfg:     valid(func(c *Config) {}),
			wantErr: false,
		},
		{
			name:    "engine mode interactive",
			cfg:     valid(func(c *Config) { c.Interactive = true }),
			wantErr: false,
		},
		{
			name:    "engine mode with program",
			cfg:     valid(func(c *Config) { c.Program = "gnugo" }),
			wantErr: true,
		},
		{
			name:    "describe",
			cfg:     valid(func(c *Config) { c.Mode = ModeDescribe; c.Program = "gnugo" }),
			wantErr: false,
		},
		{
			name:    "describe without program",
			cfg:     valid(func(c *Config) { c.Mode = ModeDescribe }),
			wantErr: true,
		},
		{
			name:    "shell interactive",
			cfg:     valid(func(c *Config) { c.Mode = ModeShell; c.Program = "gnugo"; c.Interactive = true }),
			wantErr: true,
		},
		{
			name:    "run without commands",
			cfg:     valid(func(c *Config) { c.Mode = ModeRun; c.Program = "gnugo" }),
			wantErr: true,
		},
		{
			name: "run",
			cfg: valid(func(c *Config) {
				c.Mode = ModeRun
				c.Program = "gnugo"
				c.Commands = []string{"boardsize 9", "genmove b"}
			}),
			wantErr: false,
		},
		{
			name: "blank command",
			cfg: valid(func(c *Config) {
				c.Mode = ModeRun
				c.Program = "gnugo"
				c.Commands = []string{"  "}
			}),
			wantErr: true,
		},
		{
			name:    "unknown mode",
			cfg:     valid(func(c *Config) { c.Mode = "listen" }),
			wantErr: true,
		},
		{
			name:    "engine without config file",
			cfg:     valid(func(c *Config) { c.Mode = ModeDescribe; c.Program = "x"; c.Engine = "gnugo" }),
			wantErr: true,
		},
		{
			name:    "history conflict",
			cfg:     valid(func(c *Config) { c.HistoryFile = "h"; c.NoHistory = true }),
			wantErr: true,
		},
		{
			name:    "bad env",
			cfg:     valid(func(c *Config) { c.Mode = ModeShell; c.Program = "x"; c.Env = []string{"NOEQUALS"} }),
			wantErr: true,
		},
		{
			name: "ssh",
			cfg: valid(func(c *Config) {
				c.Mode = ModeShell
				c.Program = "x"
				c.SSHEnabled = true
				c.SSHHost = "gw"
			}),
			wantErr: false,
		},
		{
			name: "ssh with dir",
			cfg: valid(func(c *Config) {
				c.Mode = ModeShell
				c.Program = "x"
				c.SSHEnabled = true
				c.SSHHost = "gw"
				c.Dir = "/tmp"
			}),
			wantErr: true,
		},
		{
			name:    "ssh in engine mode",
			cfg:     valid(func(c *Config) { c.SSHEnabled = true; c.SSHHost = "gw" }),
			wantErr: true,
		},
		{
			name:    "no connect attempts",
			cfg:     valid(func(c *Config) { c.MaxConnectAttempts = 0 }),
			wantErr: true,
		},
		{
			name:    "negative timeout",
			cfg:     valid(func(c *Config) { c.ConnectTimeout = -time.Second }),
			wantErr: true,
		},
		{
			name:    "negative grace period",
			cfg:     valid(func(c *Config) { c.GracePeriod = -time.Second }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
