package config

import (
	"errors"
	"strings"
	"testing"

	gtperr "gtpkit/internal/errors"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string // substring expected in error
	}{
		{
			name:    "missing program has hint",
			mutate:  func(c *Config) { c.Mode = ModeShell },
			wantSub: "hint:",
		},
		{
			name:    "run without commands has hint",
			mutate:  func(c *Config) { c.Mode = ModeRun; c.Program = "gnugo" },
			wantSub: "hint:",
		},
		{
			name:    "unknown mode lists modes",
			mutate:  func(c *Config) { c.Mode = "scan" },
			wantSub: "engine, describe, run, shell",
		},
		{
			name:    "history conflict",
			mutate:  func(c *Config) { c.HistoryFile = "h"; c.NoHistory = true },
			wantSub: "--history-file and --no-history are mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *gtperr.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("error %T is not a *ConfigError", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestParseSSHSpec_EdgeCases covers additional SSH specs.
func TestParseSSHSpec_EdgeCases(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"user@host.with.dots:22", false},
		{"user@host-with-dashes", false},
		{"host:0", true},     // port 0 out of range
		{"host:65536", true}, // port too high
		{"user@", false},     // regex treats "user@" as hostname
		{"", true},           // empty string
		{":22", true},        // no host before colon
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, _, _, err := ParseSSHSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSSHSpec(%q) err = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
