package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Engine definition file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GTPKIT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GTPKIT_CONFIG"); v != "" {
		cfg.ConfigFile = v
	}
	if v := os.Getenv("GTPKIT_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("GTPKIT_ENGINE_NAME"); v != "" {
		cfg.EngineName = v
	}
	if envBool("GTPKIT_CHECK_PROTOCOL") {
		cfg.CheckProtocol = true
	}
	if envBool("GTPKIT_STATS") {
		cfg.Stats = true
	}
	if v := envInt("GTPKIT_GRACE_PERIOD"); v > 0 {
		cfg.GracePeriod = secondsDuration(v)
	}

	// Built-in engine
	if v := os.Getenv("GTPKIT_HISTORY_FILE"); v != "" {
		cfg.HistoryFile = v
	}
	if envBool("GTPKIT_NO_HISTORY") {
		cfg.NoHistory = true
	}

	// SSH
	if v := os.Getenv("GTPKIT_SSH"); v != "" {
		cfg.SSHSpec = v
	}
	if v := os.Getenv("GTPKIT_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GTPKIT_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("GTPKIT_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GTPKIT_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GTPKIT_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}
	if v := envInt("GTPKIT_CONNECT_TIMEOUT"); v > 0 {
		cfg.ConnectTimeout = secondsDuration(v)
	}
	if v := envInt("GTPKIT_CONNECT_ATTEMPTS"); v > 0 {
		cfg.MaxConnectAttempts = v
	}

	// Output
	if v := envInt("GTPKIT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
