// Package config defines the runtime configuration for gtpkit and
// provides helpers for parsing SSH host specifications.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	gtperr "gtpkit/internal/errors"
)

// Mode selects what a gtpkit run does.
type Mode string

const (
	// ModeEngine serves the built-in engine on stdin/stdout.
	ModeEngine Mode = "engine"
	// ModeDescribe launches an engine and prints its description.
	ModeDescribe Mode = "describe"
	// ModeRun launches an engine and sends it a fixed list of commands.
	ModeRun Mode = "run"
	// ModeShell launches an engine and forwards commands typed by the
	// user.
	ModeShell Mode = "shell"
)

// Modes lists every mode, in the order help output shows them.
var Modes = []Mode{ModeEngine, ModeDescribe, ModeRun, ModeShell} //nolint:gochecknoglobals

// Config holds every tuneable for a single gtpkit run.
type Config struct {
	Mode Mode

	// ── Engine program ───────────────────────────────────────────────
	EngineName string   // label used in messages; defaults to the program's base name
	Program    string   // engine executable
	Args       []string // engine arguments
	Dir        string   // working directory for the engine
	Env        []string // extra KEY=VALUE pairs for the engine

	ConfigFile string // --config: TOML file of engine definitions
	Engine     string // --engine: definition to take from ConfigFile

	// ── Controller ───────────────────────────────────────────────────
	StartupCommands []string // sent after launch, before anything else
	Commands        []string // run mode: command lines to send in order
	CheckProtocol   bool     // check protocol_version after launch
	KeepGoing       bool     // run mode: carry on after failure responses
	Stats           bool     // print controller metrics as JSON at exit
	GracePeriod     time.Duration

	// ── Built-in engine ──────────────────────────────────────────────
	Interactive bool
	HistoryFile string
	NoHistory   bool

	// ── SSH ──────────────────────────────────────────────────────────
	SSHSpec            string // raw [user@]host[:port] from --ssh
	SSHEnabled         bool
	SSHUser            string
	SSHHost            string
	SSHPort            int
	SSHKeyPath         string
	SSHPassword        bool // true → prompt interactively
	UseSSHAgent        bool
	StrictHostKey      bool
	KnownHostsPath     string
	ConnectTimeout     time.Duration
	MaxConnectAttempts int

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// New returns a Config holding the defaults from defaults.go.
func New() *Config {
	return &Config{
		Mode:               ModeEngine,
		SSHPort:            DefaultSSHPort,
		ConnectTimeout:     DefaultConnTimeout,
		MaxConnectAttempts: DefaultMaxConnectAttempts,
		GracePeriod:        DefaultGracePeriod,
	}
}

// ParseMode converts a subcommand name to a Mode.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// DisplayName returns the name to use for the engine in messages.
func (c *Config) DisplayName() string {
	if c.EngineName != "" {
		return c.EngineName
	}
	if c.Engine != "" {
		return c.Engine
	}
	if c.Program != "" {
		return filepath.Base(c.Program)
	}
	return "engine"
}

// ApplySSHSpec parses SSHSpec, if set, into the SSH fields.
func (c *Config) ApplySSHSpec() error {
	if c.SSHSpec == "" {
		return nil
	}
	user, host, port, err := ParseSSHSpec(c.SSHSpec)
	if err != nil {
		return &gtperr.ConfigError{Field: "ssh", Value: c.SSHSpec, Message: err.Error(),
			Hint: "expected [user@]host[:port], eg --ssh go@cluster.example.com"}
	}
	c.SSHEnabled = true
	c.SSHUser = user
	c.SSHHost = host
	c.SSHPort = port
	return nil
}

// ── SSH-spec parser ──────────────────────────────────────────────────

// sshRe matches [user@]host[:port].
var sshRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseSSHSpec extracts user, host, and port from a string such as
// "go@cluster.example.com:2222".  Port defaults to 22.
func ParseSSHSpec(spec string) (user, host string, port int, err error) {
	m := sshRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid SSH spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid SSH port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("SSH host is required")
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent. Any
// error is a *errors.ConfigError.
func (c *Config) Validate() error {
	if _, ok := ParseMode(string(c.Mode)); !ok {
		return &gtperr.ConfigError{Field: "mode", Value: string(c.Mode), Message: "unknown mode",
			Hint: "use one of " + modeList()}
	}

	if c.Mode == ModeEngine {
		if c.Program != "" {
			return &gtperr.ConfigError{Field: "program", Value: c.Program,
				Message: "engine mode serves the built-in engine and takes no program"}
		}
		if c.SSHEnabled {
			return &gtperr.ConfigError{Field: "ssh", Value: c.SSHSpec,
				Message: "engine mode runs locally"}
		}
	} else {
		if c.Program == "" {
			return &gtperr.ConfigError{Field: "program", Message: "an engine command is required",
				Hint: "give it after --, eg gtpkit " + string(c.Mode) + " -- gnugo --mode gtp, or use --engine with --config"}
		}
		if c.Interactive {
			return &gtperr.ConfigError{Field: "interactive", Value: true,
				Message: "only engine mode has an interactive session"}
		}
	}

	if c.Mode == ModeRun && len(c.Commands) == 0 {
		return &gtperr.ConfigError{Field: "command", Message: "run mode needs at least one command",
			Hint: "eg -c 'boardsize 19' -c 'genmove b'"}
	}
	for _, line := range append(append([]string{}, c.StartupCommands...), c.Commands...) {
		if strings.TrimSpace(line) == "" {
			return &gtperr.ConfigError{Field: "command", Value: line, Message: "empty command line"}
		}
	}

	if c.Engine != "" && c.ConfigFile == "" {
		return &gtperr.ConfigError{Field: "engine", Value: c.Engine,
			Message: "engine definitions come from a config file", Hint: "add --config FILE"}
	}

	if c.NoHistory && c.HistoryFile != "" {
		return &gtperr.ConfigError{Field: "history-file", Value: c.HistoryFile,
			Message: "--history-file and --no-history are mutually exclusive"}
	}

	for _, kv := range c.Env {
		if !strings.Contains(kv, "=") || strings.HasPrefix(kv, "=") {
			return &gtperr.ConfigError{Field: "env", Value: kv, Message: "expected KEY=VALUE"}
		}
	}

	if c.SSHEnabled {
		if c.SSHHost == "" {
			return &gtperr.ConfigError{Field: "ssh", Message: "SSH host is required"}
		}
		if c.Dir != "" {
			return &gtperr.ConfigError{Field: "dir", Value: c.Dir,
				Message: "a working directory can't be set for a remote engine",
				Hint: "wrap the command, eg -- sh -c 'cd DIR && exec ENGINE'"}
		}
	}
	if c.ConnectTimeout < 0 {
		return &gtperr.ConfigError{Field: "connect-timeout", Value: c.ConnectTimeout, Message: "must not be negative"}
	}
	if c.MaxConnectAttempts < 1 {
		return &gtperr.ConfigError{Field: "connect-attempts", Value: c.MaxConnectAttempts, Message: "must be at least 1"}
	}
	if c.GracePeriod < 0 {
		return &gtperr.ConfigError{Field: "grace-period", Value: c.GracePeriod, Message: "must not be negative"}
	}
	return nil
}

func modeList() string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
