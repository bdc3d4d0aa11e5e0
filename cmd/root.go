// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"gtpkit/config"
	"gtpkit/internal/core"
	"gtpkit/internal/transport"
	"gtpkit/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gtpkit/cmd.version=2.0.0"
var version = "0.4.0" //nolint:gochecknoglobals

// Execute parses args and runs the selected gtpkit mode.
func Execute(ctx context.Context, args []string) error {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr, nil)
		return nil
	}
	switch args[0] {
	case "-h", "--help", "help":
		printUsage(stderr, nil)
		return nil
	case "--version", "version":
		fmt.Fprintf(stdout, "gtpkit %s\n", version)
		return nil
	}
	mode, ok := config.ParseMode(args[0])
	if !ok {
		return fmt.Errorf("unknown mode %q (use one of %s)", args[0], modeNames())
	}

	cfg := config.New()
	cfg.Mode = mode
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("gtpkit "+string(mode), flag.ContinueOnError)
	fs.SetOutput(stderr)
	// Everything after the engine program belongs to it.
	fs.SetInterspersed(false)

	// ── engine program ───────────────────────────────────────────
	fs.StringVarP(&cfg.EngineName, "name", "n", cfg.EngineName, "Engine name used in messages")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "TOML file of engine definitions")
	fs.StringVarP(&cfg.Engine, "engine", "E", cfg.Engine, "Engine definition to use from --config")
	fs.StringVarP(&cfg.Dir, "dir", "C", cfg.Dir, "Working directory for the engine")
	fs.StringArrayVar(&cfg.Env, "env", cfg.Env, "Extra KEY=VALUE for the engine's environment (repeatable)")

	// ── controller ───────────────────────────────────────────────
	fs.StringArrayVarP(&cfg.StartupCommands, "startup", "s", cfg.StartupCommands, "Command to send right after launch (repeatable)")
	fs.StringArrayVarP(&cfg.Commands, "command", "c", cfg.Commands, "Command to send in run mode (repeatable)")
	fs.BoolVar(&cfg.CheckProtocol, "check-protocol", cfg.CheckProtocol, "Require GTP protocol version 2")
	fs.BoolVarP(&cfg.KeepGoing, "keep-going", "k", cfg.KeepGoing, "Run mode: carry on after failure responses")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", cfg.GracePeriod, "How long to wait for the engine to exit after quit")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print controller metrics as JSON on exit")

	// ── built-in engine and shell ────────────────────────────────
	fs.BoolVarP(&cfg.Interactive, "interactive", "i", cfg.Interactive, "Engine mode: line editing and history on a terminal")
	fs.StringVar(&cfg.HistoryFile, "history-file", cfg.HistoryFile, "Command history file (default ~/.gtpkit-gtp-history)")
	fs.BoolVar(&cfg.NoHistory, "no-history", cfg.NoHistory, "Keep no command history")

	// ── SSH ──────────────────────────────────────────────────────
	fs.StringVar(&cfg.SSHSpec, "ssh", cfg.SSHSpec, "Run the engine on [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "SSH connection timeout")
	fs.IntVar(&cfg.MaxConnectAttempts, "connect-attempts", cfg.MaxConnectAttempts, "SSH connection attempts before giving up")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var dryRun, showHelp bool
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if showHelp {
		printUsage(stderr, fs)
		return nil
	}

	if program := fs.Args(); len(program) > 0 {
		cfg.Program = program[0]
		cfg.Args = program[1:]
	}

	// ── engine definitions, SSH spec, validation ─────────────────
	if err := config.ApplyEngineFile(cfg); err != nil {
		return err
	}
	if err := cfg.ApplySSHSpec(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	if dryRun {
		describeConfig(stderr, cfg)
		return nil
	}

	m, err := core.Build(cfg, version, logger)
	if err != nil {
		return err
	}
	return m.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func modeNames() string {
	names := make([]string, len(config.Modes))
	for i, m := range config.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// describeConfig prints what a dry run would have done.
func describeConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "mode:    %s\n", cfg.Mode)
	if cfg.Mode == config.ModeEngine {
		fmt.Fprintf(w, "engine:  built-in (interactive=%v)\n", cfg.Interactive)
		return
	}
	fmt.Fprintf(w, "engine:  %s\n", cfg.DisplayName())
	fmt.Fprintf(w, "command: %s\n", transport.Command{Path: cfg.Program, Args: cfg.Args})
	if cfg.SSHEnabled {
		fmt.Fprintf(w, "host:    %s@%s:%d\n", cfg.SSHUser, cfg.SSHHost, cfg.SSHPort)
	}
	for _, line := range cfg.StartupCommands {
		fmt.Fprintf(w, "startup: %s\n", line)
	}
	for _, line := range cfg.Commands {
		fmt.Fprintf(w, "run:     %s\n", line)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `gtpkit - Go Text Protocol toolkit v%s

Serve a GTP engine, or drive one as a controller, locally or over SSH.

Usage:
  gtpkit engine [options]                        Serve the built-in engine on stdin/stdout
  gtpkit describe [options] [--] <program> ...   Print an engine's name and description
  gtpkit run -c CMD [-c CMD ...] [--] <program>  Send commands and print the responses
  gtpkit shell [options] [--] <program> ...      Forward GTP typed on stdin to the engine

`, version)
	if fs != nil {
		fmt.Fprintln(w, "Options:")
		fs.PrintDefaults()
	} else {
		fmt.Fprintln(w, "Use gtpkit <mode> --help for the options of each mode.")
	}
	fmt.Fprint(w, `
Examples:
  gtpkit describe gnugo --mode gtp
  gtpkit run -c 'boardsize 9' -c 'genmove b' -- gnugo --mode gtp
  gtpkit shell --ssh go@cluster.example.com -- /opt/engines/leela --gtp
  gtpkit describe --config engines.toml --engine gnugo
  gtpkit engine -i
`)
}
