package core

import (
	"fmt"
	"os"

	"gtpkit/config"
	"gtpkit/internal/capability"
	"gtpkit/internal/metrics"
	"gtpkit/internal/retry"
	"gtpkit/internal/session"
	"gtpkit/internal/transport"
	"gtpkit/util"
)

// Build constructs the Mode for cfg, which must already be validated.
// version is reported by the built-in engine.
func Build(cfg *config.Config, version string, logger *util.Logger) (Mode, error) {
	if logger == nil {
		logger = util.NewLogger(cfg.Verbose)
	}
	if cfg.Mode == config.ModeEngine {
		return buildEngine(cfg, version, logger), nil
	}

	capa, err := buildCapability(cfg)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	mode := &ControlMode{
		Launcher: buildLauncher(cfg, logger, m),
		Command: transport.Command{
			Path: cfg.Program,
			Args: cfg.Args,
			Dir:  cfg.Dir,
			Env:  cfg.Env,
		},
		Options: session.Options{
			Name:            cfg.DisplayName(),
			StartupCommands: cfg.StartupCommands,
			CheckProtocol:   cfg.CheckProtocol,
			GracePeriod:     cfg.GracePeriod,
		},
		Capability: capa,
		Logger:     logger,
		Metrics:    m,
	}
	if cfg.Stats {
		mode.StatsOut = os.Stderr
	}
	return mode, nil
}

// ── mode builders ────────────────────────────────────────────────────

func buildEngine(cfg *config.Config, version string, logger *util.Logger) *EngineMode {
	name := cfg.EngineName
	if name == "" {
		name = "gtpkit"
	}
	return &EngineMode{
		Engine:      NewBuiltinEngine(name, version),
		Interactive: cfg.Interactive,
		HistoryFile: cfg.HistoryFile,
		NoHistory:   cfg.NoHistory,
		Logger:      logger,
	}
}

// buildCapability selects what to do with the launched engine.
func buildCapability(cfg *config.Config) (capability.Capability, error) {
	switch cfg.Mode {
	case config.ModeDescribe:
		return capability.Describe{}, nil
	case config.ModeRun:
		return &capability.Script{Commands: cfg.Commands, KeepGoing: cfg.KeepGoing}, nil
	case config.ModeShell:
		return &capability.Shell{HistoryFile: cfg.HistoryFile, NoHistory: cfg.NoHistory}, nil
	}
	return nil, fmt.Errorf("no capability for mode %q", cfg.Mode)
}

// buildLauncher runs the engine over SSH when a host is configured and
// locally otherwise.
func buildLauncher(cfg *config.Config, logger *util.Logger, m *metrics.Collector) transport.Launcher {
	if !cfg.SSHEnabled {
		return transport.NewExecLauncher(logger)
	}
	return transport.NewSSHLauncher(&transport.SSHConfig{
		User:          cfg.SSHUser,
		Host:          cfg.SSHHost,
		Port:          cfg.SSHPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.ConnectTimeout,
		Backoff: &retry.Backoff{
			InitialDelay: config.DefaultConnectBackoff,
			MaxDelay:     config.DefaultMaxConnectBackoff,
			Multiplier:   2,
			MaxAttempts:  cfg.MaxConnectAttempts,
			Jitter:       true,
		},
	}, logger, m)
}
