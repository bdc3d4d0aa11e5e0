package config

// file.go - engine definitions from a TOML file.
//
//	[engines.gnugo]
//	name = "gnugo-l1"
//	command = ["gnugo", "--mode", "gtp", "--level", "1"]
//	startup_commands = ["boardsize 9", "komi 7.5"]
//	check_protocol = true
//
//	[engines.remote]
//	command = ["/opt/engines/leela", "--gtp"]
//	ssh = "go@cluster.example.com"
//	ssh_agent = true
//
// Values from the file only fill in settings that flags and the
// environment left unset.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	gtperr "gtpkit/internal/errors"
)

type engineFile struct {
	Engines map[string]engineDef `toml:"engines"`
}

type engineDef struct {
	Name            string   `toml:"name"`
	Command         []string `toml:"command"`
	Dir             string   `toml:"dir"`
	Env             []string `toml:"env"`
	StartupCommands []string `toml:"startup_commands"`
	CheckProtocol   bool     `toml:"check_protocol"`

	SSH           string `toml:"ssh"`
	SSHKey        string `toml:"ssh_key"`
	SSHAgent      bool   `toml:"ssh_agent"`
	StrictHostKey bool   `toml:"strict_hostkey"`
	KnownHosts    string `toml:"known_hosts"`
}

// ApplyEngineFile loads cfg.ConfigFile, if set, and copies the
// definition named by cfg.Engine into cfg.
func ApplyEngineFile(cfg *Config) error {
	if cfg.ConfigFile == "" || cfg.Engine == "" {
		return nil
	}

	var raw engineFile
	meta, err := toml.DecodeFile(cfg.ConfigFile, &raw)
	if err != nil {
		return fmt.Errorf("load engine definitions: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return &gtperr.ConfigError{Field: "config", Value: cfg.ConfigFile,
			Message: fmt.Sprintf("unknown setting %q", undecoded[0].String())}
	}

	def, ok := raw.Engines[cfg.Engine]
	if !ok {
		return &gtperr.ConfigError{Field: "engine", Value: cfg.Engine,
			Message: "no such engine in " + cfg.ConfigFile,
			Hint:    "defined engines: " + strings.Join(engineNames(raw.Engines), ", ")}
	}
	key := func(k string) bool { return meta.IsDefined("engines", cfg.Engine, k) }

	if key("command") {
		if len(def.Command) == 0 || strings.TrimSpace(def.Command[0]) == "" {
			return &gtperr.ConfigError{Field: "engine", Value: cfg.Engine, Message: "empty command"}
		}
		if cfg.Program == "" {
			cfg.Program = def.Command[0]
			cfg.Args = append([]string{}, def.Command[1:]...)
		}
	}
	if key("name") && cfg.EngineName == "" {
		cfg.EngineName = strings.TrimSpace(def.Name)
	}
	if key("dir") && cfg.Dir == "" {
		cfg.Dir = def.Dir
	}
	if key("env") {
		cfg.Env = append(append([]string{}, def.Env...), cfg.Env...)
	}
	if key("startup_commands") && len(cfg.StartupCommands) == 0 {
		cfg.StartupCommands = append([]string{}, def.StartupCommands...)
	}
	if key("check_protocol") && def.CheckProtocol {
		cfg.CheckProtocol = true
	}

	if key("ssh") && cfg.SSHSpec == "" {
		cfg.SSHSpec = strings.TrimSpace(def.SSH)
	}
	if key("ssh_key") && cfg.SSHKeyPath == "" {
		cfg.SSHKeyPath = def.SSHKey
	}
	if key("ssh_agent") && def.SSHAgent {
		cfg.UseSSHAgent = true
	}
	if key("strict_hostkey") && def.StrictHostKey {
		cfg.StrictHostKey = true
	}
	if key("known_hosts") && cfg.KnownHostsPath == "" {
		cfg.KnownHostsPath = def.KnownHosts
	}
	return nil
}

func engineNames(engines map[string]engineDef) []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
