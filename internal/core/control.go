package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gtpkit/internal/capability"
	"gtpkit/internal/metrics"
	"gtpkit/internal/session"
	"gtpkit/internal/transport"
	"gtpkit/util"
)

// ControlMode launches an engine, runs a capability against it and
// shuts it down.
type ControlMode struct {
	Launcher   transport.Launcher
	Command    transport.Command
	Options    session.Options
	Capability capability.Capability
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// StatsOut, if set, receives the metrics as JSON when Run ends.
	StatsOut io.Writer
}

// Run implements Mode.  The launcher is closed when Run returns.
func (m *ControlMode) Run(ctx context.Context) error {
	defer m.Launcher.Close()
	defer func() {
		if m.StatsOut != nil {
			fmt.Fprintln(m.StatsOut, m.Metrics.JSON())
		}
	}()

	m.Logger.Verbose("launching %s", m.Command)
	sess, err := session.Start(ctx, m.Launcher, m.Command, m.Options, m.Logger, m.Metrics)
	if err != nil {
		return err
	}

	herr := m.Capability.Handle(ctx, sess)
	cerr := sess.Close()
	if herr != nil && cerr != nil {
		return errors.Join(herr, cerr)
	}
	if herr != nil {
		return herr
	}
	return cerr
}
