// Package session binds a launched engine to a Controller, along with
// the user-facing I/O that capabilities read from and write to.
//
// Capabilities don't need to know whether the engine runs locally or
// over SSH, or whether the user is a terminal or a test buffer; they
// use the session's Controller, Stdin and Stdout.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gtpkit/controller"
	"gtpkit/internal/metrics"
	"gtpkit/internal/transport"
	"gtpkit/util"
)

// Options controls how Start brings an engine up and how Close takes
// it down.
type Options struct {
	Name            string
	StartupCommands []string // command lines sent right after launch
	CheckProtocol   bool     // require protocol_version 2
	GracePeriod     time.Duration

	Stdin  io.Reader // user input (default os.Stdin)
	Stdout io.Writer // user output (default os.Stdout)
}

// Session is one running engine and the controller talking to it.
type Session struct {
	Controller *controller.Controller
	Process    *transport.Process
	Stdin      io.Reader
	Stdout     io.Writer
	Logger     *util.Logger

	metrics *metrics.Collector
	grace   time.Duration
	closed  bool
}

// Start launches cmd and prepares the engine: the protocol version is
// checked if asked for, then the startup commands are sent.  If any of
// that fails the engine is shut down again.
func Start(ctx context.Context, l transport.Launcher, cmd transport.Command, opts Options,
	logger *util.Logger, m *metrics.Collector) (*Session, error) {
	if logger == nil {
		logger = util.NewLogger(0)
	}

	proc, err := l.Launch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	m.EngineStarted()

	ctrl := controller.New(controller.NewLineChannel(proc.Stdin, proc.Stdout), opts.Name, logger)
	ctrl.Metrics = m
	s := &Session{
		Controller: ctrl,
		Process:    proc,
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
		Logger:     logger.Named(opts.Name),
		metrics:    m,
		grace:      opts.GracePeriod,
	}
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	s.Logger.Verbose("started")

	if err := s.prepare(opts); err != nil {
		return nil, errors.Join(err, s.Close())
	}
	return s, nil
}

func (s *Session) prepare(opts Options) error {
	if opts.CheckProtocol {
		if err := s.Controller.CheckProtocolVersion(); err != nil {
			return err
		}
	}
	for _, line := range opts.StartupCommands {
		if _, err := s.Do(line); err != nil {
			return fmt.Errorf("startup command %q: %w", line, err)
		}
	}
	return nil
}

// Do sends one command line (name and arguments separated by
// whitespace) and returns the response.
func (s *Session) Do(line string) (string, error) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return "", errors.New("empty command line")
	}
	return s.Controller.DoCommand(words[0], words[1:]...)
}

// Close quits the engine and waits up to the grace period for it to
// exit, killing it if it doesn't.  Only errors from the controller are
// returned; the engine's exit status is logged.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.Controller.Close()

	werr := s.Process.WaitTimeout(s.grace)
	if errors.Is(werr, transport.ErrStillRunning) {
		s.Logger.Warn("still running after %v; killing it", s.grace)
		if kerr := s.Process.Kill(); kerr != nil {
			s.Logger.Warn("kill: %v", kerr)
		}
		werr = s.Process.WaitTimeout(time.Second)
	}
	if werr != nil {
		s.Logger.Verbose("exited: %v", werr)
	}

	s.metrics.EngineStopped()
	return err
}
