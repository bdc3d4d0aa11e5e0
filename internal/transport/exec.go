package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	gtperr "gtpkit/internal/errors"
	"gtpkit/util"
)

// ExecLauncher runs engines as local child processes.
type ExecLauncher struct {
	// Stderr receives the engine's standard error (default os.Stderr).
	Stderr io.Writer

	logger *util.Logger
}

// NewExecLauncher returns a launcher for local engines.
func NewExecLauncher(logger *util.Logger) *ExecLauncher {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &ExecLauncher{Stderr: os.Stderr, logger: logger}
}

// Launch starts c as a child process with its own pipes.
func (l *ExecLauncher) Launch(ctx context.Context, c Command) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, &gtperr.LaunchError{Op: "exec", Command: c.String(), Err: err}
	}

	// The parent's pipe ends are not handed to exec.Cmd, so Wait can't
	// discard unread engine output.
	inR, inW, err := os.Pipe()
	if err != nil {
		return nil, &gtperr.LaunchError{Op: "exec", Command: c.String(), Err: err}
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return nil, &gtperr.LaunchError{Op: "exec", Command: c.String(), Err: err}
	}

	cmd := exec.Command(c.Path, c.Args...) //nolint:gosec // running the user's engine is the point
	cmd.Dir = c.Dir
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = l.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	l.logger.Verbose("starting %s", c)
	err = cmd.Start()
	inR.Close()
	outW.Close()
	if err != nil {
		inW.Close()
		outR.Close()
		return nil, &gtperr.LaunchError{Op: "exec", Command: c.String(), Err: err}
	}
	l.logger.Debug("engine pid %d", cmd.Process.Pid)

	kill := func() error {
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
		return nil
	}
	return NewProcess(inW, outR, cmd.Wait, kill), nil
}

// Close is a no-op.
func (l *ExecLauncher) Close() error { return nil }
