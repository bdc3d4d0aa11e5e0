// Package transport starts engine processes and exposes their standard
// streams.  A Launcher handles the "where" of running an engine,
// locally or on a remote host over SSH, independent of what is said
// over the streams (which is the controller's job).
package transport

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// ErrStillRunning is returned by [Process.WaitTimeout] when the engine
// has not exited in time.
var ErrStillRunning = errors.New("engine is still running")

// Launcher starts engine processes.
type Launcher interface {
	// Launch starts c and returns once its streams are ready.  ctx
	// bounds the launch itself, not the lifetime of the process.
	Launch(ctx context.Context, c Command) (*Process, error)

	// Close releases any long-lived resources held by the launcher
	// (eg an SSH connection).  Stateless launchers return nil.
	Close() error
}

// Command describes an engine program to run.
type Command struct {
	Path string
	Args []string
	Dir  string   // working directory; local engines only
	Env  []string // extra KEY=VALUE pairs
}

// String renders the command as a shell would need to see it.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, shellQuote(c.Path))
	for _, a := range c.Args {
		words = append(words, shellQuote(a))
	}
	return strings.Join(words, " ")
}

// ShellLine renders the command for a remote shell, with Env applied
// through env(1).
func (c Command) ShellLine() string {
	if len(c.Env) == 0 {
		return c.String()
	}
	words := []string{"env"}
	for _, kv := range c.Env {
		words = append(words, shellQuote(kv))
	}
	return strings.Join(words, " ") + " " + c.String()
}

// shellQuote quotes s for a POSIX shell.  Words made only of safe
// characters are left alone.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@%_+=:,./-", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Process is a running engine.  Stdin carries commands to it and Stdout
// carries its responses; the caller owns both and must close them.
type Process struct {
	Stdin  io.WriteCloser
	Stdout io.ReadCloser

	kill func() error
	done chan struct{}

	mu  sync.Mutex
	err error
}

// newProcess starts waiting for the process in the background.  wait
// must not close stdin or stdout.
func NewProcess(stdin io.WriteCloser, stdout io.ReadCloser, wait, kill func() error) *Process {
	p := &Process{Stdin: stdin, Stdout: stdout, kill: kill, done: make(chan struct{})}
	go func() {
		err := wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p
}

// Wait blocks until the engine exits and returns its exit error, if
// any.  It may be called more than once.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// WaitTimeout is like Wait but gives up after d, returning
// ErrStillRunning.
func (p *Process) WaitTimeout(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.Wait()
	case <-timer.C:
		return ErrStillRunning
	}
}

// Exited reports whether the engine has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Kill stops the engine without waiting for it.  Killing an engine
// that has already exited is not an error.
func (p *Process) Kill() error {
	if p.Exited() {
		return nil
	}
	return p.kill()
}
