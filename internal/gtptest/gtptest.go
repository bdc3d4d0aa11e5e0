// Package gtptest provides in-memory stand-ins for engine processes, for
// testing code that talks GTP.
//
// Readers here hand out at most one line per Read call, so a buffered
// reader on top of them never reads ahead of the response it was asked
// for. That lets a test break a stream between two responses and see
// exactly what a controller would see if the engine died there.
package gtptest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"

	"gtpkit/gtp"
)

// ErrWouldHang is returned by a reader whose real counterpart would block
// forever waiting for output that never comes.
var ErrWouldHang = errors.New("this would hang")

// brokenPipe is what writing to the stdin of an exited process returns.
func brokenPipe() error {
	return &os.PathError{Op: "write", Path: "|1", Err: syscall.EPIPE}
}

// nextLine removes and returns the first line of buf (including its
// newline), limited to n bytes.
func nextLine(buf *bytes.Buffer, n int) []byte {
	data := buf.Bytes()
	end := bytes.IndexByte(data, '\n') + 1
	if end == 0 {
		end = len(data)
	}
	if end > n {
		end = n
	}
	return buf.Next(end)
}

// ── Scripted responses ───────────────────────────────────────────────

// ScriptedResponses is a response stream with fixed content.
type ScriptedResponses struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	hangs  bool
	broken bool
	closed bool
}

// NewScriptedResponses returns a stream that yields script and then
// reports EOF, or ErrWouldHang if hangsBeforeEOF is set.
func NewScriptedResponses(script string, hangsBeforeEOF bool) *ScriptedResponses {
	s := &ScriptedResponses{hangs: hangsBeforeEOF}
	s.buf.WriteString(script)
	return s
}

func (s *ScriptedResponses) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return 0, os.ErrClosed
	case s.broken:
		return 0, io.EOF
	case len(p) == 0:
		return 0, nil
	case s.buf.Len() > 0:
		return copy(p, nextLine(&s.buf, len(p))), nil
	case s.hangs:
		return 0, ErrWouldHang
	}
	return 0, io.EOF
}

// Break makes the stream behave as if the engine had exited: every
// later Read reports EOF.
func (s *ScriptedResponses) Break() {
	s.mu.Lock()
	s.broken = true
	s.mu.Unlock()
}

// Close marks the stream closed. It may be called more than once.
func (s *ScriptedResponses) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (s *ScriptedResponses) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ── Command recorder ─────────────────────────────────────────────────

// CommandRecorder is a command stream that keeps everything written to
// it.
type CommandRecorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	broken bool
	closed bool
}

func (r *CommandRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, os.ErrClosed
	}
	if r.broken {
		return 0, brokenPipe()
	}
	return r.buf.Write(p)
}

// String returns the command stream written so far.
func (r *CommandRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Break makes every later Write fail with a broken pipe.
func (r *CommandRecorder) Break() {
	r.mu.Lock()
	r.broken = true
	r.mu.Unlock()
}

// Close marks the stream closed. It may be called more than once.
func (r *CommandRecorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (r *CommandRecorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// ── In-memory engine process ─────────────────────────────────────────

// EngineProcess runs a gtp.Engine behind a pair of streams, the way a
// subprocess would. Each complete command line written to Commands is
// handled at once and its response queued on Responses.
//
// Once the engine ends the session the process counts as exited: reads
// report EOF after the remaining output, and writes fail with a broken
// pipe unless EngineExitBreaksCommands is false, in which case they are
// silently discarded (as when the pipe buffer absorbs them).
type EngineProcess struct {
	Engine *gtp.Engine

	EngineExitBreaksCommands bool

	mu      sync.Mutex
	partial []byte
	out     bytes.Buffer
	exited  bool
	done    chan struct{}

	commandsClosed  bool
	responsesClosed bool
}

// NewEngineProcess returns a running process for e.
func NewEngineProcess(e *gtp.Engine) *EngineProcess {
	return &EngineProcess{Engine: e, EngineExitBreaksCommands: true, done: make(chan struct{})}
}

// Commands returns the process's command stream (its stdin).
func (p *EngineProcess) Commands() io.WriteCloser { return commandEnd{p} }

// Responses returns the process's response stream (its stdout).
func (p *EngineProcess) Responses() io.ReadCloser { return responseEnd{p} }

// Exited reports whether the engine has ended its session.
func (p *EngineProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

// Wait blocks until the engine has exited.
func (p *EngineProcess) Wait() error {
	<-p.done
	return nil
}

// Kill ends the process without a response, as if it had crashed.
func (p *EngineProcess) Kill() {
	p.mu.Lock()
	p.markExited()
	p.mu.Unlock()
}

// markExited is called with p.mu held.
func (p *EngineProcess) markExited() {
	if p.exited {
		return
	}
	p.exited = true
	close(p.done)
}

type commandEnd struct{ p *EngineProcess }

func (c commandEnd) Write(b []byte) (int, error) {
	p := c.p
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.commandsClosed {
		return 0, os.ErrClosed
	}
	if p.exited {
		if p.EngineExitBreaksCommands {
			return 0, brokenPipe()
		}
		return len(b), nil
	}
	p.partial = append(p.partial, b...)
	for !p.exited {
		i := bytes.IndexByte(p.partial, '\n')
		if i < 0 {
			break
		}
		line := string(p.partial[:i+1])
		p.partial = p.partial[i+1:]
		response, end := p.Engine.HandleLine(line)
		p.out.WriteString(response)
		if end {
			p.markExited()
			p.partial = nil
		}
	}
	return len(b), nil
}

func (c commandEnd) Close() error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.commandsClosed = true
	// An engine sees EOF on stdin and finishes its session.
	c.p.markExited()
	return nil
}

type responseEnd struct{ p *EngineProcess }

func (r responseEnd) Read(b []byte) (int, error) {
	p := r.p
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.responsesClosed:
		return 0, os.ErrClosed
	case len(b) == 0:
		return 0, nil
	case p.out.Len() > 0:
		return copy(b, nextLine(&p.out, len(b))), nil
	case p.exited:
		return 0, io.EOF
	}
	return 0, ErrWouldHang
}

func (r responseEnd) Close() error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.responsesClosed = true
	return nil
}

// ── Test engine ──────────────────────────────────────────────────────

// TestEngine returns an engine with the protocol commands and a few
// fixed commands for exercising controllers:
//
//	test       succeeds with "test response"
//	multiline  succeeds with a three-line response
//	error      fails with "normal error"
//	fatal      fails with "fatal error" and ends the session
func TestEngine() *gtp.Engine {
	e := gtp.NewEngine()
	e.AddProtocolCommands()
	e.AddCommands(map[string]gtp.Handler{
		"test": func([]string) (string, error) {
			return "test response", nil
		},
		"multiline": func([]string) (string, error) {
			return "first line  \n  second line\nthird line", nil
		},
		"error": func([]string) (string, error) {
			return "", gtp.Errorf("normal error")
		},
		"fatal": func([]string) (string, error) {
			return "", gtp.Fatalf("fatal error")
		},
	})
	return e
}
