package core

import (
	"context"
	"io"
	"os"

	"gtpkit/gtp"
	"gtpkit/util"
)

// EngineMode serves an engine on stdin/stdout until the controller
// quits or closes the stream.
type EngineMode struct {
	Engine *gtp.Engine

	// Interactive enables line editing and history when stdin is a
	// terminal.
	Interactive bool
	HistoryFile string
	NoHistory   bool

	Logger *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run implements Mode.  The context is not consulted: a GTP session
// ends when its input does.
func (m *EngineMode) Run(_ context.Context) error {
	stdin := m.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := m.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	m.Logger.Verbose("serving %d commands", len(m.Engine.ListCommands()))
	if f, ok := stdin.(*os.File); ok && m.Interactive {
		return gtp.RunInteractiveSession(m.Engine, gtp.InteractiveOptions{
			Stdin:       f,
			Stdout:      stdout,
			HistoryFile: m.HistoryFile,
			NoHistory:   m.NoHistory,
		})
	}
	return gtp.RunSession(m.Engine, stdin, stdout)
}
