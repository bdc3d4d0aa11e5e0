package gtp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const (
	// historyFileName is kept in the user's home directory.
	historyFileName = ".gtpkit-gtp-history"

	historySize = 500
)

// InteractiveOptions configures RunInteractiveSession.
type InteractiveOptions struct {
	// Stdin and Stdout default to os.Stdin and os.Stdout.
	Stdin  *os.File
	Stdout io.Writer

	// HistoryFile defaults to ~/.gtpkit-gtp-history. Set NoHistory to
	// keep no history file at all.
	HistoryFile string
	NoHistory   bool
}

// RunInteractiveSession runs a session for a human at a terminal: line
// editing, tab completion of command names, and a persistent history.
//
// If stdin isn't a terminal this is equivalent to RunSession.
func RunInteractiveSession(e *Engine, opts InteractiveOptions) error {
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if !term.IsTerminal(int(stdin.Fd())) {
		return RunSession(e, stdin, stdout)
	}

	cfg := &readline.Config{
		Prompt:                 "",
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		AutoComplete:           commandCompleter{commands: e.ListCommands()},
	}
	if !opts.NoHistory {
		cfg.HistoryFile = opts.HistoryFile
		if cfg.HistoryFile == "" {
			cfg.HistoryFile = defaultHistoryPath()
		}
	}
	rl, err := readline.NewFromConfig(cfg)
	if err != nil {
		// Fall back to plain line reading.
		return RunSession(e, stdin, stdout)
	}
	defer rl.Close()

	read := func() (string, error) {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			rl.SaveToHistory(trimmed)
		}
		return line, nil
	}
	write := func(s string) error {
		_, err := fmt.Fprint(stdout, s)
		return err
	}
	return runSession(e, read, write)
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFileName
	}
	return filepath.Join(home, historyFileName)
}

// commandCompleter completes the whole line against the engine's
// command names.
type commandCompleter struct {
	commands []string
}

func (c commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	var out [][]rune
	for _, name := range c.commands {
		if strings.HasPrefix(name, prefix) {
			out = append(out, []rune(name[len(prefix):]+" "))
		}
	}
	return out, len([]rune(prefix))
}
