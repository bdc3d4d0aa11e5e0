package core

import (
	"fmt"
	"strconv"
	"strings"

	"gtpkit/gtp"
)

// builtinState is what the built-in engine remembers between commands.
// It keeps no board: moves are checked for syntax and counted.
type builtinState struct {
	boardSize int
	komi      float64
	moves     int
}

// NewBuiltinEngine returns the engine served by engine mode: the
// protocol commands plus the administrative commands a controller
// expects, with genmove always passing.  It is a well-behaved peer for
// testing controllers and GTP front ends.
func NewBuiltinEngine(name, version string) *gtp.Engine {
	st := &builtinState{boardSize: 19}
	e := gtp.NewEngine()
	e.AddProtocolCommands()
	e.AddCommands(map[string]gtp.Handler{
		"name":    func([]string) (string, error) { return name, nil },
		"version": func([]string) (string, error) { return version, nil },
		"gomill-describe_engine": func([]string) (string, error) {
			return fmt.Sprintf("%s %s\nboard size %d, komi %s, %d moves played",
				name, version, st.boardSize, formatKomi(st.komi), st.moves), nil
		},

		"echo": func(args []string) (string, error) {
			return strings.Join(args, " "), nil
		},
		"echo_err": func(args []string) (string, error) {
			return "", gtp.Errorf("%s", strings.Join(args, " "))
		},

		"boardsize":   st.handleBoardsize,
		"clear_board": st.handleClearBoard,
		"komi":        st.handleKomi,
		"play":        st.handlePlay,
		"genmove":     st.handleGenmove,
	})
	return e
}

func (st *builtinState) handleBoardsize(args []string) (string, error) {
	if len(args) < 1 {
		return "", gtp.ReportBadArguments()
	}
	size, err := gtp.InterpretInt(args[0])
	if err != nil {
		return "", err
	}
	if size < 1 || size > gtp.MaxBoardSize {
		return "", gtp.Errorf("unacceptable size")
	}
	st.boardSize = size
	st.moves = 0
	return "", nil
}

func (st *builtinState) handleClearBoard([]string) (string, error) {
	st.moves = 0
	return "", nil
}

func (st *builtinState) handleKomi(args []string) (string, error) {
	if len(args) < 1 {
		return "", gtp.ReportBadArguments()
	}
	komi, err := gtp.InterpretFloat(args[0])
	if err != nil {
		return "", err
	}
	st.komi = komi
	return "", nil
}

func (st *builtinState) handlePlay(args []string) (string, error) {
	if len(args) < 2 {
		return "", gtp.ReportBadArguments()
	}
	if _, err := gtp.InterpretColour(args[0]); err != nil {
		return "", err
	}
	if _, err := gtp.InterpretVertex(args[1], st.boardSize); err != nil {
		return "", err
	}
	st.moves++
	return "", nil
}

func (st *builtinState) handleGenmove(args []string) (string, error) {
	if len(args) < 1 {
		return "", gtp.ReportBadArguments()
	}
	if _, err := gtp.InterpretColour(args[0]); err != nil {
		return "", err
	}
	st.moves++
	return gtp.FormatMove(nil), nil
}

func formatKomi(k float64) string {
	return strconv.FormatFloat(k, 'f', -1, 64)
}
