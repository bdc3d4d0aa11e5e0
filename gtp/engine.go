// Package gtp implements the engine side of the Go Text Protocol: the
// message grammar, a command dispatcher and the session loop.
//
// It follows GTP draft version 2, with gnugo 3.7 as the reference for
// behaviour the draft leaves open.
//
//	e := gtp.NewEngine()
//	e.AddProtocolCommands()
//	e.AddCommand("komi", handleKomi)
//	err := gtp.RunSession(e, os.Stdin, os.Stdout)
package gtp

import (
	"errors"
	"sort"
	"strings"
)

// Handler runs one command. It receives the command's arguments
// (nonempty strings of printable non-whitespace characters) and returns
// the response body, which is cleaned with CleanResponse before it is
// sent.
//
// To report an error return an *Error (see Errorf). Returning a
// *FatalError or a *QuitRequest ends the session. Any other error, and
// any panic, is reported as "internal error" and the session continues.
type Handler func(args []string) (string, error)

// OutcomeKind classifies the result of running a handler.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Failure
	Fatal
	QuitSession
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Fatal:
		return "fatal"
	case QuitSession:
		return "quit"
	default:
		return "unknown"
	}
}

// Outcome is the protocol-level result of one command.
type Outcome struct {
	Kind OutcomeKind
	Body string // already cleaned
}

// IsFailure reports whether the outcome is sent as a "?" response.
func (o Outcome) IsFailure() bool { return o.Kind == Failure || o.Kind == Fatal }

// EndsSession reports whether the engine wants no further commands.
func (o Outcome) EndsSession() bool { return o.Kind == Fatal || o.Kind == QuitSession }

// Engine dispatches GTP commands to handlers.
//
// An Engine is not safe for concurrent use; a session feeds it one line
// at a time.
type Engine struct {
	handlers map[string]Handler
}

// NewEngine returns an engine with no commands registered.
func NewEngine() *Engine {
	return &Engine{handlers: make(map[string]Handler)}
}

// AddCommand registers the handler for a command, replacing any
// earlier registration.
func (e *Engine) AddCommand(name string, h Handler) {
	e.handlers[name] = h
}

// AddCommands registers several handlers at once.
func (e *Engine) AddCommands(handlers map[string]Handler) {
	for name, h := range handlers {
		e.handlers[name] = h
	}
}

// IsKnown reports whether a handler is registered for name.
func (e *Engine) IsKnown(name string) bool {
	_, ok := e.handlers[name]
	return ok
}

// ListCommands returns the registered command names, sorted.
func (e *Engine) ListCommands() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddProtocolCommands registers the commands that need no engine
// behind them: known_command, list_commands, protocol_version and quit.
// Like gnugo, they ignore extra arguments.
func (e *Engine) AddProtocolCommands() {
	e.AddCommand("known_command", func(args []string) (string, error) {
		return FormatBoolean(len(args) > 0 && e.IsKnown(args[0])), nil
	})
	e.AddCommand("list_commands", func([]string) (string, error) {
		return strings.Join(e.ListCommands(), "\n"), nil
	})
	e.AddCommand("protocol_version", func([]string) (string, error) {
		return "2", nil
	})
	e.AddCommand("quit", func([]string) (string, error) {
		return "", Quit("")
	})
}

// RunCommand runs the handler for a command directly, without going
// through the line syntax.
func (e *Engine) RunCommand(name string, args []string) Outcome {
	h, ok := e.handlers[name]
	if !ok {
		return Outcome{Kind: Failure, Body: "unknown command"}
	}
	body, err := e.invoke(h, args)
	if err == nil {
		return Outcome{Kind: Success, Body: CleanResponse(body)}
	}

	var (
		quit   *QuitRequest
		fatal  *FatalError
		gtpErr *Error
		ie     *internalError
	)
	switch {
	case errors.As(err, &quit):
		return Outcome{Kind: QuitSession, Body: CleanResponse(quit.Message)}
	case errors.As(err, &fatal):
		return Outcome{Kind: Fatal, Body: orDefault(fatal.Message, "unspecified fatal error")}
	case errors.As(err, &gtpErr):
		return Outcome{Kind: Failure, Body: orDefault(gtpErr.Message, "unspecified error")}
	case errors.As(err, &ie):
		return Outcome{Kind: Failure, Body: CleanResponse("internal error\n" + ie.trace)}
	default:
		return Outcome{Kind: Failure, Body: CleanResponse("internal error\n" + err.Error())}
	}
}

func orDefault(msg, def string) string {
	if s := CleanResponse(msg); s != "" {
		return s
	}
	return def
}

// invoke calls h, turning a panic into an internalError.
func (e *Engine) invoke(h Handler, args []string) (body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &internalError{trace: compactTrace(r)}
		}
	}()
	return h(args)
}

// HandleLine handles one line of input, which may or may not include
// its terminating newline.
//
// It returns the complete wire response (ending with a blank line), or
// "" if nothing at all should be sent. endSession reports whether the
// session should be terminated once the response is sent.
func (e *Engine) HandleLine(line string) (response string, endSession bool) {
	normalised := PreprocessLine(line)
	if normalised == "" || normalised == " " {
		return "", false
	}
	cmd, ok := ParseLine(normalised)
	if !ok {
		return "", false
	}
	out := e.RunCommand(cmd.Name, cmd.Args)
	return FormatResponse(cmd.ID, out), out.EndsSession()
}

// FormatResponse builds the wire form of an outcome.
func FormatResponse(id string, o Outcome) string {
	var b strings.Builder
	if o.IsFailure() {
		b.WriteByte('?')
	} else {
		b.WriteByte('=')
	}
	b.WriteString(id)
	if o.Body != "" {
		b.WriteByte(' ')
		b.WriteString(o.Body)
	}
	b.WriteString("\n\n")
	return b.String()
}
