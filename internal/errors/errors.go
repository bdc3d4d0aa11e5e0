// Package errors provides the controller-side error taxonomy for gtpkit.
//
// Failures are strictly layered: a ValidationError is a caller bug
// detected before any I/O, a ChannelError covers everything that went
// wrong on the transport (including a well-formed stream that is not
// GTP at all), and a BadResponseError is a well-formed GTP failure
// response to a specific command.  Exactly one of these is returned per
// failed operation.
package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrTransport matches every transport-level ChannelError,
	// including the channel-closed kind.
	ErrTransport = errors.New("transport error")

	// ErrChannelClosed matches ChannelErrors raised because a stream is
	// known to be at EOF or broken.
	ErrChannelClosed = errors.New("channel closed")

	// ErrProtocol matches ChannelErrors raised because the engine sent
	// bytes that are not well-formed GTP.
	ErrProtocol = errors.New("protocol error")

	ErrChannelBad             = errors.New("channel is bad")
	ErrResponseWithoutCommand = errors.New("response request without command")
	ErrTwoCommandsInARow      = errors.New("two commands in a row")
	ErrProtocolVersion        = errors.New("unsupported GTP protocol version")
)

// ── Structured error types ───────────────────────────────────────────

// ValidationError reports a command or argument that cannot be put on
// the wire.  Nothing is written when it is returned.
type ValidationError struct {
	Field  string // "command" or "argument"
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid GTP %s %q: %s", e.Field, e.Value, e.Reason)
}

// ChannelKind classifies a ChannelError.
type ChannelKind int

const (
	KindTransport ChannelKind = iota
	KindClosed
	KindProtocol
)

func (k ChannelKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindClosed:
		return "channel closed"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// ChannelError is a failure of the channel to an engine.  Channels fill
// in Kind, Message and Err; a controller adds Context, Command and Args
// before returning it to its caller.
type ChannelError struct {
	Kind    ChannelKind
	Message string // e.g. "engine has closed the response channel"
	Err     error  // underlying I/O error, if any

	Context string   // e.g. "error sending 'play' to black"; empty at channel level
	Command string
	Args    []string
}

func (e *ChannelError) Error() string {
	if e.Context != "" {
		return e.Context + ":\n" + e.Message
	}
	return e.Message
}

func (e *ChannelError) Unwrap() error { return e.Err }

// Is lets errors.Is test a ChannelError against the kind sentinels.
// A closed channel is a transport failure too.
func (e *ChannelError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport || e.Kind == KindClosed
	case ErrChannelClosed:
		return e.Kind == KindClosed
	case ErrProtocol:
		return e.Kind == KindProtocol
	}
	return false
}

// BadResponseError is a failure response from the engine.
type BadResponseError struct {
	Command      string
	Args         []string
	Engine       string
	Message      string // the engine's error text
	FirstCommand bool   // whether this was the first command sent to the engine
}

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("failure response from %s to %s:\n%s",
		DescribeCommand(e.Command, e.FirstCommand), e.Engine, e.Message)
}

// LaunchError reports an engine that could not be started.  Host is
// empty for a local engine.
type LaunchError struct {
	Op        string // "exec", "dial", "auth", "hostkey", "handshake", "session", "start"
	Command   string
	Host      string
	Port      int
	Retryable bool
	Err       error
}

func (e *LaunchError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Command, e.Err)
	}
	if e.Command == "" {
		return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
	}
	return fmt.Sprintf("ssh %s %s:%d (%s): %v", e.Op, e.Host, e.Port, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Transport creates a transport-kind ChannelError.
func Transport(message string, err error) *ChannelError {
	return &ChannelError{Kind: KindTransport, Message: message, Err: err}
}

// Closed creates a channel-closed ChannelError.
func Closed(message string, err error) *ChannelError {
	return &ChannelError{Kind: KindClosed, Message: message, Err: err}
}

// Protocol creates a protocol-kind ChannelError.
func Protocol(format string, args ...interface{}) *ChannelError {
	return &ChannelError{Kind: KindProtocol, Message: fmt.Sprintf(format, args...)}
}

// ── Classification helpers ───────────────────────────────────────────

// IsChannelError reports whether err is any kind of ChannelError.
// These are the failures that leave a channel unusable.
func IsChannelError(err error) bool {
	var ce *ChannelError
	return errors.As(err, &ce)
}

// IsRetryable reports whether err is a launch failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var le *LaunchError
	if errors.As(err, &le) {
		return le.Retryable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return false
}

// DescribeCommand formats a command name for error messages.
func DescribeCommand(command string, first bool) string {
	if first {
		return fmt.Sprintf("first command (%s)", command)
	}
	return fmt.Sprintf("'%s'", command)
}

// FormatCommandLine renders a command and its arguments as they would
// appear on the wire, without the newline.
func FormatCommandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
