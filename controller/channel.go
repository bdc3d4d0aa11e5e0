package controller

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	gtperr "gtpkit/internal/errors"
)

// Channel is a low-level connection to a GTP engine.
//
// A channel is strictly request/response: each SendCommand must be
// followed by one GetResponse before the next command. Breaking that
// rule returns ErrTwoCommandsInARow or ErrResponseWithoutCommand.
//
// SendCommand returns a *ValidationError for a command that cannot be
// put on the wire, and both methods return a *ChannelError when the
// transport fails or the engine sends something that isn't GTP.
type Channel interface {
	SendCommand(command string, args []string) error
	// GetResponse returns the cleaned response body. isFailure reports a
	// "?" response.
	GetResponse() (isFailure bool, body string, err error)
	Close() error
}

// LineChannel is a Channel over a pair of byte streams, normally an
// engine's stdin and stdout.
type LineChannel struct {
	commands  io.Writer
	responses *bufio.Reader
	closers   []io.Closer

	pending   bool // a command has been sent and its response not read
	seenReply bool // a response has been read at least once
	closed    bool
}

// NewLineChannel returns a channel writing commands to commands and
// reading responses from responses. Close closes whichever of the two
// are io.Closers.
func NewLineChannel(commands io.Writer, responses io.Reader) *LineChannel {
	ch := &LineChannel{
		commands:  commands,
		responses: bufio.NewReader(responses),
	}
	if c, ok := commands.(io.Closer); ok {
		ch.closers = append(ch.closers, c)
	}
	if c, ok := responses.(io.Closer); ok {
		ch.closers = append(ch.closers, c)
	}
	return ch
}

// ── Sending ──────────────────────────────────────────────────────────

// SendCommand writes one command line.
func (ch *LineChannel) SendCommand(command string, args []string) error {
	if ch.pending {
		return gtperr.ErrTwoCommandsInARow
	}
	if err := validateToken("command", command); err != nil {
		return err
	}
	for _, arg := range args {
		if err := validateToken("argument", arg); err != nil {
			return err
		}
	}

	line := gtperr.FormatCommandLine(command, args) + "\n"
	if _, err := io.WriteString(ch.commands, line); err != nil {
		if isClosedWrite(err) {
			return gtperr.Closed("engine has closed the command channel", err)
		}
		return gtperr.Transport(fmt.Sprintf("error sending command to engine: %v", err), err)
	}
	ch.pending = true
	return nil
}

// validateToken checks a command name or argument: nonempty, and no
// space or control characters.
func validateToken(field, s string) error {
	if s == "" {
		return &gtperr.ValidationError{Field: field, Value: s, Reason: "empty"}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			return &gtperr.ValidationError{Field: field, Value: s, Reason: "contains whitespace"}
		case c < 0x21 || c == 0x7f:
			return &gtperr.ValidationError{Field: field, Value: s, Reason: "contains a control character"}
		}
	}
	return nil
}

func isClosedWrite(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.EOF)
}

// ── Receiving ────────────────────────────────────────────────────────

// GetResponse reads the response to the last command sent.
//
// Before the first response the channel checks the first byte the
// engine sends, so that a program that isn't a GTP engine at all (one
// printing a usage message, or a prompt without a newline) is reported
// instead of hanging the controller.
func (ch *LineChannel) GetResponse() (bool, string, error) {
	if !ch.pending {
		return false, "", gtperr.ErrResponseWithoutCommand
	}
	ch.pending = false

	if !ch.seenReply {
		if err := ch.checkFirstResponse(); err != nil {
			return false, "", err
		}
		ch.seenReply = true
	}

	lines, err := ch.readResponseLines()
	if err != nil {
		return false, "", err
	}
	if len(lines) == 0 {
		return false, "", gtperr.Closed("engine has closed the response channel", io.EOF)
	}

	first := lines[0]
	if first[0] != '=' && first[0] != '?' {
		return false, "", gtperr.Protocol(
			"no success/failure indication from engine: first line is `%s`",
			strings.TrimRight(first, " \t\n"))
	}
	isFailure := first[0] == '?'
	i := 1
	for i < len(first) && first[i] >= '0' && first[i] <= '9' {
		i++
	}
	lines[0] = first[i:]

	body := strings.Trim(strings.Join(lines, ""), " \t\n")
	return isFailure, strings.ReplaceAll(body, "\t", " "), nil
}

func (ch *LineChannel) checkFirstResponse() error {
	peeked, err := ch.responses.Peek(1)
	if len(peeked) == 0 {
		return readError(err)
	}
	c := peeked[0]
	if c == '=' || c == '?' {
		return nil
	}
	if c < 0x04 {
		if gmp, _ := ch.responses.Peek(4); len(gmp) == 4 &&
			gmp[1]&0x80 != 0 && gmp[2]&0x80 != 0 && gmp[3]&0x80 != 0 {
			return gtperr.Protocol("engine appears to be speaking GMP, not GTP")
		}
	}
	return gtperr.Protocol("engine isn't speaking GTP: first byte is %s", quoteByte(c))
}

func quoteByte(c byte) string {
	if c >= 0x80 {
		return fmt.Sprintf(`'\x%02x'`, c)
	}
	return fmt.Sprintf("%q", rune(c))
}

// readResponseLines reads up to the blank line ending a response. It
// returns nil at EOF with nothing read.
func (ch *LineChannel) readResponseLines() ([]string, error) {
	var lines []string
	for {
		raw, err := ch.responses.ReadString('\n')
		eof := false
		if err != nil {
			if !isClosedRead(err) {
				return nil, readError(err)
			}
			eof = true
		}
		line := stripResponseControls(raw)
		if strings.Trim(line, " \t\n") == "" {
			if len(lines) > 0 || eof {
				return lines, nil
			}
			continue
		}
		lines = append(lines, line)
		if eof {
			return lines, nil
		}
	}
}

func isClosedRead(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

func readError(err error) error {
	if err == nil || isClosedRead(err) {
		return gtperr.Closed("engine has closed the response channel", err)
	}
	return gtperr.Transport(fmt.Sprintf("error reading response from engine: %v", err), err)
}

// stripResponseControls removes the control characters GTP says a
// controller must ignore. Tab and newline are kept; so is backspace.
// Bytes are not decoded: anything above 0x7f passes through.
func stripResponseControls(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 0x20 && c != '\b' && c != '\t' && c != '\n') || c == 0x7f {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ── Closing ──────────────────────────────────────────────────────────

// Close closes the underlying streams. Later calls do nothing.
func (ch *LineChannel) Close() error {
	if ch.closed {
		return nil
	}
	ch.closed = true
	var errs []error
	for _, c := range ch.closers {
		if err := c.Close(); err != nil && !isClosedRead(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		return gtperr.Transport(fmt.Sprintf("error closing channel to engine: %v", err), err)
	}
	return nil
}
