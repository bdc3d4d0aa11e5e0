package gtp

import "fmt"

// Error is a recoverable error reported by a command handler. The
// message is sent to the controller as a failure response and the
// session continues.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// FatalError is reported to the controller as a failure response, after
// which the session ends.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string { return e.Message }

// QuitRequest asks for the session to end after a success response
// carrying Message.
type QuitRequest struct {
	Message string
}

func (e *QuitRequest) Error() string {
	if e.Message == "" {
		return "quit"
	}
	return e.Message
}

// Errorf returns an *Error with a formatted message.
func Errorf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Fatalf returns a *FatalError with a formatted message.
func Fatalf(format string, args ...interface{}) error {
	return &FatalError{Message: fmt.Sprintf(format, args...)}
}

// Quit returns a *QuitRequest. The message may be empty.
func Quit(message string) error {
	return &QuitRequest{Message: message}
}
