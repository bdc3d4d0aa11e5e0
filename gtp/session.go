package gtp

import (
	"bufio"
	"errors"
	"io"
)

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// RunSession runs a GTP session with src supplying commands and dst
// receiving responses.
//
// It returns nil when src reaches EOF or when the engine ends the
// session. Each response is flushed as soon as it is written, so an
// interactive controller sees it at once.
func RunSession(e *Engine, src io.Reader, dst io.Writer) error {
	r := bufio.NewReader(src)
	read := func() (string, error) {
		line, err := r.ReadString('\n')
		if err == io.EOF && line != "" {
			// Final line without a newline; the next read reports EOF.
			return line, nil
		}
		return line, err
	}
	write := func(s string) error {
		if _, err := io.WriteString(dst, s); err != nil {
			return err
		}
		if f, ok := dst.(flusher); ok {
			return f.Flush()
		}
		return nil
	}
	return runSession(e, read, write)
}

// runSession is the loop shared by RunSession and RunInteractiveSession.
// read returns io.EOF at end of input.
func runSession(e *Engine, read func() (string, error), write func(string) error) error {
	for {
		line, err := read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		response, endSession := e.HandleLine(line)
		if response != "" {
			if err := write(response); err != nil {
				return err
			}
		}
		if endSession {
			return nil
		}
	}
}
