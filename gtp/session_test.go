package gtp

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestRunSession(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "commands until eof",
			input: "test\n\n1 error\nprotocol_version\n",
			want:  "= test response\n\n?1 normal error\n\n= 2\n\n",
		},
		{
			name:  "quit ends the session",
			input: "test\nquit\ntest\n",
			want:  "= test response\n\n=\n\n",
		},
		{
			name:  "fatal ends the session",
			input: "fatal\ntest\n",
			want:  "? fatal error\n\n",
		},
		{
			name:  "final line without newline",
			input: "test\n3 test",
			want:  "= test response\n\n=3 test response\n\n",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "crlf input",
			input: "test\r\nmultiline\r\n",
			want:  "= test response\n\n= first line  \n  second line\nthird line\n\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := RunSession(newTestEngine(), strings.NewReader(tt.input), &out); err != nil {
				t.Fatalf("RunSession: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRunSession_FlushesEachResponse(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	if err := RunSession(newTestEngine(), strings.NewReader("test\n"), w); err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	if out.String() != "= test response\n\n" {
		t.Errorf("unflushed output: %q", out.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestRunSession_WriteError(t *testing.T) {
	err := RunSession(newTestEngine(), strings.NewReader("test\ntest\n"), failingWriter{})
	if !errors.Is(err, os.ErrClosed) {
		t.Errorf("err = %v, want os.ErrClosed", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestRunSession_ReadError(t *testing.T) {
	var out bytes.Buffer
	err := RunSession(newTestEngine(), failingReader{}, &out)
	if err == nil || err.Error() != "read failed" {
		t.Errorf("err = %v", err)
	}
}
