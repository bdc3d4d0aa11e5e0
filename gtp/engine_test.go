package gtp

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestEngine() *Engine {
	e := NewEngine()
	e.AddProtocolCommands()
	e.AddCommands(map[string]Handler{
		"test": func([]string) (string, error) {
			return "test response", nil
		},
		"multiline": func([]string) (string, error) {
			return "first line  \n  second line\nthird line", nil
		},
		"error": func([]string) (string, error) {
			return "", Errorf("normal error")
		},
		"fatal": func([]string) (string, error) {
			return "", Fatalf("fatal error")
		},
		"empty_error": func([]string) (string, error) {
			return "", Errorf("")
		},
		"empty_fatal": func([]string) (string, error) {
			return "", &FatalError{}
		},
		"quit_with_message": func([]string) (string, error) {
			return "", Quit("bye")
		},
		"messy": func([]string) (string, error) {
			return "this respo\x7fnse\n\nne\x00eds\ncleanup\xa3", nil
		},
		"plain_error": func([]string) (string, error) {
			return "", errors.New("disk on fire")
		},
		"echo": func(args []string) (string, error) {
			return strings.Join(args, " "), nil
		},
		"panic": func([]string) (string, error) {
			panic("boom")
		},
	})
	return e
}

func TestRunCommand(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		name string
		args []string
		want Outcome
	}{
		{"test", nil, Outcome{Kind: Success, Body: "test response"}},
		{"multiline", nil, Outcome{Kind: Success, Body: "first line  \n  second line\nthird line"}},
		{"error", nil, Outcome{Kind: Failure, Body: "normal error"}},
		{"fatal", nil, Outcome{Kind: Fatal, Body: "fatal error"}},
		{"empty_error", nil, Outcome{Kind: Failure, Body: "unspecified error"}},
		{"empty_fatal", nil, Outcome{Kind: Fatal, Body: "unspecified fatal error"}},
		{"quit", nil, Outcome{Kind: QuitSession}},
		{"quit_with_message", nil, Outcome{Kind: QuitSession, Body: "bye"}},
		{"messy", nil, Outcome{Kind: Success, Body: "this response\n.\nneeds\ncleanup\xa3"}},
		{"plain_error", nil, Outcome{Kind: Failure, Body: "internal error\ndisk on fire"}},
		{"echo", []string{"a", "b"}, Outcome{Kind: Success, Body: "a b"}},
		{"nonesuch", nil, Outcome{Kind: Failure, Body: "unknown command"}},
		{"protocol_version", nil, Outcome{Kind: Success, Body: "2"}},
		{"known_command", []string{"test"}, Outcome{Kind: Success, Body: "true"}},
		{"known_command", []string{"nonesuch"}, Outcome{Kind: Success, Body: "false"}},
		{"known_command", nil, Outcome{Kind: Success, Body: "false"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.RunCommand(tt.name, tt.args)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RunCommand(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestOutcomePredicates(t *testing.T) {
	tests := []struct {
		kind        OutcomeKind
		failure     bool
		endsSession bool
	}{
		{Success, false, false},
		{Failure, true, false},
		{Fatal, true, true},
		{QuitSession, false, true},
	}
	for _, tt := range tests {
		o := Outcome{Kind: tt.kind}
		if o.IsFailure() != tt.failure || o.EndsSession() != tt.endsSession {
			t.Errorf("%v: IsFailure=%v EndsSession=%v", tt.kind, o.IsFailure(), o.EndsSession())
		}
	}
}

func TestListCommands(t *testing.T) {
	e := NewEngine()
	e.AddProtocolCommands()
	e.AddCommand("boardsize", func([]string) (string, error) { return "", nil })
	want := []string{"boardsize", "known_command", "list_commands", "protocol_version", "quit"}
	if diff := cmp.Diff(want, e.ListCommands()); diff != "" {
		t.Errorf("ListCommands mismatch (-want +got):\n%s", diff)
	}
	got := e.RunCommand("list_commands", nil)
	if got.Body != strings.Join(want, "\n") {
		t.Errorf("list_commands body = %q", got.Body)
	}
}

func TestRunCommand_Panic(t *testing.T) {
	e := newTestEngine()
	out := e.RunCommand("panic", nil)
	if out.Kind != Failure {
		t.Fatalf("kind = %v, want failure", out.Kind)
	}
	lines := strings.Split(out.Body, "\n")
	if lines[0] != "internal error" || lines[1] != "boom" {
		t.Fatalf("unexpected header:\n%s", out.Body)
	}
	if !strings.Contains(out.Body, "traceback (most recent call last):") {
		t.Errorf("no traceback in:\n%s", out.Body)
	}
	if !strings.Contains(out.Body, "engine_test.go:") {
		t.Errorf("trace doesn't mention the handler's file:\n%s", out.Body)
	}
	if !strings.HasSuffix(out.Body, "failing line:\npanic(\"boom\")") {
		t.Errorf("trace doesn't end with the failing line:\n%s", out.Body)
	}
	if strings.Contains(out.Body, "runtime.") {
		t.Errorf("trace includes runtime frames:\n%s", out.Body)
	}

	// The engine is still usable afterwards.
	if got := e.RunCommand("test", nil); got.Kind != Success {
		t.Errorf("after panic: %v", got)
	}
}

func TestRunCommand_RuntimePanic(t *testing.T) {
	e := NewEngine()
	e.AddCommand("index", func(args []string) (string, error) {
		return args[3], nil
	})
	out := e.RunCommand("index", []string{"a"})
	if out.Kind != Failure || !strings.HasPrefix(out.Body, "internal error\n") {
		t.Fatalf("got %v", out)
	}
	if !strings.Contains(out.Body, "index out of range") {
		t.Errorf("panic value missing:\n%s", out.Body)
	}
}

func TestHandleLine(t *testing.T) {
	e := newTestEngine()
	tests := []struct {
		line     string
		response string
		end      bool
	}{
		{"test\n", "= test response\n\n", false},
		{"test", "= test response\n\n", false},
		{"12 test\n", "=12 test response\n\n", false},
		{"12test\n", "=12 test response\n\n", false},
		{"-3 test\n", "= test response\n\n", false},
		{"99999999999 test\n", "=2147483647 test response\n\n", false},
		{"error\n", "? normal error\n\n", false},
		{"7 error\n", "?7 normal error\n\n", false},
		{"fatal\n", "? fatal error\n\n", true},
		{"quit\n", "=\n\n", true},
		{"5 quit\n", "=5\n\n", true},
		{"multiline\n", "= first line  \n  second line\nthird line\n\n", false},
		{"echo\ta    b\r\n", "= a b\n\n", false},
		{"echo a # b c\n", "= a\n\n", false},
		{"nonesuch\n", "? unknown command\n\n", false},
		{"\n", "", false},
		{"   \n", "", false},
		{"# comment only\n", "", false},
		{"42\n", "", false},
		{"42 \n", "", false},
		{"\x01\x02\n", "", false},
	}
	for _, tt := range tests {
		response, end := e.HandleLine(tt.line)
		if response != tt.response || end != tt.end {
			t.Errorf("HandleLine(%q) = %q, %v; want %q, %v", tt.line, response, end, tt.response, tt.end)
		}
	}
}

func TestFormatResponse(t *testing.T) {
	tests := []struct {
		id   string
		o    Outcome
		want string
	}{
		{"", Outcome{Kind: Success}, "=\n\n"},
		{"", Outcome{Kind: Success, Body: "D4"}, "= D4\n\n"},
		{"3", Outcome{Kind: Failure, Body: "illegal move"}, "?3 illegal move\n\n"},
		{"", Outcome{Kind: Fatal, Body: "gone"}, "? gone\n\n"},
		{"9", Outcome{Kind: QuitSession}, "=9\n\n"},
	}
	for _, tt := range tests {
		if got := FormatResponse(tt.id, tt.o); got != tt.want {
			t.Errorf("FormatResponse(%q, %v) = %q, want %q", tt.id, tt.o, got, tt.want)
		}
	}
}

func TestOutcomeKindString(t *testing.T) {
	for kind, want := range map[OutcomeKind]string{
		Success: "success", Failure: "failure", Fatal: "fatal", QuitSession: "quit", OutcomeKind(99): "unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), got, want)
		}
	}
}

func TestErrorTypes(t *testing.T) {
	if got := Quit("").Error(); got != "quit" {
		t.Errorf("Quit(\"\").Error() = %q", got)
	}
	var fatal *FatalError
	if !errors.As(Fatalf("x %d", 1), &fatal) || fatal.Message != "x 1" {
		t.Errorf("Fatalf: %#v", fatal)
	}
	var gtpErr *Error
	if !errors.As(ReportBadArguments(), &gtpErr) || gtpErr.Message != "invalid arguments" {
		t.Errorf("ReportBadArguments: %#v", gtpErr)
	}
}
