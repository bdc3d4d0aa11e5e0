package controller

import (
	"testing"

	"gtpkit/gtp"
	"gtpkit/internal/gtptest"
)

func constant(s string) gtp.Handler {
	return func([]string) (string, error) { return s, nil }
}

func TestDescribeEngine(t *testing.T) {
	tests := []struct {
		name      string
		commands  map[string]gtp.Handler
		wantShort string
		wantLong  string
	}{
		{
			name:      "no name",
			wantShort: "unknown",
			wantLong:  "unknown",
		},
		{
			name:      "name only",
			commands:  map[string]gtp.Handler{"name": constant("test engine")},
			wantShort: "test engine",
			wantLong:  "test engine",
		},
		{
			name: "name and version",
			commands: map[string]gtp.Handler{
				"name":    constant("test engine"),
				"version": constant("1.2.3"),
			},
			wantShort: "test engine:1.2.3",
			wantLong:  "test engine:1.2.3",
		},
		{
			name: "describe_engine",
			commands: map[string]gtp.Handler{
				"name":                   constant("test engine"),
				"version":                constant("1.2.3"),
				"gomill-describe_engine": constant("test engine (v1.2.3):\n  pl\xc3\xa1yer \xa3"),
			},
			wantShort: "test engine:1.2.3",
			wantLong:  "test engine (v1.2.3):\n  pl\xc3\xa1yer ?",
		},
		{
			name: "version repeats the name",
			commands: map[string]gtp.Handler{
				"name":    constant("test engine"),
				"version": constant("test engine v1.2.3"),
			},
			wantShort: "test engine:v1.2.3",
			wantLong:  "test engine:v1.2.3",
		},
		{
			name: "version fails",
			commands: map[string]gtp.Handler{
				"name": constant("test engine"),
				"version": func([]string) (string, error) {
					return "", gtp.Errorf("no version")
				},
			},
			wantShort: "test engine",
			wantLong:  "test engine",
		},
		{
			name: "describe_engine fails",
			commands: map[string]gtp.Handler{
				"name": constant("test engine"),
				"gomill-describe_engine": func([]string) (string, error) {
					return "", gtp.Errorf("not today")
				},
			},
			wantShort: "test engine",
			wantLong:  "test engine",
		},
		{
			name:      "invalid utf-8 in name",
			commands:  map[string]gtp.Handler{"name": constant("caf\xe9\xff")},
			wantShort: "caf??",
			wantLong:  "caf??",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gtptest.TestEngine()
			e.AddCommands(tt.commands)
			c, _ := newEngineController(e)
			short, long := DescribeEngine(c)
			if short != tt.wantShort {
				t.Errorf("short = %q, want %q", short, tt.wantShort)
			}
			if long != tt.wantLong {
				t.Errorf("long = %q, want %q", long, tt.wantLong)
			}
		})
	}
}

func TestDescribeEngine_DeadEngine(t *testing.T) {
	s := newScripted("", false)
	c := New(s.ch, "player test", nil)
	short, long := DescribeEngine(c)
	if short != "unknown" || long != "unknown" {
		t.Errorf("got (%q, %q)", short, long)
	}
	if !c.ChannelIsBad() {
		t.Error("channel not marked bad")
	}
}

func TestSanitiseText(t *testing.T) {
	for in, want := range map[string]string{
		"plain":           "plain",
		"pl\xc3\xa1yer":   "pl\xc3\xa1yer",
		"\xa3":            "?",
		"a\xff\xfeb":      "a??b",
		"\xe2\x82":        "??",
		"ok \xe2\x82\xac": "ok \xe2\x82\xac",
	} {
		if got := sanitiseText(in); got != want {
			t.Errorf("sanitiseText(%q) = %q, want %q", in, got, want)
		}
	}
}
