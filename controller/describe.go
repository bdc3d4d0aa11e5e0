package controller

import (
	"strings"
	"unicode/utf8"
)

// DescribeEngine returns a one-line and a multi-line description of the
// engine, built from its name, version and gomill-describe_engine
// responses.
//
// The one-line form is "name:version", "name", or "unknown" if the
// engine reports no name. The long form is the gomill-describe_engine
// response, or the short form if the engine doesn't support it. Any
// command that fails is treated as unsupported.
func DescribeEngine(c *Controller) (short, long string) {
	name, ok := tryCommand(c, "name")
	if !ok {
		short = "unknown"
	} else {
		short = name
		if version, ok := tryCommand(c, "version"); ok {
			if len(version) >= len(name) && strings.EqualFold(version[:len(name)], name) {
				version = strings.TrimLeft(version[len(name):], " ")
			}
			if version != "" {
				short = name + ":" + version
			}
		}
	}

	long = short
	if known, err := c.KnownCommand("gomill-describe_engine"); err == nil && known {
		if description, ok := tryCommand(c, "gomill-describe_engine"); ok {
			long = description
		}
	}
	return short, long
}

// tryCommand runs a command, reporting false on any error or an empty
// response.
func tryCommand(c *Controller, command string) (string, bool) {
	response, err := c.DoCommand(command)
	if err != nil {
		return "", false
	}
	response = sanitiseText(response)
	return response, response != ""
}

// sanitiseText replaces each byte that isn't part of valid UTF-8 with
// '?'.
func sanitiseText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			b.WriteByte('?')
		} else {
			b.WriteString(s[:size])
		}
		s = s[size:]
	}
	return b.String()
}
