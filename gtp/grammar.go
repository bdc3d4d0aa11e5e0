package gtp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxInt is the largest integer GTP can represent (2^31-1).
const MaxInt = 1<<31 - 1

// MaxBoardSize is the largest board a vertex can address.
const MaxBoardSize = 25

// columnLetters are the GTP column names; there is no I.
const columnLetters = "ABCDEFGHJKLMNOPQRSTUVWXYZ"

var commandIDRe = regexp.MustCompile(`^-?[0-9]+`)

// Command is one parsed request line.
type Command struct {
	ID   string // empty when the line carried no id
	Name string
	Args []string
}

// Point is a board coordinate. Row 0 is the bottom row (GTP "A1").
type Point struct {
	Row int
	Col int
}

// ── Line preprocessing and parsing ───────────────────────────────────

// PreprocessLine drops any comment, removes control characters other
// than HT, and collapses runs of tabs and spaces into a single space.
func PreprocessLine(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t' || c == ' ':
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		case c < 0x20 || c == 0x7f:
			continue
		}
		inSpace = false
		b.WriteByte(c)
	}
	return b.String()
}

// ParseLine parses a preprocessed, nonempty input line.
//
// It returns false if the line is to be treated as empty after all,
// which happens when the line holds nothing but a command id. Handling
// of malformed ids follows gnugo 3.7: a negative id is dropped and an
// id above MaxInt is clamped.
func ParseLine(line string) (Command, bool) {
	tokens := splitWords(line)
	if len(tokens) == 0 {
		return Command{}, false
	}
	first := tokens[0]
	loc := commandIDRe.FindStringIndex(first)
	if loc == nil {
		return Command{Name: first, Args: tokens[1:]}, true
	}

	cmd := Command{ID: normaliseID(first[:loc[1]])}
	if rest := first[loc[1]:]; rest != "" {
		cmd.Name = rest
		cmd.Args = tokens[1:]
		return cmd, true
	}
	if len(tokens) < 2 {
		return Command{}, false
	}
	cmd.Name = tokens[1]
	cmd.Args = tokens[2:]
	return cmd, true
}

func normaliseID(id string) string {
	if strings.HasPrefix(id, "-") {
		if strings.Trim(id[1:], "0") != "" {
			return ""
		}
		return id
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n > MaxInt {
		return strconv.Itoa(MaxInt)
	}
	return id
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' })
}

// ── Value interpretation ─────────────────────────────────────────────

// InterpretBoolean accepts exactly "true" or "false".
func InterpretBoolean(arg string) (bool, error) {
	switch arg {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, Errorf("invalid boolean: '%s'", arg)
}

// InterpretColour accepts b, black, w or white in any case and returns
// "b" or "w".
func InterpretColour(arg string) (string, error) {
	switch strings.ToLower(arg) {
	case "b", "black":
		return "b", nil
	case "w", "white":
		return "w", nil
	}
	return "", Errorf("invalid colour: '%s'", arg)
}

// InterpretVertex interprets a vertex for a board of the given size.
// It returns nil for a pass.
func InterpretVertex(arg string, boardSize int) (*Point, error) {
	if boardSize <= 0 || boardSize > MaxBoardSize {
		return nil, fmt.Errorf("gtp: board size %d out of range", boardSize)
	}
	s := strings.ToLower(arg)
	if s == "pass" {
		return nil, nil
	}
	if s == "" {
		return nil, Errorf("invalid vertex: '%s'", s)
	}
	c := s[0]
	if c < 'a' || c > 'z' || c == 'i' {
		return nil, Errorf("invalid vertex: '%s'", s)
	}
	col := int(c - 'a')
	if c > 'i' {
		col--
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return nil, Errorf("invalid vertex: '%s'", s)
	}
	row := n - 1
	if col >= boardSize || row >= boardSize {
		return nil, Errorf("vertex is off board: '%s'", s)
	}
	return &Point{Row: row, Col: col}, nil
}

// InterpretInt interprets a GTP int.
//
// Out-of-range values are clipped rather than rejected: negative numbers
// become -1 and numbers above MaxInt become MaxInt. This copies gnugo's
// handling of command ids for wire compatibility; the GTP protocol
// itself does not require it.
func InterpretInt(arg string) (int, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			return 0, Errorf("invalid int: '%s'", arg)
		}
		if strings.HasPrefix(arg, "-") {
			return -1, nil
		}
		return MaxInt, nil
	}
	switch {
	case n < 0:
		return -1, nil
	case n > MaxInt:
		return MaxInt, nil
	}
	return int(n), nil
}

// InterpretFloat interprets a GTP float. Anything strconv accepts is
// allowed, including inf and nan (gnugo accepts NaN, so we do too).
func InterpretFloat(arg string) (float64, error) {
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			return 0, Errorf("invalid float: '%s'", arg)
		}
	}
	return f, nil
}

// ReportBadArguments returns the standard error for a command given
// arguments it cannot use. Note that gnugo ignores extra arguments.
func ReportBadArguments() error {
	return Errorf("invalid arguments")
}

// ── Value formatting ─────────────────────────────────────────────────

// FormatBoolean formats b as "true" or "false".
func FormatBoolean(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// FormatInt formats n in decimal.
func FormatInt(n int) string {
	return strconv.Itoa(n)
}

// FormatVertex formats coordinates as a GTP vertex such as "D4".
func FormatVertex(row, col int) string {
	return string(columnLetters[col]) + strconv.Itoa(row+1)
}

// FormatMove formats p as a vertex, or "pass" when p is nil.
func FormatMove(p *Point) string {
	if p == nil {
		return "pass"
	}
	return FormatVertex(p.Row, p.Col)
}

// ── Response cleaning ────────────────────────────────────────────────

// CleanResponse turns a handler's result into a body that can be put
// on the wire: control characters other than LF are removed, tabs
// become spaces, surrounding whitespace is stripped and each internal
// blank line is replaced by ".", since a blank line ends a response.
// Whitespace inside other lines is kept as it is.
func CleanResponse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t':
			b.WriteByte(' ')
		case c == '\n':
			b.WriteByte(c)
		case c < 0x20 || c == 0x7f:
		default:
			b.WriteByte(c)
		}
	}
	cleaned := strings.Trim(b.String(), " \n")
	if !strings.Contains(cleaned, "\n") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		if strings.Trim(line, " ") == "" {
			lines[i] = "."
		}
	}
	return strings.Join(lines, "\n")
}
