package gtp

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// internalError carries the compact trace of a handler panic.
type internalError struct {
	trace string
}

func (e *internalError) Error() string { return "internal error\n" + e.trace }

// compactTrace describes a recovered panic: the panic value, the handler
// frames from the dispatcher down to the panic (most recent call last),
// and the source of the failing line when the file is available.
//
// It must be called from the deferred function that recovered.
func compactTrace(recovered interface{}) string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var stack []runtime.Frame
	seenPanic := false
	for {
		f, more := frames.Next()
		switch {
		case !seenPanic:
			seenPanic = f.Function == "runtime.gopanic"
		case strings.HasSuffix(f.Function, ".(*Engine).invoke"):
			more = false
		case strings.HasPrefix(f.Function, "runtime."):
		default:
			stack = append(stack, f)
		}
		if !more {
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v\n", recovered)
	b.WriteString("traceback (most recent call last):\n")
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "  %s:%d (%s)\n", stack[i].File, stack[i].Line, shortFunction(stack[i].Function))
	}
	if len(stack) > 0 {
		if src, ok := sourceLine(stack[0].File, stack[0].Line); ok {
			b.WriteString("failing line:\n")
			b.WriteString(src + "\n")
		}
	}
	return b.String()
}

// shortFunction strips the import path from a qualified function name.
func shortFunction(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func sourceLine(path string, line int) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if n == line {
			return strings.TrimSpace(sc.Text()), true
		}
	}
	return "", false
}
