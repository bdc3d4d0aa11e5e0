// Package capability defines what gtpkit does with a running engine.
// Each Capability encapsulates a single behaviour (describe the engine,
// run a fixed script, proxy a user's GTP stream) and operates on a
// Session rather than raw streams, which keeps capabilities testable
// and independent of how the engine was launched.
package capability

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gtpkit/controller"
	"gtpkit/gtp"
	gtperr "gtpkit/internal/errors"
	"gtpkit/internal/session"
)

// Capability is one use of an engine session.
type Capability interface {
	// Handle runs the capability against the given session.  It blocks
	// until the work is done or the context is cancelled.  It does not
	// close the session.
	Handle(ctx context.Context, sess *session.Session) error
}

// Describe prints the engine's short description, then its long
// description if that says anything more.
type Describe struct{}

// Handle implements Capability.
func (Describe) Handle(_ context.Context, sess *session.Session) error {
	short, long := controller.DescribeEngine(sess.Controller)
	if sess.Controller.ChannelIsBad() {
		// DescribeEngine swallows errors; a dead engine still fails the run.
		return fmt.Errorf("describe %s: %w", sess.Controller.Name(), gtperr.ErrChannelBad)
	}
	if _, err := fmt.Fprintln(sess.Stdout, short); err != nil {
		return err
	}
	if long != short {
		if _, err := fmt.Fprintln(sess.Stdout, long); err != nil {
			return err
		}
	}
	return nil
}

// writeResponse prints a response the way an engine would have put it
// on the wire.
func writeResponse(w io.Writer, kind gtp.OutcomeKind, body string) error {
	_, err := io.WriteString(w, gtp.FormatResponse("", gtp.Outcome{Kind: kind, Body: body}))
	return err
}

// failureMessage returns the engine's text for a failure response.
func failureMessage(err error) (string, bool) {
	var bre *gtperr.BadResponseError
	if errors.As(err, &bre) {
		return bre.Message, true
	}
	return "", false
}
