package capability

import (
	"context"
	"fmt"

	"gtpkit/gtp"
	"gtpkit/internal/session"
)

// Script sends a fixed list of command lines and prints each response.
type Script struct {
	Commands []string
	// KeepGoing carries on after a failure response.  Channel errors
	// always stop the script.
	KeepGoing bool
}

// Handle implements Capability.
func (s *Script) Handle(ctx context.Context, sess *session.Session) error {
	failures := 0
	for _, line := range s.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := sess.Do(line)
		if err == nil {
			if werr := writeResponse(sess.Stdout, gtp.Success, resp); werr != nil {
				return werr
			}
			continue
		}
		msg, ok := failureMessage(err)
		if !ok {
			return err
		}
		if werr := writeResponse(sess.Stdout, gtp.Failure, msg); werr != nil {
			return werr
		}
		if !s.KeepGoing {
			return err
		}
		sess.Logger.Warn("%v", err)
		failures++
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d commands failed", failures, len(s.Commands))
	}
	return nil
}
