package capability

import (
	"context"
	"errors"
	"os"

	"gtpkit/controller"
	"gtpkit/gtp"
	gtperr "gtpkit/internal/errors"
	"gtpkit/internal/session"
)

// Shell forwards a GTP command stream from the session's stdin to the
// engine and its responses back to stdout, so the engine can be used
// as if it were running locally.  Command ids stay on this side.
//
// The commands on offer are the ones the engine lists; quit ends the
// shell and the engine is quit when the session closes.  With a
// terminal on stdin the user gets line editing and completion.
type Shell struct {
	HistoryFile string
	NoHistory   bool
}

// Handle implements Capability.
func (s *Shell) Handle(ctx context.Context, sess *session.Session) error {
	names, err := sess.Controller.ListCommands()
	if err != nil {
		return err
	}

	var stopErr error
	proxy := gtp.NewEngine()
	for _, name := range names {
		proxy.AddCommand(name, forward(ctx, sess.Controller, name, &stopErr))
	}
	proxy.AddCommand("quit", func([]string) (string, error) {
		return "", gtp.Quit("")
	})

	if f, ok := sess.Stdin.(*os.File); ok {
		err = gtp.RunInteractiveSession(proxy, gtp.InteractiveOptions{
			Stdin:       f,
			Stdout:      sess.Stdout,
			HistoryFile: s.HistoryFile,
			NoHistory:   s.NoHistory,
		})
	} else {
		err = gtp.RunSession(proxy, sess.Stdin, sess.Stdout)
	}
	if stopErr != nil {
		return stopErr
	}
	return err
}

// forward returns a handler passing one command through to the engine.
// A channel error or a cancelled context ends the shell.
func forward(ctx context.Context, ctrl *controller.Controller, name string, stopErr *error) gtp.Handler {
	return func(args []string) (string, error) {
		if err := ctx.Err(); err != nil {
			*stopErr = err
			return "", gtp.Fatalf("interrupted")
		}
		resp, err := ctrl.DoCommand(name, args...)
		if err == nil {
			return resp, nil
		}
		if msg, ok := failureMessage(err); ok {
			return "", gtp.Errorf("%s", msg)
		}
		var ve *gtperr.ValidationError
		if errors.As(err, &ve) {
			return "", gtp.Errorf("%s", ve.Error())
		}
		*stopErr = err
		return "", gtp.Fatalf("%s", err.Error())
	}
}
