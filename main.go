// gtpkit - a Go Text Protocol engine and controller toolkit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gtpkit/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gtpkit: %v\n", err)
		os.Exit(1)
	}
}
