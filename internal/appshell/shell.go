package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCanceled is returned when the run was interrupted by a signal.
const ExitCanceled = 130

func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	// Normalize cancellation exit code.
	if ctx.Err() != nil && code == 0 {
		code = ExitCanceled
	}

	stop()
	os.Exit(code)
}
