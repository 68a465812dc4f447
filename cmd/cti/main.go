package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cti/cmd/cti/cmd"
	"cti/ctierr"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cmd.NewRoot(ctx).Execute()
	os.Exit(ctierr.ExitCode(err))
}
