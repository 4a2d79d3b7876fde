// Package main is the entry point for the bqrun CLI binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kndndrj/bqrunner/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
