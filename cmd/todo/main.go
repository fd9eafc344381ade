// Command todo is the human-friendly command line for the todo store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/todocli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := todocli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
