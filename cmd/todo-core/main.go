// Command todo-core is the JSON-first command line for the todo store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/corecli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := corecli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
