// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelrpa/kestrel-cli/cmd"
	"github.com/kestrelrpa/kestrel-cli/internal/observability"
)

// main is the entry point for the kestrel CLI application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	cmd.ExecuteContext(ctx)
}
