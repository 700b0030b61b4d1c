// Command cqrsgen generates the CQRS dispatch API of Go domain models.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/cqrsgen/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.GetExitCode(err))
}
