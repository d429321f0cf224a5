// Command astrolabe explores the declaration graph of a Lean 4 project.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/astrolabe/internal/cli"
)

// exitInterrupted is the shell's exit status for a run stopped by SIGINT.
const exitInterrupted = 130

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := cli.New(os.Stderr, cli.LogInfo)

	err := execute(ctx, c)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		os.Exit(exitInterrupted)
	default:
		c.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the command line and flushes the metrics file even when the
// command failed.
func execute(ctx context.Context, c *cli.CLI) error {
	err := c.RootCommand().ExecuteContext(ctx)
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}
