package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leca/ci-smoke/internal/cli"
	"github.com/leca/ci-smoke/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	inv, err := cli.ParseInvocation(os.Args[1:], cfg)
	if err != nil {
		var ie *cli.InvocationError
		if errors.As(err, &ie) {
			fmt.Fprintln(os.Stderr, ie.Message)
			return ie.ExitCode
		}
		fmt.Fprintln(os.Stderr, err)
		return 4
	}

	// First signal cancels the run; remaining checks are reported as skipped.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, inv, os.Stdout, os.Stderr)
}
