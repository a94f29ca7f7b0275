package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mapscout/mapscout/runner"
	"github.com/mapscout/mapscout/runner/leadrunner"
)

func main() {
	runner.Banner()

	cfg := runner.ParseConfig()

	r, err := leadrunner.New(cfg)
	if err != nil {
		if errors.Is(err, runner.ErrMissingQuery) {
			fmt.Fprintln(os.Stderr, "usage: mapscout -query 'cafes in Barcelona' [-count 20] [-results out.csv]")
			os.Exit(2)
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := r.Run(ctx)

	if err := r.Close(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
	}

	_ = runner.Telemetry().Close()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
