package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/wheelforge/wheelforge/internal/app"
	"github.com/wheelforge/wheelforge/internal/cli"
	"github.com/wheelforge/wheelforge/internal/hcl"
)

// main is the entrypoint for the wheelforge application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors (bad pipeline, unresolved
	// secrets); recover to give the user a clean exit message.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	loader := hcl.NewLoader()
	forgeApp := app.NewApp(outW, appConfig, loader, nil)

	return forgeApp.Run(context.Background())
}
