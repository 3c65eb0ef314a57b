package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ocad2qml/backend/internal/cli"
)

// main is the entrypoint for the ocad2qml converter.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, errW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, errW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := cli.NewLogger(cfg.LogLevel, cfg.LogFormat, errW)
	slog.SetDefault(logger)

	return cli.Run(cfg, outW, logger)
}
