package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/matchgridgo/internal/app"
	"github.com/vk/matchgridgo/internal/cli"
	"github.com/vk/matchgridgo/internal/hcl"
	"github.com/vk/matchgridgo/internal/subproc"
)

// main is the entrypoint for the matchgridgo application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status. CLI usage errors carry
// their own code, and a failed external command propagates the child's code.
func exitCode(err error) int {
	var cliErr *cli.ExitError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	var procErr *subproc.ExitError
	if errors.As(err, &procErr) {
		return procErr.Code
	}
	return 1
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical startup errors; recover turns that into a
	// clean error for the caller.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked | %v", r)
		}
	}()

	// Instantiate the concrete HCL loader to pass to the app.
	loader := hcl.NewLoader()
	matchgridApp := app.NewApp(outW, cfg, loader)

	return matchgridApp.Run(ctx)
}
