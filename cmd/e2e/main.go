// Command e2e runs the end-to-end suite: it logs in once, runs the
// acceptance packages for every browser project, retries failed tests and
// writes the reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit/config"
)

// exitCodeError ends the process with a specific code without printing.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)

	var code exitCodeError
	switch {
	case errors.As(err, &code):
		os.Exit(int(code))
	case err != nil:
		slog.Error("e2e failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type globalFlags struct {
	envFiles []string
	verbose  bool
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "e2e",
		Short:         "Run the browser end-to-end suite",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, ".env files to load before reading the environment (default .env)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newBootstrapCommand(&flags),
		newRunCommand(&flags),
		newDemoCommand(&flags),
	)
	return root
}

// setup loads the configuration and installs the process logger.
func (f *globalFlags) setup(cmd *cobra.Command) (config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load(f.envFiles...)
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	logger, closer, err := newLogger(cmd.ErrOrStderr(), filepath.Join(cfg.OutputDir, "e2e.log"), f.verbose)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, closer, nil
}

// newLogger logs to stderr for humans and, at debug level, as JSON into
// logFile for later inspection.
func newLogger(stderr io.Writer, logFile string, verbose bool) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(
		slogmulti.Fanout(
			slog.NewTextHandler(stderr, &slog.HandlerOptions{
				Level: level,
			}),
			slog.NewJSONHandler(f, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		),
	)
	return logger, f, nil
}
