package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/networkteam/e2ekit/auth"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/internal/demoapp"
	"github.com/networkteam/e2ekit/runner"
)

func newBootstrapCommand(flags *globalFlags) *cobra.Command {
	var install bool

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Log in once and write the session file",
		Long: `Log in through the login form with TEST_USER and TEST_PASS and store
the resulting browser session in E2E_SESSION_FILE.

Tests restore this session instead of logging in themselves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			if install {
				project, err := cfg.SelectedProject()
				if err != nil {
					return err
				}
				if err := browser.Install(project); err != nil {
					return err
				}
			}
			return bootstrapSession(logger)(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "install the playwright driver and browser first")
	return cmd
}

type runFlags struct {
	projects  []string
	retries   int
	workers   int
	dir       string
	serveDemo bool
	install   bool
}

func newRunCommand(flags *globalFlags) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "run [packages]",
		Short: "Run the suite for every project and write reports",
		Long: `Run the acceptance packages with go test for each browser project.

The session is bootstrapped once before any test. Failed tests are rerun
from scratch up to E2E_RETRIES times; a test passing on a retry is
reported as flaky. Reports are written to E2E_OUTPUT_DIR and
E2E_REPORT_DIR whether or not the run passed.

Examples:
  e2e run
  e2e run --project chromium --project mobile-safari
  e2e run --serve-demo --retries 1 ./acceptance/...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			if cmd.Flags().Changed("retries") {
				cfg.Retries = rf.retries
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = rf.workers
			}

			if rf.serveDemo {
				stop, err := serveDemo(&cfg, logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			if rf.install {
				projects := cfg.Projects
				if len(rf.projects) > 0 {
					projects = projects[:0:0]
					for _, name := range rf.projects {
						p, err := cfg.ProjectByName(name)
						if err != nil {
							return err
						}
						projects = append(projects, p)
					}
				}
				if err := browser.Install(projects...); err != nil {
					return err
				}
			}

			r, err := runner.New(cfg, runner.Options{
				Logger:    logger,
				Projects:  rf.projects,
				Packages:  args,
				Dir:       rf.dir,
				Stdout:    cmd.OutOrStdout(),
				Bootstrap: bootstrapSession(logger),
			})
			if err != nil {
				return err
			}

			result, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}
			if code := result.ExitCode(); code != 0 {
				return exitCodeError(code)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&rf.projects, "project", nil, "project to run, repeatable (default all)")
	cmd.Flags().IntVar(&rf.retries, "retries", 0, "override E2E_RETRIES")
	cmd.Flags().IntVar(&rf.workers, "workers", 0, "override E2E_WORKERS")
	cmd.Flags().StringVar(&rf.dir, "dir", "", "working directory for go test (default current directory)")
	cmd.Flags().BoolVar(&rf.serveDemo, "serve-demo", false, "start the demo application and test against it")
	cmd.Flags().BoolVar(&rf.install, "install", false, "install the playwright driver and browsers first")
	return cmd
}

func newDemoCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Serve the demo application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, closer, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			defer closer.Close()

			app := demoapp.New(demoapp.Options{Logger: logger, SeedProducts: true})
			defer app.Close()

			srv := &http.Server{Addr: addr, Handler: app, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(ctx)
			}()

			logger.Info("Serving demo application", slog.String("addr", addr), slog.String("apiToken", app.APIToken()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3000", "listen address")
	return cmd
}

// bootstrapSession logs in with the browser of the selected project.
func bootstrapSession(logger *slog.Logger) runner.BootstrapFunc {
	return func(ctx context.Context, cfg config.Config) error {
		rt := browser.NewRuntime(cfg, logger)
		defer func() {
			if err := rt.Close(); err != nil {
				logger.Warn("Closing browser runtime failed", slog.Any("error", err))
			}
		}()
		return auth.Bootstrap(ctx, rt, auth.WithLogger(logger))
	}
}

// serveDemo starts the demo application on a free local port and points
// cfg at it.
func serveDemo(cfg *config.Config, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening for demo application: %w", err)
	}

	app := demoapp.New(demoapp.Options{Logger: logger.With(slog.String("component", "demoapp"))})
	srv := &http.Server{Handler: app, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Demo application stopped", slog.Any("error", err))
		}
	}()

	baseURL := "http://" + ln.Addr().String()
	cfg.BaseURL = baseURL
	cfg.APIBaseURL = baseURL + "/api"
	cfg.Username = demoapp.AdminEmail
	cfg.Password = demoapp.AdminPassword
	if cfg.APIToken == "" {
		cfg.APIToken = app.APIToken()
	}
	logger.Info("Serving demo application", slog.String("baseURL", baseURL))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		app.Close()
	}, nil
}
