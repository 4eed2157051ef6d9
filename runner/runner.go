// Package runner orchestrates a complete end-to-end run: one bootstrap
// login, go test per project of the browser matrix, reruns of failed tests
// and the reports.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jstemmer/go-junit-report/v2/gtr"
	"github.com/samber/lo"

	"github.com/networkteam/e2ekit/collector"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/reporter"
)

// DefaultPackageTimeout is passed as -timeout to every go test invocation.
const DefaultPackageTimeout = 30 * time.Minute

// maxStderr bounds the stderr kept per go invocation.
const maxStderr = 64 << 10

// ErrNoResults is returned when go test exits without producing any test
// output, e.g. because of an invalid flag.
var ErrNoResults = errors.New("go test produced no results")

// Command is one go test invocation.
type Command struct {
	Dir  string
	Env  []string
	Args []string
}

// ExecFunc runs cmd and writes its stdout to stdout. A non-zero exit of go
// test because of failing tests is not an error.
type ExecFunc func(ctx context.Context, cmd Command, stdout io.Writer) error

// BootstrapFunc performs the one-time login for cfg.
type BootstrapFunc func(ctx context.Context, cfg config.Config) error

type Options struct {
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Projects to run. Default: every project of the config.
	Projects []string
	// Packages handed to go test. Default: config TestDir.
	Packages []string
	// Dir is the working directory of go test. Default: current directory.
	Dir string
	// Stdout receives the list reporter. Default: os.Stdout
	Stdout io.Writer
	// PackageTimeout is the go test -timeout. Default: DefaultPackageTimeout
	PackageTimeout time.Duration
	// Bootstrap is required.
	Bootstrap BootstrapFunc
	// Exec defaults to running the go binary from PATH.
	Exec ExecFunc
}

// Result of a run.
type Result struct {
	Reports []reporter.ProjectReport
	Summary reporter.Summary
}

// ExitCode is 0 if every test passed eventually, 1 otherwise.
func (r Result) ExitCode() int {
	if r.Summary.Successful() {
		return 0
	}
	return 1
}

type Runner struct {
	cfg     config.Config
	opts    Options
	logger  *slog.Logger
	stdout  io.Writer
	exec    ExecFunc
	timeout time.Duration
}

// New validates cfg and resolves the options. Paths of the config are made
// absolute since go test runs every package in its own directory.
func New(cfg config.Config, opts Options) (*Runner, error) {
	if opts.Bootstrap == nil {
		return nil, errors.New("runner: bootstrap function is required")
	}

	var err error
	for _, p := range []*string{&cfg.SessionFile, &cfg.OutputDir, &cfg.ReportDir} {
		if *p, err = filepath.Abs(*p); err != nil {
			return nil, fmt.Errorf("resolving path: %w", err)
		}
	}

	if len(opts.Projects) == 0 {
		opts.Projects = lo.Map(cfg.Projects, func(p config.Project, _ int) string { return p.Name })
	}
	for _, name := range opts.Projects {
		if _, err := cfg.ProjectByName(name); err != nil {
			return nil, err
		}
	}
	if len(opts.Packages) == 0 {
		opts.Packages = []string{cfg.TestDir}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		opts:    opts,
		logger:  opts.Logger,
		stdout:  opts.Stdout,
		exec:    opts.Exec,
		timeout: opts.PackageTimeout,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.exec == nil {
		r.exec = ExecGo
	}
	if r.timeout <= 0 {
		r.timeout = DefaultPackageTimeout
	}
	return r, nil
}

// Config returns the effective configuration with absolute paths.
func (r *Runner) Config() config.Config {
	return r.cfg
}

// Run bootstraps the session, runs every project and writes the reports.
// When a project cannot be run, the reports of the projects before it are
// still written and the run error is returned.
// A bootstrap failure aborts the run before any test. Test failures are
// reported in the result, not as error.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()

	r.logger.Info("Bootstrapping session", slog.String("sessionFile", r.cfg.SessionFile))
	if err := r.opts.Bootstrap(ctx, r.cfg); err != nil {
		return Result{}, err
	}

	var (
		result Result
		runErr error
	)
	for _, project := range r.opts.Projects {
		report, err := r.runProject(ctx, project)
		if len(report.Packages) > 0 {
			result.Reports = append(result.Reports, reporter.ProjectReport{Project: project, Report: report})
		}
		if err != nil {
			runErr = fmt.Errorf("project %s: %w", project, err)
			break
		}
	}
	result.Summary = reporter.Summarize(result.Reports)

	// Results collected before a failing project are still reported.
	if runErr != nil && len(result.Reports) == 0 {
		return result, runErr
	}
	if err := reporter.WriteAll(r.cfg, result.Reports, r.stdout); err != nil {
		return result, errors.Join(runErr, fmt.Errorf("writing reports: %w", err))
	}
	if runErr != nil {
		return result, runErr
	}

	r.logger.Info("Run finished",
		slog.Int("passed", result.Summary.Passed),
		slog.Int("failed", result.Summary.Failed),
		slog.Int("flaky", result.Summary.Flaky),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (r *Runner) runProject(ctx context.Context, project string) (gtr.Report, error) {
	logger := r.logger.With(slog.String("project", project))

	logger.Info("Running tests", slog.Any("packages", r.opts.Packages))
	report, err := r.goTest(ctx, project, 0, r.cfg.TestMatch, r.opts.Packages)
	if err != nil {
		return gtr.Report{}, err
	}

	for retry := 1; retry <= r.cfg.Retries; retry++ {
		failed := reporter.FailedTests(report)
		if len(failed) == 0 {
			break
		}

		pkgs := lo.Keys(failed)
		sort.Strings(pkgs)
		for _, pkg := range pkgs {
			logger.Info("Retrying failed tests",
				slog.Int("retry", retry),
				slog.String("package", pkg),
				slog.Any("tests", failed[pkg]),
			)
			rerun, err := r.goTest(ctx, project, retry, RunPattern(failed[pkg]), []string{pkg})
			if err != nil {
				return report, err
			}
			report = reporter.Merge(report, rerun)
		}
	}

	return report, nil
}

func (r *Runner) goTest(ctx context.Context, project string, retry int, run string, packages []string) (gtr.Report, error) {
	cfg := r.cfg
	cfg.Project = project
	cfg.Retry = retry
	cfg.SessionReady = true

	rawPath := filepath.Join(cfg.OutputDir, "raw", fmt.Sprintf("%s-%d.json", project, retry))
	if err := os.MkdirAll(filepath.Dir(rawPath), 0o755); err != nil {
		return gtr.Report{}, err
	}
	raw, err := os.OpenFile(rawPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return gtr.Report{}, err
	}
	defer raw.Close()

	var out bytes.Buffer
	cmd := Command{
		Dir:  r.opts.Dir,
		Env:  append(os.Environ(), cfg.Env()...),
		Args: TestArgs(cfg.Workers, r.timeout, run, packages),
	}
	if err := r.exec(ctx, cmd, io.MultiWriter(&out, raw)); err != nil {
		return gtr.Report{}, err
	}

	report, err := reporter.Parse(&out)
	if err != nil {
		return gtr.Report{}, err
	}
	if len(report.Packages) == 0 {
		return gtr.Report{}, ErrNoResults
	}
	return report, nil
}

// TestArgs builds the arguments of a go test invocation.
func TestArgs(workers int, timeout time.Duration, run string, packages []string) []string {
	args := []string{
		"test", "-json",
		"-tags", "acceptance",
		"-count", "1",
		"-parallel", strconv.Itoa(workers),
		"-timeout", timeout.String(),
	}
	if run != "" {
		args = append(args, "-run", run)
	}
	return append(args, packages...)
}

// RunPattern returns a -run expression selecting exactly the given top-level
// tests and all their subtests.
func RunPattern(tests []string) string {
	if len(tests) == 0 {
		return ""
	}
	quoted := lo.Map(tests, func(name string, _ int) string { return regexp.QuoteMeta(name) })
	return "^(" + strings.Join(quoted, "|") + ")$"
}

// ExecGo runs go from PATH. Failing tests make go test exit non-zero, which
// is expected and shows up in the JSON output instead.
func ExecGo(ctx context.Context, c Command, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, "go", c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdout = stdout
	stderr := collector.NewOutputBuffer(maxStderr)
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		if stderr.Len() > 0 {
			slog.Warn("go test wrote to stderr", slog.String("output", stderr.String()))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("running go %s: %w: %s", strings.Join(c.Args, " "), err, stderr.String())
	}
	return nil
}
