// Package config holds the settings of an end-to-end run. Values come from
// the environment, optionally seeded from a .env file, with defaults for
// everything.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// Environment variables read by Load.
const (
	EnvBaseURL           = "BASE_URL"
	EnvAPIBaseURL        = "API_BASE_URL"
	EnvAPIToken          = "API_TOKEN"
	EnvUsername          = "TEST_USER"
	EnvPassword          = "TEST_PASS"
	EnvSessionFile       = "E2E_SESSION_FILE"
	EnvOutputDir         = "E2E_OUTPUT_DIR"
	EnvReportDir         = "E2E_REPORT_DIR"
	EnvTestDir           = "E2E_TEST_DIR"
	EnvTestMatch         = "E2E_TEST_MATCH"
	EnvWorkers           = "E2E_WORKERS"
	EnvRetries           = "E2E_RETRIES"
	EnvReporters         = "E2E_REPORTERS"
	EnvActionTimeout     = "E2E_ACTION_TIMEOUT"
	EnvExpectTimeout     = "E2E_EXPECT_TIMEOUT"
	EnvTestTimeout       = "E2E_TEST_TIMEOUT"
	EnvTrace             = "E2E_TRACE"
	EnvVideo             = "E2E_VIDEO"
	EnvScreenshot        = "E2E_SCREENSHOT"
	EnvIgnoreHTTPSErrors = "E2E_IGNORE_HTTPS_ERRORS"
	EnvHeadless          = "HEADLESS"
	EnvProject           = "E2E_PROJECT"
	EnvRetry             = "E2E_RETRY"
	EnvSessionReady      = "E2E_SESSION_READY"
	EnvLoginPath         = "E2E_LOGIN_PATH"
	EnvLandingURL        = "E2E_LANDING_URL"
	EnvCI                = "CI"
)

// Reporter names understood by the runner.
const (
	ReporterList  = "list"
	ReporterJSON  = "json"
	ReporterJUnit = "junit"
	ReporterHTML  = "html"
)

// Config is the complete configuration of a run.
type Config struct {
	// BaseURL of the web application under test.
	BaseURL string
	// APIBaseURL is prepended to paths requested through API clients.
	APIBaseURL string
	// APIToken is sent as bearer token by the authenticated API client.
	APIToken string
	// Username and Password are the credentials used to log in.
	Username string
	Password string

	// SessionFile is where the bootstrap stores the logged-in storage state.
	SessionFile string
	// SessionReady is set when a runner already bootstrapped SessionFile
	// for this run, so test processes must not write it again.
	SessionReady bool
	// LoginPath is the path of the login form relative to BaseURL.
	LoginPath string
	// LandingURL is the glob the browser must reach after a successful login.
	LandingURL string

	// OutputDir receives traces, videos, screenshots and raw results.
	OutputDir string
	// ReportDir receives the HTML report.
	ReportDir string

	// TestDir is the package pattern handed to go test.
	TestDir string
	// TestMatch is an optional -run expression.
	TestMatch string
	// Workers bounds the number of tests running in parallel per process.
	Workers int
	// Retries is how often a failed test is rerun from scratch.
	Retries int
	// Retry is the current attempt, 0 for the first run.
	Retry int
	// Reporters lists the enabled reporters.
	Reporters []string

	// ActionTimeout bounds every interactive step (click, fill, navigation).
	ActionTimeout time.Duration
	// ExpectTimeout bounds retrying UI assertions.
	ExpectTimeout time.Duration
	// TestTimeout is the wall-clock budget of a single test.
	TestTimeout time.Duration

	Trace      CapturePolicy
	Video      CapturePolicy
	Screenshot CapturePolicy

	IgnoreHTTPSErrors bool
	Headless          bool

	// Projects is the browser/device matrix and Project the selected entry.
	Projects []Project
	Project  string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	workers := 4
	retries := 0
	if os.Getenv(EnvCI) != "" {
		workers = max(1, runtime.NumCPU()/2)
		retries = 2
	}

	return Config{
		BaseURL:           "http://localhost:3000",
		APIBaseURL:        "http://localhost:3000/api",
		Username:          "admin@example.com",
		Password:          "password123",
		SessionFile:       ".auth/session.json",
		LoginPath:         "/login",
		LandingURL:        "**/dashboard",
		OutputDir:         "test-results",
		ReportDir:         "e2e-report",
		TestDir:           "./acceptance/...",
		Workers:           workers,
		Retries:           retries,
		Reporters:         []string{ReporterList, ReporterJUnit, ReporterHTML},
		ActionTimeout:     15 * time.Second,
		ExpectTimeout:     10 * time.Second,
		TestTimeout:       60 * time.Second,
		Trace:             CaptureOnFirstRetry,
		Video:             CaptureOnFirstRetry,
		Screenshot:        CaptureOnlyOnFailure,
		IgnoreHTTPSErrors: true,
		Headless:          true,
		Projects:          DefaultProjects(),
	}
}

// Load reads the configuration from the environment after loading the given
// .env files (".env" if none are given). Missing .env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return FromEnv(os.LookupEnv)
}

// MustLoad is like Load but panics on error.
func MustLoad(envFiles ...string) Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// FromEnv builds a configuration from a lookup function, which makes it
// usable without touching the process environment.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	p := envParser{lookup: lookup}

	p.str(EnvBaseURL, &cfg.BaseURL)
	p.str(EnvAPIBaseURL, &cfg.APIBaseURL)
	p.str(EnvAPIToken, &cfg.APIToken)
	p.str(EnvUsername, &cfg.Username)
	p.str(EnvPassword, &cfg.Password)
	p.str(EnvSessionFile, &cfg.SessionFile)
	p.boolean(EnvSessionReady, &cfg.SessionReady)
	p.str(EnvLoginPath, &cfg.LoginPath)
	p.str(EnvLandingURL, &cfg.LandingURL)
	p.str(EnvOutputDir, &cfg.OutputDir)
	p.str(EnvReportDir, &cfg.ReportDir)
	p.str(EnvTestDir, &cfg.TestDir)
	p.str(EnvTestMatch, &cfg.TestMatch)
	p.integer(EnvWorkers, &cfg.Workers)
	p.integer(EnvRetries, &cfg.Retries)
	p.integer(EnvRetry, &cfg.Retry)
	p.list(EnvReporters, &cfg.Reporters)
	p.duration(EnvActionTimeout, &cfg.ActionTimeout)
	p.duration(EnvExpectTimeout, &cfg.ExpectTimeout)
	p.duration(EnvTestTimeout, &cfg.TestTimeout)
	p.policy(EnvTrace, &cfg.Trace)
	p.policy(EnvVideo, &cfg.Video)
	p.policy(EnvScreenshot, &cfg.Screenshot)
	p.boolean(EnvIgnoreHTTPSErrors, &cfg.IgnoreHTTPSErrors)
	p.str(EnvProject, &cfg.Project)

	// Headless unless explicitly disabled, like the HEADLESS=false convention.
	if v, ok := lookup(EnvHeadless); ok {
		cfg.Headless = v != "false"
	}

	if len(p.errs) > 0 {
		return Config{}, errors.Join(p.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	var errs []error

	for name, u := range map[string]string{EnvBaseURL: c.BaseURL, EnvAPIBaseURL: c.APIBaseURL} {
		parsed, err := url.Parse(u)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%s: invalid URL %q", name, u))
		}
	}
	if c.SessionFile == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", EnvSessionFile))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", EnvWorkers, c.Workers))
	}
	if c.Retries < 0 || c.Retry < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative"))
	}
	for name, d := range map[string]time.Duration{
		EnvActionTimeout: c.ActionTimeout,
		EnvExpectTimeout: c.ExpectTimeout,
		EnvTestTimeout:   c.TestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	for name, policy := range map[string]CapturePolicy{
		EnvTrace:      c.Trace,
		EnvVideo:      c.Video,
		EnvScreenshot: c.Screenshot,
	} {
		if _, err := ParseCapturePolicy(string(policy)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	for _, r := range c.Reporters {
		if !lo.Contains([]string{ReporterList, ReporterJSON, ReporterJUnit, ReporterHTML}, r) {
			errs = append(errs, fmt.Errorf("unknown reporter %q", r))
		}
	}
	for _, p := range c.Projects {
		if !validBrowser(p.Browser) {
			errs = append(errs, fmt.Errorf("project %q: unknown browser %q", p.Name, p.Browser))
		}
	}
	if _, err := c.SelectedProject(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LoginURL is the absolute URL of the login form.
func (c Config) LoginURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.LoginPath, "/")
}

// Env renders the settings a child test process needs as KEY=value pairs.
func (c Config) Env() []string {
	return []string{
		EnvBaseURL + "=" + c.BaseURL,
		EnvAPIBaseURL + "=" + c.APIBaseURL,
		EnvAPIToken + "=" + c.APIToken,
		EnvUsername + "=" + c.Username,
		EnvPassword + "=" + c.Password,
		EnvSessionFile + "=" + c.SessionFile,
		EnvSessionReady + "=" + strconv.FormatBool(c.SessionReady),
		EnvLoginPath + "=" + c.LoginPath,
		EnvLandingURL + "=" + c.LandingURL,
		EnvOutputDir + "=" + c.OutputDir,
		EnvActionTimeout + "=" + c.ActionTimeout.String(),
		EnvExpectTimeout + "=" + c.ExpectTimeout.String(),
		EnvTestTimeout + "=" + c.TestTimeout.String(),
		EnvTrace + "=" + string(c.Trace),
		EnvVideo + "=" + string(c.Video),
		EnvScreenshot + "=" + string(c.Screenshot),
		EnvIgnoreHTTPSErrors + "=" + strconv.FormatBool(c.IgnoreHTTPSErrors),
		EnvHeadless + "=" + strconv.FormatBool(c.Headless),
		EnvProject + "=" + c.Project,
		EnvRetry + "=" + strconv.Itoa(c.Retry),
	}
}

type envParser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *envParser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *envParser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}

func (p *envParser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = b
}

func (p *envParser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = d
}

func (p *envParser) policy(key string, dst *CapturePolicy) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	policy, err := ParseCapturePolicy(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = policy
}

func (p *envParser) list(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	items := lo.Map(strings.Split(v, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	*dst = lo.Compact(items)
}
