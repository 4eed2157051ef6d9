// Package e2ekit composes the browser, auth, API, data, network and page
// object fixtures into one suite that tests draw named fixtures from.
//
//	var suite = e2ekit.MustNew(config.MustLoad())
//
//	func TestMain(m *testing.M) { os.Exit(suite.Main(m)) }
//
//	func TestDashboard(t *testing.T) {
//		suite.Run(t, func(t *testing.T, s *fixture.Scope) {
//			page := auth.StorageStatePageKey.Get(s)
//			...
//		})
//	}
//
// Only the fixtures a test asks for are constructed.
package e2ekit

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/networkteam/e2ekit/api"
	"github.com/networkteam/e2ekit/auth"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/factory"
	"github.com/networkteam/e2ekit/fixture"
	"github.com/networkteam/e2ekit/network"
	"github.com/networkteam/e2ekit/pages"
)

// Suite is the merged fixture namespace of a test binary together with the
// shared browser runtime.
type Suite struct {
	cfg      config.Config
	logger   *slog.Logger
	runtime  *browser.Runtime
	registry *fixture.Registry

	readyTimeout time.Duration
}

type Options struct {
	// Logger is used by the suite and handed to every scope.
	// Default: slog.Default()
	Logger *slog.Logger
	// Fixtures are additional sets merged after the built-in ones. Their
	// names must not collide with any other fixture.
	Fixtures []*fixture.Set
	// ReadyTimeout bounds the wait for the application before the
	// bootstrap logs in. Zero uses auth.DefaultReadyTimeout, a negative
	// value skips the wait.
	ReadyTimeout time.Duration
}

// New creates a suite with default options.
func New(cfg config.Config) (*Suite, error) {
	return NewWithOptions(cfg, Options{})
}

// MustNew is like New but panics on error.
func MustNew(cfg config.Config) *Suite {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// NewWithOptions creates a suite. It fails if fixture names collide, a
// dependency is missing or the dependency graph has a cycle.
func NewWithOptions(cfg config.Config, options Options) (*Suite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt := browser.NewRuntime(cfg, logger)

	sets := []*fixture.Set{
		browser.Fixtures(rt),
		auth.Fixtures(rt),
		api.Fixtures(cfg),
		pages.Fixtures(),
		network.Fixtures(cfg.BaseURL),
		factory.Fixtures(),
	}
	sets = append(sets, options.Fixtures...)

	registry, err := fixture.Merge(sets...)
	if err != nil {
		return nil, err
	}

	readyTimeout := options.ReadyTimeout
	switch {
	case readyTimeout == 0:
		readyTimeout = auth.DefaultReadyTimeout
	case readyTimeout < 0:
		readyTimeout = 0
	}

	return &Suite{
		cfg:          cfg,
		logger:       logger,
		runtime:      rt,
		registry:     registry,
		readyTimeout: readyTimeout,
	}, nil
}

func (s *Suite) Config() config.Config {
	return s.cfg
}

func (s *Suite) Registry() *fixture.Registry {
	return s.registry
}

func (s *Suite) Runtime() *browser.Runtime {
	return s.runtime
}

// Bootstrap logs in once and writes the session file.
func (s *Suite) Bootstrap(ctx context.Context) error {
	return auth.Bootstrap(ctx, s.runtime,
		auth.WithLogger(s.logger),
		auth.WithReadyTimeout(s.readyTimeout),
	)
}

// Main is meant to be called from TestMain. Unless a runner already
// prepared the session, it bootstraps before any test runs; if that fails
// no test runs and Main returns 1. The browser runtime is closed after the
// tests.
func (s *Suite) Main(m *testing.M) int {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Warn("Closing browser runtime failed", slog.Any("error", err))
		}
	}()

	if s.cfg.SessionReady {
		if _, err := auth.LoadSession(s.cfg.SessionFile); err != nil {
			s.logger.Error("Prepared session unusable, not running tests", slog.Any("error", err))
			return 1
		}
	} else if err := s.Bootstrap(context.Background()); err != nil {
		s.logger.Error("Not running tests", slog.Any("error", err))
		return 1
	}

	return m.Run()
}

// Run gives fn a fixture scope bound to t. The scope's context expires
// after the configured test timeout; everything fn acquired is torn down in
// reverse order when t finishes.
func (s *Suite) Run(t *testing.T, fn func(t *testing.T, s *fixture.Scope)) {
	t.Helper()

	fixture.Run(t, s.registry, func(scope *fixture.Scope) {
		fn(t, scope)
	},
		fixture.WithTimeout(s.cfg.TestTimeout),
		fixture.WithLogger(s.logger.With(slog.String("test", t.Name()))),
	)
}

// Close stops the browser runtime.
func (s *Suite) Close() error {
	return s.runtime.Close()
}
