package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrUndeclaredDependency is returned when a setup resolves a fixture it did not declare.
	ErrUndeclaredDependency = errors.New("undeclared dependency")
	// ErrScopeClosed is returned when resolving on a scope that was already torn down.
	ErrScopeClosed = errors.New("scope closed")
)

type scopeOptions struct {
	tb      testing.TB
	timeout time.Duration
	logger  *slog.Logger
	parent  context.Context
}

// ScopeOption configures a Scope.
type ScopeOption func(*scopeOptions)

// WithTB attaches the test the scope belongs to.
func WithTB(tb testing.TB) ScopeOption {
	return func(o *scopeOptions) {
		o.tb = tb
	}
}

// WithTimeout bounds the scope's context. Zero means no deadline.
func WithTimeout(timeout time.Duration) ScopeOption {
	return func(o *scopeOptions) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger used for setup and teardown messages.
func WithLogger(logger *slog.Logger) ScopeOption {
	return func(o *scopeOptions) {
		o.logger = logger
	}
}

// WithParent derives the scope's context from ctx instead of context.Background().
func WithParent(ctx context.Context) ScopeOption {
	return func(o *scopeOptions) {
		o.parent = ctx
	}
}

type acquired struct {
	name     string
	teardown Teardown
}

// scopeState is shared by a Scope and the views handed to setups.
type scopeState struct {
	registry *Registry
	tb       testing.TB
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	inflight singleflight.Group

	mu       sync.Mutex
	values   map[string]any
	failures map[string]error
	acquired []acquired
	closed   bool
}

// Scope holds the fixtures constructed for a single test. Fixtures are
// built on first use and torn down together by Close. A Scope may be used
// from several goroutines; every fixture is still constructed at most once.
type Scope struct {
	*scopeState

	// parent is the fixture whose setup received this scope, nil for the
	// test's own scope.
	parent *definition
}

// NewScope creates an empty scope over the registry.
func (r *Registry) NewScope(opts ...ScopeOption) *Scope {
	o := scopeOptions{parent: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(o.parent, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(o.parent)
	}

	return &Scope{scopeState: &scopeState{
		registry: r,
		tb:       o.tb,
		logger:   o.logger,
		ctx:      ctx,
		cancel:   cancel,
		values:   make(map[string]any),
		failures: make(map[string]error),
	}}
}

// Context is cancelled when the scope closes or its timeout expires.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// TB returns the test the scope belongs to, or nil.
func (s *Scope) TB() testing.TB {
	return s.tb
}

// Logger returns the scope's logger.
func (s *Scope) Logger() *slog.Logger {
	return s.logger
}

// Registry returns the registry the scope resolves against.
func (s *Scope) Registry() *Registry {
	return s.registry
}

// Acquired returns the names of successfully constructed fixtures in
// acquisition order.
func (s *Scope) Acquired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.acquired))
	for i, a := range s.acquired {
		names[i] = a.name
	}
	return names
}

// Resolve returns the value of the named fixture, constructing it and its
// dependencies on first use. Within a setup only declared dependencies may
// be resolved.
func (s *Scope) Resolve(name string) (any, error) {
	def, ok := s.registry.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixture, name)
	}
	if s.parent != nil && !slices.Contains(s.parent.deps, name) {
		return nil, fmt.Errorf("%w: %q resolved %q", ErrUndeclaredDependency, s.parent.name, name)
	}

	// Concurrent callers of the same fixture wait for the first one.
	v, err, _ := s.inflight.Do(name, func() (any, error) {
		return s.build(def)
	})
	return v, err
}

// build returns the memoized value or failure of def, constructing it if
// neither exists.
func (s *Scope) build(def *definition) (any, error) {
	name := def.name

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: resolving %q", ErrScopeClosed, name)
	}
	if v, ok := s.values[name]; ok {
		s.mu.Unlock()
		return v, nil
	}
	if err, ok := s.failures[name]; ok {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	view := &Scope{scopeState: s.scopeState, parent: def}

	for _, dep := range def.deps {
		if _, err := view.Resolve(dep); err != nil {
			return nil, s.fail(name, fmt.Errorf("fixture %q: dependency %q: %w", name, dep, err))
		}
	}

	value, teardown, err := def.setup(view)
	if err != nil {
		if teardown != nil {
			if tdErr := teardown(); tdErr != nil {
				err = errors.Join(err, fmt.Errorf("teardown after failed setup: %w", tdErr))
			}
		}
		return nil, s.fail(name, fmt.Errorf("fixture %q: %w", name, err))
	}

	s.mu.Lock()
	s.values[name] = value
	s.acquired = append(s.acquired, acquired{name: name, teardown: teardown})
	s.mu.Unlock()

	s.logger.Debug("Fixture acquired", slog.String("fixture", name))

	return value, nil
}

func (s *Scope) fail(name string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[name] = err
	return err
}

// Close tears down all acquired fixtures in reverse acquisition order. Every
// teardown runs even if an earlier one fails; errors are joined. Calling
// Close again is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	toRelease := s.acquired
	s.acquired = nil
	s.mu.Unlock()

	var errs []error
	for i := len(toRelease) - 1; i >= 0; i-- {
		a := toRelease[i]
		if a.teardown == nil {
			continue
		}
		if err := a.teardown(); err != nil {
			s.logger.Warn("Fixture teardown failed", slog.String("fixture", a.name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("teardown %q: %w", a.name, err))
			continue
		}
		s.logger.Debug("Fixture released", slog.String("fixture", a.name))
	}

	s.cancel()

	return errors.Join(errs...)
}

// Run creates a scope for tb, tears it down with tb.Cleanup and calls fn.
// Teardown happens whether fn returns, fails the test or panics.
func Run(tb testing.TB, r *Registry, fn func(s *Scope), opts ...ScopeOption) {
	tb.Helper()

	s := r.NewScope(append([]ScopeOption{WithTB(tb)}, opts...)...)
	tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tb.Errorf("fixture teardown: %v", err)
		}
	})

	fn(s)
}
