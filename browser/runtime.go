// Package browser manages the automation runtime: one playwright driver and
// browser per process, and an isolated browser context per test.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"

	"github.com/networkteam/e2ekit/config"
)

// Runtime owns the playwright driver and the browser of the selected
// project. It is shared by all tests of a process and started on first use.
type Runtime struct {
	cfg    config.Config
	logger *slog.Logger

	startOnce sync.Once
	startErr  error

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	project config.Project
	device  *playwright.DeviceDescriptor
	closed  bool
}

// NewRuntime creates a runtime. Nothing is launched until Start or one of
// the accessors is called.
func NewRuntime(cfg config.Config, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{cfg: cfg, logger: logger}
}

// Config returns the configuration the runtime was created with.
func (r *Runtime) Config() config.Config {
	return r.cfg
}

// Start launches the driver and the browser. It is safe to call it
// repeatedly; only the first call does work and its error is kept.
func (r *Runtime) Start() error {
	r.startOnce.Do(func() {
		r.startErr = r.start()
	})
	return r.startErr
}

func (r *Runtime) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("runtime closed")
	}

	project, err := r.cfg.SelectedProject()
	if err != nil {
		return err
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("starting playwright: %w", err)
	}

	browserType := browserTypeFor(pw, project.Browser)
	if browserType == nil {
		_ = pw.Stop()
		return fmt.Errorf("project %q: unknown browser %q", project.Name, project.Browser)
	}

	var device *playwright.DeviceDescriptor
	if project.Device != "" {
		d, ok := pw.Devices[project.Device]
		if !ok {
			_ = pw.Stop()
			return fmt.Errorf("project %q: unknown device %q", project.Name, project.Device)
		}
		device = d
	}

	b, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(r.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launching %s: %w", project.Browser, err)
	}

	r.pw = pw
	r.browser = b
	r.project = project
	r.device = device

	r.logger.Info("Browser started",
		slog.String("project", project.Name),
		slog.String("browser", project.Browser),
		slog.String("version", b.Version()),
		slog.Bool("headless", r.cfg.Headless),
	)
	return nil
}

// Playwright returns the driver, starting the runtime if needed.
func (r *Runtime) Playwright() (*playwright.Playwright, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}
	return r.pw, nil
}

// Browser returns the shared browser, starting the runtime if needed.
func (r *Runtime) Browser() (playwright.Browser, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}
	return r.browser, nil
}

// Project returns the project the runtime runs. It is only set after Start.
func (r *Runtime) Project() config.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.project
}

// Device returns the emulated device descriptor or nil for desktop
// defaults. It is only set after Start.
func (r *Runtime) Device() *playwright.DeviceDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// Close shuts down the browser and the driver. It is a no-op if the
// runtime never started.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.browser != nil {
		if err := r.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
	}
	if r.pw != nil {
		if err := r.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

func browserTypeFor(pw *playwright.Playwright, name string) playwright.BrowserType {
	switch name {
	case config.Chromium:
		return pw.Chromium
	case config.Firefox:
		return pw.Firefox
	case config.WebKit:
		return pw.WebKit
	}
	return nil
}

// Install downloads the driver and the browsers needed by projects.
func Install(projects ...config.Project) error {
	browsers := make([]string, 0, len(projects))
	for _, p := range projects {
		browsers = append(browsers, p.Browser)
	}
	return playwright.Install(&playwright.RunOptions{Browsers: lo.Uniq(browsers)})
}
