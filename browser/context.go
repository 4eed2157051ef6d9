package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/fixture"
)

// ContextOptions customize a browser context opened for a test.
type ContextOptions struct {
	// StorageStatePath restores cookies and local storage from a session
	// file written by a previous login.
	StorageStatePath string
}

// OpenContext opens an isolated browser context for the test of scope.
//
// The context emulates the project's device, uses the configured base URL
// and action timeout and records traces and videos as the capture policies
// demand. It is closed when the scope's deadline passes. The returned
// teardown saves or discards recordings depending on the test outcome and
// closes the context.
func OpenContext(s *fixture.Scope, rt *Runtime, opts ContextOptions) (playwright.BrowserContext, fixture.Teardown, error) {
	b, err := rt.Browser()
	if err != nil {
		return nil, nil, err
	}

	cfg := rt.Config()
	testName := "scope"
	if tb := s.TB(); tb != nil {
		testName = tb.Name()
	}
	artifacts := ArtifactDir(cfg.OutputDir, testName, rt.Project().Name, cfg.Retry)

	ctx, err := b.NewContext(NewContextOptions(cfg, rt.Device(), opts, artifacts))
	if err != nil {
		return nil, nil, fmt.Errorf("creating browser context: %w", err)
	}

	actionTimeout := float64(cfg.ActionTimeout.Milliseconds())
	ctx.SetDefaultTimeout(actionTimeout)
	ctx.SetDefaultNavigationTimeout(actionTimeout)

	tracing := cfg.Trace.Records(cfg.Retry)
	if tracing {
		err := ctx.Tracing().Start(playwright.TracingStartOptions{
			Name:        playwright.String(sanitize(testName)),
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		})
		if err != nil {
			_ = ctx.Close()
			return nil, nil, fmt.Errorf("starting trace: %w", err)
		}
	}

	// Enforce the wall-clock budget even if the test is stuck in a browser call.
	stopWatchdog := context.AfterFunc(s.Context(), func() {
		if errors.Is(s.Context().Err(), context.DeadlineExceeded) {
			s.Logger().Warn("Test timeout exceeded, closing browser context", slog.String("test", testName))
			_ = ctx.Close()
		}
	})

	c := &contextCapture{
		cfg:       cfg,
		ctx:       ctx,
		scope:     s,
		artifacts: artifacts,
		tracing:   tracing,
	}
	return ctx, func() error {
		stopWatchdog()
		return c.finish()
	}, nil
}

// NewContextOptions builds the options of a new browser context.
func NewContextOptions(cfg config.Config, device *playwright.DeviceDescriptor, opts ContextOptions, artifactDir string) playwright.BrowserNewContextOptions {
	o := playwright.BrowserNewContextOptions{
		BaseURL:           playwright.String(cfg.BaseURL),
		IgnoreHttpsErrors: playwright.Bool(cfg.IgnoreHTTPSErrors),
	}
	if device != nil {
		o.UserAgent = playwright.String(device.UserAgent)
		o.Viewport = device.Viewport
		o.Screen = device.Screen
		o.DeviceScaleFactor = playwright.Float(device.DeviceScaleFactor)
		o.HasTouch = playwright.Bool(device.HasTouch)
		// Firefox rejects the isMobile option altogether.
		if device.IsMobile {
			o.IsMobile = playwright.Bool(true)
		}
	}
	if opts.StorageStatePath != "" {
		o.StorageStatePath = playwright.String(opts.StorageStatePath)
	}
	if cfg.Video.Records(cfg.Retry) {
		o.RecordVideo = &playwright.RecordVideo{Dir: filepath.Join(artifactDir, "videos")}
	}
	return o
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactDir is the directory receiving traces, screenshots and videos of
// one test attempt.
func ArtifactDir(outputDir, testName, project string, retry int) string {
	name := sanitize(testName)
	if project != "" {
		name += "-" + project
	}
	if retry > 0 {
		name += "-retry" + strconv.Itoa(retry)
	}
	return filepath.Join(outputDir, name)
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type contextCapture struct {
	cfg       config.Config
	ctx       playwright.BrowserContext
	scope     *fixture.Scope
	artifacts string
	tracing   bool
}

func (c *contextCapture) finish() error {
	failed := false
	if tb := c.scope.TB(); tb != nil {
		failed = tb.Failed()
	}
	retry := c.cfg.Retry
	logger := c.scope.Logger()
	// After a timeout the watchdog already closed the context.
	timedOut := errors.Is(c.scope.Context().Err(), context.DeadlineExceeded)

	var errs []error

	if c.tracing {
		if c.cfg.Trace.Keeps(retry, failed) {
			path := filepath.Join(c.artifacts, "trace.zip")
			if err := c.ctx.Tracing().Stop(path); err != nil && !timedOut {
				errs = append(errs, fmt.Errorf("saving trace: %w", err))
			} else if err == nil {
				logger.Info("Trace saved", slog.String("path", path))
			}
		} else if err := c.ctx.Tracing().Stop(); err != nil {
			logger.Debug("Stopping trace failed", slog.Any("error", err))
		}
	}

	pages := c.ctx.Pages()

	if c.cfg.Screenshot.Records(retry) && c.cfg.Screenshot.Keeps(retry, failed) {
		for i, page := range pages {
			path := filepath.Join(c.artifacts, fmt.Sprintf("screenshot-%d.png", i+1))
			_, err := page.Screenshot(playwright.PageScreenshotOptions{
				Path:     playwright.String(path),
				FullPage: playwright.Bool(true),
				Timeout:  playwright.Float(float64((5 * time.Second).Milliseconds())),
			})
			if err != nil {
				logger.Warn("Screenshot failed", slog.String("path", path), slog.Any("error", err))
				continue
			}
			logger.Info("Screenshot saved", slog.String("path", path))
		}
	}

	var videos []playwright.Video
	if c.cfg.Video.Records(retry) {
		for _, page := range pages {
			if v := page.Video(); v != nil {
				videos = append(videos, v)
			}
		}
	}

	if err := c.ctx.Close(); err != nil && !timedOut {
		errs = append(errs, fmt.Errorf("closing browser context: %w", err))
	}

	keepVideo := c.cfg.Video.Keeps(retry, failed)
	for _, v := range videos {
		if keepVideo {
			if path, err := v.Path(); err == nil {
				logger.Info("Video saved", slog.String("path", path))
			}
			continue
		}
		if err := v.Delete(); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("Deleting video failed", slog.Any("error", err))
		}
	}
	if !keepVideo && len(videos) > 0 {
		_ = os.Remove(filepath.Join(c.artifacts, "videos"))
		_ = os.Remove(c.artifacts)
	}

	return errors.Join(errs...)
}
