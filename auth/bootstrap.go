package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/pages"
)

// DefaultReadyTimeout bounds how long Bootstrap waits for the application
// to answer before logging in.
const DefaultReadyTimeout = 30 * time.Second

type bootstrapOptions struct {
	logger       *slog.Logger
	readyTimeout time.Duration
	httpClient   *http.Client
}

// BootstrapOption configures Bootstrap.
type BootstrapOption func(*bootstrapOptions)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) BootstrapOption {
	return func(o *bootstrapOptions) {
		o.logger = logger
	}
}

// WithReadyTimeout sets how long to wait for the application to come up.
// Zero skips the readiness probe.
func WithReadyTimeout(d time.Duration) BootstrapOption {
	return func(o *bootstrapOptions) {
		o.readyTimeout = d
	}
}

// WithHTTPClient sets the client of the readiness probe.
func WithHTTPClient(c *http.Client) BootstrapOption {
	return func(o *bootstrapOptions) {
		o.httpClient = c
	}
}

// Bootstrap performs the one-time interactive login of a run and writes the
// resulting session to the configured session file. It opens one context,
// submits the credentials and waits for the landing URL within the action
// timeout. Every failure wraps ErrBootstrap.
func Bootstrap(ctx context.Context, rt *browser.Runtime, opts ...BootstrapOption) error {
	o := bootstrapOptions{
		logger:       slog.Default(),
		readyTimeout: DefaultReadyTimeout,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := bootstrap(ctx, rt, o); err != nil {
		return fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	return nil
}

func bootstrap(ctx context.Context, rt *browser.Runtime, o bootstrapOptions) error {
	cfg := rt.Config()
	logger := o.logger

	if o.readyTimeout > 0 {
		if err := WaitReady(ctx, o.httpClient, cfg.BaseURL, o.readyTimeout); err != nil {
			return err
		}
	}

	b, err := rt.Browser()
	if err != nil {
		return err
	}

	noRecording := cfg
	noRecording.Video = config.CaptureOff
	bctx, err := b.NewContext(browser.NewContextOptions(noRecording, rt.Device(), browser.ContextOptions{}, ""))
	if err != nil {
		return fmt.Errorf("creating browser context: %w", err)
	}
	defer bctx.Close()

	stop := context.AfterFunc(ctx, func() { _ = bctx.Close() })
	defer stop()

	bctx.SetDefaultTimeout(float64(cfg.ActionTimeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}

	logger.Info("Logging in to save session", slog.String("url", cfg.LoginURL()), slog.String("user", cfg.Username))
	if err := Login(page, cfg); err != nil {
		return err
	}

	if err := SaveSession(bctx, cfg.SessionFile); err != nil {
		return err
	}
	logger.Info("Session saved", slog.String("path", cfg.SessionFile))
	return nil
}

// Login signs in on page through the login form and waits until the
// browser reaches the landing URL.
func Login(page playwright.Page, cfg config.Config) error {
	login := pages.NewLoginPage(page)
	if err := login.Goto(cfg.LoginURL()); err != nil {
		return err
	}
	if err := login.Login(cfg.Username, cfg.Password); err != nil {
		return err
	}
	err := page.WaitForURL(cfg.LandingURL, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(float64(cfg.ActionTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("waiting for %s after login: %w", cfg.LandingURL, err)
	}
	return nil
}

// WaitReady polls url until it answers with a status below 500, backing off
// exponentially for at most timeout.
func WaitReady(ctx context.Context, client *http.Client, url string, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = timeout

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("application at %s not ready: %w", url, err)
	}
	return nil
}
