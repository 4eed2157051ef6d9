// Package api provides HTTP clients for the application's API that run on
// the automation runtime's request stack, so calls share its TLS and proxy
// settings with the browser.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/collector"
)

// Call is one request made through a Client.
type Call struct {
	ID       uuid.UUID
	Method   string
	URL      string
	Status   int
	Duration time.Duration
	Err      error
	At       time.Time
}

// Options configure a Client.
type Options struct {
	// BaseURL is prepended to request paths, including any path prefix
	// like /api.
	BaseURL string
	// Token is sent as "Authorization: Bearer <Token>" when set.
	Token             string
	IgnoreHTTPSErrors bool
	// Timeout of a single request. Zero uses the driver default.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is a JSON API client bound to one isolated request context. It
// shares no cookies with browser contexts or other clients.
type Client struct {
	req     playwright.APIRequestContext
	baseURL string
	calls   *collector.Journal[Call]
	logger  *slog.Logger
}

// Headers returns the default headers of a client with the given token.
func Headers(token string) map[string]string {
	h := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}
	return h
}

// NewClient creates a client with its own request context.
func NewClient(pw *playwright.Playwright, opts Options) (*Client, error) {
	o := playwright.APIRequestNewContextOptions{
		ExtraHttpHeaders:  Headers(opts.Token),
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.Timeout > 0 {
		o.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}

	req, err := pw.Request.NewContext(o)
	if err != nil {
		return nil, fmt.Errorf("creating request context: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		req:     req,
		baseURL: opts.BaseURL,
		calls:   collector.NewJournal[Call](0),
		logger:  logger,
	}, nil
}

// URL joins the base URL and path. Absolute URLs are returned unchanged.
func (c *Client) URL(path string) string {
	return JoinURL(c.baseURL, path)
}

// JoinURL appends path to base with exactly one slash in between, keeping
// any path prefix of base.
func JoinURL(base, path string) string {
	if strings.Contains(path, "://") || base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) Get(path string) (playwright.APIResponse, error) {
	return c.Do(http.MethodGet, path, nil)
}

func (c *Client) Post(path string, body any) (playwright.APIResponse, error) {
	return c.Do(http.MethodPost, path, body)
}

func (c *Client) Put(path string, body any) (playwright.APIResponse, error) {
	return c.Do(http.MethodPut, path, body)
}

func (c *Client) Patch(path string, body any) (playwright.APIResponse, error) {
	return c.Do(http.MethodPatch, path, body)
}

func (c *Client) Delete(path string) (playwright.APIResponse, error) {
	return c.Do(http.MethodDelete, path, nil)
}

// Do sends a request. A non-nil body is encoded as JSON. Error statuses are
// returned as responses, not errors.
func (c *Client) Do(method, path string, body any) (playwright.APIResponse, error) {
	url := c.URL(path)
	opts := playwright.APIRequestContextFetchOptions{
		Method: playwright.String(method),
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		opts.Data = string(data)
	}

	id := uuid.Must(uuid.NewV7())
	start := time.Now()
	resp, err := c.req.Fetch(url, opts)

	call := Call{
		ID:       id,
		Method:   method,
		URL:      url,
		Duration: time.Since(start),
		Err:      err,
		At:       start,
	}
	if resp != nil {
		call.Status = resp.Status()
	}
	c.calls.Add(call)

	c.logger.Debug("API call",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", call.Status),
		slog.Duration("duration", call.Duration),
	)

	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	return resp, nil
}

// Calls returns every call made so far in order.
func (c *Client) Calls() []Call {
	return c.calls.Entries()
}

// Dispose releases the request context. Responses become unreadable.
func (c *Client) Dispose() error {
	return c.req.Dispose()
}

// DecodeJSON checks the status of resp and decodes its body into v.
func DecodeJSON(resp playwright.APIResponse, wantStatus int, v any) error {
	if resp.Status() != wantStatus {
		text, _ := resp.Text()
		return fmt.Errorf("%s: status %d, want %d: %s", resp.URL(), resp.Status(), wantStatus, text)
	}
	if v == nil {
		return nil
	}
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("decoding %s: %w", resp.URL(), err)
	}
	return nil
}
