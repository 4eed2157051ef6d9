package network

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Handler answers an intercepted request. It must fulfill, abort or fall
// back on the route.
type Handler func(route playwright.Route) error

type rule struct {
	pattern Pattern
	handler Handler
}

// Router dispatches the requests of one page to ordered rules. The first
// registered rule that matches a request handles it; requests no rule
// matches continue to the network unchanged.
//
// The router installs a single catch-all route on the page the first time
// a rule is added.
type Router struct {
	// route installs a catch-all route on the page, nil without a page.
	route   func(handler func(playwright.Route)) error
	baseURL string
	logger  *slog.Logger

	mu    sync.RWMutex
	rules []rule

	// installMu guards installed and is held while the catch-all route is
	// being installed.
	installMu sync.Mutex
	installed bool
}

// NewRouter creates a router for page. Relative patterns are resolved
// against baseURL.
func NewRouter(page playwright.Page, baseURL string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		baseURL: baseURL,
		logger:  logger,
	}
	if page != nil {
		r.route = func(handler func(playwright.Route)) error {
			return page.Route("**/*", handler)
		}
	}
	return r
}

// Handle adds a rule. Rules added earlier take precedence.
func (r *Router) Handle(pattern any, handler Handler) error {
	p, err := ParsePattern(pattern, r.baseURL)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.rules = append(r.rules, rule{pattern: p, handler: handler})
	r.mu.Unlock()

	if r.route == nil {
		return nil
	}

	r.installMu.Lock()
	defer r.installMu.Unlock()
	if r.installed {
		return nil
	}
	if err := r.route(r.dispatch); err != nil {
		return fmt.Errorf("installing route: %w", err)
	}
	r.installed = true
	return nil
}

// Fulfill adds a rule answering matching requests with status and body
// encoded as JSON. Strings are encoded as JSON strings too; pass a []byte
// to send a body that is already encoded.
func (r *Router) Fulfill(pattern any, status int, body any, opts ...StubOption) error {
	handler, err := jsonResponse(status, body, opts...)
	if err != nil {
		return err
	}
	return r.Handle(pattern, handler)
}

// Abort adds a rule aborting matching requests.
func (r *Router) Abort(pattern any) error {
	return r.Handle(pattern, func(route playwright.Route) error {
		return route.Abort()
	})
}

// Match returns the index of the rule that would handle rawURL.
func (r *Router) Match(rawURL string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, rl := range r.rules {
		if rl.pattern.Match(rawURL) {
			return i, true
		}
	}
	return -1, false
}

// Len returns the number of rules.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

func (r *Router) dispatch(route playwright.Route) {
	rawURL := route.Request().URL()

	idx, ok := r.Match(rawURL)
	if !ok {
		if err := route.Fallback(); err != nil {
			r.logger.Debug("Route fallback failed", slog.String("url", rawURL), slog.Any("error", err))
		}
		return
	}

	r.mu.RLock()
	rl := r.rules[idx]
	r.mu.RUnlock()

	r.logger.Debug("Intercepted request",
		slog.String("url", rawURL),
		slog.String("pattern", rl.pattern.String()),
	)
	if err := rl.handler(route); err != nil {
		// The page may already be closed when a late request arrives.
		r.logger.Debug("Route handler failed", slog.String("url", rawURL), slog.Any("error", err))
	}
}

type stubOptions struct {
	delay       time.Duration
	contentType string
	headers     map[string]string
}

// StubOption configures a stubbed response.
type StubOption func(*stubOptions)

// WithDelay holds the response back for d, e.g. to observe loading states.
func WithDelay(d time.Duration) StubOption {
	return func(o *stubOptions) {
		o.delay = d
	}
}

// WithContentType overrides the default application/json content type.
func WithContentType(contentType string) StubOption {
	return func(o *stubOptions) {
		o.contentType = contentType
	}
}

// WithHeader adds a response header.
func WithHeader(name, value string) StubOption {
	return func(o *stubOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[name] = value
	}
}

func jsonResponse(status int, body any, opts ...StubOption) (Handler, error) {
	o := stubOptions{contentType: "application/json"}
	for _, opt := range opts {
		opt(&o)
	}

	var payload []byte
	switch b := body.(type) {
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding stub body: %w", err)
		}
	}

	return func(route playwright.Route) error {
		if o.delay > 0 {
			time.Sleep(o.delay)
		}
		return route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(status),
			ContentType: playwright.String(o.contentType),
			Headers:     o.headers,
			Body:        payload,
		})
	}, nil
}
