package network

import (
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// AnalyticsDomains are the tracking hosts BlockAnalytics aborts.
var AnalyticsDomains = []string{
	"**/google-analytics.com/**",
	"**/googletagmanager.com/**",
	"**/hotjar.com/**",
	"**/segment.com/**",
	"**/amplitude.com/**",
	"**/mixpanel.com/**",
	"**/fullstory.com/**",
	"**/intercom.io/**",
}

// StubFunc stubs requests of page matching pattern with a JSON response.
// It must be called before the navigation that triggers the requests.
type StubFunc func(page playwright.Page, pattern any, status int, body any, opts ...StubOption) error

// Routers hands out one Router per page. It belongs to a single test.
type Routers struct {
	baseURL string
	logger  *slog.Logger

	mu     sync.Mutex
	byPage map[playwright.Page]*Router
}

// NewRouters creates an empty set of routers.
func NewRouters(baseURL string, logger *slog.Logger) *Routers {
	return &Routers{
		baseURL: baseURL,
		logger:  logger,
		byPage:  make(map[playwright.Page]*Router),
	}
}

// For returns the router of page, creating it on first use.
func (rs *Routers) For(page playwright.Page) *Router {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	r, ok := rs.byPage[page]
	if !ok {
		r = NewRouter(page, rs.baseURL, rs.logger)
		rs.byPage[page] = r
	}
	return r
}

// Stub is a StubFunc backed by the routers.
func (rs *Routers) Stub(page playwright.Page, pattern any, status int, body any, opts ...StubOption) error {
	return rs.For(page).Fulfill(pattern, status, body, opts...)
}

// BlockAnalytics aborts every request of page to AnalyticsDomains.
func (rs *Routers) BlockAnalytics(page playwright.Page) error {
	r := rs.For(page)
	for _, domain := range AnalyticsDomains {
		if err := r.Abort(domain); err != nil {
			return err
		}
	}
	return nil
}
