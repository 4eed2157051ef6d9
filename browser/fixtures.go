package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/fixture"
)

var (
	PlaywrightKey = fixture.NewKey[*playwright.Playwright]("playwright")
	BrowserKey    = fixture.NewKey[playwright.Browser]("browser")
	ContextKey    = fixture.NewKey[playwright.BrowserContext]("context")
	PageKey       = fixture.NewKey[playwright.Page]("page")
	ExpectKey     = fixture.NewKey[playwright.PlaywrightAssertions]("expect")
)

// Fixtures returns the browser fixtures backed by rt.
//
// playwright and browser are shared by every test of the process and never
// torn down per test. context is a fresh isolated context, page the default
// page inside it. expect offers retrying assertions using the configured
// expect timeout.
func Fixtures(rt *Runtime) *fixture.Set {
	set := fixture.NewSet("browser")

	fixture.Provide(set, PlaywrightKey, func(s *fixture.Scope) (*playwright.Playwright, fixture.Teardown, error) {
		pw, err := rt.Playwright()
		return pw, nil, err
	})

	fixture.Provide(set, BrowserKey, func(s *fixture.Scope) (playwright.Browser, fixture.Teardown, error) {
		b, err := rt.Browser()
		return b, nil, err
	})

	fixture.Provide(set, ContextKey, func(s *fixture.Scope) (playwright.BrowserContext, fixture.Teardown, error) {
		return OpenContext(s, rt, ContextOptions{})
	}, BrowserKey)

	fixture.Provide(set, PageKey, func(s *fixture.Scope) (playwright.Page, fixture.Teardown, error) {
		ctx, err := ContextKey.Resolve(s)
		if err != nil {
			return nil, nil, err
		}
		page, err := ctx.NewPage()
		if err != nil {
			return nil, nil, fmt.Errorf("opening page: %w", err)
		}
		// Closed together with its context.
		return page, nil, nil
	}, ContextKey)

	fixture.ProvideValue(set, ExpectKey, func() playwright.PlaywrightAssertions {
		return playwright.NewPlaywrightAssertions(float64(rt.Config().ExpectTimeout.Milliseconds()))
	})

	return set
}
