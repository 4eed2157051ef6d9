package auth

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/fixture"
)

var (
	StorageStatePageKey     = fixture.NewKey[playwright.Page]("storageStatePage")
	FreshLoginPageKey       = fixture.NewKey[playwright.Page]("freshLoginPage")
	AuthenticatedContextKey = fixture.NewKey[playwright.BrowserContext]("authenticatedContext")
)

const clearStorageScript = `() => {
	localStorage.clear();
	sessionStorage.clear();
}`

// Fixtures returns the auth fixtures.
//
// storageStatePage and authenticatedContext restore the session written by
// Bootstrap into a new context each and never log in. freshLoginPage logs
// in on the test's default page.
func Fixtures(rt *browser.Runtime) *fixture.Set {
	set := fixture.NewSet("auth")
	cfg := rt.Config()

	fixture.Provide(set, StorageStatePageKey, func(s *fixture.Scope) (playwright.Page, fixture.Teardown, error) {
		ctx, teardown, err := restoredContext(s, rt)
		if err != nil {
			return nil, nil, err
		}
		page, err := ctx.NewPage()
		if err != nil {
			return nil, teardown, fmt.Errorf("opening page: %w", err)
		}
		if _, err := page.Goto(cfg.BaseURL); err != nil {
			return nil, teardown, fmt.Errorf("opening %s: %w", cfg.BaseURL, err)
		}
		return page, teardown, nil
	}, browser.BrowserKey)

	fixture.Provide(set, AuthenticatedContextKey, func(s *fixture.Scope) (playwright.BrowserContext, fixture.Teardown, error) {
		return restoredContext(s, rt)
	}, browser.BrowserKey)

	fixture.Provide(set, FreshLoginPageKey, func(s *fixture.Scope) (playwright.Page, fixture.Teardown, error) {
		page, err := browser.PageKey.Resolve(s)
		if err != nil {
			return nil, nil, err
		}
		if err := Login(page, cfg); err != nil {
			return nil, nil, fmt.Errorf("fresh login: %w", err)
		}
		return page, func() error {
			if page.IsClosed() {
				return nil
			}
			if _, err := page.Evaluate(clearStorageScript); err != nil {
				return fmt.Errorf("clearing storage: %w", err)
			}
			return nil
		}, nil
	}, browser.PageKey)

	return set
}

func restoredContext(s *fixture.Scope, rt *browser.Runtime) (playwright.BrowserContext, fixture.Teardown, error) {
	path := rt.Config().SessionFile
	if _, err := LoadSession(path); err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil, fmt.Errorf("%w (run the bootstrap first)", err)
		}
		return nil, nil, err
	}
	return browser.OpenContext(s, rt, browser.ContextOptions{StorageStatePath: path})
}
