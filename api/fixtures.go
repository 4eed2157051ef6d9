package api

import (
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/fixture"
)

var (
	APIClientKey       = fixture.NewKey[*Client]("apiClient")
	AuthedAPIClientKey = fixture.NewKey[*Client]("authedApiClient")
)

// Fixtures returns apiClient, which sends no credentials, and
// authedApiClient, which sends the configured API token. Every test gets
// its own request context, disposed on teardown.
func Fixtures(cfg config.Config) *fixture.Set {
	set := fixture.NewSet("api")

	provide := func(key fixture.Key[*Client], token string) {
		fixture.Provide(set, key, func(s *fixture.Scope) (*Client, fixture.Teardown, error) {
			pw, err := browser.PlaywrightKey.Resolve(s)
			if err != nil {
				return nil, nil, err
			}
			return newScopedClient(s, pw, cfg, token)
		}, browser.PlaywrightKey)
	}
	provide(APIClientKey, "")
	provide(AuthedAPIClientKey, cfg.APIToken)

	return set
}

func newScopedClient(s *fixture.Scope, pw *playwright.Playwright, cfg config.Config, token string) (*Client, fixture.Teardown, error) {
	c, err := NewClient(pw, Options{
		BaseURL:           cfg.APIBaseURL,
		Token:             token,
		IgnoreHTTPSErrors: cfg.IgnoreHTTPSErrors,
		Timeout:           cfg.ActionTimeout,
		Logger:            s.Logger(),
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Dispose, nil
}
