//go:build acceptance
// +build acceptance

package acceptance

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/auth"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/factory"
	"github.com/networkteam/e2ekit/fixture"
	"github.com/networkteam/e2ekit/pages"
)

func TestFixtures_OnlyRequestedAreConstructed(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		user := factory.TestUserKey.Get(s)
		assert.NotEmpty(t, user.Email)

		assert.Equal(t, []string{factory.TestUserKey.Name()}, s.Acquired())
	})
}

func TestFixtures_PageObjectsShareTheDefaultPage(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		login := pages.LoginPageKey.Get(s)
		products := pages.ProductsPageKey.Get(s)
		page := browser.PageKey.Get(s)

		assert.Same(t, page, login.Page)
		assert.Same(t, page, products.Page)
		assert.Same(t, login, pages.LoginPageKey.Get(s), "values are memoized per test")
	})
}

func TestFixtures_StorageStatePageUsesOwnContext(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		restored := auth.StorageStatePageKey.Get(s)
		page := browser.PageKey.Get(s)

		assert.NotSame(t, page.Context(), restored.Context())

		cookies, err := page.Context().Cookies()
		require.NoError(t, err)
		assert.Empty(t, cookies, "the default context starts without a session")
	})
}

func TestFixtures_DistinctDataPerTest(t *testing.T) {
	t.Parallel()

	var emails []string
	for range 2 {
		suite.Run(t, func(t *testing.T, s *fixture.Scope) {
			emails = append(emails, factory.TestUserKey.Get(s).Email)
		})
	}
	require.Len(t, emails, 2)
	assert.NotEqual(t, emails[0], emails[1])
}

func TestFixtures_RestoredSessionsAreIndependentAndClosed(t *testing.T) {
	t.Parallel()

	var contexts []playwright.BrowserContext
	for _, name := range []string{"first", "second"} {
		t.Run(name, func(t *testing.T) {
			suite.Run(t, func(t *testing.T, s *fixture.Scope) {
				page := auth.StorageStatePageKey.Get(s)
				expect := browser.ExpectKey.Get(s)

				require.NoError(t, expect.Page(page).ToHaveURL(dashboardURL))
				contexts = append(contexts, page.Context())
			})
		})
	}

	require.Len(t, contexts, 2)
	assert.NotSame(t, contexts[0], contexts[1])

	b, err := suite.Runtime().Browser()
	require.NoError(t, err)
	open := b.Contexts()
	for _, ctx := range contexts {
		assert.False(t, lo.Contains(open, ctx), "context closed after its test")
	}
}
