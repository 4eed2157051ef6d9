//go:build acceptance
// +build acceptance

package acceptance

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/auth"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/fixture"
	"github.com/networkteam/e2ekit/pages"
)

var (
	dashboardURL = regexp.MustCompile(`/dashboard$`)
	loginURL     = regexp.MustCompile(`/login$`)
)

func TestStorageStatePage_OpensDashboardWithoutLogin(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		page := auth.StorageStatePageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		require.NoError(t, expect.Page(page).ToHaveURL(dashboardURL))

		dashboard := pages.NewDashboardPage(page)
		require.NoError(t, expect.Locator(dashboard.Avatar).ToBeVisible())
		require.NoError(t, expect.Locator(dashboard.Header).ToContainText(suite.Config().Username))
	})
}

func TestFreshLoginPage_LogsInAndOut(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		page := auth.FreshLoginPageKey.Get(s)
		dashboard := pages.DashboardPageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		require.NoError(t, expect.Page(page).ToHaveURL(dashboardURL))
		require.NoError(t, expect.Locator(dashboard.Heading).ToBeVisible())

		require.NoError(t, dashboard.SignOut())
		require.NoError(t, expect.Page(page).ToHaveURL(loginURL))

		require.NoError(t, dashboard.Goto())
		require.NoError(t, expect.Page(page).ToHaveURL(loginURL), "protected page after logout")
	})
}

func TestAuthenticatedContext_SharesSessionAcrossPages(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		ctx := auth.AuthenticatedContextKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		first, err := ctx.NewPage()
		require.NoError(t, err)
		second, err := ctx.NewPage()
		require.NoError(t, err)

		_, err = first.Goto("/dashboard")
		require.NoError(t, err)
		_, err = second.Goto("/products")
		require.NoError(t, err)

		require.NoError(t, expect.Page(first).ToHaveURL(dashboardURL))
		require.NoError(t, expect.Page(second).ToHaveURL(regexp.MustCompile(`/products$`)))
		require.NoError(t, expect.Locator(pages.NewDashboardPage(second).Avatar).ToBeVisible())
	})
}

func TestLoginPage_RejectsInvalidCredentials(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		login := pages.LoginPageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		require.NoError(t, login.Goto("/login"))
		require.NoError(t, login.Login("nobody@qa.example.com", "wrong-password"))

		require.NoError(t, expect.Locator(login.Error).ToContainText("Invalid email or password"))
		require.NoError(t, expect.Page(login.Page).ToHaveURL(loginURL))
	})
}
