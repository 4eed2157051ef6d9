//go:build acceptance
// +build acceptance

package acceptance

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/api"
	"github.com/networkteam/e2ekit/auth"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/factory"
	"github.com/networkteam/e2ekit/fixture"
	"github.com/networkteam/e2ekit/pages"
)

func TestRegister_NewUserIsOnboarded(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		user := factory.TestUserKey.Get(s)
		register := pages.RegisterPageKey.Get(s)
		onboarding := pages.OnboardingPageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		require.NoError(t, register.Goto())
		require.NoError(t, register.Register(user))

		require.NoError(t, expect.Page(register.Page).ToHaveURL(regexp.MustCompile(`/onboarding$`)))
		require.NoError(t, expect.Locator(onboarding.Welcome(user.Name)).ToBeVisible())
	})
}

func TestRegister_DuplicateEmailIsRejected(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		user := factory.TestUserKey.Get(s)
		client := api.AuthedAPIClientKey.Get(s)

		resp, err := client.Post("/users", user)
		require.NoError(t, err)
		require.NoError(t, api.DecodeJSON(resp, http.StatusCreated, nil))

		register := pages.RegisterPageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		require.NoError(t, register.Goto())
		require.NoError(t, register.Register(user))
		require.NoError(t, expect.Locator(register.Error).ToContainText("Email already in use"))
	})
}

func TestProductForm_CreatesProduct(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		product := factory.TestProductKey.Get(s)
		page := auth.StorageStatePageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		form := pages.NewProductFormPage(page)
		require.NoError(t, form.Goto())
		require.NoError(t, form.Create(product))

		products := pages.NewProductsPage(page)
		require.NoError(t, expect.Locator(products.Saved).ToBeVisible())
		require.NoError(t, expect.Locator(products.Item(product.Name)).ToBeVisible())
	})
}

func TestTags_AddTag(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		randomString := factory.RandomStringKey.Get(s)
		page := auth.StorageStatePageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		name := "tag-" + randomString(6)

		_, err := page.Goto("/tags/new")
		require.NoError(t, err)
		require.NoError(t, page.GetByLabel("Tag Name").Fill(name))
		require.NoError(t, page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: "Add tag"}).Click())

		require.NoError(t, expect.Locator(page.GetByRole(*playwright.AriaRoleListitem).Filter(playwright.LocatorFilterOptions{HasText: name})).ToBeVisible())
	})
}

func TestReports_GenerateReport(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		timestamp := factory.TimestampKey.Get(s)
		page := auth.StorageStatePageKey.Get(s)
		expect := browser.ExpectKey.Get(s)

		name := "Report " + timestamp + " " + factory.RandomString(4)

		_, err := page.Goto("/reports/new")
		require.NoError(t, err)
		require.NoError(t, page.GetByLabel("Report Name").Fill(name))
		require.NoError(t, page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: "Generate"}).Click())

		require.NoError(t, expect.Page(page).ToHaveURL(regexp.MustCompile(`/reports$`)))
		require.NoError(t, expect.Locator(page.GetByText(name)).ToBeVisible())
	})
}

func TestAssignProduct_ShowsOnUserPage(t *testing.T) {
	t.Parallel()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		client := api.AuthedAPIClientKey.Get(s)
		user := factory.TestUserKey.Get(s)
		product := factory.TestProductKey.Get(s)

		resp, err := client.Post("/users", user)
		require.NoError(t, err)
		var createdUser apiUser
		require.NoError(t, api.DecodeJSON(resp, http.StatusCreated, &createdUser))

		resp, err = client.Post("/products", product)
		require.NoError(t, err)
		var createdProduct apiProduct
		require.NoError(t, api.DecodeJSON(resp, http.StatusCreated, &createdProduct))

		resp, err = client.Post("/users/"+createdUser.ID+"/products", map[string]string{"productId": createdProduct.ID})
		require.NoError(t, err)
		require.NoError(t, api.DecodeJSON(resp, http.StatusCreated, nil))

		page := auth.StorageStatePageKey.Get(s)
		expect := browser.ExpectKey.Get(s)
		users := pages.NewUsersPage(page)

		require.NoError(t, users.GotoUser(createdUser.ID))
		require.NoError(t, expect.Locator(page.GetByText(product.Name)).ToBeVisible())
	})
}
