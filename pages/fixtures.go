package pages

import (
	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/fixture"
)

var (
	LoginPageKey       = fixture.NewKey[*LoginPage]("loginPage")
	DashboardPageKey   = fixture.NewKey[*DashboardPage]("dashboardPage")
	ProductsPageKey    = fixture.NewKey[*ProductsPage]("productsPage")
	ProductFormPageKey = fixture.NewKey[*ProductFormPage]("productFormPage")
	RegisterPageKey    = fixture.NewKey[*RegisterPage]("registerPage")
	OnboardingPageKey  = fixture.NewKey[*OnboardingPage]("onboardingPage")
	SearchPageKey      = fixture.NewKey[*SearchPage]("searchPage")
	UsersPageKey       = fixture.NewKey[*UsersPage]("usersPage")
)

// Fixtures returns one fixture per page object, each bound to the test's
// default page. Adding a page object means adding one line here.
func Fixtures() *fixture.Set {
	set := fixture.NewSet("pages")

	onPage(set, LoginPageKey, NewLoginPage)
	onPage(set, DashboardPageKey, NewDashboardPage)
	onPage(set, ProductsPageKey, NewProductsPage)
	onPage(set, ProductFormPageKey, NewProductFormPage)
	onPage(set, RegisterPageKey, NewRegisterPage)
	onPage(set, OnboardingPageKey, NewOnboardingPage)
	onPage(set, SearchPageKey, NewSearchPage)
	onPage(set, UsersPageKey, NewUsersPage)

	return set
}

func onPage[T any](set *fixture.Set, key fixture.Key[T], build func(playwright.Page) T) {
	fixture.Provide(set, key, func(s *fixture.Scope) (T, fixture.Teardown, error) {
		page, err := browser.PageKey.Resolve(s)
		if err != nil {
			var zero T
			return zero, nil, err
		}
		// The page lifecycle belongs to the page fixture.
		return build(page), nil, nil
	}, browser.PageKey)
}
