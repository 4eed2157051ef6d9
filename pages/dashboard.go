package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// DashboardPage is the landing page after login.
type DashboardPage struct {
	Page    playwright.Page
	Heading playwright.Locator
	Header  playwright.Locator
	Avatar  playwright.Locator
	Logout  playwright.Locator
	Stats   playwright.Locator
	Alert   playwright.Locator
}

func NewDashboardPage(page playwright.Page) *DashboardPage {
	return &DashboardPage{
		Page: page,
		Heading: page.GetByRole(*playwright.AriaRoleHeading, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)dashboard`),
		}),
		Header: page.GetByRole(*playwright.AriaRoleBanner),
		Avatar: page.GetByTestId("user-avatar"),
		Logout: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)logout`),
		}),
		Stats: page.GetByTestId("stats"),
		Alert: page.GetByRole(*playwright.AriaRoleAlert),
	}
}

func (p *DashboardPage) Goto() error {
	if _, err := p.Page.Goto("/dashboard"); err != nil {
		return fmt.Errorf("opening dashboard: %w", err)
	}
	return nil
}

// SignOut clicks the logout button.
func (p *DashboardPage) SignOut() error {
	if err := p.Logout.Click(); err != nil {
		return fmt.Errorf("clicking logout: %w", err)
	}
	return nil
}
