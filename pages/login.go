// Package pages contains page objects for the application under test.
// A page object owns the locators of one screen and the interaction
// sequences performed on it; tests assert on the exposed locators.
package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// LoginPage is the login form.
type LoginPage struct {
	Page     playwright.Page
	Email    playwright.Locator
	Password playwright.Locator
	Submit   playwright.Locator
	Error    playwright.Locator
}

// NewLoginPage creates the page object without navigating.
func NewLoginPage(page playwright.Page) *LoginPage {
	return &LoginPage{
		Page:     page,
		Email:    page.GetByLabel("Email", playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)}),
		Password: page.GetByLabel("Password", playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)}),
		Submit: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)log in`),
		}),
		Error: page.GetByRole(*playwright.AriaRoleAlert),
	}
}

// Goto opens the login form at url, absolute or relative to the base URL.
func (p *LoginPage) Goto(url string) error {
	if _, err := p.Page.Goto(url); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	return nil
}

// Login submits the form with the given credentials. It does not wait for
// the result.
func (p *LoginPage) Login(email, password string) error {
	if err := p.Email.Fill(email); err != nil {
		return fmt.Errorf("filling email: %w", err)
	}
	if err := p.Password.Fill(password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}
	if err := p.Submit.Click(); err != nil {
		return fmt.Errorf("submitting login: %w", err)
	}
	return nil
}
