package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/factory"
)

// RegisterPage is the public sign-up form.
type RegisterPage struct {
	Page            playwright.Page
	FullName        playwright.Locator
	Email           playwright.Locator
	Password        playwright.Locator
	ConfirmPassword playwright.Locator
	Submit          playwright.Locator
	Error           playwright.Locator
}

func NewRegisterPage(page playwright.Page) *RegisterPage {
	exact := playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)}
	return &RegisterPage{
		Page:            page,
		FullName:        page.GetByLabel("Full Name", exact),
		Email:           page.GetByLabel("Email", exact),
		Password:        page.GetByLabel("Password", exact),
		ConfirmPassword: page.GetByLabel("Confirm Password", exact),
		Submit: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)create account`),
		}),
		Error: page.GetByRole(*playwright.AriaRoleAlert),
	}
}

func (p *RegisterPage) Goto() error {
	if _, err := p.Page.Goto("/register"); err != nil {
		return fmt.Errorf("opening registration: %w", err)
	}
	return nil
}

// Register fills every field from user and submits.
func (p *RegisterPage) Register(user factory.User) error {
	fields := []struct {
		locator playwright.Locator
		value   string
	}{
		{p.FullName, user.Name},
		{p.Email, user.Email},
		{p.Password, user.Password},
		{p.ConfirmPassword, user.Password},
	}
	for _, f := range fields {
		if err := f.locator.Fill(f.value); err != nil {
			return fmt.Errorf("filling registration form: %w", err)
		}
	}
	if err := p.Submit.Click(); err != nil {
		return fmt.Errorf("submitting registration: %w", err)
	}
	return nil
}

// OnboardingPage greets freshly registered users.
type OnboardingPage struct {
	Page playwright.Page
}

func NewOnboardingPage(page playwright.Page) *OnboardingPage {
	return &OnboardingPage{Page: page}
}

// Welcome locates the greeting for name.
func (p *OnboardingPage) Welcome(name string) playwright.Locator {
	return p.Page.GetByText("Welcome, " + name)
}

// UsersPage lists users and shows single users with their products.
type UsersPage struct {
	Page  playwright.Page
	Rows  playwright.Locator
	Title playwright.Locator
}

func NewUsersPage(page playwright.Page) *UsersPage {
	return &UsersPage{
		Page:  page,
		Rows:  page.GetByTestId("user-row"),
		Title: page.GetByRole(*playwright.AriaRoleHeading, playwright.PageGetByRoleOptions{Level: playwright.Int(1)}),
	}
}

func (p *UsersPage) Goto() error {
	if _, err := p.Page.Goto("/users"); err != nil {
		return fmt.Errorf("opening users: %w", err)
	}
	return nil
}

// GotoUser opens the detail page of the user with id.
func (p *UsersPage) GotoUser(id string) error {
	if _, err := p.Page.Goto("/users/" + id); err != nil {
		return fmt.Errorf("opening user %s: %w", id, err)
	}
	return nil
}

// Row locates the list entry containing text.
func (p *UsersPage) Row(text string) playwright.Locator {
	return p.Rows.Filter(playwright.LocatorFilterOptions{HasText: text})
}
