package pages

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SearchPage has a search box querying the search API as the user types.
type SearchPage struct {
	Page    playwright.Page
	Input   playwright.Locator
	Results playwright.Locator
}

func NewSearchPage(page playwright.Page) *SearchPage {
	return &SearchPage{
		Page:    page,
		Input:   page.GetByRole(*playwright.AriaRoleSearchbox),
		Results: page.GetByTestId("search-result"),
	}
}

func (p *SearchPage) Goto() error {
	if _, err := p.Page.Goto("/search"); err != nil {
		return fmt.Errorf("opening search: %w", err)
	}
	return nil
}

// Type enters query one key at a time, waiting delay between keystrokes.
func (p *SearchPage) Type(query string, delay time.Duration) error {
	err := p.Input.PressSequentially(query, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("typing search query: %w", err)
	}
	return nil
}
