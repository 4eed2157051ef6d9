package pages

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/playwright-community/playwright-go"

	"github.com/networkteam/e2ekit/factory"
)

// ProductsPage lists products loaded from the products API.
type ProductsPage struct {
	Page       playwright.Page
	EmptyState playwright.Locator
	Items      playwright.Locator
	Saved      playwright.Locator
	Add        playwright.Locator
}

func NewProductsPage(page playwright.Page) *ProductsPage {
	return &ProductsPage{
		Page:       page,
		EmptyState: page.GetByText("No products found"),
		Items:      page.GetByTestId("product-item"),
		Saved:      page.GetByText("Product saved successfully"),
		Add: page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)add product`),
		}),
	}
}

func (p *ProductsPage) Goto() error {
	if _, err := p.Page.Goto("/products"); err != nil {
		return fmt.Errorf("opening products: %w", err)
	}
	return nil
}

// Item locates the list entry of the product called name.
func (p *ProductsPage) Item(name string) playwright.Locator {
	return p.Items.Filter(playwright.LocatorFilterOptions{HasText: name})
}

// ProductFormPage creates a product.
type ProductFormPage struct {
	Page        playwright.Page
	Name        playwright.Locator
	SKU         playwright.Locator
	Price       playwright.Locator
	Description playwright.Locator
	Save        playwright.Locator
}

func NewProductFormPage(page playwright.Page) *ProductFormPage {
	return &ProductFormPage{
		Page:        page,
		Name:        page.GetByLabel("Product Name"),
		SKU:         page.GetByLabel("SKU"),
		Price:       page.GetByLabel("Price"),
		Description: page.GetByLabel("Description"),
		Save: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: regexp.MustCompile(`(?i)save product`),
		}),
	}
}

func (p *ProductFormPage) Goto() error {
	if _, err := p.Page.Goto("/products/new"); err != nil {
		return fmt.Errorf("opening product form: %w", err)
	}
	return nil
}

// Create fills the form with product and saves it.
func (p *ProductFormPage) Create(product factory.Product) error {
	fields := []struct {
		locator playwright.Locator
		value   string
	}{
		{p.Name, product.Name},
		{p.SKU, product.SKU},
		{p.Price, strconv.FormatFloat(product.Price, 'f', 2, 64)},
		{p.Description, product.Description},
	}
	for _, f := range fields {
		if err := f.locator.Fill(f.value); err != nil {
			return fmt.Errorf("filling product form: %w", err)
		}
	}
	if err := p.Save.Click(); err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	return nil
}
