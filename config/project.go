package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Browser engines a project can run on.
const (
	Chromium = "chromium"
	Firefox  = "firefox"
	WebKit   = "webkit"
)

// Project is one entry of the browser/device matrix.
type Project struct {
	// Name selects the project, e.g. via E2E_PROJECT.
	Name string
	// Browser is one of Chromium, Firefox or WebKit.
	Browser string
	// Device is a playwright device descriptor name like "Pixel 7".
	// Empty means desktop defaults of the browser.
	Device string
}

// DefaultProjects is the matrix used when none is configured.
func DefaultProjects() []Project {
	return []Project{
		{Name: "chromium", Browser: Chromium, Device: "Desktop Chrome"},
		{Name: "firefox", Browser: Firefox, Device: "Desktop Firefox"},
		{Name: "webkit", Browser: WebKit, Device: "Desktop Safari"},
		{Name: "mobile-chrome", Browser: Chromium, Device: "Pixel 7"},
		{Name: "mobile-safari", Browser: WebKit, Device: "iPhone 14"},
	}
}

// ProjectByName looks up a project of the matrix.
func (c Config) ProjectByName(name string) (Project, error) {
	p, ok := lo.Find(c.Projects, func(p Project) bool { return p.Name == name })
	if !ok {
		names := lo.Map(c.Projects, func(p Project, _ int) string { return p.Name })
		return Project{}, fmt.Errorf("unknown project %q (known: %s)", name, strings.Join(names, ", "))
	}
	return p, nil
}

// SelectedProject returns the project tests of this process run against:
// the one named by Project or the first of the matrix.
func (c Config) SelectedProject() (Project, error) {
	if c.Project == "" {
		if len(c.Projects) == 0 {
			return Project{}, fmt.Errorf("no projects configured")
		}
		return c.Projects[0], nil
	}
	return c.ProjectByName(c.Project)
}

func validBrowser(name string) bool {
	return lo.Contains([]string{Chromium, Firefox, WebKit}, name)
}
