//go:build acceptance
// +build acceptance

package acceptance

import (
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/internal/demoapp"
)

var suite *e2ekit.Suite

// TestMain serves the demo application unless BASE_URL points elsewhere,
// installs the browser of the selected project and bootstraps the session
// before running tests.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	if _, ok := os.LookupEnv(config.EnvBaseURL); !ok {
		app := demoapp.New(demoapp.Options{})
		defer app.Close()
		srv := httptest.NewServer(app)
		defer srv.Close()

		os.Setenv(config.EnvBaseURL, srv.URL)
		os.Setenv(config.EnvAPIBaseURL, srv.URL+"/api")
		os.Setenv(config.EnvAPIToken, app.APIToken())
		os.Setenv(config.EnvUsername, demoapp.AdminEmail)
		os.Setenv(config.EnvPassword, demoapp.AdminPassword)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	project, err := cfg.SelectedProject()
	if err != nil {
		log.Fatalf("could not select project: %v", err)
	}
	if err := browser.Install(project); err != nil {
		log.Fatalf("could not install playwright: %v", err)
	}

	suite, err = e2ekit.New(cfg)
	if err != nil {
		log.Fatalf("could not create suite: %v", err)
	}
	return suite.Main(m)
}
