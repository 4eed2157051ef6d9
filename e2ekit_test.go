package e2ekit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/factory"
	"github.com/networkteam/e2ekit/fixture"
)

func TestNew_ExposesEveryFixture(t *testing.T) {
	suite, err := e2ekit.New(config.Default())
	require.NoError(t, err)
	defer suite.Close()

	registry := suite.Registry()
	for _, name := range []string{
		"playwright", "browser", "context", "page", "expect",
		"storageStatePage", "freshLoginPage", "authenticatedContext",
		"apiClient", "authedApiClient",
		"loginPage", "dashboardPage", "productsPage", "productFormPage",
		"registerPage", "onboardingPage", "searchPage", "usersPage",
		"routers", "mockNetwork", "blockAnalytics", "networkLogs",
		"testUser", "testProduct", "timestamp", "randomString",
	} {
		assert.True(t, registry.Has(name), name)
	}
}

func TestNew_RejectsCollidingFixtures(t *testing.T) {
	extra := fixture.NewSet("custom")
	fixture.ProvideValue(extra, fixture.NewKey[string]("page"), func() string { return "shadow" })

	_, err := e2ekit.NewWithOptions(config.Default(), e2ekit.Options{Fixtures: []*fixture.Set{extra}})
	require.ErrorIs(t, err, fixture.ErrDuplicateFixture)
	assert.ErrorContains(t, err, `"browser"`)
	assert.ErrorContains(t, err, `"custom"`)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 0
	_, err := e2ekit.New(cfg)
	assert.Error(t, err)
}

var adminUser = fixture.NewKey[factory.User]("adminUser")

func TestRun_ConstructsOnlyRequestedFixtures(t *testing.T) {
	extra := fixture.NewSet("custom")
	fixture.Provide(extra, adminUser, func(s *fixture.Scope) (factory.User, fixture.Teardown, error) {
		u, err := factory.TestUserKey.Resolve(s)
		if err != nil {
			return factory.User{}, nil, err
		}
		u.Role = factory.RoleAdmin
		return u, nil, nil
	}, factory.TestUserKey)

	suite, err := e2ekit.NewWithOptions(config.Default(), e2ekit.Options{Fixtures: []*fixture.Set{extra}})
	require.NoError(t, err)
	defer suite.Close()

	var acquired []string
	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		admin := adminUser.Get(s)
		assert.Equal(t, factory.RoleAdmin, admin.Role)
		assert.Equal(t, admin.Email, factory.TestUserKey.Get(s).Email)

		_, deadline := s.Context().Deadline()
		assert.True(t, deadline, "scope carries the test timeout")

		acquired = s.Acquired()
	})

	// No browser was started for a data-only test.
	assert.Equal(t, []string{"testUser", "adminUser"}, acquired)
	assert.Empty(t, suite.Runtime().Project().Name)
}

func TestRun_SetupErrorSurfacesWithFixtureName(t *testing.T) {
	boom := errors.New("boom")
	broken := fixture.NewKey[int]("broken")
	extra := fixture.NewSet("custom")
	fixture.Provide(extra, broken, func(s *fixture.Scope) (int, fixture.Teardown, error) {
		return 0, nil, boom
	})

	suite, err := e2ekit.NewWithOptions(config.Default(), e2ekit.Options{Fixtures: []*fixture.Set{extra}})
	require.NoError(t, err)
	defer suite.Close()

	suite.Run(t, func(t *testing.T, s *fixture.Scope) {
		_, err := broken.Resolve(s)
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, `fixture "broken"`)
	})
}
