package pages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/fixture"
	"github.com/networkteam/e2ekit/pages"
)

func TestFixtures_EveryPageObjectUsesTheDefaultPage(t *testing.T) {
	_, err := fixture.Merge(pages.Fixtures())
	require.ErrorIs(t, err, fixture.ErrUnknownDependency, "page objects need the browser set")

	rt := browser.NewRuntime(config.Default(), nil)
	registry, err := fixture.Merge(browser.Fixtures(rt), pages.Fixtures())
	require.NoError(t, err)

	names := pages.Fixtures().Names()
	assert.Len(t, names, 8)
	for _, name := range names {
		deps, err := registry.Dependencies(name)
		require.NoError(t, err)
		assert.Equal(t, []string{"page"}, deps, name)
	}
}
