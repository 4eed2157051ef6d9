package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/api"
	"github.com/networkteam/e2ekit/browser"
	"github.com/networkteam/e2ekit/config"
	"github.com/networkteam/e2ekit/fixture"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://localhost:3000/api", "/health", "http://localhost:3000/api/health"},
		{"http://localhost:3000/api/", "users", "http://localhost:3000/api/users"},
		{"http://localhost:3000/api", "/users/42/products", "http://localhost:3000/api/users/42/products"},
		{"http://localhost:3000/api", "https://other.example.com/x", "https://other.example.com/x"},
		{"", "/health", "/health"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, api.JoinURL(tt.base, tt.path), "%s + %s", tt.base, tt.path)
	}
}

func TestHeaders(t *testing.T) {
	plain := api.Headers("")
	assert.Equal(t, "application/json", plain["Content-Type"])
	assert.Equal(t, "application/json", plain["Accept"])
	assert.NotContains(t, plain, "Authorization")

	authed := api.Headers("s3cret")
	assert.Equal(t, "Bearer s3cret", authed["Authorization"])
}

func TestFixtures_DependOnPlaywright(t *testing.T) {
	cfg := config.Default()
	rt := browser.NewRuntime(cfg, nil)

	registry, err := fixture.Merge(browser.Fixtures(rt), api.Fixtures(cfg))
	require.NoError(t, err)

	for _, key := range []fixture.Key[*api.Client]{api.APIClientKey, api.AuthedAPIClientKey} {
		plan, err := registry.Plan(key.Name())
		require.NoError(t, err)
		assert.Equal(t, []string{"playwright", key.Name()}, plan)
	}
}
