package network_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/networkteam/e2ekit/network"
)

const baseURL = "http://localhost:3000"

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern any
		url     string
		want    bool
	}{
		{"relative literal", "/api/products", "http://localhost:3000/api/products", true},
		{"relative literal with query", "/api/products", "http://localhost:3000/api/products?page=2", true},
		{"relative literal other path", "/api/products", "http://localhost:3000/api/products/1", false},
		{"relative literal other host", "/api/products", "http://example.com/api/products", false},
		{"absolute literal", "http://localhost:3000/api/health", "http://localhost:3000/api/health", true},
		{"double star crosses segments", "/api/admin/**", "http://localhost:3000/api/admin/users/1", true},
		{"double star needs prefix", "/api/admin/**", "http://localhost:3000/api/users", false},
		{"single star stays in segment", "/api/*/stats", "http://localhost:3000/api/dashboard/stats", true},
		{"single star does not cross", "/api/*/stats", "http://localhost:3000/api/a/b/stats", false},
		{"alternation", "/api/{users,products}", "http://localhost:3000/api/products", true},
		{"alternation miss", "/api/{users,products}", "http://localhost:3000/api/orders", false},
		{"analytics glob", "**/google-analytics.com/**", "https://google-analytics.com/collect?v=1", true},
		{"analytics glob unrelated", "**/google-analytics.com/**", "http://localhost:3000/app.js", false},
		{"regexp", regexp.MustCompile(`.*/auth/.*`), "http://localhost:3000/api/auth/login", true},
		{"regexp miss", regexp.MustCompile(`.*/auth/.*`), "http://localhost:3000/api/users", false},
		{"dots are literal", "/api/v1.0/x", "http://localhost:3000/api/v1x0/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := network.ParsePattern(tt.pattern, baseURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.url))
		})
	}
}

func TestPattern_RelativeToBasePath(t *testing.T) {
	p, err := network.ParsePattern("stats", "http://localhost:3000/api/dashboard/")
	require.NoError(t, err)
	assert.True(t, p.Match("http://localhost:3000/api/dashboard/stats"))
}

func TestPattern_Invalid(t *testing.T) {
	for _, p := range []any{"", 42, "/api/{users", (*regexp.Regexp)(nil)} {
		_, err := network.ParsePattern(p, baseURL)
		assert.ErrorIs(t, err, network.ErrInvalidPattern, "%v", p)
	}
}
