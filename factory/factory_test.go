package factory_test

import (
	"math"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/networkteam/e2ekit/factory"
	"github.com/networkteam/e2ekit/fixture"
)

var alnum = regexp.MustCompile(`^[a-z0-9]*$`)

func TestRandomString_LengthAndAlphabet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		s := factory.RandomString(n)
		if len(s) != n {
			t.Fatalf("expected length %d, got %d (%q)", n, len(s), s)
		}
		if !alnum.MatchString(s) {
			t.Fatalf("unexpected characters in %q", s)
		}
	})
}

func TestRandomString_DefaultLength(t *testing.T) {
	assert.Len(t, factory.RandomString(0), 8)
	assert.Len(t, factory.RandomString(-3), 8)
}

func TestNewUser(t *testing.T) {
	u := factory.NewUser()

	assert.Regexp(t, `^Test User [a-z0-9]{6}$`, u.Name)
	assert.Regexp(t, `^test\.user\.[a-z0-9]+@qa\.example\.com$`, u.Email)
	assert.True(t, strings.HasPrefix(u.Password, "Passw0rd!"))
	assert.Equal(t, factory.RoleEditor, u.Role)
}

func TestNewUser_EmailsAreUniqueAcrossGoroutines(t *testing.T) {
	const workers, perWorker = 8, 250

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				email := factory.NewUser().Email
				mu.Lock()
				seen[email] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestNewProduct(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := factory.NewProduct()
		require.GreaterOrEqual(t, p.Price, 9.99)
		require.LessOrEqual(t, p.Price, 109.99)

		cents := p.Price * 100
		require.InDelta(t, math.Round(cents), cents, 1e-6, "price %v has more than two decimals", p.Price)
		require.True(t, strings.HasPrefix(p.SKU, "SKU-"), p.SKU)
		require.Equal(t, strings.ToUpper(p.SKU), p.SKU)
		require.Equal(t, "Electronics", p.Category)
	}

	assert.NotEqual(t, factory.NewProduct().SKU, factory.NewProduct().SKU)
}

func TestTimestampAt(t *testing.T) {
	ts := time.Date(2026, 2, 19, 11, 30, 45, 123_000_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2026-02-19T10-30-45-123Z", factory.TimestampAt(ts))

	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}Z$`, factory.Timestamp())
}

func TestFixtures_FreshValuesPerScope(t *testing.T) {
	registry, err := fixture.Merge(factory.Fixtures())
	require.NoError(t, err)

	var first, second factory.User
	fixture.Run(t, registry, func(s *fixture.Scope) {
		first = factory.TestUserKey.Get(s)
		assert.Equal(t, first, factory.TestUserKey.Get(s), "same value within a scope")

		random := factory.RandomStringKey.Get(s)
		assert.NotEqual(t, random(12), random(12))
	})
	fixture.Run(t, registry, func(s *fixture.Scope) {
		second = factory.TestUserKey.Get(s)
		assert.NotEmpty(t, factory.TimestampKey.Get(s))
	})

	assert.NotEqual(t, first.Email, second.Email)
}
