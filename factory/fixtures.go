package factory

import "github.com/networkteam/e2ekit/fixture"

// RandomStringFunc generates a random [a-z0-9] string of length n.
type RandomStringFunc func(n int) string

var (
	TestUserKey     = fixture.NewKey[User]("testUser")
	TestProductKey  = fixture.NewKey[Product]("testProduct")
	TimestampKey    = fixture.NewKey[string]("timestamp")
	RandomStringKey = fixture.NewKey[RandomStringFunc]("randomString")
)

// Fixtures returns the data fixtures. None of them has dependencies or
// teardown; every test gets fresh values.
func Fixtures() *fixture.Set {
	set := fixture.NewSet("data")
	fixture.ProvideValue(set, TestUserKey, NewUser)
	fixture.ProvideValue(set, TestProductKey, NewProduct)
	fixture.ProvideValue(set, TimestampKey, Timestamp)
	fixture.ProvideValue(set, RandomStringKey, func() RandomStringFunc { return RandomString })
	return set
}
