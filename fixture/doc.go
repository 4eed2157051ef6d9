// Package fixture implements named, lazily constructed test dependencies.
//
// Fixtures are defined in Sets, merged into a Registry and resolved per test
// through a Scope:
//
//	var Greeting = fixture.NewKey[string]("greeting")
//
//	set := fixture.NewSet("demo")
//	fixture.ProvideValue(set, Greeting, func() string { return "hello" })
//	registry := fixture.MustMerge(set)
//
//	fixture.Run(t, registry, func(s *fixture.Scope) {
//		assert.Equal(t, "hello", Greeting.Get(s))
//	})
//
// A fixture is constructed at most once per scope, after its declared
// dependencies, and torn down in reverse acquisition order when the scope
// closes.
package fixture
