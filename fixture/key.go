package fixture

import "fmt"

// Key identifies a fixture and the type of value it yields.
type Key[T any] struct {
	name string
}

// NewKey creates a key for a fixture called name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the fixture name.
func (k Key[T]) Name() string {
	return k.name
}

// Resolve constructs the fixture in s if needed and returns its value.
func (k Key[T]) Resolve(s *Scope) (T, error) {
	var zero T
	v, err := s.Resolve(k.name)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("fixture %q yields %T, not %T", k.name, v, zero)
	}
	return typed, nil
}

// Get is like Resolve but fails the scope's test on error.
// It must not be called on a scope created without a testing.TB.
func (k Key[T]) Get(s *Scope) T {
	tb := s.TB()
	if tb == nil {
		panic(fmt.Sprintf("fixture %q: Get called on a scope without testing.TB", k.name))
	}
	tb.Helper()

	v, err := k.Resolve(s)
	if err != nil {
		tb.Fatalf("fixture %q: %v", k.name, err)
	}
	return v
}
