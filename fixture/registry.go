package fixture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrDuplicateFixture is returned by Merge when two definitions share a name.
	ErrDuplicateFixture = errors.New("duplicate fixture")
	// ErrUnknownDependency is returned by Merge when a definition depends on a name no set provides.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrCycle is returned by Merge when the dependency graph is not acyclic.
	ErrCycle = errors.New("dependency cycle")
	// ErrUnknownFixture is returned when resolving a name that is not registered.
	ErrUnknownFixture = errors.New("unknown fixture")
)

// Teardown releases whatever a setup acquired. A nil Teardown is allowed.
type Teardown func() error

// Named is implemented by every Key and lets keys of different value types
// be listed as dependencies of one fixture.
type Named interface {
	Name() string
}

type definition struct {
	name  string
	set   string
	deps  []string
	setup func(s *Scope) (any, Teardown, error)
}

// Set is a group of fixtures authored together, e.g. everything about
// authentication. Sets are combined with Merge.
type Set struct {
	name string
	defs []*definition
}

// NewSet creates an empty set. The name only shows up in error messages.
func NewSet(name string) *Set {
	return &Set{name: name}
}

// Name returns the name the set was created with.
func (s *Set) Name() string {
	return s.name
}

// Names returns the fixture names of the set in definition order.
func (s *Set) Names() []string {
	return lo.Map(s.defs, func(d *definition, _ int) string { return d.name })
}

// Provide defines the fixture identified by key in set. The setup runs
// lazily the first time a scope resolves the key, after all deps have been
// resolved in the given order.
func Provide[T any](set *Set, key Key[T], setup func(s *Scope) (T, Teardown, error), deps ...Named) {
	set.defs = append(set.defs, &definition{
		name: key.Name(),
		set:  set.name,
		deps: lo.Map(deps, func(d Named, _ int) string { return d.Name() }),
		setup: func(s *Scope) (any, Teardown, error) {
			return setup(s)
		},
	})
}

// ProvideValue defines a fixture without dependencies or teardown that
// builds its value with fn.
func ProvideValue[T any](set *Set, key Key[T], fn func() T) {
	Provide(set, key, func(*Scope) (T, Teardown, error) {
		return fn(), nil, nil
	})
}

// Registry is the merged, validated fixture namespace.
type Registry struct {
	defs  map[string]*definition
	order []string
}

// Merge combines sets into one namespace. Names must be unique across all
// sets, every dependency must be provided by some set and the graph must be
// acyclic.
func Merge(sets ...*Set) (*Registry, error) {
	r := &Registry{defs: make(map[string]*definition)}

	for _, set := range sets {
		for _, def := range set.defs {
			if existing, ok := r.defs[def.name]; ok {
				return nil, fmt.Errorf("%w: %q provided by both %q and %q", ErrDuplicateFixture, def.name, existing.set, def.set)
			}
			r.defs[def.name] = def
			r.order = append(r.order, def.name)
		}
	}

	for _, name := range r.order {
		def := r.defs[name]
		for _, dep := range def.deps {
			if _, ok := r.defs[dep]; !ok {
				return nil, fmt.Errorf("%w: %q (set %q) depends on %q", ErrUnknownDependency, def.name, def.set, dep)
			}
		}
	}

	if _, err := r.Plan(r.order...); err != nil {
		return nil, err
	}

	return r, nil
}

// MustMerge is like Merge but panics on error.
func MustMerge(sets ...*Set) *Registry {
	r, err := Merge(sets...)
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns all registered fixture names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Has reports whether a fixture with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Dependencies returns the declared dependencies of a fixture.
func (r *Registry) Dependencies(name string) ([]string, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFixture, name)
	}
	return append([]string(nil), def.deps...), nil
}

// Plan returns the construction order for the given fixtures and their
// transitive dependencies: every fixture appears after its dependencies,
// dependencies in declared order. This is the order a Scope acquires them in.
func (r *Registry) Plan(names ...string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(r.defs))
	var (
		plan  []string
		stack []string
	)

	var visit func(name string) error
	visit = func(name string) error {
		def, ok := r.defs[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFixture, name)
		}
		switch state[name] {
		case done:
			return nil
		case visiting:
			idx := lo.IndexOf(stack, name)
			path := append(append([]string(nil), stack[idx:]...), name)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
		}

		state[name] = visiting
		stack = append(stack, name)
		for _, dep := range def.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		plan = append(plan, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return plan, nil
}
