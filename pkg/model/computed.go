package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/vmodel/pkg/diff"
)

// Getter derives a computed property from the model. It should only read
// the declared dependencies.
type Getter func(m *Model) (any, error)

// Setter writes a computed property by writing its dependencies.
type Setter func(m *Model, value any, opts Options) error

// Computed describes a derived property.
type Computed struct {
	// Dependencies are the names whose changes re-evaluate the property.
	Dependencies []string

	// Get computes the value. Required.
	Get Getter

	// Set makes the property writable. Optional.
	Set Setter

	// Evaluate computes and caches the value at definition time instead of
	// on first read.
	Evaluate bool
}

// computedProperty is the registered form of a Computed.
type computedProperty struct {
	name   string
	deps   []string
	index  int // registration order
	getter Getter
	setter Setter

	// evaluating guards against a getter reading its own property.
	evaluating bool
}

// DefineComputed registers name as a computed property. It is meant to be
// called while the model is being set up, before it is shared.
//
// Defining a property that would depend on itself, directly or through
// other computed properties, fails with ErrCircularDependency.
func (m *Model) DefineComputed(name string, c Computed) error {
	if m.disposed {
		return fmt.Errorf("define %q: %w", name, ErrDisposed)
	}
	if name == "" {
		return invalidArg("define", "name", "property name is required")
	}
	if c.Get == nil {
		return invalidArg("define", "getter", fmt.Sprintf("computed property %q needs a getter", name))
	}
	if _, ok := m.computed[name]; ok {
		return invalidArg("define", "name", fmt.Sprintf("computed property %q is already defined", name))
	}

	deps := make([]string, 0, len(c.Dependencies))
	for _, dep := range c.Dependencies {
		if dep == "" {
			return invalidArg("define", "dependencies", "empty dependency name")
		}
		if !slices.Contains(deps, dep) {
			deps = append(deps, dep)
		}
	}
	if path := m.cyclePath(name, deps); path != nil {
		return &CycleError{Path: path}
	}

	cp := &computedProperty{
		name:   name,
		deps:   deps,
		index:  len(m.computed),
		getter: c.Get,
		setter: c.Set,
	}
	m.computed[name] = cp
	for _, dep := range deps {
		m.dependents[dep] = append(m.dependents[dep], cp)
	}

	// A plain value under the same name is dropped so the first read runs
	// the getter.
	prev, seeded := m.values[name]
	delete(m.values, name)

	if c.Evaluate {
		if _, err := cp.evaluate(m); err != nil {
			m.undefine(cp)
			if seeded {
				m.values[name] = prev
			}
			return err
		}
	}
	return nil
}

// DefineGetter registers a read-only computed property.
func (m *Model) DefineGetter(name string, deps []string, get Getter) error {
	return m.DefineComputed(name, Computed{Dependencies: deps, Get: get})
}

// IsComputed reports whether name is a computed property.
func (m *Model) IsComputed(name string) bool {
	return m.kindOf(name) == kindComputed
}

// Dependents returns the computed properties that depend on name, in
// registration order.
func (m *Model) Dependents(name string) []string {
	out := make([]string, 0, len(m.dependents[name]))
	for _, cp := range m.dependents[name] {
		out = append(out, cp.name)
	}
	return out
}

func (m *Model) undefine(cp *computedProperty) {
	delete(m.computed, cp.name)
	for _, dep := range cp.deps {
		m.dependents[dep] = slices.DeleteFunc(m.dependents[dep], func(other *computedProperty) bool {
			return other == cp
		})
		if len(m.dependents[dep]) == 0 {
			delete(m.dependents, dep)
		}
	}
}

// cyclePath returns the dependency path that adding name with deps would
// close, or nil. The graph is acyclic before the call, so the walk ends.
func (m *Model) cyclePath(name string, deps []string) []string {
	if slices.Contains(deps, name) {
		return []string{name, name}
	}

	visited := make(map[string]bool)
	var walk func(path []string) []string
	walk = func(path []string) []string {
		cur := path[len(path)-1]
		for _, cp := range m.dependents[cur] {
			if visited[cp.name] {
				continue
			}
			visited[cp.name] = true
			next := append(slices.Clone(path), cp.name)
			if slices.Contains(deps, cp.name) {
				return append(next, name)
			}
			if found := walk(next); found != nil {
				return found
			}
		}
		return nil
	}
	return walk([]string{name})
}

func (cp *computedProperty) kind() propertyKind { return kindComputed }

func (cp *computedProperty) get(m *Model, name string) (any, bool, error) {
	if v, ok := m.values[name]; ok {
		return v, true, nil
	}
	v, err := cp.evaluate(m)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (cp *computedProperty) set(m *Model, name string, value any, node diff.Node, opts Options) error {
	if cp.setter == nil {
		return &ReadOnlyComputedPropertyError{Name: name}
	}

	m.prop.quiet++
	m.holdPropagation()
	err := cp.setter(m, value, opts)
	if m.prop.quiet > 0 {
		m.prop.quiet--
	}
	return errors.Join(err, m.release(opts, cp.deps...))
}

func (cp *computedProperty) remove(m *Model, name string, opts Options) error {
	return &ReadOnlyComputedPropertyError{Name: name}
}

// compute runs the getter without touching the store.
func (cp *computedProperty) compute(m *Model) (any, error) {
	if cp.evaluating {
		return nil, &CycleError{Path: []string{cp.name, cp.name}}
	}
	cp.evaluating = true
	defer func() { cp.evaluating = false }()

	v, err := cp.getter(m)
	if err != nil {
		return nil, fmt.Errorf("computed %q: %w", cp.name, err)
	}
	return v, nil
}

// evaluate computes the value and caches it without any notification:
// it establishes the initial value rather than changing it.
func (cp *computedProperty) evaluate(m *Model) (any, error) {
	v, err := cp.compute(m)
	if err != nil {
		return nil, err
	}
	if !m.disposed {
		m.values[cp.name] = v
	}
	return v, nil
}

// propagate re-evaluates every computed property depending on any of
// names, each once, in registration order. Each result goes through the
// commit pipeline, which cascades to further dependents.
func (m *Model) propagate(names []string, opts Options) error {
	seen := make(map[*computedProperty]bool)
	var targets []*computedProperty
	for _, name := range names {
		for _, cp := range m.dependents[name] {
			if !seen[cp] {
				seen[cp] = true
				targets = append(targets, cp)
			}
		}
	}
	slices.SortFunc(targets, func(a, b *computedProperty) int {
		return cmp.Compare(a.index, b.index)
	})

	for _, cp := range targets {
		if m.disposed {
			return nil
		}
		if err := m.reevaluate(cp, opts); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) reevaluate(cp *computedProperty, opts Options) error {
	v, err := cp.compute(m)
	if err != nil {
		return err
	}
	m.cfg.metrics.recordReevaluation(cp.name)
	m.cfg.logger.Debug("vmodel: re-evaluated", "name", cp.name)

	_, err = m.commit(write{
		name:  cp.name,
		value: v,
		opts:  Options{Silent: opts.Silent},
	})
	return err
}
