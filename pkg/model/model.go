package model

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vango-dev/vmodel/pkg/event"
)

// Model is an observable key/value store with computed properties and
// batched diffs.
//
// A Model is owned by one goroutine. Handlers run synchronously inside
// the mutating call and may mutate the model again.
type Model struct {
	cfg config

	// values is the store. Computed properties cache their value here
	// under their own name once evaluated.
	values map[string]any

	events event.Emitter

	// computed descriptors by name, and the reverse dependency index:
	// property name -> computed properties depending on it, in
	// registration order.
	computed   map[string]*computedProperty
	dependents map[string][]*computedProperty

	batch batchState
	prop  propagation

	// queued is set while a flush task sits on the scheduler. It outlives
	// batch resets so at most one task is ever queued.
	queued bool

	disposed bool
}

// New creates a model seeded with a shallow copy of seed.
func New(seed map[string]any, opts ...Option) (*Model, error) {
	for name := range seed {
		if name == "" {
			return nil, invalidArg("new", "seed", "empty property name")
		}
	}

	m := &Model{
		cfg:        resolveConfig(opts),
		values:     make(map[string]any, len(seed)),
		computed:   make(map[string]*computedProperty),
		dependents: make(map[string][]*computedProperty),
	}
	maps.Copy(m.values, seed)
	m.batch.reset()
	return m, nil
}

// check validates the common preconditions of named operations.
func (m *Model) check(op, name string) error {
	if m.disposed {
		return fmt.Errorf("%s %q: %w", op, name, ErrDisposed)
	}
	if name == "" {
		return invalidArg(op, "name", "property name is required")
	}
	return nil
}

// Get returns the value of name, or nil if it is absent. Reading a computed
// property that has not been evaluated yet evaluates and caches it.
func (m *Model) Get(name string) (any, error) {
	if err := m.check("get", name); err != nil {
		return nil, err
	}
	v, _, err := m.resolve(name).get(m, name)
	return v, err
}

// MustGet is like Get but panics on error. It is meant for computed
// getters, which read dependencies of a live model.
func (m *Model) MustGet(name string) any {
	v, err := m.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes value to name.
//
// Unless opts is silent, a cancellable beforechange event fires first and
// its ActualValue is what gets committed. If the committed value equals the
// current one nothing happens. Otherwise the value is stored, the change
// is folded into the current batch, a change event fires and computed
// properties depending on name are re-evaluated.
//
// Writing a computed property calls its setter, or fails with
// *ReadOnlyComputedPropertyError when it has none.
func (m *Model) Set(name string, value any, opts ...Options) error {
	if err := m.check("set", name); err != nil {
		return err
	}
	return m.resolve(name).set(m, name, value, nil, mergeOptions(opts))
}

// Remove deletes name. It is a no-op when name is absent.
func (m *Model) Remove(name string, opts ...Options) error {
	if err := m.check("remove", name); err != nil {
		return err
	}
	return m.resolve(name).remove(m, name, mergeOptions(opts))
}

// Fill sets every key of extension, in sorted key order. Each key is an
// independent write with its own events. Fill stops at the first error.
func (m *Model) Fill(extension map[string]any, opts ...Options) error {
	if m.disposed {
		return fmt.Errorf("fill: %w", ErrDisposed)
	}
	for _, name := range slices.Sorted(maps.Keys(extension)) {
		if err := m.Set(name, extension[name], opts...); err != nil {
			return err
		}
	}
	return nil
}

// Dump returns a shallow copy of the store. Computed properties appear
// once evaluated.
func (m *Model) Dump() map[string]any {
	out := make(map[string]any, len(m.values))
	if m.disposed {
		return out
	}
	maps.Copy(out, m.values)
	return out
}

// Keys returns the names currently in the store, sorted.
func (m *Model) Keys() []string {
	if m.disposed {
		return nil
	}
	return slices.Sorted(maps.Keys(m.values))
}

// Has reports whether name holds a value, nil included.
func (m *Model) Has(name string) bool {
	_, ok := m.lookup(name)
	return ok
}

// HasValue reports whether name holds a non-nil value.
func (m *Model) HasValue(name string) bool {
	v, ok := m.lookup(name)
	return ok && v != nil
}

// HasReadableValue reports whether name holds a value that is neither nil
// nor the empty string.
func (m *Model) HasReadableValue(name string) bool {
	v, ok := m.lookup(name)
	if !ok || v == nil {
		return false
	}
	s, isString := v.(string)
	return !isString || s != ""
}

func (m *Model) lookup(name string) (any, bool) {
	if m.disposed || name == "" {
		return nil, false
	}
	v, ok, err := m.resolve(name).get(m, name)
	if err != nil {
		return nil, false
	}
	return v, ok
}

// Disposed reports whether Dispose has been called.
func (m *Model) Disposed() bool {
	return m.disposed
}

// Dispose drops every handler, the store and the pending batch. Later
// mutations and reads fail with ErrDisposed; Has* report false and Dump is
// empty. Dispose is idempotent.
func (m *Model) Dispose() {
	if m.disposed {
		return
	}
	m.disposed = true
	m.events.Clear()
	m.values = make(map[string]any)
	m.batch.reset()
	m.prop = propagation{}
	m.cfg.logger.Debug("vmodel: disposed", "computed", len(m.computed))
}
