package model

import "github.com/vango-dev/vmodel/pkg/diff"

// propertyKind tells normal and computed properties apart.
type propertyKind int

const (
	kindNormal propertyKind = iota
	kindComputed
)

func (k propertyKind) String() string {
	if k == kindComputed {
		return "computed"
	}
	return "normal"
}

// property is the per-kind strategy behind Get, Set and Remove.
type property interface {
	kind() propertyKind

	// get returns the value and whether the store holds one.
	get(m *Model, name string) (any, bool, error)

	// set writes value. node, when non-nil, is the diff already computed
	// by the update algebra for this write.
	set(m *Model, name string, value any, node diff.Node, opts Options) error

	remove(m *Model, name string, opts Options) error
}

// kindOf resolves the kind of name once per operation.
func (m *Model) kindOf(name string) propertyKind {
	if _, ok := m.computed[name]; ok {
		return kindComputed
	}
	return kindNormal
}

func (m *Model) resolve(name string) property {
	if m.kindOf(name) == kindComputed {
		return m.computed[name]
	}
	return normalProperty{}
}

// normalProperty stores values as given.
type normalProperty struct{}

func (normalProperty) kind() propertyKind { return kindNormal }

func (normalProperty) get(m *Model, name string) (any, bool, error) {
	v, ok := m.values[name]
	return v, ok, nil
}

func (normalProperty) set(m *Model, name string, value any, node diff.Node, opts Options) error {
	_, err := m.commit(write{
		name:  name,
		value: value,
		node:  node,
		opts:  opts,
		hook:  true,
	})
	return err
}

func (normalProperty) remove(m *Model, name string, opts Options) error {
	_, err := m.commit(write{
		name:   name,
		remove: true,
		opts:   opts,
		hook:   true,
	})
	return err
}
