package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/vango-dev/vmodel/pkg/diff"
	"github.com/vango-dev/vmodel/pkg/update"
)

// Update applies a command tree to the model. Each top-level key of spec
// names a property; its subtree runs through the update algebra against
// the property's current value, and the result is written like Set but
// carrying the algebra's structural diff.
//
//	m.Update(update.Tree{
//	    "user": update.Tree{"name": update.Set("Ada")},
//	    "tags": update.Push("new"),
//	})
//
// Keys are processed in sorted order and each write may be cancelled by
// a beforechange handler. Computed dependents re-evaluate once, after all
// keys are written. A root command, which would replace the whole model,
// is rejected with an *InvalidArgumentError.
func (m *Model) Update(spec update.Spec, opts ...Options) (err error) {
	if m.disposed {
		return fmt.Errorf("update: %w", ErrDisposed)
	}
	tree, ok := spec.(update.Tree)
	if !ok {
		return invalidArg("update", "spec", "a root command cannot replace the whole model")
	}
	o := mergeOptions(opts)

	span := m.startSpan(spanUpdate, attrUpdateKeys.Int(len(tree)))
	defer func() { endSpan(span, err) }()

	m.holdPropagation()
	var applyErr error
	for _, name := range slices.Sorted(maps.Keys(tree)) {
		if name == "" {
			applyErr = invalidArg("update", "name", "property name is required")
			break
		}
		if applyErr = m.updateOne(name, tree[name], o); applyErr != nil {
			break
		}
		if m.disposed {
			break
		}
	}
	return errors.Join(applyErr, m.release(o))
}

func (m *Model) updateOne(name string, spec update.Spec, opts Options) error {
	p := m.resolve(name)
	v, present, err := p.get(m, name)
	if err != nil {
		return err
	}
	next, node, err := update.ApplyValue(diff.Value{Data: v, Present: present}, spec, m.cfg.equal)
	if err != nil {
		return fmt.Errorf("update %q: %w", name, err)
	}
	if diff.Empty(node) {
		return nil
	}
	return p.set(m, name, next, node, opts)
}
