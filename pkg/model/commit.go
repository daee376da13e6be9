package model

import (
	"github.com/vango-dev/vmodel/pkg/diff"
)

// write is one pass through the commit pipeline.
type write struct {
	name   string
	value  any
	remove bool

	// node is a diff supplied by the update algebra. When nil the
	// pipeline records a leaf for the whole value.
	node diff.Node

	opts Options

	// hook enables the beforechange event. Re-evaluations of computed
	// properties never fire it.
	hook bool
}

// commit runs the pipeline: beforechange, assignment, batch merge, change
// event, propagation. It reports whether anything was committed.
func (m *Model) commit(w write) (bool, error) {
	old, present := m.values[w.name]

	ct := diff.Change
	switch {
	case w.remove && !present:
		return false, nil
	case w.remove:
		ct = diff.Remove
		w.value = nil
	case !present:
		ct = diff.Add
	}

	if w.hook && !w.opts.Silent && m.prop.quiet == 0 && m.events.Has(EventBeforeChange) {
		bc := &BeforeChange{
			Name:        w.name,
			Type:        ct,
			OldValue:    old,
			NewValue:    w.value,
			ActualValue: w.value,
		}
		ev := m.events.Fire(EventBeforeChange, bc)
		if m.disposed {
			return false, ErrDisposed
		}
		if ev.IsDefaultPrevented() || bc.prevented {
			m.cfg.metrics.recordCancel()
			m.cfg.logger.Debug("vmodel: write cancelled", "name", w.name, "change", ct)
			return false, nil
		}
		if !w.remove && !m.cfg.equal(bc.ActualValue, w.value) {
			// The algebra's diff no longer describes what is committed.
			w.value = bc.ActualValue
			w.node = nil
		}
		// Handlers may have written the same name.
		prevOld, prevPresent := old, present
		old, present = m.values[w.name]
		if present != prevPresent || !m.cfg.equal(old, prevOld) {
			w.node = nil
		}
		switch {
		case w.remove && !present:
			return false, nil
		case !w.remove && present:
			ct = diff.Change
		case !w.remove:
			ct = diff.Add
		}
	}

	if !w.remove && m.cfg.equal(old, w.value) {
		return false, nil
	}

	if w.remove {
		delete(m.values, w.name)
	} else {
		m.values[w.name] = w.value
	}

	node := w.node
	if diff.Empty(node) {
		node = &diff.Leaf{Type: ct, OldValue: old, NewValue: w.value}
	}
	if !w.opts.Silent || m.cfg.silent == SilentContributes {
		m.record(w.name, diff.Value{Data: old, Present: present}, node)
	}
	m.cfg.metrics.recordCommit(m.kindOf(w.name), ct)

	if !w.opts.Silent {
		c := Change{
			Name:     w.name,
			Type:     ct,
			OldValue: old,
			NewValue: w.value,
			Diff:     node,
		}
		m.events.Fire(EventChange, c)
		m.events.Fire(ChangeEventName(w.name), c)
		if m.disposed {
			return true, nil
		}
	}

	return true, m.changed(w.name, w.opts)
}

// propagation holds the reentrancy counters of the computed engine.
type propagation struct {
	// quiet > 0 suppresses beforechange, while a computed setter runs.
	quiet int

	// hold > 0 defers re-evaluation of dependents, while a computed setter
	// or an Update runs. Changed names collect in pending.
	hold    int
	pending []string
}

// changed re-evaluates the dependents of name, or queues name while
// propagation is held.
func (m *Model) changed(name string, opts Options) error {
	if len(m.dependents[name]) == 0 {
		return nil
	}
	if m.prop.hold > 0 {
		m.prop.pending = append(m.prop.pending, name)
		return nil
	}
	return m.propagate([]string{name}, opts)
}

// holdPropagation defers re-evaluation until the matching release.
func (m *Model) holdPropagation() {
	m.prop.hold++
}

// release ends a hold. When the outermost hold ends, dependents of every
// name changed meanwhile, plus extra, are re-evaluated once each.
func (m *Model) release(opts Options, extra ...string) error {
	if m.prop.hold > 0 {
		m.prop.hold--
	}
	if m.prop.hold > 0 {
		m.prop.pending = append(m.prop.pending, extra...)
		return nil
	}
	names := append(m.prop.pending, extra...)
	m.prop.pending = nil
	if m.disposed || len(names) == 0 {
		return nil
	}
	return m.propagate(names, opts)
}
