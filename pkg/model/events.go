package model

import (
	"github.com/oklog/ulid/v2"
	"github.com/vango-dev/vmodel/pkg/diff"
	"github.com/vango-dev/vmodel/pkg/event"
)

// Event names fired by a Model.
const (
	// EventBeforeChange fires before a write commits. Payload: *BeforeChange.
	EventBeforeChange = "beforechange"

	// EventChange fires after a write commits. Payload: Change.
	EventChange = "change"

	// EventUpdate fires once per batch, from the scheduler. Payload: Update.
	EventUpdate = "update"
)

// ChangeEventName returns the name of the change event scoped to one
// property, e.g. "change:width".
func ChangeEventName(name string) string {
	return EventChange + ":" + name
}

// BeforeChange describes a write that is about to commit.
type BeforeChange struct {
	Name     string
	Type     diff.ChangeType
	OldValue any
	NewValue any

	// ActualValue is what will be committed. Handlers may replace it.
	// It is ignored for removals.
	ActualValue any

	prevented bool
}

// PreventDefault cancels the write. Nothing is assigned, no diff is
// recorded and no change event fires.
func (b *BeforeChange) PreventDefault() {
	b.prevented = true
}

// Change describes a committed write.
type Change struct {
	Name     string
	Type     diff.ChangeType
	OldValue any
	NewValue any

	// Diff is the change as produced by this write: a leaf for Set and
	// Remove, the structural diff of the update algebra for Update.
	Diff diff.Node
}

// Update summarizes one batch.
type Update struct {
	// ID identifies the batch. IDs of successive batches sort in order.
	ID ulid.ULID

	// Diff is the net change of the batch, keyed by top-level property.
	Diff diff.Tree
}

// On registers a raw handler for any event name the model fires.
func (m *Model) On(name string, h event.Handler) (off func()) {
	if m.disposed {
		return func() {}
	}
	return m.events.On(name, h)
}

// OnBeforeChange registers fn for every beforechange event.
func (m *Model) OnBeforeChange(fn func(*BeforeChange)) (off func()) {
	return m.On(EventBeforeChange, func(e *event.Event) {
		if bc, ok := e.Payload.(*BeforeChange); ok {
			fn(bc)
		}
	})
}

// OnChange registers fn for every change event.
func (m *Model) OnChange(fn func(Change)) (off func()) {
	return m.On(EventChange, changeHandler(fn))
}

// OnChangeName registers fn for change events of one property.
func (m *Model) OnChangeName(name string, fn func(Change)) (off func()) {
	return m.On(ChangeEventName(name), changeHandler(fn))
}

// OnUpdate registers fn for batched update events.
func (m *Model) OnUpdate(fn func(Update)) (off func()) {
	return m.On(EventUpdate, func(e *event.Event) {
		if u, ok := e.Payload.(Update); ok {
			fn(u)
		}
	})
}

func changeHandler(fn func(Change)) event.Handler {
	return func(e *event.Event) {
		if c, ok := e.Payload.(Change); ok {
			fn(c)
		}
	}
}
