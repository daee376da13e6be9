package model

import (
	"github.com/oklog/ulid/v2"
	"github.com/vango-dev/vmodel/pkg/diff"
)

// batchState accumulates the net diff between two update notifications.
// It belongs to exactly one Model and is only touched by its methods.
type batchState struct {
	id ulid.ULID

	// diff is the accumulated change keyed by top-level property.
	diff diff.Tree

	// original is the value of each touched property before the batch
	// began, used to correct old values when the shape of a diff changes.
	original map[string]diff.Value
}

func (b *batchState) reset() {
	*b = batchState{
		diff:     diff.Tree{},
		original: make(map[string]diff.Value),
	}
}

// record folds node, the change just committed to name, into the batch.
// before is the value name held right before this commit.
func (m *Model) record(name string, before diff.Value, node diff.Node) {
	b := &m.batch
	if _, ok := b.original[name]; !ok {
		b.original[name] = before
	}

	current := diff.Absent
	if v, ok := m.values[name]; ok {
		current = diff.Present(v)
	}

	merged := diff.Merge(b.diff[name], node, current, b.original[name], m.cfg.equal)
	if diff.Empty(merged) {
		delete(b.diff, name)
	} else {
		b.diff[name] = merged
	}

	if b.id == (ulid.ULID{}) {
		b.id = ulid.Make()
	}
	m.schedule()
}

// schedule queues the flush task unless one is already pending. Without a
// scheduler nothing is queued and only Flush delivers.
func (m *Model) schedule() {
	if m.queued || m.cfg.scheduler == nil {
		return
	}
	m.queued = true
	m.cfg.scheduler.Schedule(m.runScheduled)
}

// runScheduled flushes whatever the batch holds when the task runs. After
// a manual Flush that may be nothing, or writes made since.
func (m *Model) runScheduled() {
	m.queued = false
	if m.disposed {
		m.cfg.logger.Debug("vmodel: flush skipped, model disposed")
		return
	}
	m.flush()
}

// Flush fires the update notification for the current batch now, instead
// of waiting for the scheduler. It reports whether an update fired. A
// flush task already queued delivers the writes made after this call, if
// any.
func (m *Model) Flush() bool {
	if m.disposed {
		return false
	}
	return m.flush()
}

// PendingDiff returns a copy of the diff accumulated since the last
// update notification.
func (m *Model) PendingDiff() diff.Tree {
	if m.disposed {
		return diff.Tree{}
	}
	return m.batch.diff.Clone()
}

// flush resets the batch and, when it carried any change, fires the update
// event with it. Writes made by update handlers start the next batch.
func (m *Model) flush() bool {
	b := m.batch
	m.batch.reset()

	if len(b.diff) == 0 {
		return false
	}

	span := m.startSpan(spanFlush,
		attrBatchKeys.Int(len(b.diff)),
		attrBatchID.String(b.id.String()),
	)
	defer endSpan(span, nil)

	m.cfg.metrics.recordFlush(len(b.diff))
	m.cfg.logger.Debug("vmodel: flush", "batch", b.id.String(), "keys", b.diff.Keys())

	m.events.Fire(EventUpdate, Update{ID: b.id, Diff: b.diff})
	return true
}
