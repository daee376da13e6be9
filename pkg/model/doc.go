// Package model provides an observable key/value store with computed
// properties and batched, structural change notifications.
//
// # Properties
//
// A Model maps names to arbitrary values:
//
//	m, _ := model.New(map[string]any{"width": 2, "height": 3})
//	m.Set("width", 3)
//	w, _ := m.Get("width") // 3
//	m.Remove("height")
//
// Every write goes through the same pipeline: a cancellable beforechange
// event, the assignment, the batch merge, and a change event.
//
//	m.OnBeforeChange(func(e *model.BeforeChange) {
//	    if e.Name == "locked" {
//	        e.PreventDefault()
//	    }
//	})
//
// # Computed properties
//
// A computed property is derived from other properties and re-evaluates
// whenever one of its dependencies commits a change:
//
//	m.DefineComputed("size", model.Computed{
//	    Dependencies: []string{"width", "height"},
//	    Get: func(m *model.Model) (any, error) {
//	        return fmt.Sprintf("%v*%v", m.MustGet("width"), m.MustGet("height")), nil
//	    },
//	    Evaluate: true,
//	})
//
// Re-evaluations cascade through further computed properties, dependents of
// each name in the order they were defined. Cycles are rejected when
// defined.
//
// # Batches
//
// Every committed change is folded into the current batch with diff.Merge.
// After the first change of a batch the model schedules one deferred task;
// when it runs, a single update event carries the net diff of the batch:
//
//	q := task.NewQueue()
//	m, _ := model.New(nil, model.WithScheduler(q))
//	m.OnUpdate(func(u model.Update) { fmt.Println(u.Diff.Keys()) })
//	m.Set("a", 1)
//	m.Set("b", 2)
//	q.Drain() // [a b]
//
// Update applies structural commands from package update and records the
// structural diff they produce.
//
// # Thread Safety
//
// A Model is not safe for concurrent use. Handlers run on the mutating
// goroutine and may call back into the model.
package model
