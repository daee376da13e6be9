// Package task provides the deferred-task primitive the model uses to run
// its batched notification "on the next turn".
//
// There is no hidden goroutine: the owner of a Queue decides when the next
// turn happens by calling Drain from its own loop.
//
//	q := task.NewQueue()
//	m, _ := model.New(nil, model.WithScheduler(q))
//	m.Set("a", 1)
//	m.Set("b", 2)
//	q.Drain() // one "update" event for both writes
package task

// Scheduler defers fn to a later turn.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) {
	f(fn)
}

// Queue is a FIFO of deferred tasks. It is not safe for concurrent use.
type Queue struct {
	tasks []func()
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends fn to the queue.
func (q *Queue) Schedule(fn func()) {
	if fn == nil {
		return
	}
	q.tasks = append(q.tasks, fn)
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// RunPending runs the tasks that were pending when it was called. Tasks
// they schedule wait for the next call. It returns how many tasks ran.
func (q *Queue) RunPending() int {
	pending := q.tasks
	q.tasks = nil
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Drain runs tasks until the queue is empty, including tasks scheduled by
// the tasks it runs. It returns how many tasks ran.
func (q *Queue) Drain() int {
	n := 0
	for len(q.tasks) > 0 {
		n += q.RunPending()
	}
	return n
}
