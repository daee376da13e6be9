package model

import (
	"testing"

	"github.com/vango-dev/vmodel/pkg/task"
)

// recorder collects every event a model fires.
type recorder struct {
	before  []*BeforeChange
	changes []Change
	updates []Update
}

func newTestModel(t *testing.T, seed map[string]any, opts ...Option) (*Model, *task.Queue, *recorder) {
	t.Helper()
	q := task.NewQueue()
	m, err := New(seed, append([]Option{WithScheduler(q)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	rec := &recorder{}
	m.OnBeforeChange(func(e *BeforeChange) { rec.before = append(rec.before, e) })
	m.OnChange(func(c Change) { rec.changes = append(rec.changes, c) })
	m.OnUpdate(func(u Update) { rec.updates = append(rec.updates, u) })
	return m, q, rec
}

func mustGet(t *testing.T, m *Model, name string) any {
	t.Helper()
	v, err := m.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) error: %v", name, err)
	}
	return v
}

func mustSet(t *testing.T, m *Model, name string, v any, opts ...Options) {
	t.Helper()
	if err := m.Set(name, v, opts...); err != nil {
		t.Fatalf("Set(%q) error: %v", name, err)
	}
}

func (r *recorder) changeNames() []string {
	names := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		names = append(names, c.Name)
	}
	return names
}
