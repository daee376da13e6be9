package model

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vango-dev/vmodel/pkg/diff"
	"github.com/vango-dev/vmodel/pkg/event"
)

func TestNewCopiesSeed(t *testing.T) {
	seed := map[string]any{"a": 1}
	m, _, _ := newTestModel(t, seed)

	seed["a"] = 2
	seed["b"] = 3
	if got := mustGet(t, m, "a"); got != 1 {
		t.Errorf("seed was aliased: a=%v", got)
	}
	if m.Has("b") {
		t.Error("seed was aliased: b present")
	}
}

func TestNewRejectsEmptySeedKey(t *testing.T) {
	_, err := New(map[string]any{"": 1})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestGetSetRemove(t *testing.T) {
	m, _, rec := newTestModel(t, nil)

	if got := mustGet(t, m, "missing"); got != nil {
		t.Errorf("expected nil for missing key, got %v", got)
	}

	mustSet(t, m, "a", 1)
	mustSet(t, m, "a", 2)
	if got := mustGet(t, m, "a"); got != 2 {
		t.Errorf("expected 2, got %v", got)
	}

	if err := m.Remove("a"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if m.Has("a") {
		t.Error("expected a removed")
	}

	want := []diff.ChangeType{diff.Add, diff.Change, diff.Remove}
	if len(rec.changes) != len(want) {
		t.Fatalf("expected %d change events, got %d", len(want), len(rec.changes))
	}
	for i, c := range rec.changes {
		if c.Type != want[i] {
			t.Errorf("change %d: expected %v, got %v", i, want[i], c.Type)
		}
	}
	last := rec.changes[2]
	if last.OldValue != 2 || last.NewValue != nil {
		t.Errorf("unexpected remove payload %#v", last)
	}
}

func TestSetSameValueIsNoOp(t *testing.T) {
	m, q, rec := newTestModel(t, map[string]any{"a": 1, "list": []any{1, 2}})

	mustSet(t, m, "a", 1)
	mustSet(t, m, "list", []any{1, 2})
	mustSet(t, m, "absent", nil)

	if len(rec.changes) != 0 {
		t.Errorf("expected no change events, got %v", rec.changeNames())
	}
	if q.Len() != 0 {
		t.Errorf("expected no flush scheduled, got %d tasks", q.Len())
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	m, _, rec := newTestModel(t, nil)
	if err := m.Remove("nope"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.before) != 0 || len(rec.changes) != 0 {
		t.Error("remove of absent key fired events")
	}
}

func TestInvalidName(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	if _, err := m.Get(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Get: expected ErrInvalidArgument, got %v", err)
	}
	if err := m.Set("", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Set: expected ErrInvalidArgument, got %v", err)
	}
	if err := m.Remove(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Remove: expected ErrInvalidArgument, got %v", err)
	}

	var iae *InvalidArgumentError
	if err := m.Set("", 1); !errors.As(err, &iae) || iae.Op != "set" || iae.Arg != "name" {
		t.Errorf("expected *InvalidArgumentError for set/name, got %#v", err)
	}
}

func TestFinalStateIsLastCommittedValue(t *testing.T) {
	m, _, _ := newTestModel(t, nil)

	ops := []struct {
		name   string
		value  any
		remove bool
	}{
		{name: "a", value: 1},
		{name: "b", value: "x"},
		{name: "a", value: 2},
		{name: "b", remove: true},
		{name: "c", value: true},
		{name: "a", value: 2},
		{name: "b", value: "y"},
	}
	want := map[string]any{}
	for _, op := range ops {
		if op.remove {
			if err := m.Remove(op.name); err != nil {
				t.Fatal(err)
			}
			delete(want, op.name)
			continue
		}
		mustSet(t, m, op.name, op.value)
		want[op.name] = op.value
	}

	for name, v := range want {
		if got := mustGet(t, m, name); got != v {
			t.Errorf("%s: expected %v, got %v", name, v, got)
		}
	}
	if got := m.Dump(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dump: expected %v, got %v", want, got)
	}
}

func TestDumpIsACopy(t *testing.T) {
	m, _, _ := newTestModel(t, map[string]any{"a": 1})

	d := m.Dump()
	d["a"] = 99
	d["b"] = 2

	if got := mustGet(t, m, "a"); got != 1 {
		t.Errorf("mutating dump changed the store: a=%v", got)
	}
	if m.Has("b") {
		t.Error("mutating dump added a key to the store")
	}
}

func TestFill(t *testing.T) {
	m, _, rec := newTestModel(t, map[string]any{"a": 1})

	if err := m.Fill(map[string]any{"c": 3, "a": 10, "b": 2}); err != nil {
		t.Fatalf("Fill error: %v", err)
	}

	if got := rec.changeNames(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected one change per key in sorted order, got %v", got)
	}
	if len(rec.before) != 3 {
		t.Errorf("expected 3 beforechange events, got %d", len(rec.before))
	}
}

func TestHasVariants(t *testing.T) {
	m, _, _ := newTestModel(t, map[string]any{
		"nil":   nil,
		"empty": "",
		"zero":  0,
		"str":   "x",
	})

	tests := []struct {
		name                    string
		has, hasValue, readable bool
	}{
		{"nil", true, false, false},
		{"empty", true, true, false},
		{"zero", true, true, true},
		{"str", true, true, true},
		{"missing", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		if got := m.Has(tt.name); got != tt.has {
			t.Errorf("Has(%q) = %v, want %v", tt.name, got, tt.has)
		}
		if got := m.HasValue(tt.name); got != tt.hasValue {
			t.Errorf("HasValue(%q) = %v, want %v", tt.name, got, tt.hasValue)
		}
		if got := m.HasReadableValue(tt.name); got != tt.readable {
			t.Errorf("HasReadableValue(%q) = %v, want %v", tt.name, got, tt.readable)
		}
	}
}

func TestBeforeChangeCancellation(t *testing.T) {
	t.Run("cancelled add leaves key absent", func(t *testing.T) {
		m, q, rec := newTestModel(t, nil)
		m.OnBeforeChange(func(e *BeforeChange) { e.PreventDefault() })

		if err := m.Set("a", 1); err != nil {
			t.Fatalf("cancellation must not be an error, got %v", err)
		}
		if m.Has("a") {
			t.Error("cancelled add was committed")
		}
		if len(rec.changes) != 0 {
			t.Error("change fired for a cancelled write")
		}
		if len(m.PendingDiff()) != 0 || q.Len() != 0 {
			t.Error("cancelled write contributed to the batch")
		}
	})

	t.Run("cancelled change keeps prior value", func(t *testing.T) {
		m, _, rec := newTestModel(t, map[string]any{"a": 1})
		m.OnBeforeChange(func(e *BeforeChange) { e.PreventDefault() })

		mustSet(t, m, "a", 2)
		if got := mustGet(t, m, "a"); got != 1 {
			t.Errorf("expected prior value 1, got %v", got)
		}
		if len(rec.changes) != 0 {
			t.Error("change fired for a cancelled write")
		}
	})

	t.Run("cancelled remove keeps prior value", func(t *testing.T) {
		m, _, _ := newTestModel(t, map[string]any{"a": 1})
		m.OnBeforeChange(func(e *BeforeChange) {
			if e.Type == diff.Remove {
				e.PreventDefault()
			}
		})

		if err := m.Remove("a"); err != nil {
			t.Fatal(err)
		}
		if got := mustGet(t, m, "a"); got != 1 {
			t.Errorf("expected prior value 1, got %v", got)
		}
	})

	t.Run("raw handler can cancel", func(t *testing.T) {
		m, _, _ := newTestModel(t, nil)
		m.On(EventBeforeChange, func(e *event.Event) { e.PreventDefault() })
		mustSet(t, m, "a", 1)
		if m.Has("a") {
			t.Error("raw PreventDefault did not cancel")
		}
	})
}

func TestBeforeChangeUnsubscribed(t *testing.T) {
	m, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	mustSet(t, m, "a", 1)

	var fired int
	off := m.OnBeforeChange(func(e *BeforeChange) {
		fired++
		e.PreventDefault()
	})
	mustSet(t, m, "a", 2)
	if got := mustGet(t, m, "a"); got != 1 {
		t.Errorf("expected the handler to cancel, got a=%v", got)
	}

	off()
	if m.events.Has(EventBeforeChange) {
		t.Fatal("handler still registered after off")
	}
	mustSet(t, m, "a", 3)
	if got := mustGet(t, m, "a"); got != 3 {
		t.Errorf("expected a=3 once the handler is gone, got %v", got)
	}
	if fired != 1 {
		t.Errorf("expected 1 beforechange, got %d", fired)
	}
	if d := leafAt(t, m.PendingDiff(), "a"); d.Type != diff.Add || d.NewValue != 3 {
		t.Errorf("unexpected pending diff %#v", d)
	}
}

func TestBeforeChangePayloadAndActualValue(t *testing.T) {
	m, _, rec := newTestModel(t, map[string]any{"a": 1})
	m.OnBeforeChange(func(e *BeforeChange) {
		if e.Name == "a" {
			e.ActualValue = e.NewValue.(int) * 10
		}
	})

	mustSet(t, m, "a", 2)

	bc := rec.before[0]
	if bc.Name != "a" || bc.Type != diff.Change || bc.OldValue != 1 || bc.NewValue != 2 {
		t.Errorf("unexpected beforechange payload %#v", bc)
	}
	if got := mustGet(t, m, "a"); got != 20 {
		t.Errorf("expected actual value 20 committed, got %v", got)
	}
	if c := rec.changes[0]; c.NewValue != 20 {
		t.Errorf("change should report the committed value, got %v", c.NewValue)
	}
}

func TestActualValueEqualToOldIsNoOp(t *testing.T) {
	m, _, rec := newTestModel(t, map[string]any{"a": 1})
	m.OnBeforeChange(func(e *BeforeChange) { e.ActualValue = e.OldValue })

	mustSet(t, m, "a", 5)
	if got := mustGet(t, m, "a"); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if len(rec.changes) != 0 {
		t.Error("no-op after ActualValue rewrite still fired change")
	}
}

func TestChangeNameEvent(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	var got []any
	m.OnChangeName("a", func(c Change) { got = append(got, c.NewValue) })

	mustSet(t, m, "a", 1)
	mustSet(t, m, "b", 1)
	mustSet(t, m, "a", 2)

	if !reflect.DeepEqual(got, []any{1, 2}) {
		t.Errorf("expected change:a for a only, got %v", got)
	}
}

func TestSilentWrites(t *testing.T) {
	t.Run("contributes to batch by default", func(t *testing.T) {
		m, q, rec := newTestModel(t, nil)

		mustSet(t, m, "a", 1, Options{Silent: true})
		if len(rec.before) != 0 || len(rec.changes) != 0 {
			t.Error("silent write fired beforechange or change")
		}
		if got := mustGet(t, m, "a"); got != 1 {
			t.Errorf("silent write not committed: %v", got)
		}

		q.Drain()
		if len(rec.updates) != 1 {
			t.Fatalf("expected 1 update, got %d", len(rec.updates))
		}
		if l, ok := rec.updates[0].Diff["a"].(*diff.Leaf); !ok || l.Type != diff.Add {
			t.Errorf("expected silent add in batch diff, got %#v", rec.updates[0].Diff)
		}
	})

	t.Run("excluded by policy", func(t *testing.T) {
		m, q, rec := newTestModel(t, nil, WithSilentPolicy(SilentExcluded))

		mustSet(t, m, "a", 1, Options{Silent: true})
		mustSet(t, m, "b", 2)
		q.Drain()

		if len(rec.updates) != 1 {
			t.Fatalf("expected 1 update, got %d", len(rec.updates))
		}
		if _, ok := rec.updates[0].Diff["a"]; ok {
			t.Error("silent write should be excluded from the batch diff")
		}
		if _, ok := rec.updates[0].Diff["b"]; !ok {
			t.Error("loud write missing from the batch diff")
		}
	})

	t.Run("silent remove", func(t *testing.T) {
		m, _, rec := newTestModel(t, map[string]any{"a": 1})
		if err := m.Remove("a", Options{Silent: true}); err != nil {
			t.Fatal(err)
		}
		if m.Has("a") || len(rec.changes) != 0 {
			t.Error("silent remove should delete without events")
		}
	})
}

func TestHandlerReentrancy(t *testing.T) {
	m, q, rec := newTestModel(t, nil)
	m.OnChangeName("a", func(c Change) {
		if err := m.Set("mirror", c.NewValue); err != nil {
			t.Errorf("reentrant set: %v", err)
		}
	})

	mustSet(t, m, "a", 1)
	mustSet(t, m, "a", 2)
	q.Drain()

	if got := mustGet(t, m, "mirror"); got != 2 {
		t.Errorf("expected mirror=2, got %v", got)
	}
	if len(rec.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(rec.updates))
	}
	if keys := rec.updates[0].Diff.Keys(); !reflect.DeepEqual(keys, []string{"a", "mirror"}) {
		t.Errorf("expected both keys in one batch, got %v", keys)
	}
}

func TestDispose(t *testing.T) {
	m, q, rec := newTestModel(t, map[string]any{"a": 1})
	mustSet(t, m, "b", 2)

	m.Dispose()
	m.Dispose()

	if !m.Disposed() {
		t.Error("expected Disposed() true")
	}
	if _, err := m.Get("a"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Get: expected ErrDisposed, got %v", err)
	}
	if err := m.Set("a", 2); !errors.Is(err, ErrDisposed) {
		t.Errorf("Set: expected ErrDisposed, got %v", err)
	}
	if err := m.Remove("a"); !errors.Is(err, ErrDisposed) {
		t.Errorf("Remove: expected ErrDisposed, got %v", err)
	}
	if err := m.Fill(map[string]any{"x": 1}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Fill: expected ErrDisposed, got %v", err)
	}
	if m.Has("a") || m.HasValue("a") || m.HasReadableValue("a") {
		t.Error("Has* should be false after dispose")
	}
	if d := m.Dump(); len(d) != 0 {
		t.Errorf("expected empty dump, got %v", d)
	}
	if m.Keys() != nil {
		t.Error("expected no keys after dispose")
	}

	// The flush queued before disposal does nothing.
	q.Drain()
	if len(rec.updates) != 0 {
		t.Error("update fired after dispose")
	}
	if m.Flush() {
		t.Error("Flush fired after dispose")
	}
}

func TestDisposeInsideHandler(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	m.OnBeforeChange(func(e *BeforeChange) { m.Dispose() })

	if err := m.Set("a", 1); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	if m.Has("a") {
		t.Error("write committed after disposal")
	}
}

func TestKeys(t *testing.T) {
	m, _, _ := newTestModel(t, map[string]any{"b": 1, "a": 2})
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected sorted keys, got %v", got)
	}
}
