// Package update applies declarative command trees to values without
// mutating them, and reports what changed as a diff.Node.
//
//	next, d, err := update.Apply(
//	    map[string]any{"x": map[string]any{"a": 1}},
//	    update.Tree{"x": update.Tree{"a": update.Set(2)}},
//	)
//	// next is {"x": {"a": 2}}; d is Tree{"x": Tree{"a": Change 1 -> 2}}
//
// A Spec is either a *Command, applied to the value it reaches, or a Tree,
// which descends into the child of an object value named by each key.
package update

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/vango-dev/vmodel/pkg/diff"
)

// ErrTypeMismatch is returned when a command reaches a value of the wrong
// kind, such as Push on a string.
var ErrTypeMismatch = errors.New("update: command does not apply to value")

// Op identifies a command.
type Op int

const (
	OpSet Op = iota + 1
	OpPush
	OpUnshift
	OpMerge
	OpDefaults
	OpInvoke
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "$set"
	case OpPush:
		return "$push"
	case OpUnshift:
		return "$unshift"
	case OpMerge:
		return "$merge"
	case OpDefaults:
		return "$defaults"
	case OpInvoke:
		return "$invoke"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Spec is a *Command or a Tree.
type Spec interface {
	spec()
}

// Tree maps child keys of an object to the specs applied to them.
type Tree map[string]Spec

func (Tree) spec() {}

// Command is a terminal operation. Build one with Set, Push, Unshift,
// Merge, Defaults or Invoke.
type Command struct {
	Op     Op
	Value  any
	Items  []any
	Fields map[string]any
	Fn     func(old any) any
}

func (*Command) spec() {}

// Set replaces the value.
func Set(v any) *Command { return &Command{Op: OpSet, Value: v} }

// Push appends items to a copy of an array value.
func Push(items ...any) *Command { return &Command{Op: OpPush, Items: items} }

// Unshift prepends items to a copy of an array value.
func Unshift(items ...any) *Command { return &Command{Op: OpUnshift, Items: items} }

// Merge sets each of fields on a copy of an object value.
func Merge(fields map[string]any) *Command { return &Command{Op: OpMerge, Fields: fields} }

// Defaults sets each of fields that is absent or nil on a copy of an
// object value.
func Defaults(fields map[string]any) *Command { return &Command{Op: OpDefaults, Fields: fields} }

// Invoke replaces the value with fn(old). fn must not modify old.
func Invoke(fn func(old any) any) *Command { return &Command{Op: OpInvoke, Fn: fn} }

// Apply runs spec against value using diff.DefaultEqual.
func Apply(value any, spec Spec) (any, diff.Node, error) {
	return ApplyValue(diff.Present(value), spec, nil)
}

// ApplyValue runs spec against v, which may be absent. It returns the new
// value and the change it represents; the node is nil when nothing changed,
// in which case the returned value is v.Data itself.
func ApplyValue(v diff.Value, spec Spec, eq diff.EqualFunc) (any, diff.Node, error) {
	if eq == nil {
		eq = diff.DefaultEqual
	}
	a := applier{eq: eq}
	return a.apply(v, spec)
}

type applier struct {
	eq   diff.EqualFunc
	path []string
}

func (a *applier) apply(cur diff.Value, spec Spec) (any, diff.Node, error) {
	switch s := spec.(type) {
	case nil:
		return cur.Data, nil, nil
	case Tree:
		return a.applyTree(cur, s)
	case *Command:
		return a.applyCommand(cur, s)
	default:
		return nil, nil, fmt.Errorf("update: unknown spec %T", spec)
	}
}

func (a *applier) applyCommand(cur diff.Value, c *Command) (any, diff.Node, error) {
	switch c.Op {
	case OpSet:
		return a.set(cur, c.Value)

	case OpInvoke:
		if c.Fn == nil {
			return nil, nil, fmt.Errorf("update: %s without a function at %s", c.Op, a.where())
		}
		return a.set(cur, c.Fn(cur.Data))

	case OpPush, OpUnshift:
		next, err := concat(cur.Data, c.Items, c.Op == OpUnshift)
		if err != nil {
			return nil, nil, a.mismatch(c.Op, cur.Data)
		}
		if len(c.Items) == 0 || a.eq(cur.Data, next) {
			return cur.Data, nil, nil
		}
		return next, &diff.Leaf{Type: diff.Change, OldValue: cur.Data, NewValue: next}, nil

	case OpMerge, OpDefaults:
		obj, ok := object(cur)
		if !ok {
			return nil, nil, a.mismatch(c.Op, cur.Data)
		}
		var out map[string]any
		node := diff.Tree{}
		for _, key := range slices.Sorted(maps.Keys(c.Fields)) {
			child, exists := obj[key]
			if c.Op == OpDefaults && exists && child != nil {
				continue
			}
			a.push(key)
			next, n, err := a.set(diff.Value{Data: child, Present: exists}, c.Fields[key])
			a.pop()
			if err != nil {
				return nil, nil, err
			}
			if n == nil {
				continue
			}
			if out == nil {
				out = maps.Clone(obj)
				if out == nil {
					out = make(map[string]any, len(c.Fields))
				}
			}
			out[key] = next
			node[key] = n
		}
		if out == nil {
			return cur.Data, nil, nil
		}
		return out, node, nil

	default:
		return nil, nil, fmt.Errorf("update: unknown command %s at %s", c.Op, a.where())
	}
}

func (a *applier) applyTree(cur diff.Value, t Tree) (any, diff.Node, error) {
	obj, ok := object(cur)
	if !ok {
		return nil, nil, a.mismatch(0, cur.Data)
	}
	var out map[string]any
	node := diff.Tree{}
	for _, key := range slices.Sorted(maps.Keys(t)) {
		child, exists := obj[key]
		a.push(key)
		next, n, err := a.apply(diff.Value{Data: child, Present: exists}, t[key])
		a.pop()
		if err != nil {
			return nil, nil, err
		}
		if diff.Empty(n) {
			continue
		}
		if out == nil {
			out = maps.Clone(obj)
			if out == nil {
				out = make(map[string]any, len(t))
			}
		}
		out[key] = next
		node[key] = n
	}
	if out == nil {
		return cur.Data, nil, nil
	}
	return out, node, nil
}

func (a *applier) set(cur diff.Value, v any) (any, diff.Node, error) {
	if a.eq(cur.Data, v) {
		return cur.Data, nil, nil
	}
	ct := diff.Change
	if !cur.Present {
		ct = diff.Add
	}
	return v, &diff.Leaf{Type: ct, OldValue: cur.Data, NewValue: v}, nil
}

func (a *applier) push(key string) { a.path = append(a.path, key) }
func (a *applier) pop()            { a.path = a.path[:len(a.path)-1] }

func (a *applier) where() string {
	if len(a.path) == 0 {
		return "root"
	}
	return strings.Join(a.path, ".")
}

func (a *applier) mismatch(op Op, v any) error {
	name := "tree"
	if op != 0 {
		name = op.String()
	}
	return fmt.Errorf("%w: %s at %s on %T", ErrTypeMismatch, name, a.where(), v)
}

// object returns the object held by v. Absent and nil values read as an
// empty object.
func object(v diff.Value) (map[string]any, bool) {
	if !v.Present || v.Data == nil {
		return nil, true
	}
	obj, ok := v.Data.(map[string]any)
	return obj, ok
}

// concat returns a new slice with items appended to (or prepended to) s.
// s may be nil, a []any or any other slice type whose element type accepts
// the items.
func concat(s any, items []any, front bool) (any, error) {
	switch arr := s.(type) {
	case nil:
		return append(make([]any, 0, len(items)), items...), nil
	case []any:
		out := make([]any, 0, len(arr)+len(items))
		if front {
			return append(append(out, items...), arr...), nil
		}
		return append(append(out, arr...), items...), nil
	}

	rv := reflect.ValueOf(s)
	if rv.Kind() != reflect.Slice {
		return nil, ErrTypeMismatch
	}
	elem := rv.Type().Elem()
	extra := reflect.MakeSlice(rv.Type(), 0, len(items))
	for _, item := range items {
		iv := reflect.ValueOf(item)
		if !iv.IsValid() {
			iv = reflect.Zero(elem)
		}
		if !iv.Type().AssignableTo(elem) {
			return nil, ErrTypeMismatch
		}
		extra = reflect.Append(extra, iv)
	}
	out := reflect.MakeSlice(rv.Type(), 0, rv.Len()+len(items))
	if front {
		return reflect.AppendSlice(reflect.AppendSlice(out, extra), rv).Interface(), nil
	}
	return reflect.AppendSlice(reflect.AppendSlice(out, rv), extra).Interface(), nil
}
