package diff

import "reflect"

// EqualFunc decides whether two values are the same for change detection.
type EqualFunc func(a, b any) bool

// DefaultEqual uses == for common scalar kinds and reflect.DeepEqual for
// everything else (slices, maps, structs).
func DefaultEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		return same(av, b)
	case int8:
		return same(av, b)
	case int16:
		return same(av, b)
	case int32:
		return same(av, b)
	case int64:
		return same(av, b)
	case uint:
		return same(av, b)
	case uint8:
		return same(av, b)
	case uint16:
		return same(av, b)
	case uint32:
		return same(av, b)
	case uint64:
		return same(av, b)
	case float32:
		return same(av, b)
	case float64:
		return same(av, b)
	case string:
		return same(av, b)
	case bool:
		return same(av, b)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func same[T comparable](a T, b any) bool {
	bv, ok := b.(T)
	return ok && a == bv
}

// Value is a value read at some path together with whether anything was
// there at all. The zero Value is absent.
type Value struct {
	Data    any
	Present bool
}

// Present wraps v as a present value.
func Present(v any) Value {
	return Value{Data: v, Present: true}
}

// Absent is the value of a path that holds nothing.
var Absent = Value{}

// Child reads key from an object value. Anything that is not a
// map[string]any has no children.
func (v Value) Child(key string) Value {
	if !v.Present {
		return Absent
	}
	obj, ok := v.Data.(map[string]any)
	if !ok {
		return Absent
	}
	child, ok := obj[key]
	if !ok {
		return Absent
	}
	return Present(child)
}
