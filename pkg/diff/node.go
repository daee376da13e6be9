package diff

import (
	"fmt"
	"maps"
	"slices"
)

// ChangeType classifies a leaf change.
type ChangeType int

const (
	// Add means the path had no value before the change.
	Add ChangeType = iota + 1

	// Change means an existing value was replaced.
	Change

	// Remove means the value at the path was deleted.
	Remove
)

// String returns the lower-case name of the change type.
func (c ChangeType) String() string {
	switch c {
	case Add:
		return "add"
	case Change:
		return "change"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ChangeType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "add":
		*c = Add
	case "change":
		*c = Change
	case "remove":
		*c = Remove
	default:
		return fmt.Errorf("diff: unknown change type %q", text)
	}
	return nil
}

// Node is either a *Leaf or a Tree.
type Node interface {
	node()
}

// Leaf records a single value replacement at a path.
type Leaf struct {
	Type     ChangeType `json:"type"`
	OldValue any        `json:"oldValue,omitempty"`
	NewValue any        `json:"newValue,omitempty"`
}

func (*Leaf) node() {}

// Tree records per-key changes inside an object.
// Keys absent from the tree did not change.
type Tree map[string]Node

func (Tree) node() {}

// Keys returns the tree's keys in sorted order.
func (t Tree) Keys() []string {
	return slices.Sorted(maps.Keys(t))
}

// Get walks path through nested trees and returns the node found there,
// or nil if the path leaves the tree.
func (t Tree) Get(path ...string) Node {
	var cur Node = t
	for _, key := range path {
		tree, ok := cur.(Tree)
		if !ok {
			return nil
		}
		cur, ok = tree[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// Clone returns a copy of the tree. Nested trees are copied, leaves are
// shared since they are never mutated once built.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, child := range t {
		if sub, ok := child.(Tree); ok {
			out[k] = sub.Clone()
			continue
		}
		out[k] = child
	}
	return out
}

// Empty reports whether n carries no change at all.
func Empty(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Leaf:
		return v == nil
	case Tree:
		return len(v) == 0
	default:
		return false
	}
}

// Purge drops no-op leaves and empty trees from n and returns what is left,
// or nil when nothing is left. The input is not modified.
func Purge(n Node, eq EqualFunc) Node {
	if eq == nil {
		eq = DefaultEqual
	}
	switch v := n.(type) {
	case *Leaf:
		return purgeLeaf(v, eq)
	case Tree:
		out := make(Tree, len(v))
		for k, child := range v {
			if kept := Purge(child, eq); kept != nil {
				out[k] = kept
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

func purgeLeaf(l *Leaf, eq EqualFunc) Node {
	if l == nil || eq(l.OldValue, l.NewValue) {
		return nil
	}
	return l
}
