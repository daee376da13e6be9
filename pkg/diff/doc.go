// Package diff describes changes to model values and folds successive
// changes into one.
//
// A change is a Node: either a *Leaf, which records a single replacement
// of a value, or a Tree, which mirrors the shape of a changed object and
// holds one child Node per changed key.
//
//	// width went from 2 to 3, and point.x was added
//	d := diff.Tree{
//	    "width": &diff.Leaf{Type: diff.Change, OldValue: 2, NewValue: 3},
//	    "point": diff.Tree{
//	        "x": &diff.Leaf{Type: diff.Add, NewValue: 1},
//	    },
//	}
//
// # Merging
//
// Merge combines a previously accumulated Node with a freshly produced one
// for the same path, so that the result describes the net change since the
// start of a batch:
//
//	stored := &diff.Leaf{Type: diff.Change, OldValue: 1, NewValue: 2}
//	fresh := &diff.Leaf{Type: diff.Change, OldValue: 2, NewValue: 3}
//	net := diff.Merge(stored, fresh, diff.Present(3), diff.Present(1), nil)
//	// net is Change 1 -> 3
//
// Nodes whose old and new values are equal are purged rather than kept as
// empty entries. Merge never mutates its arguments.
package diff
