package diff

// Merge folds merging, a change just made at some path, into stored, the
// change already accumulated for that path in the current batch.
//
// current is the value at the path now, after merging was applied.
// original is the value at the path when the batch began. Both are used to
// correct old and new values when the shape of the change differs between
// stored and merging:
//
//   - stored leaf, merging tree: the path was replaced earlier in the batch,
//     so the leaf stays and its new value is refreshed from current.
//   - stored tree, merging leaf: the path is now replaced as a whole, so the
//     leaf wins with its old value taken from original.
//   - two trees merge child by child.
//
// The result is nil when the net change is a no-op.
func Merge(stored, merging Node, current, original Value, eq EqualFunc) Node {
	if eq == nil {
		eq = DefaultEqual
	}
	if Empty(stored) {
		return merging
	}
	if Empty(merging) {
		return stored
	}

	storedLeaf, storedIsLeaf := stored.(*Leaf)
	mergingLeaf, mergingIsLeaf := merging.(*Leaf)

	switch {
	case storedIsLeaf && mergingIsLeaf:
		return mergeLeaves(storedLeaf, mergingLeaf, eq)

	case storedIsLeaf:
		out := *storedLeaf
		out.NewValue = current.Data
		switch {
		case !current.Present && out.Type == Add:
			return nil
		case !current.Present:
			out.Type = Remove
		case out.Type == Remove:
			out.Type = Change
		}
		return purgeLeaf(&out, eq)

	case mergingIsLeaf:
		out := *mergingLeaf
		out.OldValue = original.Data
		switch {
		case out.Type == Remove && !original.Present:
			return nil
		case out.Type == Remove:
		case !original.Present:
			out.Type = Add
		default:
			out.Type = Change
		}
		return purgeLeaf(&out, eq)
	}

	storedTree, ok := stored.(Tree)
	if !ok {
		return merging
	}
	mergingTree, ok := merging.(Tree)
	if !ok {
		return stored
	}

	out := make(Tree, len(storedTree)+len(mergingTree))
	for k, child := range storedTree {
		out[k] = child
	}
	for k, child := range mergingTree {
		merged := Merge(storedTree[k], child, current.Child(k), original.Child(k), eq)
		if Empty(merged) {
			delete(out, k)
			continue
		}
		out[k] = merged
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// mergeLeaves combines two successive replacements of the same path.
func mergeLeaves(x, y *Leaf, eq EqualFunc) Node {
	// Added then removed within one batch nets to nothing.
	if x.Type == Add && y.Type == Remove {
		return nil
	}

	out := &Leaf{
		Type:     Change,
		OldValue: x.OldValue,
		NewValue: y.NewValue,
	}
	switch {
	case x.Type == Add:
		out.Type = Add
	case y.Type == Remove:
		out.Type = Remove
	}
	return purgeLeaf(out, eq)
}
