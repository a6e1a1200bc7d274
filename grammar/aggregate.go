package grammar

// AggregateSequences implements the rule: for every chain A -> B where
// both are fixed non-list non-variable nodes, A is not end, and neither is
// referenced by any optional_node_pairs tail or any discovered subtree root,
// concatenate A.element||B.element into A, inherit B's children, end flag
// and ending_lines, and drop B. Repeats to fixed-point.
func AggregateSequences(arena *Arena, root NodeRef) {
	for {
		if !aggregateOnce(arena, root) {
			return
		}
	}
}

func aggregateOnce(arena *Arena, ref NodeRef) bool {
	node := arena.Get(ref)
	changed := false

	if len(node.Children) == 1 {
		only := node.Children[0]
		onlyNode := arena.Get(only)
		if canFuse(arena, ref, only) {
			node.Fixed = append(append([]byte(nil), node.Fixed...), onlyNode.Fixed...)
			node.End = onlyNode.End
			node.EndingLines = onlyNode.EndingLines
			node.Children = onlyNode.Children
			arena.Free(only)
			arena.updateParents(ref)
			changed = true
			node = arena.Get(ref)
		}
	}

	for _, c := range node.Children {
		if aggregateOnce(arena, c) {
			changed = true
		}
	}
	return changed
}

// canFuse reports whether the A -> B chain rooted at a/b may be aggregated.
func canFuse(arena *Arena, a, b NodeRef) bool {
	aNode, bNode := arena.Get(a), arena.Get(b)
	if aNode.Kind != KindFixed || bNode.Kind != KindFixed {
		return false
	}
	if aNode.End {
		return false
	}
	if arena.IsTail(a) || arena.IsTail(b) {
		return false
	}
	if isSubtreeRoot(arena, a) || isSubtreeRoot(arena, b) {
		return false
	}
	return true
}

func isSubtreeRoot(arena *Arena, ref NodeRef) bool {
	for _, g := range arena.SubtreeGroups() {
		for _, m := range g.Members {
			if m == ref {
				return true
			}
		}
	}
	return false
}
