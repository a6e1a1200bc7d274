package grammar

import (
	"bytes"
	"sort"
)

// SortChildren imposes a deterministic order on every node's children
// reachable from root: variables always last, fixed-children sorted by
// (len(element) desc, element desc), list-children sorted by
// (len(element[0]) desc, element[0] desc). It is idempotent — running it
// twice produces the same order.
func SortChildren(arena *Arena, root NodeRef) {
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		node := arena.Get(ref)
		sortOneLevel(arena, node)
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(root)
}

// sortOneLevel reorders node.Children in place per the three-step rule.
func sortOneLevel(arena *Arena, node *Node) {
	if len(node.Children) == 0 {
		return
	}

	var variable NodeRef = NilRef
	var fixed, lists []NodeRef
	for _, c := range node.Children {
		child := arena.Get(c)
		switch child.Kind {
		case KindVariable:
			variable = c // a node has at most one variable child
		case KindList:
			lists = append(lists, c)
		default:
			fixed = append(fixed, c)
		}
	}

	sort.SliceStable(fixed, func(i, j int) bool {
		return elementLess(arena.Get(fixed[i]).Element(), arena.Get(fixed[j]).Element())
	})
	sort.SliceStable(lists, func(i, j int) bool {
		return elementLess(arena.Get(lists[i]).Element(), arena.Get(lists[j]).Element())
	})

	ordered := make([]NodeRef, 0, len(node.Children))
	ordered = append(ordered, fixed...)
	ordered = append(ordered, lists...)
	if variable != NilRef {
		ordered = append(ordered, variable)
	}
	node.Children = ordered

	// List members are kept sorted by (length desc, byte-lex desc) too.
	for _, c := range lists {
		sortListMembers(arena.Get(c).List)
	}
}

// elementLess implements "(length desc, element desc)": a comes before b
// when a should sort first, i.e. a is longer, or equal length and
// byte-lexicographically greater.
func elementLess(a, b []byte) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return bytes.Compare(a, b) > 0
}
