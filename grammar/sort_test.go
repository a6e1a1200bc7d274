package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newFixed(arena *Arena, parent NodeRef, word string) NodeRef {
	ref := arena.Alloc(KindFixed)
	node := arena.Get(ref)
	node.Fixed = []byte(word)
	node.Parent = parent
	arena.Get(parent).Children = append(arena.Get(parent).Children, ref)
	return ref
}

func newVariable(arena *Arena, parent NodeRef) NodeRef {
	ref := arena.Alloc(KindVariable)
	arena.Get(ref).Parent = parent
	arena.Get(parent).Children = append(arena.Get(parent).Children, ref)
	return ref
}

func TestSortChildrenOrdersFixedByLengthThenLexDesc(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "ab")
	newFixed(arena, root, "zzzz")
	newFixed(arena, root, "aa")

	SortChildren(arena, root)

	children := arena.Get(root).Children
	require.Len(t, children, 3)
	require.Equal(t, "zzzz", string(arena.Get(children[0]).Fixed))
	require.Equal(t, "ab", string(arena.Get(children[1]).Fixed))
	require.Equal(t, "aa", string(arena.Get(children[2]).Fixed))
}

func TestSortChildrenPutsVariableLast(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newVariable(arena, root)
	newFixed(arena, root, "a")

	SortChildren(arena, root)

	children := arena.Get(root).Children
	require.Equal(t, KindFixed, arena.Get(children[0]).Kind)
	require.Equal(t, KindVariable, arena.Get(children[1]).Kind)
}

func TestSortChildrenIsIdempotent(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "one")
	newFixed(arena, root, "two")
	newVariable(arena, root)

	SortChildren(arena, root)
	first := append([]NodeRef(nil), arena.Get(root).Children...)
	SortChildren(arena, root)
	second := arena.Get(root).Children

	require.Equal(t, first, second)
}
