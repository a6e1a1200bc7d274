package grammar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestInsertListsMergesIdenticalShapeLeaves(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	a := newFixed(arena, root, "GET")
	arena.Get(a).Occurrence = 10
	b := newFixed(arena, root, "POST")
	arena.Get(b).Occurrence = 5

	InsertLists(arena, root)

	children := arena.Get(root).Children
	require.Len(t, children, 1)
	listNode := arena.Get(children[0])
	require.Equal(t, KindList, listNode.Kind)
	require.ElementsMatch(t, [][]byte{[]byte("GET"), []byte("POST")}, listNode.List)
	require.Equal(t, 15, listNode.Occurrence)
}

func TestInsertListsLeavesStructurallyDifferentChildrenAlone(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	a := newFixed(arena, root, "GET")
	newFixed(arena, a, "/path")
	newFixed(arena, root, "POST")

	InsertLists(arena, root)

	children := arena.Get(root).Children
	require.Len(t, children, 2)
}

func TestMatchListsUnifiesOverlappingListNodes(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)

	l1 := arena.Alloc(KindList)
	arena.Get(l1).setList([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	arena.Get(l1).Parent = root
	arena.Get(root).Children = append(arena.Get(root).Children, l1)

	l2 := arena.Alloc(KindList)
	arena.Get(l2).setList([][]byte{[]byte("b"), []byte("c"), []byte("d")})
	arena.Get(l2).Parent = root
	arena.Get(root).Children = append(arena.Get(root).Children, l2)

	MatchLists(arena, root, 0.5)

	if diff := cmp.Diff(arena.Get(l1).List, arena.Get(l2).List); diff != "" {
		t.Fatalf("unified list members diverge (-l1 +l2):\n%s", diff)
	}
	require.Len(t, arena.Get(l1).List, 4)
}

func TestMatchListsLeavesDisjointListsSeparate(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)

	l1 := arena.Alloc(KindList)
	arena.Get(l1).setList([][]byte{[]byte("a"), []byte("b")})
	arena.Get(l1).Parent = root
	arena.Get(root).Children = append(arena.Get(root).Children, l1)

	l2 := arena.Alloc(KindList)
	arena.Get(l2).setList([][]byte{[]byte("x"), []byte("y")})
	arena.Get(l2).Parent = root
	arena.Get(root).Children = append(arena.Get(root).Children, l2)

	MatchLists(arena, root, 0.5)

	require.NotEqual(t, arena.Get(l1).List, arena.Get(l2).List)
}
