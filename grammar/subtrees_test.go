package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoverSubtreesDisabledWhenMinHeightZero(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "a")

	DiscoverSubtrees(arena, root, 0)
	require.Empty(t, arena.SubtreeGroups())
}

func TestDiscoverSubtreesGroupsIdenticalLeafSubtrees(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	p1 := newFixed(arena, root, "branch")
	newFixed(arena, p1, "shared")
	p2 := newFixed(arena, root, "branch")
	newFixed(arena, p2, "shared")

	DiscoverSubtrees(arena, root, 1)

	var found bool
	for _, g := range arena.SubtreeGroups() {
		if len(g.Members) == 2 && g.Height == 1 {
			found = true
		}
	}
	require.True(t, found)
}

func TestDiscoverSubtreesAddsSingletonGroupForEachOptionalTail(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	anchor := newFixed(arena, root, "a")
	tail := newFixed(arena, anchor, "b")
	arena.AddOptionalPair(anchor, tail)

	DiscoverSubtrees(arena, root, 1)

	found := false
	for _, g := range arena.SubtreeGroups() {
		if len(g.Members) == 1 && g.Members[0] == tail {
			found = true
		}
	}
	require.True(t, found)
}
