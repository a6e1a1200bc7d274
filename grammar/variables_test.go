package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertVariablesCollapsesSimilarSiblings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeSimilarity = 0.3

	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "foo")
	newFixed(arena, root, "bar")

	InsertVariables(arena, cfg, root)

	children := arena.Get(root).Children
	require.Len(t, children, 1)
	require.Equal(t, KindVariable, arena.Get(children[0]).Kind)
}

func TestInsertVariablesLeavesDissimilarSiblingsAlone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeSimilarity = 0.99

	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "foo")
	newFixed(arena, root, "bar")

	InsertVariables(arena, cfg, root)

	children := arena.Get(root).Children
	require.Len(t, children, 2)
}

func TestInsertVariablesSkipsForceBranchDepths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeSimilarity = 0.0
	cfg.ForceBranch = []int{0}

	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "foo")
	newFixed(arena, root, "bar")

	InsertVariables(arena, cfg, root)

	children := arena.Get(root).Children
	require.Len(t, children, 2)
}

func TestInsertVariablesRejectsDelimiterSiblings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeSimilarity = 0.0
	cfg.Delimiters = []byte{'='}

	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "=")
	newFixed(arena, root, "x")

	InsertVariables(arena, cfg, root)

	children := arena.Get(root).Children
	require.Len(t, children, 2)
}
