package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckConsistencyPassesOnWellFormedTree(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 10
	a := newFixed(arena, root, "foo")
	arena.Get(a).Occurrence = 10

	err := CheckConsistency(arena, root, 10, "test")
	require.NoError(t, err)
}

func TestCheckConsistencyCatchesRootOccurrenceMismatch(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 3

	err := CheckConsistency(arena, root, 10, "test")
	require.Error(t, err)
	var invErr *InvariantError
	require.True(t, errors.As(err, &invErr))
	require.Equal(t, "test", invErr.Pass)
	require.True(t, errors.Is(err, ErrInvariant))
}

func TestCheckConsistencyCatchesStaleParentPointer(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 1
	a := newFixed(arena, root, "foo")
	arena.Get(a).Occurrence = 1
	arena.Get(a).Parent = NilRef // corrupted by hand

	err := CheckConsistency(arena, root, 1, "test")
	require.Error(t, err)
}

func TestCheckConsistencyCatchesTwoVariableSiblings(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 2
	newVariable(arena, root)
	newVariable(arena, root)

	err := CheckConsistency(arena, root, 2, "test")
	require.Error(t, err)
}

func TestCheckConsistencyCatchesEndFlagMismatch(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 1
	a := newFixed(arena, root, "foo")
	arena.Get(a).Occurrence = 1
	arena.Get(a).End = true // no children, no ending lines: should be false

	err := CheckConsistency(arena, root, 1, "test")
	require.Error(t, err)
}

// TestCheckConsistencyAllowsEndingLinesBelowThetaFourRatio matches a node
// whose ending_lines/occurrence ratio falls short of theta4: it has both
// ending lines and children, but End is correctly false, and that must not
// be flagged as an invariant violation.
func TestCheckConsistencyAllowsEndingLinesBelowThetaFourRatio(t *testing.T) {
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	arena.Get(root).Occurrence = 10
	b := newFixed(arena, root, "b")
	arena.Get(b).Occurrence = 10
	arena.Get(b).EndingLines = 3 // 3/10 ratio, below a 0.5 theta4
	arena.Get(b).End = false
	c := newFixed(arena, b, "c")
	arena.Get(c).Occurrence = 7

	err := CheckConsistency(arena, root, 10, "test")
	require.NoError(t, err)
}
