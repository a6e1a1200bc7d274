package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgramEmitterRendersFixedAndAlphabet(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "word")

	prog := NewProgramEmitter(arena, cfg).Emit(root)

	require.Contains(t, prog, "alphabet = '")
	require.Contains(t, prog, "FixedDataModelElement(")
	require.Contains(t, prog, "b'word'")
	require.Contains(t, prog, "def getModel():")
}

// TestProgramEmitterWrapsRootSingleChildInSequence matches the "100 copies
// of word" scenario: a root with exactly one child still gets wrapped in a
// SequenceModelElement even though the root contributes no own expression.
func TestProgramEmitterWrapsRootSingleChildInSequence(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "word")

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "return SequenceModelElement('sequence0', [FixedDataModelElement('fixed1', b'word')])")
}

// TestProgramEmitterLeavesRootFirstMatchBareAtTopLevel matches the
// "exactly one top-level FirstMatchModelElement" scenario: a root with
// several children is not additionally wrapped in an outer sequence.
func TestProgramEmitterLeavesRootFirstMatchBareAtTopLevel(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "alpha")
	newFixed(arena, root, "beta")

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "return FirstMatchModelElement(")
}

func TestProgramEmitterRendersBranchesAsFirstMatch(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	newFixed(arena, root, "this")
	newFixed(arena, root, "that")
	newFixed(arena, root, "those")

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "FirstMatchModelElement(")
}

func TestProgramEmitterRendersIntegerVariable(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	v := newVariable(arena, root)
	arena.Get(v).Datatype = DatatypeInteger

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "DecimalIntegerValueModelElement(")
}

func TestProgramEmitterRendersPortAsIntegerUnderColonUnderIP(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	ip := newVariable(arena, root)
	arena.Get(ip).Datatype = DatatypeIPAddress
	colon := newFixed(arena, ip, ":")
	port := newVariable(arena, colon)
	arena.Get(port).Datatype = DatatypeInteger

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "'port")
	require.Contains(t, prog, "DecimalIntegerValueModelElement(")
}

func TestProgramEmitterRendersOptionalForEndNodeWithChildren(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	a := newFixed(arena, root, "foo")
	arena.Get(a).End = true
	newFixed(arena, a, "bar")

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	require.Contains(t, prog, "OptionalMatchModelElement(")
}

func TestProgramEmitterBindsSubtreeGroupsBeforeRoot(t *testing.T) {
	cfg := DefaultConfig()
	arena := NewArena()
	root := arena.Alloc(KindRoot)
	a := newFixed(arena, root, "shared")
	gid := arena.NewSubtreeGroup([]NodeRef{a}, 1)
	_ = gid

	prog := NewProgramEmitter(arena, cfg).Emit(root)
	bindingIdx := strings.Index(prog, "subtree_")
	modelIdx := strings.Index(prog, "def getModel():")
	require.GreaterOrEqual(t, bindingIdx, 0)
	require.Less(t, bindingIdx, modelIdx)
}
