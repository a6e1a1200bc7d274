package grammar

import "sync"

// nodeSlicePool recycles the backing slice used by freshly built Arenas
// across engine runs. A fresh root Node is built per invocation, so there
// is nothing to pool at the single-Node granularity (indices must stay
// stable for the lifetime of one run), but the large backing array itself
// is cheap to reuse between independent Engine.Run calls in the same
// process, e.g. a CLI processing several input files in one invocation.
var nodeSlicePool = sync.Pool{
	New: func() any {
		s := make([]Node, 0, 1024)
		return &s
	},
}

// Arena owns every Node allocated during one engine run plus the graph-level
// annotations (optional-node pairs, subtree groups) that reference Nodes by
// stable index. It is never shared across runs.
type Arena struct {
	nodes         []Node
	free          []NodeRef
	optionalPairs []OptionalPair
	subtreeGroups []SubtreeGroup
	nextGroupID   int
}

// NewArena returns an empty Arena, borrowing its backing slice from the pool.
func NewArena() *Arena {
	backing := nodeSlicePool.Get().(*[]Node)
	return &Arena{nodes: (*backing)[:0]}
}

// Release returns the Arena's backing slice to the pool. The Arena must not
// be used afterward.
func (a *Arena) Release() {
	cleared := a.nodes[:0]
	nodeSlicePool.Put(&cleared)
	a.nodes = nil
}

// Alloc creates a new Node of the given kind and returns its stable ref.
func (a *Arena) Alloc(kind Kind) NodeRef {
	if n := len(a.free); n > 0 {
		ref := a.free[n-1]
		a.free = a.free[:n-1]
		node := &a.nodes[ref]
		*node = Node{Kind: kind, Parent: NilRef, alive: true}
		return ref
	}
	a.nodes = append(a.nodes, Node{Kind: kind, Parent: NilRef, alive: true})
	return NodeRef(len(a.nodes) - 1)
}

// Get returns the Node at ref. Callers must only hold the pointer
// transiently: any further Alloc call may reallocate the backing slice.
func (a *Arena) Get(ref NodeRef) *Node {
	if ref == NilRef {
		return nil
	}
	return &a.nodes[ref]
}

// Free marks ref's slot reusable. It does not recurse into children; use
// freeSubtree below to free an entire subtree bottom-up.
func (a *Arena) Free(ref NodeRef) {
	if ref == NilRef || !a.nodes[ref].alive {
		return
	}
	a.nodes[ref] = Node{Parent: NilRef}
	a.free = append(a.free, ref)
}

// freeSubtree recursively frees ref and every descendant. The refinement
// passes do not call it: they free only the dropped node with Free, since
// its children have been re-attached or merged elsewhere.
func (a *Arena) freeSubtree(ref NodeRef) {
	if ref == NilRef {
		return
	}
	node := a.Get(ref)
	children := append([]NodeRef(nil), node.Children...)
	for _, c := range children {
		a.freeSubtree(c)
	}
	a.Free(ref)
}

// AddOptionalPair records a new (anchor, tail) annotation and returns its
// index.
func (a *Arena) AddOptionalPair(anchor, tail NodeRef) int {
	a.optionalPairs = append(a.optionalPairs, OptionalPair{Anchor: anchor, Tail: tail})
	return len(a.optionalPairs) - 1
}

// OptionalPairs returns the live optional-node pair annotations.
func (a *Arena) OptionalPairs() []OptionalPair { return a.optionalPairs }

// IsAnchor reports whether ref is the anchor of any optional-node pair.
func (a *Arena) IsAnchor(ref NodeRef) bool {
	for _, p := range a.optionalPairs {
		if p.Anchor == ref {
			return true
		}
	}
	return false
}

// IsTail reports whether ref is the tail of any optional-node pair.
func (a *Arena) IsTail(ref NodeRef) bool {
	for _, p := range a.optionalPairs {
		if p.Tail == ref {
			return true
		}
	}
	return false
}

// TailsFor returns every tail anchored at ref, in insertion order, for
// AnyMatchModelElement emission.
func (a *Arena) TailsFor(ref NodeRef) []NodeRef {
	var tails []NodeRef
	for _, p := range a.optionalPairs {
		if p.Anchor == ref {
			tails = append(tails, p.Tail)
		}
	}
	return tails
}

// NewSubtreeGroup allocates and returns a new SubtreeGroup id.
func (a *Arena) NewSubtreeGroup(members []NodeRef, height int) int {
	a.nextGroupID++
	a.subtreeGroups = append(a.subtreeGroups, SubtreeGroup{
		ID: a.nextGroupID, Members: members, Height: height,
	})
	return a.nextGroupID
}

// SubtreeGroups returns every discovered subtree group, sorted by height
// ascending by the caller (see program.go) so referents precede references.
func (a *Arena) SubtreeGroups() []SubtreeGroup { return a.subtreeGroups }

// updateParents re-establishes child.Parent = self for every child reachable
// from ref. Passes that move or drop Nodes call this once their deferred
// edit buffer has been applied.
func (a *Arena) updateParents(ref NodeRef) {
	if ref == NilRef {
		return
	}
	node := a.Get(ref)
	for _, c := range node.Children {
		a.Get(c).Parent = ref
		a.updateParents(c)
	}
}
