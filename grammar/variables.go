package grammar

// InsertVariables collapses a branch into a single variable child carrying
// the merged subtree wherever every sibling subtree at that branch point is
// pairwise similar enough. Depths listed in Config.ForceBranch are exempt.
func InsertVariables(arena *Arena, cfg Config, root NodeRef) {
	var walk func(ref NodeRef, depth int)
	walk = func(ref NodeRef, depth int) {
		node := arena.Get(ref)
		// Post-order: recurse first so nested branches have already been
		// collapsed before this level is judged.
		for _, c := range node.Children {
			walk(c, depth+1)
		}
		tryCollapse(arena, cfg, ref, depth)
	}
	walk(root, 0)
}

// tryCollapse judges node's children for collapse-into-variable eligibility
// and performs the collapse in place when every pairwise similarity clears
// merge_similarity and no candidate sibling's element contains a delimiter.
func tryCollapse(arena *Arena, cfg Config, ref NodeRef, depth int) {
	if cfg.isForceBranch(depth) {
		return
	}
	node := arena.Get(ref)

	var candidates []NodeRef
	for _, c := range node.Children {
		if arena.Get(c).Kind != KindVariable {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) < 2 {
		return
	}

	delims := cfg.delimiterSet()
	for _, c := range candidates {
		for _, b := range arena.Get(c).Element() {
			if delims[b] {
				return
			}
		}
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if meanPathSimilarity(arena, candidates[i], candidates[j]) < cfg.MergeSimilarity {
				return
			}
		}
	}

	// An existing variable child becomes the survivor, so the branch still
	// ends up with a single variable child.
	for _, c := range node.Children {
		if arena.Get(c).Kind == KindVariable {
			candidates = append([]NodeRef{c}, candidates...)
			break
		}
	}

	collapseIntoVariable(arena, node, candidates)
}

// meanPathSimilarity averages path_similarities_enhanced: a dual-pointer
// walk that matches children in sort order, pairing mismatched names against
// a sibling variable when one exists, and emitting 0 or 1 per compared fixed
// node; delimiter nodes and variable-vs-anything comparisons contribute no
// sample. A sentinel 1 seeds the list.
func meanPathSimilarity(arena *Arena, a, b NodeRef) float64 {
	samples := []float64{1.0} // sentinel seed
	pathSimilaritiesEnhanced(arena, a, b, &samples)
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

func pathSimilaritiesEnhanced(arena *Arena, a, b NodeRef, samples *[]float64) {
	nodeA, nodeB := arena.Get(a), arena.Get(b)

	if nodeA.Kind == KindVariable || nodeB.Kind == KindVariable {
		// "variable-vs-anything comparisons contribute no sample"
		return
	}
	if isDelimiterElement(nodeA.Element()) || isDelimiterElement(nodeB.Element()) {
		return // "delimiter nodes ... contribute no sample"
	}

	match := nodeA.Kind == nodeB.Kind && bytesEqual(nodeA.Element(), nodeB.Element())
	if match {
		*samples = append(*samples, 1.0)
	} else {
		*samples = append(*samples, 0.0)
	}

	childA, childB := nodeA.Children, nodeB.Children
	var varA, varB NodeRef = NilRef, NilRef
	for _, c := range childA {
		if arena.Get(c).Kind == KindVariable {
			varA = c
		}
	}
	for _, c := range childB {
		if arena.Get(c).Kind == KindVariable {
			varB = c
		}
	}

	i, j := 0, 0
	for i < len(childA) && j < len(childB) {
		ca, cb := childA[i], childB[j]
		na, nb := arena.Get(ca), arena.Get(cb)

		if na.Kind == KindVariable && nb.Kind == KindVariable {
			i++
			j++
			continue
		}
		if bytesEqual(elementOrNil(na), elementOrNil(nb)) && na.Kind == nb.Kind {
			pathSimilaritiesEnhanced(arena, ca, cb, samples)
			i++
			j++
			continue
		}
		// Names mismatch: pair the mismatched side against a sibling
		// variable when the *other* tree has one, absorbing the unmatched
		// node without a sample and advancing only that pointer.
		if varB != NilRef && na.Kind != KindVariable {
			i++
			continue
		}
		if varA != NilRef && nb.Kind != KindVariable {
			j++
			continue
		}
		// No variable to absorb the mismatch: record a structural miss and
		// advance the side whose element sorts first (matching sort_children
		// order) to keep the walk progressing.
		*samples = append(*samples, 0.0)
		if elementLess(elementOrNil(na), elementOrNil(nb)) {
			i++
		} else {
			j++
		}
	}
}

func elementOrNil(n *Node) []byte { return n.Element() }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isDelimiterElement(el []byte) bool {
	// A single-byte element is treated as a delimiter node candidate; the
	// caller-level delimiter set isn't threaded this deep, so this is a
	// conservative structural proxy: every delimiter token the Tokenizer
	// emits is a single byte, and single-byte words are treated the same way.
	return len(el) == 1
}

// collapseIntoVariable rewrites candidates[0] into the variable that
// survives, fuses every other candidate's subtree into it via
// mergeSimilarPathsEnhanced, removes the absorbed siblings from node, and
// refreshes parent back-pointers.
func collapseIntoVariable(arena *Arena, node *Node, candidates []NodeRef) {
	survivor := candidates[0]
	survivorNode := arena.Get(survivor)

	mergedDatatype := DatatypeInitial
	if survivorNode.Kind == KindVariable {
		mergedDatatype = survivorNode.Datatype
	}

	for _, other := range candidates[1:] {
		otherNode := arena.Get(other)
		if otherNode.Kind == KindVariable {
			mergedDatatype = mergedDatatype.Intersect(otherNode.Datatype)
		}
		mergeSimilarPathsEnhanced(arena, survivor, other)
	}

	survivorNode.Kind = KindVariable
	survivorNode.Fixed = nil
	survivorNode.List = nil
	survivorNode.Datatype = mergedDatatype

	keep := make(map[NodeRef]bool, len(candidates))
	for _, c := range candidates[1:] {
		keep[c] = true
	}
	filtered := node.Children[:0:0]
	for _, c := range node.Children {
		if keep[c] {
			arena.Free(c) // subtree already fused into survivor; discard the shell
			continue
		}
		filtered = append(filtered, c)
	}
	node.Children = filtered
	arena.updateParents(survivor)
}

// mergeSimilarPathsEnhanced fuses other's subtree into target's, matching
// children by equal element first, then absorbing the remainder by
// dual-pointer variable absorption, summing occurrence and ending_lines
// along every matched node.
func mergeSimilarPathsEnhanced(arena *Arena, target, other NodeRef) {
	targetNode, otherNode := arena.Get(target), arena.Get(other)
	targetNode.Occurrence += otherNode.Occurrence
	targetNode.EndingLines += otherNode.EndingLines
	targetNode.End = targetNode.End || otherNode.End

	matchedOther := make(map[NodeRef]bool)
	for _, tc := range targetNode.Children {
		tcNode := arena.Get(tc)
		for _, oc := range otherNode.Children {
			if matchedOther[oc] {
				continue
			}
			ocNode := arena.Get(oc)
			if tcNode.Kind == ocNode.Kind && bytesEqual(tcNode.Element(), ocNode.Element()) {
				matchedOther[oc] = true
				mergeSimilarPathsEnhanced(arena, tc, oc)
				break
			}
		}
	}

	// Absorb anything in other that didn't match: fold into target's
	// variable child if one exists, else graft it as a new sibling.
	var targetVar NodeRef = NilRef
	for _, tc := range targetNode.Children {
		if arena.Get(tc).Kind == KindVariable {
			targetVar = tc
			break
		}
	}
	for _, oc := range otherNode.Children {
		if matchedOther[oc] {
			continue
		}
		if targetVar != NilRef {
			mergeSimilarPathsEnhanced(arena, targetVar, oc)
			continue
		}
		arena.Get(oc).Parent = target
		targetNode.Children = append(targetNode.Children, oc)
	}
}
