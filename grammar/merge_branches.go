package grammar

// MergeBranches implements the optional branch-merging pass, run before
// insert_lists when Config.EnableBranchMerging is set (off by default). For
// each unordered pair of sibling subtrees it computes a subtree match and
// fuses the pair when the match score clears merge_subtrees_min_similarity.
func MergeBranches(arena *Arena, threshold float64, root NodeRef) {
	if threshold <= 0 {
		return
	}
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		node := arena.Get(ref)
		for _, c := range node.Children {
			walk(c)
		}
		mergeSiblingsAt(arena, threshold, ref)
	}
	walk(root)
}

// pathPair is one element-keyed alignment (path_in_a, path_in_b) in a
// subtree match.
type pathPair struct {
	a, b          NodeRef
	lenA, lenB    int // path length from the subtree root, for conflict tie-breaking
}

func mergeSiblingsAt(arena *Arena, threshold float64, ref NodeRef) {
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

	merged := make(map[NodeRef]bool)
	var survivors []NodeRef
	for i := 0; i < len(candidates); i++ {
		if merged[candidates[i]] {
			continue
		}
		survivor := candidates[i]
		for j := i + 1; j < len(candidates); j++ {
			if merged[candidates[j]] {
				continue
			}
			other := candidates[j]
			pairs, elementsA, elementsB := subtreeMatch(arena, survivor, other)
			if elementsA == 0 || elementsB == 0 {
				continue
			}
			minCount := elementsA
			if elementsB < minCount {
				minCount = elementsB
			}
			score := float64(len(pairs)) / float64(minCount)
			if score >= threshold {
				fuseAlongAlignment(arena, survivor, other, pairs)
				merged[other] = true
			}
		}
		survivors = append(survivors, survivor)
	}

	if len(merged) == 0 {
		return
	}
	filtered := node.Children[:0:0]
	for _, c := range node.Children {
		if merged[c] {
			arena.Free(c)
			continue
		}
		filtered = append(filtered, c)
	}
	node.Children = filtered
	for _, s := range survivors {
		arena.updateParents(s)
	}
}

// subtreeMatch computes a largest consistent set of element-keyed alignments
// between subtree a and subtree b, respecting the prefix-order relation, and
// resolving conflicts by greedily dropping the alignment causing the most
// pairwise conflicts (ties broken first by larger |lenA-lenB|, then by
// max(lenA,lenB)).
func subtreeMatch(arena *Arena, a, b NodeRef) ([]pathPair, int, int) {
	var elementsA, elementsB int
	byElement := make(map[string][]NodeRef) // b-side index keyed by element
	depthB := make(map[NodeRef]int)

	var indexB func(ref NodeRef, depth int)
	indexB = func(ref NodeRef, depth int) {
		node := arena.Get(ref)
		elementsB++
		depthB[ref] = depth
		byElement[elementKey(node)] = append(byElement[elementKey(node)], ref)
		for _, c := range node.Children {
			indexB(c, depth+1)
		}
	}
	indexB(b, 0)

	var pairs []pathPair
	used := make(map[NodeRef]bool)
	var indexA func(ref NodeRef, depth int)
	indexA = func(ref NodeRef, depth int) {
		node := arena.Get(ref)
		elementsA++
		key := elementKey(node)
		for _, candidate := range byElement[key] {
			if used[candidate] {
				continue
			}
			used[candidate] = true
			pairs = append(pairs, pathPair{a: ref, b: candidate, lenA: depth, lenB: depthB[candidate]})
			break
		}
		for _, c := range node.Children {
			indexA(c, depth+1)
		}
	}
	indexA(a, 0)

	pairs = resolveConflicts(pairs)
	return pairs, elementsA, elementsB
}

func elementKey(n *Node) string {
	return string(n.Kind) + string(n.Element())
}

// resolveConflicts drops alignments that violate the prefix-order relation
// (if path_a is a prefix of another pair's first component, it must also be
// a prefix of the second) by greedily removing the offending pair with the
// most conflicts, tie-broken by larger |lenA-lenB| then larger
// max(lenA,lenB).
func resolveConflicts(pairs []pathPair) []pathPair {
	for {
		conflicts := make([]int, len(pairs))
		for i := range pairs {
			for j := range pairs {
				if i == j {
					continue
				}
				if !consistentPair(pairs[i], pairs[j]) {
					conflicts[i]++
				}
			}
		}
		worst := -1
		for i, n := range conflicts {
			if n == 0 {
				continue
			}
			if worst == -1 {
				worst = i
				continue
			}
			di := abs(pairs[i].lenA - pairs[i].lenB)
			dw := abs(pairs[worst].lenA - pairs[worst].lenB)
			switch {
			case n > conflicts[worst]:
				worst = i
			case n == conflicts[worst] && di > dw:
				worst = i
			case n == conflicts[worst] && di == dw && maxInt(pairs[i].lenA, pairs[i].lenB) > maxInt(pairs[worst].lenA, pairs[worst].lenB):
				worst = i
			}
		}
		if worst == -1 {
			return pairs
		}
		pairs = append(pairs[:worst], pairs[worst+1:]...)
	}
}

// consistentPair checks the prefix-order relation between two alignments
// using recorded depth as a structural proxy for "prefix of".
func consistentPair(p, q pathPair) bool {
	if p.lenA <= q.lenA && p.lenB > q.lenB {
		return false
	}
	if p.lenA > q.lenA && p.lenB <= q.lenB {
		return false
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// fuseAlongAlignment merges b's subtree into a's along the aligned paths:
// length differences are recorded as optional-node pairs, unmatched
// branches on either side are grafted onto the survivor.
func fuseAlongAlignment(arena *Arena, survivor, other NodeRef, pairs []pathPair) {
	aligned := make(map[NodeRef]NodeRef, len(pairs))
	for _, p := range pairs {
		aligned[p.b] = p.a
	}

	survivorNode, otherNode := arena.Get(survivor), arena.Get(other)
	survivorNode.Occurrence += otherNode.Occurrence
	survivorNode.EndingLines += otherNode.EndingLines
	survivorNode.End = survivorNode.End || otherNode.End

	if len(survivorNode.Children) != len(otherNode.Children) {
		anchor := survivor
		tail := other
		if len(otherNode.Children) > len(survivorNode.Children) {
			anchor, tail = other, survivor
		}
		arena.AddOptionalPair(anchor, tail)
	}

	for _, oc := range otherNode.Children {
		if ac, ok := aligned[oc]; ok {
			fuseAlongAlignment(arena, ac, oc, childPairs(pairs, ac, oc))
			continue
		}
		arena.Get(oc).Parent = survivor
		survivorNode.Children = append(survivorNode.Children, oc)
	}
}

func childPairs(pairs []pathPair, a, b NodeRef) []pathPair {
	var out []pathPair
	for _, p := range pairs {
		if p.a != a && p.b != b {
			out = append(out, p)
		}
	}
	return out
}
