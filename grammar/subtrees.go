package grammar

// DiscoverSubtrees implements the optional bottom-up search for repeated
// structure: subtrees of height >= minHeight are grouped and will be
// emitted once (see program.go). Disabled when minHeight <= 0.
func DiscoverSubtrees(arena *Arena, root NodeRef, minHeight int) {
	if minHeight <= 0 {
		return
	}

	height := make(map[NodeRef]int)
	var computeHeights func(ref NodeRef) int
	computeHeights = func(ref NodeRef) int {
		node := arena.Get(ref)
		if len(node.Children) == 0 {
			height[ref] = 0
			return 0
		}
		maxH := 0
		for _, c := range node.Children {
			if h := computeHeights(c); h > maxH {
				maxH = h
			}
		}
		height[ref] = maxH + 1
		return maxH + 1
	}
	computeHeights(root)

	// Seeding: group all leaves by element.
	frontier := make(map[string][]NodeRef)
	var collectLeaves func(ref NodeRef)
	collectLeaves = func(ref NodeRef) {
		node := arena.Get(ref)
		if len(node.Children) == 0 {
			key := string(node.Element())
			frontier[key] = append(frontier[key], ref)
		}
		for _, c := range node.Children {
			collectLeaves(c)
		}
	}
	collectLeaves(root)

	groupIndex := make(map[NodeRef]int) // node -> frontier group id (synthetic)
	nextID := 0
	currentGroups := make(map[int][]NodeRef)
	for _, members := range frontier {
		if len(members) < 2 {
			continue
		}
		nextID++
		currentGroups[nextID] = members
		for _, m := range members {
			groupIndex[m] = nextID
		}
	}

	// Parent index for the wave climb.
	parentOf := make(map[NodeRef]NodeRef)
	var indexParents func(ref NodeRef)
	indexParents = func(ref NodeRef) {
		node := arena.Get(ref)
		for _, c := range node.Children {
			parentOf[c] = ref
			indexParents(c)
		}
	}
	indexParents(root)

	allGroups := make(map[int][]NodeRef, len(currentGroups))
	for id, members := range currentGroups {
		allGroups[id] = members
	}

	for {
		// Wave k+1: group parents sharing the same element and the same
		// ordered vector of child-group indices already in the frontier.
		// Only the groups formed by the previous wave are the frontier.
		candidateSig := make(map[string][]NodeRef)
		seenParents := make(map[NodeRef]bool)
		for _, members := range currentGroups {
			for _, m := range members {
				p, ok := parentOf[m]
				if !ok || seenParents[p] {
					continue
				}
				seenParents[p] = true
				pNode := arena.Get(p)
				sig, ok := childGroupSignature(arena, pNode, groupIndex)
				if !ok {
					continue
				}
				key := string(pNode.Element()) + "|" + sig
				candidateSig[key] = append(candidateSig[key], p)
			}
		}

		nextGroups := make(map[int][]NodeRef)
		for _, parents := range candidateSig {
			if len(parents) < 2 {
				continue
			}
			nextID++
			nextGroups[nextID] = parents
			allGroups[nextID] = parents
			for _, p := range parents {
				groupIndex[p] = nextID
			}
		}
		if len(nextGroups) == 0 {
			break
		}
		currentGroups = nextGroups
	}

	for id, members := range allGroups {
		h := height[members[0]]
		if len(members) < 2 || h < minHeight {
			continue
		}
		arena.NewSubtreeGroup(append([]NodeRef(nil), members...), h)
		_ = id
	}

	// Every tail endpoint from optional_node_pairs is appended as a
	// singleton group so the emitter shares it.
	for _, p := range arena.OptionalPairs() {
		arena.NewSubtreeGroup([]NodeRef{p.Tail}, height[p.Tail])
	}
}

// childGroupSignature builds the ordered vector of child-group indices for a
// candidate parent, succeeding only when every child already belongs to a
// frontier group (so the signature is stable within this wave).
func childGroupSignature(arena *Arena, node *Node, groupIndex map[NodeRef]int) (string, bool) {
	sig := make([]byte, 0, len(node.Children)*4)
	for _, c := range node.Children {
		gid, ok := groupIndex[c]
		if !ok {
			return "", false
		}
		sig = append(sig, byte(gid>>24), byte(gid>>16), byte(gid>>8), byte(gid))
	}
	return string(sig), true
}
