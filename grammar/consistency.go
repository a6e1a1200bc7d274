package grammar

import (
	"fmt"
	"strconv"
)

// CheckConsistency walks the tree verifying the structural invariants that
// must hold after every refinement pass. It returns an *InvariantError
// (wrapping ErrInvariant) naming the offending pass on the first violation
// found, or nil.
func CheckConsistency(arena *Arena, root NodeRef, inputLines int, pass string) error {
	rootNode := arena.Get(root)
	if rootNode.Occurrence != inputLines {
		return newInvariantError(pass, "root.occurrence = %d, want %d (input line count)", rootNode.Occurrence, inputLines)
	}

	var walk func(ref NodeRef, expectedParent NodeRef) error
	walk = func(ref NodeRef, expectedParent NodeRef) error {
		node := arena.Get(ref)
		if node.Parent != expectedParent {
			return newInvariantError(pass, "node has parent %d, want %d", node.Parent, expectedParent)
		}

		childSum := 0
		sawVariable := false
		seenElements := make(map[string]bool)
		for _, c := range node.Children {
			childNode := arena.Get(c)
			childSum += childNode.Occurrence

			if childNode.Kind == KindVariable {
				if sawVariable {
					return newInvariantError(pass, "node %d has more than one variable child", ref)
				}
				sawVariable = true
			} else {
				key := strconv.Itoa(int(childNode.Kind)) + string(childNode.Element())
				if seenElements[key] {
					return newInvariantError(pass, "node %d has duplicate sibling element %q", ref, childNode.Element())
				}
				seenElements[key] = true
			}

			// End only ever implies ending_lines>0 and children!=empty; the
			// converse doesn't hold because the builder also gates End on the
			// ending_lines/occurrence ratio clearing theta4, so a node can
			// have ending lines and children yet still have End=false.
			if childNode.End && (childNode.EndingLines == 0 || len(childNode.Children) == 0) {
				return newInvariantError(pass, "node %d end=true but ending_lines=%d children=%d",
					c, childNode.EndingLines, len(childNode.Children))
			}

			if err := walk(c, ref); err != nil {
				return err
			}
		}

		if len(node.Children) > 0 && node.Occurrence < childSum {
			return newInvariantError(pass, "node %d occurrence=%d < sum(children.occurrence)=%d", ref, node.Occurrence, childSum)
		}
		if node.Kind == KindList && len(node.List) == 0 {
			return newInvariantError(pass, "list node %d has an empty element set", ref)
		}
		return nil
	}

	if err := walk(root, NilRef); err != nil {
		return err
	}
	return nil
}

// FormatNode renders a single node for diagnostics (invariant error
// messages, debug logging).
func FormatNode(arena *Arena, ref NodeRef) string {
	node := arena.Get(ref)
	return fmt.Sprintf("Node{kind=%s element=%q occurrence=%d ending=%d end=%v}",
		node.Kind, node.Element(), node.Occurrence, node.EndingLines, node.End)
}
