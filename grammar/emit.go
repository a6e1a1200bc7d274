package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Cluster is one terminal's membership: the input line numbers that ended
// at that node.
type Cluster struct {
	Template    string
	LineNumbers []int
}

// Stats is a supplemented run-statistics artifact tallying node/leaf/datatype
// counts after a run.
type Stats struct {
	NodeCount       int
	LeafCount       int
	OptionalCount   int
	DatatypeCounts  map[string]int
}

// Emitter produces the tree dump, template list, and cluster list, plus the
// supplemented Stats and optional Graphviz visualization.
type Emitter struct {
	arena *Arena
	cfg   Config
}

// NewEmitter returns an Emitter bound to arena/cfg.
func NewEmitter(arena *Arena, cfg Config) *Emitter {
	return &Emitter{arena: arena, cfg: cfg}
}

// assignIDs stamps every reachable node with a stable id from a monotonic
// counter shared across one emission pass.
func (em *Emitter) assignIDs(root NodeRef) {
	next := 0
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		node := em.arena.Get(ref)
		node.ID = next
		next++
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(root)
}

// TreeDump renders the indented depth-first text form of the tree: one line
// per node, "element (occurrence) [- End (ending_lines)] - Theta=theta1".
func (em *Emitter) TreeDump(root NodeRef) string {
	em.assignIDs(root)
	var b strings.Builder
	var walk func(ref NodeRef, depth int)
	walk = func(ref NodeRef, depth int) {
		node := em.arena.Get(ref)
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(elementLabel(node))
		fmt.Fprintf(&b, " (%d)", node.Occurrence)
		if node.End {
			fmt.Fprintf(&b, " - End (%d)", node.EndingLines)
		}
		fmt.Fprintf(&b, " - Theta=%.6f\n", node.Theta1)
		for _, c := range node.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return b.String()
}

func elementLabel(node *Node) string {
	switch node.Kind {
	case KindRoot:
		return "<root>"
	case KindVariable:
		return fmt.Sprintf("§%s", node.Datatype)
	case KindList:
		parts := make([]string, 0, len(node.List))
		for _, m := range node.List {
			parts = append(parts, string(m))
		}
		return "{" + strings.Join(parts, "|") + "}"
	default:
		return string(node.Fixed)
	}
}

// Templates performs a depth-first accumulation of element stringifications,
// emitting the accumulated string at every end node and every leaf.
func (em *Emitter) Templates(root NodeRef) []string {
	var templates []string
	var walk func(ref NodeRef, acc string)
	walk = func(ref NodeRef, acc string) {
		node := em.arena.Get(ref)
		if node.Kind != KindRoot {
			acc += elementLabel(node)
		}
		if node.End || node.IsLeaf() {
			templates = append(templates, acc)
		}
		for _, c := range node.Children {
			walk(c, acc)
		}
	}
	walk(root, "")
	return templates
}

// Clusters pairs each terminal's accumulated template with its ending-line
// membership. Since the tree itself only
// carries counts (occurrence/ending_lines), actual line numbers are
// threaded in from the build-time routing table recorded by Engine.Run.
func (em *Emitter) Clusters(root NodeRef, lineNumbersByNode map[NodeRef][]int) []Cluster {
	var clusters []Cluster
	var walk func(ref NodeRef, acc string)
	walk = func(ref NodeRef, acc string) {
		node := em.arena.Get(ref)
		if node.Kind != KindRoot {
			acc += elementLabel(node)
		}
		if node.End || node.IsLeaf() {
			clusters = append(clusters, Cluster{
				Template:    acc,
				LineNumbers: append([]int(nil), lineNumbersByNode[ref]...),
			})
		}
		for _, c := range node.Children {
			walk(c, acc)
		}
	}
	walk(root, "")
	return clusters
}

// ComputeStats walks the tree once, tallying node/leaf/optional counts and
// datatype occurrences for the supplemented Stats artifact.
func (em *Emitter) ComputeStats(root NodeRef) Stats {
	stats := Stats{DatatypeCounts: make(map[string]int)}
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		node := em.arena.Get(ref)
		stats.NodeCount++
		if node.IsLeaf() {
			stats.LeafCount++
		}
		if node.Kind == KindVariable {
			stats.DatatypeCounts[node.Datatype.Dominant().String()]++
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(root)
	stats.OptionalCount = len(em.arena.OptionalPairs())
	return stats
}

// Visualize renders a supplemented Graphviz DOT document: one node per id,
// fixed nodes labelled with their escaped element,
// list nodes with their member count, variable nodes with their datatype
// set, solid parent->child tree edges, and a dashed edge per
// optional_node_pairs anchor->tail.
func (em *Emitter) Visualize(root NodeRef) string {
	var b strings.Builder
	b.WriteString("digraph grammar {\n")
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		node := em.arena.Get(ref)
		label := dotLabel(node)
		fmt.Fprintf(&b, "  n%d [label=\"%s\"];\n", node.ID, label)
		for _, c := range node.Children {
			cNode := em.arena.Get(c)
			fmt.Fprintf(&b, "  n%d -> n%d;\n", node.ID, cNode.ID)
			walk(c)
		}
	}
	walk(root)
	for _, p := range em.arena.OptionalPairs() {
		anchor, tail := em.arena.Get(p.Anchor), em.arena.Get(p.Tail)
		fmt.Fprintf(&b, "  n%d -> n%d [style=dashed];\n", anchor.ID, tail.ID)
	}
	b.WriteString("}\n")
	return b.String()
}

func dotLabel(node *Node) string {
	switch node.Kind {
	case KindFixed:
		return escapeLiteral(node.Fixed)
	case KindList:
		return fmt.Sprintf("list(%d)", len(node.List))
	case KindVariable:
		return node.Datatype.String()
	default:
		return "root"
	}
}

// sortedTemplateLines returns a lexicographically sorted copy of templates.
func sortedTemplateLines(templates []string) []string {
	out := append([]string(nil), templates...)
	sort.Strings(out)
	return out
}
