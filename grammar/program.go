package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// ProgramEmitter renders the tree as a parser-combinator DSL program: one
// function returning the root combinator, named constructors for every node
// kind, an alphabet constant, and discovered subtrees factored into named
// bindings that precede the root assignment.
type ProgramEmitter struct {
	arena   *Arena
	cfg     Config
	counter int
	bound   map[int]string // subtree group id -> already-emitted binding name
	out     strings.Builder
}

// NewProgramEmitter returns an emitter bound to arena/cfg.
func NewProgramEmitter(arena *Arena, cfg Config) *ProgramEmitter {
	return &ProgramEmitter{arena: arena, cfg: cfg, bound: make(map[int]string)}
}

// Emit produces the full grammar program text for the given root.
func (e *ProgramEmitter) Emit(root NodeRef) string {
	e.out.Reset()
	e.out.WriteString(fmt.Sprintf("alphabet = '%s'\n\n", escapeAlphabet(buildAlphabet(e.cfg.Delimiters))))

	groups := append([]SubtreeGroup(nil), e.arena.SubtreeGroups()...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Height < groups[j].Height })
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		name := fmt.Sprintf("subtree_%d", g.ID)
		expr := e.expr(g.Members[0])
		e.bound[g.ID] = name
		e.out.WriteString(fmt.Sprintf("%s = %s\n\n", name, expr))
	}

	rootExpr := e.expr(root)
	e.out.WriteString("def getModel():\n")
	e.out.WriteString(fmt.Sprintf("    return %s\n", rootExpr))
	return e.out.String()
}

// expr returns the DSL expression for ref, honoring subtree-group
// references, optional wrapping, and the anchor/AnyMatch annotation.
func (e *ProgramEmitter) expr(ref NodeRef) string {
	if gid := e.groupOf(ref); gid != 0 {
		if name, ok := e.bound[gid]; ok {
			return name
		}
	}

	node := e.arena.Get(ref)

	// Every name a node contributes — its own wrapping SequenceModelElement,
	// its own element, and any FirstMatchModelElement grouping its children —
	// is allocated here before any of its children are visited, so the
	// counter walks the tree in pre-order.
	var body string
	switch len(node.Children) {
	case 0:
		body = e.ownExpr(ref, node)
	case 1:
		// Every internal node with exactly one child becomes a
		// SequenceModelElement, forced even when own=="" (the root), unlike
		// the multi-child branch below where an empty own leaves a bare
		// FirstMatchModelElement at the top.
		seqName := e.sequenceName()
		own := e.ownExpr(ref, node)
		child := e.expr(node.Children[0])
		if own == "" {
			body = fmt.Sprintf("SequenceModelElement('%s', [%s])", seqName, child)
		} else {
			body = fmt.Sprintf("SequenceModelElement('%s', [%s, %s])", seqName, own, child)
		}
	default:
		var seqName string
		if node.Kind != KindRoot {
			seqName = e.sequenceName()
		}
		own := e.ownExpr(ref, node)
		fmName := e.name("firstmatch")
		fm := e.firstMatchBody(fmName, node.Children)
		if own == "" {
			body = fm
		} else {
			body = fmt.Sprintf("SequenceModelElement('%s', [%s, %s])", seqName, own, fm)
		}
	}

	if node.End && len(node.Children) > 0 {
		body = e.optional(body)
	}

	if e.arena.IsAnchor(ref) {
		body = e.anyMatch(ref, body)
	}

	return body
}

// ownExpr renders just this node's own element, without its continuation.
func (e *ProgramEmitter) ownExpr(ref NodeRef, node *Node) string {
	switch node.Kind {
	case KindRoot:
		if len(node.Children) == 0 {
			return fmt.Sprintf("SequenceModelElement('%s', [])", e.sequenceName())
		}
		return "" // root contributes nothing of its own; handled by caller's Children switch
	case KindFixed:
		return fmt.Sprintf("FixedDataModelElement('%s', b'%s')", e.fixedName(), escapeLiteral(node.Fixed))
	case KindList:
		return fmt.Sprintf("FixedWordlistDataModelElement('%s', [%s])", e.fixedName(), e.wordlist(node.List))
	case KindVariable:
		return e.variableExpr(ref, node)
	default:
		return ""
	}
}

func (e *ProgramEmitter) variableExpr(ref NodeRef, node *Node) string {
	dt := node.Datatype.Dominant()
	if dt == DatatypeInteger && e.isPortPosition(ref) {
		return fmt.Sprintf("DecimalIntegerValueModelElement('%s', value_sign_type=SIGN_TYPE_OPTIONAL)", e.name("port"))
	}
	switch dt {
	case DatatypeInteger:
		return fmt.Sprintf("DecimalIntegerValueModelElement('%s', value_sign_type=SIGN_TYPE_OPTIONAL)", e.name("integer"))
	case DatatypeFloat:
		return fmt.Sprintf("DecimalFloatValueModelElement('%s', value_sign_type=SIGN_TYPE_OPTIONAL)", e.name("float"))
	case DatatypeIPAddress:
		return fmt.Sprintf("IpAddressDataModelElement('%s')", e.name("ipaddress"))
	case DatatypeDateTime:
		return fmt.Sprintf("DateTimeModelElement('%s')", e.name("datetime"))
	case DatatypeBase64:
		return fmt.Sprintf("Base64StringModelElement('%s')", e.name("base64"))
	case DatatypeHex:
		return fmt.Sprintf("HexStringModelElement('%s')", e.name("hex"))
	default:
		return fmt.Sprintf("VariableByteDataModelElement('%s', alphabet)", e.name("string"))
	}
}

// isPortPosition implements the rule: "integer variables whose parent
// literal is ':' and whose grandparent is an ipaddress become port."
func (e *ProgramEmitter) isPortPosition(ref NodeRef) bool {
	node := e.arena.Get(ref)
	parent := e.arena.Get(node.Parent)
	if parent == nil || parent.Kind != KindFixed || string(parent.Fixed) != ":" {
		return false
	}
	grandparent := e.arena.Get(parent.Parent)
	if grandparent == nil || grandparent.Kind != KindVariable {
		return false
	}
	return grandparent.Datatype.Dominant() == DatatypeIPAddress
}

func (e *ProgramEmitter) sequence(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if len(nonEmpty) == 1 {
		return nonEmpty[0]
	}
	// Build with a trailing ", " after every part, then trim the final
	// separator once instead of tracking whether each part is the last.
	var b strings.Builder
	for _, p := range nonEmpty {
		b.WriteString(p)
		b.WriteString(", ")
	}
	joined := strings.TrimSuffix(b.String(), ", ")
	return fmt.Sprintf("SequenceModelElement('%s', [%s])", e.sequenceName(), joined)
}

// firstMatchBody renders the FirstMatchModelElement body for children under
// the already-reserved name. The name must be allocated by the caller before
// any child is visited, so the shared counter stays in pre-order.
func (e *ProgramEmitter) firstMatchBody(name string, children []NodeRef) string {
	var b strings.Builder
	for _, c := range children {
		childNode := e.arena.Get(c)
		branch := e.expr(c)
		if len(childNode.Children) > 0 {
			branch = e.sequence(branch)
		}
		b.WriteString(branch)
		b.WriteString(", ")
	}
	joined := strings.TrimSuffix(b.String(), ", ")
	return fmt.Sprintf("FirstMatchModelElement('%s', [%s])", name, joined)
}

func (e *ProgramEmitter) optional(body string) string {
	return fmt.Sprintf("OptionalMatchModelElement('%s', %s)", e.name("optional"), body)
}

func (e *ProgramEmitter) anyMatch(ref NodeRef, body string) string {
	var b strings.Builder
	b.WriteString(body)
	b.WriteString(", ")
	for _, tail := range e.arena.TailsFor(ref) {
		b.WriteString(e.expr(tail))
		b.WriteString(", ")
	}
	joined := strings.TrimSuffix(b.String(), ", ")
	return fmt.Sprintf("AnyMatchModelElement('%s', [%s])", e.name("anymatch"), joined)
}

func (e *ProgramEmitter) wordlist(members [][]byte) string {
	var b strings.Builder
	for _, m := range members {
		b.WriteString(fmt.Sprintf("b'%s', ", escapeLiteral(m)))
	}
	return strings.TrimSuffix(b.String(), ", ")
}

func (e *ProgramEmitter) groupOf(ref NodeRef) int {
	for _, g := range e.arena.SubtreeGroups() {
		for _, m := range g.Members {
			if m == ref {
				return g.ID
			}
		}
	}
	return 0
}

func (e *ProgramEmitter) name(prefix string) string {
	n := e.counter
	e.counter++
	return fmt.Sprintf("%s%d", prefix, n)
}
func (e *ProgramEmitter) fixedName() string     { return e.name("fixed") }
func (e *ProgramEmitter) sequenceName() string  { return e.name("sequence") }

// escapeLiteral escapes backslash and single-quote
func escapeLiteral(b []byte) string {
	s := string(b)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

func escapeAlphabet(b []byte) string { return escapeLiteral(b) }

// buildAlphabet constructs the printable-byte range (0x20..0x7E inclusive)
// minus the configured delimiters.
func buildAlphabet(delimiters []byte) []byte {
	delims := make(map[byte]bool, len(delimiters))
	for _, d := range delimiters {
		delims[d] = true
	}
	var out []byte
	for b := byte(0x20); b <= 0x7E; b++ {
		if !delims[b] {
			out = append(out, b)
		}
	}
	return out
}
