package grammar

// Builder implements the recursive tree construction: at each depth it
// decides, per node, whether to emit fixed children, branch children, or
// collapse into a variable, then recurses into whatever subset descends.
type Builder struct {
	cfg        Config
	classifier *Classifier
	arena      *Arena
	logger     Logger

	// endingLines records, per node, the original line numbers that
	// terminated exactly there — the routing ground-truth the Emitter's
	// Clusters artifact renders back out.
	endingLines map[NodeRef][]int
}

// NewBuilder returns a Builder over a fresh Arena.
func NewBuilder(cfg Config, arena *Arena, classifier *Classifier, logger Logger) *Builder {
	return &Builder{cfg: cfg, classifier: classifier, arena: arena, logger: logger, endingLines: make(map[NodeRef][]int)}
}

// EndingLines returns the line-number-by-node routing table built during
// Build, consumed by Emitter.Clusters.
func (b *Builder) EndingLines() map[NodeRef][]int { return b.endingLines }

// line is the Builder's mutable view of one tokenized input line during
// recursion: the line's full word sequence, indexed by absolute depth, plus
// the identity needed for ending_lines/cluster bookkeeping.
type line struct {
	lineNumber int
	words      [][]byte // every word token of the line; words[depth] is the word at depth
}

// Build constructs the full tree from tokenized input and returns the root
// ref, pre-populated with occurrence equal to the number of input lines.
func (b *Builder) Build(lines []TokenizedLine) NodeRef {
	root := b.arena.Alloc(KindRoot)
	rootNode := b.arena.Get(root)
	rootNode.Occurrence = len(lines)
	rootNode.Theta1 = b.cfg.Theta1

	ls := make([]line, 0, len(lines))
	for _, tl := range lines {
		words := make([][]byte, 0, len(tl.Words))
		for _, t := range tl.Words {
			words = append(words, t.Bytes)
		}
		ls = append(ls, line{lineNumber: tl.LineNumber, words: words})
	}

	if len(ls) == 0 {
		// Empty input: the node marks itself non-terminal and returns; no
		// exceptions are raised by the builder.
		return root
	}

	b.recurse(root, ls, 0, b.cfg.Theta1)
	return root
}

// recurse implements one invocation of the per-depth decision for the node
// `self` over the lines `ls` reaching it at depth `depth`.
func (b *Builder) recurse(self NodeRef, ls []line, depth int, theta1 float64) {
	if len(ls) == 0 {
		return
	}

	// Step 1: consecutive-delimiter coalescing.
	delimiterFlag := b.coalesceDelimiters(ls, depth)

	// Step 2: frequency census.
	counter := map[string]int{}
	order := make([]string, 0)
	for _, l := range ls {
		if depth >= len(l.words) {
			continue
		}
		w := string(l.words[depth])
		if _, ok := counter[w]; !ok {
			order = append(order, w)
		}
		counter[w]++
	}
	total := len(ls)

	var pass, fail []string
	for _, w := range order {
		ratio := float64(counter[w]) / float64(total)
		if ratio >= theta1 || b.cfg.isForceBranch(depth) {
			pass = append(pass, w)
		} else {
			fail = append(fail, w)
		}
	}
	sumPass := 0
	for _, w := range pass {
		sumPass += counter[w]
	}
	sumFail := total - sumPass

	// Step 3: datatype probe over all observed words at this depth.
	var allWords [][]byte
	for _, l := range ls {
		if depth < len(l.words) {
			allWords = append(allWords, l.words[depth])
		}
	}
	probe := b.classifier.Classify(DatatypeInitial, allWords)
	special := probe&(DatatypeInteger|DatatypeFloat|DatatypeDateTime|DatatypeIPAddress|DatatypeBase64|DatatypeHex) != 0 &&
		!b.cfg.isForceBranch(depth)

	// Step 4: decision.
	switch {
	case !delimiterFlag && (len(pass) == 0 || special || b.cfg.isForceVar(depth)):
		b.emitCase1Variable(self, ls, depth, theta1, probe)

	case len(pass) == 1 && (float64(counter[pass[0]])/float64(total) >= b.cfg.Theta2 || delimiterFlag):
		b.emitCase2aFixed(self, ls, depth, theta1, pass, fail, sumFail, total)

	case len(pass) == 1:
		b.emitVariableOnly(self, ls, depth, theta1, probe)

	case len(pass) > 1 && (float64(sumPass)/float64(total) > b.cfg.Theta3 || delimiterFlag):
		b.emitCase3aBranches(self, ls, depth, theta1, pass, fail, sumFail, total)

	default:
		b.emitVariableOnly(self, ls, depth, theta1, probe)
	}
}

// coalesceDelimiters implements the rule: for each line whose word
// at position depth is a delimiter, greedily concatenate subsequent
// delimiter words into one token, mutating the line's word slice in place.
// It returns whether any line at this depth started on a delimiter.
func (b *Builder) coalesceDelimiters(ls []line, depth int) bool {
	delims := b.cfg.delimiterSet()
	flag := false
	for i := range ls {
		l := &ls[i]
		if depth >= len(l.words) || !isAllDelimiterBytes(l.words[depth], delims) {
			continue
		}
		flag = true
		merged := append([]byte(nil), l.words[depth]...)
		j := depth + 1
		for j < len(l.words) && isAllDelimiterBytes(l.words[j], delims) {
			merged = append(merged, l.words[j]...)
			j++
		}
		newWords := make([][]byte, 0, len(l.words)-(j-depth)+1)
		newWords = append(newWords, l.words[:depth]...)
		newWords = append(newWords, merged)
		newWords = append(newWords, l.words[j:]...)
		l.words = newWords
	}
	return flag
}

func isAllDelimiterBytes(w []byte, delims map[byte]bool) bool {
	if len(w) == 0 {
		return false
	}
	for _, b := range w {
		if !delims[b] {
			return false
		}
	}
	return true
}

// emitCase1Variable handles Case 1 — emit a single variable child.
func (b *Builder) emitCase1Variable(self NodeRef, ls []line, depth int, theta1 float64, probe Datatype) {
	b.emitVariableOnly(self, ls, depth, theta1, probe)
}

// emitVariableOnly creates one variable child and routes every line into it.
func (b *Builder) emitVariableOnly(self NodeRef, ls []line, depth int, theta1 float64, probe Datatype) {
	child := b.arena.Alloc(KindVariable)
	childNode := b.arena.Get(child)
	childNode.Datatype = probe
	childNode.Theta1 = theta1
	childNode.Parent = self
	b.arena.Get(self).Children = append(b.arena.Get(self).Children, child)

	b.routeAndRecurse(self, child, ls, depth, theta1, func(l line) bool { return depth < len(l.words) })
}

// emitCase2aFixed handles "Case 2a — emit a fixed child for pass0; plus
// trailing variable child covering fail iff warranted."
func (b *Builder) emitCase2aFixed(self NodeRef, ls []line, depth int, theta1 float64, pass, fail []string, sumFail, total int) {
	word := pass[0]
	child := b.arena.Alloc(KindFixed)
	childNode := b.arena.Get(child)
	childNode.Fixed = []byte(word)
	childNode.Theta1 = theta1
	childNode.Parent = self
	b.arena.Get(self).Children = append(b.arena.Get(self).Children, child)

	matches := func(l line) bool { return depth < len(l.words) && string(l.words[depth]) == word }
	b.routeAndRecurse(self, child, ls, depth, theta1, matches)

	b.maybeEmitTrailingVariable(self, ls, depth, theta1, fail, sumFail, total, matches)
}

// emitCase3aBranches handles "Case 3a — emit one fixed child per w in pass;
// plus trailing variable child as in Case 2a when warranted."
func (b *Builder) emitCase3aBranches(self NodeRef, ls []line, depth int, theta1 float64, pass, fail []string, sumFail, total int) {
	var union func(l line) bool
	matchedAny := map[string]bool{}
	for _, w := range pass {
		matchedAny[w] = true
	}
	union = func(l line) bool { return depth < len(l.words) && matchedAny[string(l.words[depth])] }

	for _, word := range pass {
		w := word
		child := b.arena.Alloc(KindFixed)
		childNode := b.arena.Get(child)
		childNode.Fixed = []byte(w)
		childNode.Theta1 = theta1
		childNode.Parent = self
		b.arena.Get(self).Children = append(b.arena.Get(self).Children, child)

		matches := func(l line) bool { return depth < len(l.words) && string(l.words[depth]) == w }
		b.routeAndRecurse(self, child, ls, depth, theta1, matches)
	}

	b.maybeEmitTrailingVariable(self, ls, depth, theta1, fail, sumFail, total, union)
}

// maybeEmitTrailingVariable implements the Case 2a/3a trailing-variable
// clause: "additionally emit a trailing variable child covering fail iff
// sum_fail/|L| >= theta6 and fail0 not in D."
func (b *Builder) maybeEmitTrailingVariable(self NodeRef, ls []line, depth int, theta1 float64, fail []string, sumFail, total int, passMatches func(line) bool) {
	if len(fail) == 0 {
		return
	}
	if float64(sumFail)/float64(total) < b.cfg.Theta6 {
		return
	}
	delims := b.cfg.delimiterSet()
	if len(fail[0]) == 1 && delims[fail[0][0]] {
		return
	}

	var failAll [][]byte
	for _, l := range ls {
		if depth < len(l.words) && !passMatches(l) {
			failAll = append(failAll, l.words[depth])
		}
	}
	probe := b.classifier.Classify(DatatypeInitial, failAll)

	child := b.arena.Alloc(KindVariable)
	childNode := b.arena.Get(child)
	childNode.Datatype = probe
	childNode.Theta1 = theta1
	childNode.Parent = self
	b.arena.Get(self).Children = append(b.arena.Get(self).Children, child)

	matches := func(l line) bool { return depth < len(l.words) && !passMatches(l) }
	b.routeAndRecurse(self, child, ls, depth, theta1, matches)
}

// routeAndRecurse implements the rule: subset routing, ending_lines
// accounting, end flagging, tail pruning, adaptive threshold, and recursion.
func (b *Builder) routeAndRecurse(self, child NodeRef, ls []line, depth int, parentTheta1 float64, matches func(line) bool) {
	selfNode := b.arena.Get(self)
	var descending []line
	endingLines := 0
	occurrence := 0

	for _, l := range ls {
		if !matches(l) {
			continue
		}
		occurrence++
		if depth+1 >= len(l.words) {
			endingLines++
			b.endingLines[child] = append(b.endingLines[child], l.lineNumber)
			continue
		}
		descending = append(descending, l)
	}

	childNode := b.arena.Get(child)
	childNode.Occurrence = occurrence
	childNode.EndingLines = endingLines

	// Tail pruning: a pruned or naturally childless node is a leaf, never an
	// `end` node — end implies ending_lines>0 and children!=empty, never the
	// other way around, since the ratio check below can also leave End false
	// on a node that still has both.
	if !b.cfg.isForceBranch(depth) && occurrence > 0 {
		proportion := float64(len(descending)) / float64(occurrence)
		if proportion < b.cfg.Theta5 {
			return
		}
	}
	if len(descending) == 0 {
		return
	}
	if selfNode.Occurrence > 0 && float64(endingLines)/float64(selfNode.Occurrence) >= b.cfg.Theta4 {
		childNode.End = true
	}

	// Adaptive threshold: theta1 tightens with depth and relaxes for children
	// that captured most of their parent's occurrence.
	ratio := 0.0
	if selfNode.Occurrence > 0 {
		ratio = float64(childNode.Occurrence) / float64(selfNode.Occurrence)
	}
	nextTheta1 := parentTheta1 * (1 + (1-ratio)*b.cfg.Damping)
	if nextTheta1 > 0.49 {
		nextTheta1 = 0.49
	}

	if b.logger != nil {
		b.logger.Debug("builder: descend", "depth", depth+1, "lines", len(descending), "theta1", nextTheta1)
	}

	b.recurse(child, descending, depth+1, nextTheta1)
}
