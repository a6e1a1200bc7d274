package grammar

import "bytes"

// Token is one element of a tokenized line: either a word (a run of
// non-delimiter bytes) or a delimiter (a single configured byte, kept as its
// own token so positions remain addressable).
type Token struct {
	Bytes       []byte
	IsDelimiter bool
}

// TokenizedLine is one input line after tokenization, carrying its original
// index for cluster/template bookkeeping.
type TokenizedLine struct {
	LineNumber int
	Timestamp  []byte // peeled prefix, kept for diagnostics only, never tokenized
	Words      []Token
}

// isPrintable reports membership in the RFC 3164 printable range plus tab:
// bytes outside [0x20, 0x7E] ∪ {0x09} are stripped.
func isPrintable(b byte) bool {
	return (b >= 0x20 && b <= 0x7E) || b == 0x09
}

// Tokenize converts a raw line into a TokenizedLine: strip non-printable
// bytes, peel a timestamp prefix when configured, then split on delimiters,
// keeping each delimiter as its own token. Empty lines (nothing left after
// filtering/trimming) return ok=false and must be dropped by the caller.
func Tokenize(line []byte, lineNumber int, timeStampLength int, delimiters map[byte]bool) (TokenizedLine, bool) {
	filtered := make([]byte, 0, len(line))
	for _, b := range line {
		if isPrintable(b) {
			filtered = append(filtered, b)
		}
	}
	filtered = bytes.TrimSpace(filtered)
	if len(filtered) == 0 {
		return TokenizedLine{}, false
	}

	var timestamp []byte
	body := filtered
	if timeStampLength >= 0 && timeStampLength <= len(filtered) {
		timestamp = filtered[:timeStampLength]
		body = filtered[timeStampLength:]
	}

	var words []Token
	var current []byte
	flush := func() {
		if len(current) > 0 {
			words = append(words, Token{Bytes: current})
			current = nil
		}
	}
	for _, b := range body {
		if delimiters[b] {
			flush()
			words = append(words, Token{Bytes: []byte{b}, IsDelimiter: true})
			continue
		}
		current = append(current, b)
	}
	flush()

	if len(words) == 0 {
		return TokenizedLine{}, false
	}

	return TokenizedLine{LineNumber: lineNumber, Timestamp: timestamp, Words: words}, true
}

// TokenizeAll tokenizes every raw line, dropping empties and renumbering the
// survivors contiguously from 0.
func TokenizeAll(lines [][]byte, timeStampLength int, delimiters map[byte]bool) []TokenizedLine {
	out := make([]TokenizedLine, 0, len(lines))
	n := 0
	for _, line := range lines {
		tl, ok := Tokenize(line, n, timeStampLength, delimiters)
		if !ok {
			continue
		}
		tl.LineNumber = n
		out = append(out, tl)
		n++
	}
	return out
}
