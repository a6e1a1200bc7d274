package grammar

import (
	"encoding/base64"
	"net"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Classifier implements the datatype lattice, memoizing per-word predicate
// results in a bounded LRU cache because a real log corpus repeats the same
// tokens ("localhost", "true", port numbers, ...) millions of times, and
// re-running seven predicates per repeat would dominate build time.
type Classifier struct {
	cache *lru.Cache[string, Datatype]
}

// NewClassifier returns a Classifier with a cache sized for a typical
// single-file batch run.
func NewClassifier() *Classifier {
	c, err := lru.New[string, Datatype](8192)
	if err != nil {
		// Only returns an error for a non-positive size, which 8192 never is.
		panic(err)
	}
	return &Classifier{cache: c}
}

// classifyWord returns the full set of types a single word satisfies,
// starting from DatatypeInitial plus the three types that only ever narrow
// in (datetime, base64, hex) — the classifier always evaluates every
// predicate for a word's own membership and the caller intersects across a
// batch.
func (c *Classifier) classifyWord(word []byte) Datatype {
	key := string(word)
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	var d Datatype
	if isInteger(word) {
		d |= DatatypeInteger
	}
	if isFloat(word) {
		d |= DatatypeFloat
	}
	if isHex(word) {
		d |= DatatypeHex
	}
	if isDateTime(word) {
		d |= DatatypeDateTime
	}
	if isBase64(word) {
		d |= DatatypeBase64
	}
	if isIPAddress(word) {
		d |= DatatypeIPAddress
	}
	d |= DatatypeString // string is the always-true fallback
	c.cache.Add(key, d)
	return d
}

// Classify narrows `permitted` by removing any type that fails for any word
// in words: "the classifier starts from the permitted set and
// removes any type that fails any word."
func (c *Classifier) Classify(permitted Datatype, words [][]byte) Datatype {
	remaining := permitted
	for _, w := range words {
		remaining &= c.classifyWord(w)
		if remaining == 0 {
			return 0
		}
	}
	return remaining
}

// isInteger: "optional sign, all-digit tail; empty string fails."
func isInteger(w []byte) bool {
	if len(w) == 0 {
		return false
	}
	s := w
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	for _, b := range s {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// isFloat: "parses as real, last character is a digit, and removing a single
// '.' yields all digits."
func isFloat(w []byte) bool {
	if len(w) == 0 || w[len(w)-1] < '0' || w[len(w)-1] > '9' {
		return false
	}
	if _, err := strconv.ParseFloat(string(w), 64); err != nil {
		return false
	}
	dotIdx := -1
	for i, b := range w {
		if b == '.' {
			if dotIdx != -1 {
				return false // more than one '.'
			}
			dotIdx = i
		}
	}
	if dotIdx == -1 {
		return false // no '.' means it parsed as an integer shape, not a float
	}
	without := make([]byte, 0, len(w)-1)
	for i, b := range w {
		if i == dotIdx {
			continue
		}
		if b == '+' || b == '-' {
			continue
		}
		without = append(without, b)
	}
	if len(without) == 0 {
		return false
	}
	for _, b := range without {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

// isHex: "parses as base-16."
func isHex(w []byte) bool {
	if len(w) == 0 {
		return false
	}
	s := w
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) == 0 {
		return false
	}
	_, err := strconv.ParseUint(string(s), 16, 64)
	return err == nil
}

// isDateTime: "parses as a natural-language timestamp and contains ':'."
func isDateTime(w []byte) bool {
	if !containsByte(w, ':') {
		return false
	}
	s := string(w)
	for _, layout := range dateTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// isBase64: "decodes without padding errors."
func isBase64(w []byte) bool {
	if len(w) == 0 || len(w)%4 != 0 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(string(w))
	return err == nil
}

// isIPAddress: "parses as IPv4 or IPv6."
func isIPAddress(w []byte) bool {
	return net.ParseIP(string(w)) != nil
}

func containsByte(w []byte, b byte) bool {
	for _, c := range w {
		if c == b {
			return true
		}
	}
	return false
}

// dateTimeLayouts covers the common natural-language timestamp shapes a
// syslog/audit corpus exhibits.
var dateTimeLayouts = []string{
	"15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Jan_2_15:04:05",
	"Jan_02_15:04:05",
	"02/Jan/2006:15:04:05",
	"Mon_Jan_2_15:04:05_2006",
}
