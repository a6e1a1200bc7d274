package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeSplitsOnDelimitersAsOwnTokens(t *testing.T) {
	delims := map[byte]bool{' ': true, '=': true}
	tl, ok := Tokenize([]byte("key=value here"), 0, -1, delims)
	require.True(t, ok)

	require.Equal(t, "key", string(tl.Words[0].Bytes))
	require.True(t, tl.Words[1].IsDelimiter)
	require.Equal(t, "=", string(tl.Words[1].Bytes))
	require.Equal(t, "value", string(tl.Words[2].Bytes))
	require.True(t, tl.Words[3].IsDelimiter)
	require.Equal(t, "here", string(tl.Words[4].Bytes))
}

func TestTokenizeDropsEmptyLines(t *testing.T) {
	delims := map[byte]bool{' ': true}
	_, ok := Tokenize([]byte("   \t  "), 0, -1, delims)
	require.False(t, ok)
}

func TestTokenizeStripsNonPrintableBytes(t *testing.T) {
	delims := map[byte]bool{' ': true}
	tl, ok := Tokenize([]byte("hi\x00\x01 there"), 0, -1, delims)
	require.True(t, ok)
	require.Equal(t, "hi", string(tl.Words[0].Bytes))
}

func TestTokenizePeelsTimestamp(t *testing.T) {
	delims := map[byte]bool{' ': true}
	tl, ok := Tokenize([]byte("Jan 2 10:00:00 host message"), 0, 15, delims)
	require.True(t, ok)
	require.Equal(t, "Jan 2 10:00:00 ", string(tl.Timestamp))
	require.Equal(t, "host", string(tl.Words[0].Bytes))
}

func TestTokenizeAllDropsEmptiesAndRenumbers(t *testing.T) {
	delims := map[byte]bool{' ': true}
	lines := [][]byte{[]byte("a b"), []byte(""), []byte("c d")}
	out := TokenizeAll(lines, -1, delims)
	require.Len(t, out, 2)
	require.Equal(t, 0, out[0].LineNumber)
	require.Equal(t, 1, out[1].LineNumber)
}
