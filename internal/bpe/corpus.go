// Package bpe implements merge induction and merge application shared by the
// word-level and byte-level BPE engines. Tokens are plain strings; the byte
// engine simply uses one-byte strings as its base symbols.
package bpe

import (
	"encoding/binary"
	"strings"
)

// Pair is an ordered pair of adjacent tokens inside one word.
type Pair struct {
	Left  string
	Right string
}

// Merge is a learned rule: every adjacent Pair becomes Replacement.
// Rules are kept in a slice in training order; that order is the application
// order.
type Merge struct {
	Pair        Pair
	Replacement string
}

// NewMerge builds the rule for p with the concatenated replacement.
func NewMerge(p Pair) Merge {
	return Merge{Pair: p, Replacement: p.Left + p.Right}
}

// Word is a token sequence plus the number of times it occurs in the corpus.
type Word struct {
	Tokens []string
	Count  int
}

// Corpus is a multiset of words. Identical token sequences collapse into one
// entry with a summed count; entries keep the order of their first occurrence.
type Corpus struct {
	words []Word
	index map[string]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{index: make(map[string]int)}
}

// Add records count occurrences of tokens. The slice is copied.
func (c *Corpus) Add(tokens []string, count int) {
	if len(tokens) == 0 || count <= 0 {
		return
	}

	key := wordKey(tokens)
	if i, ok := c.index[key]; ok {
		c.words[i].Count += count
		return
	}

	c.index[key] = len(c.words)
	c.words = append(c.words, Word{Tokens: append([]string(nil), tokens...), Count: count})
}

// Len returns the number of distinct words.
func (c *Corpus) Len() int { return len(c.words) }

// Words returns the distinct words in first-occurrence order. The result
// aliases the corpus and must be treated as read-only.
func (c *Corpus) Words() []Word { return c.words }

// wordKey length-prefixes every token so byte tokens containing arbitrary
// values cannot collide.
func wordKey(tokens []string) string {
	var sb strings.Builder

	var lenBuf [binary.MaxVarintLen64]byte
	for _, tok := range tokens {
		n := binary.PutUvarint(lenBuf[:], uint64(len(tok)))
		sb.Write(lenBuf[:n])
		sb.WriteString(tok)
	}

	return sb.String()
}
