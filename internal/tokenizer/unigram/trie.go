package unigram

import "math"

type trieNode struct {
	children map[rune]*trieNode
	piece    int // index into the piece list, -1 for inner nodes
	depth    int
}

func newTrieNode(depth int) *trieNode {
	return &trieNode{children: make(map[rune]*trieNode), piece: -1, depth: depth}
}

// trie indexes pieces by their runes for common-prefix search.
type trie struct {
	root *trieNode
}

func newTrie(pieces []Piece) *trie {
	t := &trie{root: newTrieNode(0)}
	for i, p := range pieces {
		t.insert(p.Text, i)
	}

	return t
}

func (t *trie) insert(piece string, index int) {
	node := t.root
	for _, r := range piece {
		child, ok := node.children[r]
		if !ok {
			child = newTrieNode(node.depth + 1)
			node.children[r] = child
		}

		node = child
	}

	node.piece = index
}

// prefixes appends to out every piece that is a prefix of runes and at most
// limit runes long, shortest first.
func (t *trie) prefixes(runes []rune, limit int, out []*trieNode) []*trieNode {
	node := t.root
	for i, r := range runes {
		if i >= limit {
			break
		}

		child, ok := node.children[r]
		if !ok {
			break
		}

		if child.piece >= 0 {
			out = append(out, child)
		}

		node = child
	}

	return out
}

// span is one unit of a segmentation. piece is -1 for a fallback character
// that no piece covers.
type span struct {
	start, end int
	piece      int
}

// viterbi finds the segmentation of runes with the lowest total score.
// Candidates from each position are tried longest first and replace the
// current best only on a strict improvement. A position no piece reaches is
// bridged by a single unscored character.
func viterbi(runes []rune, pieces []Piece, t *trie, maxLen int) []span {
	n := len(runes)
	if n == 0 {
		return nil
	}

	best := make([]float64, n+1)
	back := make([]span, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(1)
	}

	var matches []*trieNode
	for i := 0; i < n; i++ {
		matches = t.prefixes(runes[i:], maxLen, matches[:0])

		for j := len(matches) - 1; j >= 0; j-- {
			node := matches[j]
			end := i + node.depth

			if cand := best[i] + pieces[node.piece].Score; cand < best[end] {
				best[end] = cand
				back[end] = span{start: i, end: end, piece: node.piece}
			}
		}

		if math.IsInf(best[i+1], 1) {
			best[i+1] = best[i]
			back[i+1] = span{start: i, end: i + 1, piece: -1}
		}
	}

	var out []span
	for end := n; end > 0; end = back[end].start {
		out = append(out, back[end])
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out
}
